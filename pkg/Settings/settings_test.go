package Settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadConfigToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.toml")
	err := os.WriteFile(path, []byte(`
[APP]
RtspPort = 8554

[Client]
KeepAliveInterval = 15

[Relay]
Upstream = "rtsp://10.0.0.2/live"
`), 0o644)
	require.NoError(t, err)

	require.NoError(t, ReadConfig(path))
	c := GetConfig()
	require.Equal(t, 8554, c.APP.RtspPort)
	require.Equal(t, 15, c.Client.KeepAliveInterval)
	require.Equal(t, 10, c.Client.ConnectTimeout)
	require.Equal(t, "rtsp://10.0.0.2/live", c.Relay.Upstream)
}

func TestReadConfigYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.yaml")
	err := os.WriteFile(path, []byte("app:\n  rtsp_port: 9554\nserver:\n  session_timeout: 45\n"), 0o644)
	require.NoError(t, err)

	require.NoError(t, ReadConfig(path))
	c := GetConfig()
	require.Equal(t, 9554, c.APP.RtspPort)
	require.Equal(t, 45, c.Server.SessionTimeout)
	require.Equal(t, 30, c.Client.KeepAliveInterval)
}

func TestReadConfigDefaults(t *testing.T) {
	require.NoError(t, ReadConfig(""))
	require.Equal(t, 554, GetConfig().APP.RtspPort)
}

func TestReadConfigBadPortRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte("[Server]\nRtpPortMin = 5000\nRtpPortMax = 4000\n"), 0o644))
	require.Error(t, ReadConfig(path))
}
