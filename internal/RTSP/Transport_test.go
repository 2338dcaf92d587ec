package RTSP

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTransportHeader(t *testing.T) {
	th, err := ParseTransportHeader("RTP/AVP/UDP;unicast;client_port=5000-5001;server_port=20000-20001;ssrc=0A1B2C3D;mode=\"PLAY\",RTP/AVP/TCP;interleaved=0-1")
	require.NoError(t, err)
	require.Equal(t, "RTP/AVP/UDP", th.Protocol)
	require.False(t, th.Multicast)
	require.False(t, th.IsTCP())
	require.Equal(t, [2]int{5000, 5001}, *th.ClientPorts)
	require.Equal(t, [2]int{20000, 20001}, *th.ServerPorts)
	require.Equal(t, uint32(0x0A1B2C3D), *th.SSRC)
	require.Equal(t, "PLAY", th.Mode)

	th, err = ParseTransportHeader("RTP/AVP;multicast;destination=239.0.0.1;port=6000-6001;ttl=16")
	require.NoError(t, err)
	require.True(t, th.Multicast)
	require.Equal(t, "239.0.0.1", th.Destination)
	require.Equal(t, [2]int{6000, 6001}, *th.Ports)
	require.Equal(t, 16, th.TTL)

	th, err = ParseTransportHeader("RTP/AVP/TCP;unicast;interleaved=0-1")
	require.NoError(t, err)
	require.True(t, th.IsTCP())

	_, err = ParseTransportHeader("RAW/RAW/UDP;unicast")
	require.Error(t, err)
	_, err = ParseTransportHeader("RTP/AVP;client_port=abc")
	require.Error(t, err)
}

func TestTransportHeaderString(t *testing.T) {
	ssrc := uint32(0xBEEF)
	th := &TransportHeader{
		Protocol:    "RTP/AVP",
		Destination: "127.0.0.1",
		ClientPorts: &[2]int{5000, 5001},
		ServerPorts: &[2]int{20000, 20001},
		SSRC:        &ssrc,
		Mode:        "play",
	}
	require.Equal(t, "RTP/AVP;unicast;destination=127.0.0.1;client_port=5000-5001;server_port=20000-20001;ssrc=0000BEEF;mode=play", th.String())

	back, err := ParseTransportHeader(th.String())
	require.NoError(t, err)
	require.Equal(t, th, back)
}

func TestExtractTrackID(t *testing.T) {
	for uri, want := range map[string]string{
		"rtsp://h/live/trackID=1":          "1",
		"rtsp://h/live/trackID=video_0":    "video_0",
		"rtsp://h/live/trackID=2/extra":    "2",
		"rtsp://h:554/trackID=12?token=ab": "12",
	} {
		id, ok := ExtractTrackID(uri)
		require.True(t, ok, uri)
		require.Equal(t, want, id, uri)
	}
	for _, uri := range []string{"rtsp://h/live", "rtsp://h/live/trackID=", "rtsp://h/trackid=1"} {
		_, ok := ExtractTrackID(uri)
		require.False(t, ok, uri)
	}
}

func TestExtractClientPorts(t *testing.T) {
	rtp, rtcp, ok := ExtractClientPorts("RTP/AVP;unicast;client_port=5000-5001")
	require.True(t, ok)
	require.Equal(t, 5000, rtp)
	require.Equal(t, 5001, rtcp)

	_, _, ok = ExtractClientPorts("RTP/AVP;unicast")
	require.False(t, ok)
	_, _, ok = ExtractClientPorts("RTP/AVP;client_port=5000")
	require.False(t, ok)
}

func TestParseSessionHeader(t *testing.T) {
	id, timeout := ParseSessionHeader("12345678;timeout=60")
	require.Equal(t, "12345678", id)
	require.Equal(t, time.Minute, timeout)

	id, timeout = ParseSessionHeader(" abc ")
	require.Equal(t, "abc", id)
	require.Zero(t, timeout)

	_, timeout = ParseSessionHeader("abc;timeout=x")
	require.Zero(t, timeout)
}
