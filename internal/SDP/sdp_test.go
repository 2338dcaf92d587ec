package SDP

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const cameraSdp = "v=0\r\n" +
	"o=- 1109162014219182 1109162014219192 IN IP4 192.168.1.10\r\n" +
	"s=Media Presentation\r\n" +
	"c=IN IP4 0.0.0.0\r\n" +
	"t=0 0\r\n" +
	"a=control:*\r\n" +
	"m=video 0 RTP/AVP 96\r\n" +
	"a=rtpmap:96 H264/90000\r\n" +
	"a=control:trackID=1\r\n" +
	"a=fmtp:96 profile-level-id=4D0014;packetization-mode=0\r\n" +
	"m=audio 0 RTP/AVP 0\r\n" +
	"a=rtpmap:0 PCMU/8000\r\n" +
	"a=control:rtsp://192.168.1.10/live/trackID=2\r\n"

func TestParseSdp(t *testing.T) {
	sd, err := Parse([]byte(cameraSdp))
	require.NoError(t, err)
	require.Equal(t, "*", sd.Control)
	require.Len(t, sd.Medias, 2)

	v := sd.Medias[0]
	require.Equal(t, V_SDP, v.Type)
	require.Equal(t, 96, v.PayloadType)
	require.Equal(t, "H264/90000", v.RtpMap)
	require.Equal(t, "trackID=1", v.Control)
	require.Equal(t, "profile-level-id=4D0014;packetization-mode=0", v.Fmtp)

	a := sd.Medias[1]
	require.Equal(t, A_SDP, a.Type)
	require.Equal(t, 0, a.PayloadType)
	require.Equal(t, "PCMU/8000", a.RtpMap)
}

func TestParseSdpInvalid(t *testing.T) {
	_, err := Parse([]byte("not an sdp"))
	require.Error(t, err)
}

func TestResolveControl(t *testing.T) {
	for _, ca := range []struct {
		name    string
		base    string
		control string
		out     string
	}{
		{"relative", "rtsp://host/live/", "trackID=1", "rtsp://host/live/trackID=1"},
		{"relative no slash", "rtsp://host/live", "trackID=1", "rtsp://host/live/trackID=1"},
		{"absolute", "rtsp://host/live/", "rtsp://other/x/trackID=3", "rtsp://other/x/trackID=3"},
		{"aggregate", "rtsp://host/live", "*", "rtsp://host/live"},
		{"empty", "rtsp://host/live", "", "rtsp://host/live"},
	} {
		t.Run(ca.name, func(t *testing.T) {
			require.Equal(t, ca.out, ResolveControl(ca.base, ca.control))
		})
	}
}

func TestBuildRoundTrip(t *testing.T) {
	body, err := Build(BuildParams{
		SessionName: "camera",
		Local:       net.ParseIP("10.0.0.1"),
		Remote:      net.ParseIP("10.0.0.2"),
		Tracks: []TrackParams{
			{TrackID: "0", MediaType: V_SDP, PayloadType: 96, RtpMap: "H264/90000", Fmtp: "packetization-mode=1"},
			{TrackID: "1", MediaType: A_SDP, PayloadType: 97, RtpMap: "MPEG4-GENERIC/44100/2"},
		},
	})
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "c=IN IP4 10.0.0.2"))
	require.True(t, strings.Contains(string(body), "IN IP4 10.0.0.1"))

	sd, err := Parse(body)
	require.NoError(t, err)
	require.Len(t, sd.Medias, 2)
	require.Equal(t, "trackID=0", sd.Medias[0].Control)
	require.Equal(t, "trackID=1", sd.Medias[1].Control)
	require.Equal(t, 97, sd.Medias[1].PayloadType)
	require.Equal(t, "MPEG4-GENERIC/44100/2", sd.Medias[1].RtpMap)
}
