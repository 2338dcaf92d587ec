package app

import (
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"git.hub.com/wangyl/RTSP_ENGINE/internal/RTSP"
	"github.com/pion/rtp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// sourceFactory is an upstream camera with a single H264 track.
type sourceFactory struct {
	mu       sync.Mutex
	sessions []*RTSP.Session
}

func (f *sourceFactory) CreateSession(s *RTSP.Session) error {
	s.AddStream(RTSP.NewMediaStream("0", RTSP.TrackFormat{MediaType: "video", PayloadType: 96, RtpMap: "H264/90000"}))
	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()
	return nil
}

func (f *sourceFactory) ReleaseSession(*RTSP.Session) {}

func serverConf() RTSP.ServerConfig {
	return RTSP.ServerConfig{ServerName: "test", ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}
}

func urlOf(srv *RTSP.RtspServer) string {
	return fmt.Sprintf("rtsp://127.0.0.1:%d/live", srv.Addr().(*net.TCPAddr).Port)
}

func startRelay(t *testing.T) (*RTSP.RtspServer, *RTSP.RtspServer, *RelayFactory) {
	upstream := RTSP.NewRtspServer(serverConf(), &sourceFactory{})
	require.NoError(t, upstream.Serve())
	t.Cleanup(upstream.Stop)

	factory := NewRelayFactory(RTSP.ClientConfig{Url: urlOf(upstream), KeepAliveInterval: 50 * time.Millisecond}, 3*time.Second)
	relay := RTSP.NewRtspServer(serverConf(), factory)
	require.NoError(t, relay.Serve())
	t.Cleanup(relay.Stop)
	return upstream, relay, factory
}

func TestRelayForwardsMedia(t *testing.T) {
	upstream, relay, _ := startRelay(t)

	player := NewRtspPlayer(RTSP.ClientConfig{Url: urlOf(relay), KeepAliveInterval: time.Hour})
	player.Start()
	defer player.Stop()
	require.Eventually(t, func() bool { return player.Client.State() == RTSP.StatePlaying }, 5*time.Second, 10*time.Millisecond)

	source := upstream.Registry.Session().Stream("0")
	require.Equal(t, 1, source.SubscriberCount())
	mirror := relay.Registry.Session().Stream("0")
	require.NotNil(t, mirror)
	require.Equal(t, "H264/90000", mirror.Format.RtpMap)

	require.Eventually(t, func() bool {
		_ = source.WriteRTP(&rtp.Packet{
			Header:  rtp.Header{Version: 2, PayloadType: 96, SequenceNumber: 7},
			Payload: []byte{0x65},
		})
		return player.RtpPackets() > 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRelayUpstreamFailureClosesClients(t *testing.T) {
	upstream, relay, _ := startRelay(t)

	player := NewRtspPlayer(RTSP.ClientConfig{Url: urlOf(relay), KeepAliveInterval: 50 * time.Millisecond})
	player.Start()
	defer player.Stop()
	require.Eventually(t, func() bool { return player.Client.State() == RTSP.StatePlaying }, 5*time.Second, 10*time.Millisecond)

	// both clients notice the closed control connection on their next keep-alive
	upstream.Registry.Session().ReportError(errors.New("camera unplugged"))

	select {
	case <-player.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("player still attached after the upstream failed")
	}
	require.NotNil(t, player.Err())
	require.Eventually(t, func() bool { return relay.Registry.Count() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestRelayWithoutUpstream(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	dead := "rtsp://" + ln.Addr().String() + "/live"
	ln.Close()

	factory := NewRelayFactory(RTSP.ClientConfig{Url: dead, ConnectTimeout: time.Second}, time.Second)
	relay := RTSP.NewRtspServer(serverConf(), factory)
	require.NoError(t, relay.Serve())
	t.Cleanup(relay.Stop)

	player := NewRtspPlayer(RTSP.ClientConfig{Url: urlOf(relay), KeepAliveInterval: time.Hour})
	player.Start()
	select {
	case <-player.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("player did not fail")
	}
	require.Equal(t, RTSP.StatusInternalServerError, player.Err().Status)
}
