package app

import (
	"strconv"
	"sync"
	"time"

	"git.hub.com/wangyl/RTSP_ENGINE/internal/RTSP"
	"git.hub.com/wangyl/RTSP_ENGINE/internal/SDP"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Logger"
	"github.com/pion/rtp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RelayFactory feeds each server session from an upstream RTSP source. The
// upstream client lives exactly as long as the session.
type RelayFactory struct {
	ClientConf RTSP.ClientConfig
	SdpWait    time.Duration

	mu     sync.Mutex
	relays map[*RTSP.Session]*relay
}

func NewRelayFactory(clientConf RTSP.ClientConfig, sdpWait time.Duration) *RelayFactory {
	if sdpWait <= 0 {
		sdpWait = 10 * time.Second
	}
	return &RelayFactory{
		ClientConf: clientConf,
		SdpWait:    sdpWait,
		relays:     make(map[*RTSP.Session]*relay),
	}
}

func (f *RelayFactory) CreateSession(s *RTSP.Session) error {
	r := &relay{
		session: s,
		sdpCh:   make(chan struct{}),
	}
	r.client = RTSP.NewRtspClient(f.ClientConf, r)
	r.client.Start()
	select {
	case <-r.sdpCh:
	case <-r.client.Done():
		return errors.Errorf("upstream %s ended before sdp", f.ClientConf.Url)
	case <-time.After(f.SdpWait):
		r.client.Stop()
		return errors.Errorf("upstream %s sdp timeout", f.ClientConf.Url)
	}
	f.mu.Lock()
	f.relays[s] = r
	f.mu.Unlock()
	return nil
}

// StartSession holds the first PLAY until the upstream is playing too.
func (f *RelayFactory) StartSession(s *RTSP.Session) error {
	f.mu.Lock()
	r, ok := f.relays[s]
	f.mu.Unlock()
	if !ok {
		return errors.New("no upstream for session")
	}
	deadline := time.Now().Add(f.SdpWait)
	for r.client.State() != RTSP.StatePlaying {
		select {
		case <-r.client.Done():
			return errors.New("upstream ended")
		case <-time.After(20 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			return errors.New("upstream not playing")
		}
	}
	return nil
}

func (f *RelayFactory) ReleaseSession(s *RTSP.Session) {
	f.mu.Lock()
	r, ok := f.relays[s]
	delete(f.relays, s)
	f.mu.Unlock()
	if ok {
		r.client.Stop()
	}
}

type relay struct {
	RTSP.BaseClientListener
	session *RTSP.Session
	client  *RTSP.RtspClient

	sdpOnce sync.Once
	sdpCh   chan struct{}

	mu      sync.RWMutex
	streams []*RTSP.MediaStream
}

func formatOf(md *SDP.MediaDescription) RTSP.TrackFormat {
	f := RTSP.TrackFormat{
		MediaType: md.Type,
		RtpMap:    md.RtpMap,
		Fmtp:      md.Fmtp,
	}
	if md.PayloadType >= 0 {
		f.PayloadType = uint8(md.PayloadType)
	}
	return f
}

// OnSdpReceived runs before any SETUP, so the streams exist before media.
func (r *relay) OnSdpReceived(_ *RTSP.RtspClient, sd *SDP.SessionDescription) {
	streams := make([]*RTSP.MediaStream, 0, len(sd.Medias))
	for i, md := range sd.Medias {
		ms := RTSP.NewMediaStream(strconv.Itoa(i), formatOf(md))
		r.session.AddStream(ms)
		streams = append(streams, ms)
	}
	r.mu.Lock()
	r.streams = streams
	r.mu.Unlock()
	r.sdpOnce.Do(func() { close(r.sdpCh) })
}

func (r *relay) stream(track *RTSP.TrackContext) *RTSP.MediaStream {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if track.Index < 0 || track.Index >= len(r.streams) {
		return nil
	}
	return r.streams[track.Index]
}

func (r *relay) OnRtpReceived(_ *RTSP.RtspClient, track *RTSP.TrackContext, data []byte) {
	ms := r.stream(track)
	if ms == nil {
		return
	}
	var pkt rtp.Packet
	if err := pkt.Unmarshal(data); err != nil {
		return
	}
	if err := ms.WriteRTP(&pkt); err != nil {
		Logger.GetLogger().Debug("relay rtp fail: "+err.Error(), zap.String("track", ms.TrackID))
	}
}

func (r *relay) OnRtcpReceived(_ *RTSP.RtspClient, track *RTSP.TrackContext, data []byte) {
	if ms := r.stream(track); ms != nil {
		ms.WriteRTCP(data)
	}
}

// OnError turns an upstream failure into a media pipeline error, which
// closes every client of the session.
func (r *relay) OnError(c *RTSP.RtspClient, err *RTSP.RtspError) {
	Logger.GetLogger().Error("upstream fail: "+err.Error(), zap.String("rtsp_addr", c.Conf.Url))
	r.session.ReportError(err)
}
