package app

import (
	"sync/atomic"

	"git.hub.com/wangyl/RTSP_ENGINE/internal/RTSP"
	"git.hub.com/wangyl/RTSP_ENGINE/internal/SDP"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Logger"
	"go.uber.org/zap"
)

// RtspPlayer pulls a url and logs what arrives.
type RtspPlayer struct {
	Client *RTSP.RtspClient

	rtpPackets  uint64
	rtcpPackets uint64
	lastErr     atomic.Value
}

func NewRtspPlayer(conf RTSP.ClientConfig) *RtspPlayer {
	p := &RtspPlayer{}
	p.Client = RTSP.NewRtspClient(conf, p)
	return p
}

func (p *RtspPlayer) Start() {
	p.Client.Start()
}

func (p *RtspPlayer) Stop() {
	p.Client.Stop()
	p.logStats()
}

// Done is closed when the session ends on its own.
func (p *RtspPlayer) Done() <-chan struct{} {
	return p.Client.Done()
}

func (p *RtspPlayer) Err() *RTSP.RtspError {
	if err, ok := p.lastErr.Load().(*RTSP.RtspError); ok {
		return err
	}
	return nil
}

func (p *RtspPlayer) RtpPackets() uint64 {
	return atomic.LoadUint64(&p.rtpPackets)
}

func (p *RtspPlayer) logStats() {
	fields := []zap.Field{
		zap.Uint64("rtp", atomic.LoadUint64(&p.rtpPackets)),
		zap.Uint64("rtcp", atomic.LoadUint64(&p.rtcpPackets)),
	}
	for _, t := range p.Client.Tracks() {
		st := t.Stats()
		fields = append(fields, zap.Uint64("lost_"+t.Media.Type, st.RtpLost))
	}
	Logger.GetLogger().Info("player stats", fields...)
}

func (p *RtspPlayer) OnConnected(c *RTSP.RtspClient) {
	Logger.GetLogger().Info("player connected", zap.String("rtsp_addr", c.Conf.Url))
}

func (p *RtspPlayer) OnDisconnected(c *RTSP.RtspClient) {
	Logger.GetLogger().Info("player disconnected", zap.String("rtsp_addr", c.Conf.Url))
}

func (p *RtspPlayer) OnError(c *RTSP.RtspClient, err *RTSP.RtspError) {
	p.lastErr.Store(err)
	Logger.GetLogger().Error("player error: "+err.Error(), zap.String("rtsp_addr", c.Conf.Url),
		zap.Int("status", int(err.Status)))
}

func (p *RtspPlayer) OnSdpReceived(c *RTSP.RtspClient, sd *SDP.SessionDescription) {
	for _, md := range sd.Medias {
		Logger.GetLogger().Info("sdp media", zap.String("type", md.Type), zap.String("rtpmap", md.RtpMap),
			zap.String("control", md.Control))
	}
}

func (p *RtspPlayer) OnRtpReceived(c *RTSP.RtspClient, track *RTSP.TrackContext, data []byte) {
	if n := atomic.AddUint64(&p.rtpPackets, 1); n == 1 || n%1000 == 0 {
		Logger.GetLogger().Debug("rtp received", zap.Int("track", track.Index), zap.Uint64("packets", n))
	}
}

func (p *RtspPlayer) OnRtcpReceived(c *RTSP.RtspClient, track *RTSP.TrackContext, data []byte) {
	atomic.AddUint64(&p.rtcpPackets, 1)
}
