package RTSP

import (
	"crypto/rand"
	"encoding/binary"
	"net"
	"sync"

	"git.hub.com/wangyl/RTSP_ENGINE/internal/RTP"
	"git.hub.com/wangyl/RTSP_ENGINE/internal/SDP"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Logger"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"go.uber.org/zap"
)

type TrackFormat struct {
	MediaType   string
	PayloadType uint8
	RtpMap      string
	Fmtp        string
}

// Subscriber is one client's UDP leg of a track, created by SETUP.
type Subscriber struct {
	SessionId   string
	Transport   *RTP.Transport
	Destination net.IP
	ClientPorts [2]int
}

// MediaStream binds a track id to the transports of every client that set it
// up. Writers may run on any goroutine.
type MediaStream struct {
	TrackID string
	Format  TrackFormat
	ssrc    uint32

	mu          sync.RWMutex
	subscribers map[string]*Subscriber
}

func NewMediaStream(trackID string, format TrackFormat) *MediaStream {
	return &MediaStream{
		TrackID:     trackID,
		Format:      format,
		ssrc:        randomSSRC(),
		subscribers: make(map[string]*Subscriber),
	}
}

func randomSSRC() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0x5eed0001
	}
	return binary.BigEndian.Uint32(b[:])
}

func (m *MediaStream) SSRC() uint32 {
	return m.ssrc
}

func (m *MediaStream) trackParams() SDP.TrackParams {
	return SDP.TrackParams{
		TrackID:     m.TrackID,
		MediaType:   m.Format.MediaType,
		PayloadType: m.Format.PayloadType,
		RtpMap:      m.Format.RtpMap,
		Fmtp:        m.Format.Fmtp,
	}
}

// subscribe records sub and returns the subscriber it replaced, if the same
// session set the track up twice.
func (m *MediaStream) subscribe(sub *Subscriber) *Subscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	old := m.subscribers[sub.SessionId]
	m.subscribers[sub.SessionId] = sub
	return old
}

func (m *MediaStream) unsubscribe(sessionId string) *Subscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subscribers[sessionId]
	if !ok {
		return nil
	}
	delete(m.subscribers, sessionId)
	return sub
}

func (m *MediaStream) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers)
}

func (m *MediaStream) snapshot() []*Subscriber {
	m.mu.RLock()
	defer m.mu.RUnlock()
	subs := make([]*Subscriber, 0, len(m.subscribers))
	for _, sub := range m.subscribers {
		subs = append(subs, sub)
	}
	return subs
}

// WritePacket sends an already marshaled RTP packet to every subscriber.
func (m *MediaStream) WritePacket(data []byte) {
	for _, sub := range m.snapshot() {
		if err := sub.Transport.WriteRTP(data); err != nil {
			Logger.GetLogger().Debug("write rtp fail: "+err.Error(),
				zap.String("track", m.TrackID), zap.String("session", sub.SessionId))
		}
	}
}

// WriteRTP stamps the stream SSRC on pkt before sending it.
func (m *MediaStream) WriteRTP(pkt *rtp.Packet) error {
	pkt.SSRC = m.ssrc
	data, err := pkt.Marshal()
	if err != nil {
		return err
	}
	m.WritePacket(data)
	return nil
}

func (m *MediaStream) WriteRTCP(data []byte) {
	for _, sub := range m.snapshot() {
		if err := sub.Transport.WriteRTCP(data); err != nil {
			Logger.GetLogger().Debug("write rtcp fail: "+err.Error(),
				zap.String("track", m.TrackID), zap.String("session", sub.SessionId))
		}
	}
}

func (m *MediaStream) WriteSenderReport(ntpTime uint64, rtpTime uint32, packets, octets uint32) error {
	data, err := (&rtcp.SenderReport{
		SSRC:        m.ssrc,
		NTPTime:     ntpTime,
		RTPTime:     rtpTime,
		PacketCount: packets,
		OctetCount:  octets,
	}).Marshal()
	if err != nil {
		return err
	}
	m.WriteRTCP(data)
	return nil
}
