package RTSP

import (
	"net"
	"sync"

	"git.hub.com/wangyl/RTSP_ENGINE/internal/SDP"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Snowflake"
)

// SessionFactory populates a session when the first client attaches and
// releases it after the last one leaves. Each is called once per session.
type SessionFactory interface {
	CreateSession(s *Session) error
	ReleaseSession(s *Session)
}

// SessionStarter is an optional SessionFactory extension called on the
// first PLAY of a session.
type SessionStarter interface {
	StartSession(s *Session) error
}

// SessionDescriber is an optional SessionFactory extension that replaces
// the SDP generated from the session's streams.
type SessionDescriber interface {
	DescribeSession(s *Session, remote, local net.Addr) ([]byte, error)
}

// Session is the broadcast shared by every attached connection.
type Session struct {
	Id   string
	Name string

	mu      sync.RWMutex
	streams []*MediaStream
	playing bool
	startMu sync.Mutex

	errOnce sync.Once
	onError func(error)
}

func newSession(onError func(*Session, error)) *Session {
	s := &Session{
		Id:   Snowflake.GenerateSessionId(),
		Name: "RTSP_ENGINE",
	}
	s.onError = func(err error) {
		onError(s, err)
	}
	return s
}

func (s *Session) AddStream(ms *MediaStream) {
	s.mu.Lock()
	s.streams = append(s.streams, ms)
	s.mu.Unlock()
}

func (s *Session) Streams() []*MediaStream {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*MediaStream, len(s.streams))
	copy(out, s.streams)
	return out
}

func (s *Session) Stream(trackID string) *MediaStream {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ms := range s.streams {
		if ms.TrackID == trackID {
			return ms
		}
	}
	return nil
}

func (s *Session) IsPlaying() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playing
}

// start runs starter once for the whole session; later PLAYs only confirm.
func (s *Session) start(starter SessionStarter) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.IsPlaying() {
		return nil
	}
	if starter != nil {
		if err := starter.StartSession(s); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
	return nil
}

// ReportError is how the media pipeline signals a fault. Every connection
// attached to the session is closed; only the first report counts.
func (s *Session) ReportError(err error) {
	s.errOnce.Do(func() {
		if s.onError != nil {
			go s.onError(err)
		}
	})
}

func (s *Session) describe(remote, local net.Addr, multicast net.IP, ttl int) ([]byte, error) {
	params := SDP.BuildParams{
		SessionName: s.Name,
		Local:       addrIP(local),
		Remote:      addrIP(remote),
	}
	if multicast != nil {
		params.Remote = multicast
		params.TTL = ttl
	}
	for _, ms := range s.Streams() {
		params.Tracks = append(params.Tracks, ms.trackParams())
	}
	return SDP.Build(params)
}

func addrIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	}
	if addr == nil {
		return nil
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}
