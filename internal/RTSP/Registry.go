package RTSP

import (
	"sync"

	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Logger"
	"go.uber.org/zap"
)

// SessionRegistry counts attached connections and owns the shared session.
// Attach, Detach, creation and release happen under one mutex, so the
// session exists exactly while at least one connection is attached.
type SessionRegistry struct {
	mu       sync.Mutex
	cond     *sync.Cond
	factory  SessionFactory
	handlers map[*RtspConn]struct{}
	session  *Session
	draining bool
	closed   bool
}

func NewSessionRegistry(factory SessionFactory) *SessionRegistry {
	r := &SessionRegistry{
		factory:  factory,
		handlers: make(map[*RtspConn]struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Attach registers h, creating the session when h is the first. After a
// media pipeline failure it blocks until every old connection has left.
func (r *SessionRegistry) Attach(h *RtspConn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.draining && !r.closed {
		r.cond.Wait()
	}
	if r.closed {
		return false
	}
	r.handlers[h] = struct{}{}
	if r.session == nil {
		s := newSession(r.fail)
		if err := r.factory.CreateSession(s); err != nil {
			Logger.GetLogger().Error("create session fail: "+err.Error(), zap.String("remote", h.remote))
		} else {
			r.session = s
			Logger.GetLogger().Info("session created", zap.String("session", s.Id), zap.Int("streams", len(s.Streams())))
		}
	}
	return true
}

// Detach unregisters h and releases the session when h was the last.
func (r *SessionRegistry) Detach(h *RtspConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.handlers[h]; !ok {
		return
	}
	delete(r.handlers, h)
	if len(r.handlers) > 0 {
		return
	}
	if s := r.session; s != nil {
		r.session = nil
		r.factory.ReleaseSession(s)
		Logger.GetLogger().Info("session released", zap.String("session", s.Id))
	}
	r.draining = false
	r.cond.Broadcast()
}

func (r *SessionRegistry) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

func (r *SessionRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}

func (r *SessionRegistry) snapshot() []*RtspConn {
	conns := make([]*RtspConn, 0, len(r.handlers))
	for h := range r.handlers {
		conns = append(conns, h)
	}
	return conns
}

// fail closes every attached connection after s reported a media error.
func (r *SessionRegistry) fail(s *Session, err error) {
	r.mu.Lock()
	if r.session != s || len(r.handlers) == 0 {
		r.mu.Unlock()
		return
	}
	r.draining = true
	conns := r.snapshot()
	r.mu.Unlock()
	Logger.GetLogger().Error("media pipeline fail: "+err.Error(),
		zap.String("session", s.Id), zap.Int("connections", len(conns)))
	for _, h := range conns {
		h.stop()
	}
}

// CloseAll refuses further attaches and closes every connection.
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	r.closed = true
	conns := r.snapshot()
	r.cond.Broadcast()
	r.mu.Unlock()
	for _, h := range conns {
		h.stop()
	}
}
