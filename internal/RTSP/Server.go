package RTSP

import (
	"fmt"
	"net"
	"sync"
	"time"

	"git.hub.com/wangyl/RTSP_ENGINE/internal/RTP"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Logger"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Port             int
	ServerName       string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	RtpPorts         RTP.PortRange
	SessionTimeout   time.Duration
	MulticastAddress net.IP
	MulticastTTL     int
}

type RtspServer struct {
	Conf     ServerConfig
	Registry *SessionRegistry

	factory    SessionFactory
	listener   net.Listener
	acceptDone chan struct{}
	wg         sync.WaitGroup

	mu     sync.Mutex
	Closed bool
	Exit   chan struct{}
}

func NewRtspServer(conf ServerConfig, factory SessionFactory) *RtspServer {
	if conf.SessionTimeout == 0 {
		conf.SessionTimeout = 60 * time.Second
	}
	return &RtspServer{
		Conf:     conf,
		Registry: NewSessionRegistry(factory),
		factory:  factory,
		Exit:     make(chan struct{}),
	}
}

// Serve binds the listening socket and accepts in the background.
func (s *RtspServer) Serve() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.Conf.Port))
	if err != nil {
		return err
	}
	s.listener = listener
	s.acceptDone = make(chan struct{})
	Logger.GetLogger().Info("rtsp server listening", zap.String("addr", listener.Addr().String()))
	go s.handleConn()
	return nil
}

func (s *RtspServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *RtspServer) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Closed
}

func (s *RtspServer) handleConn() {
	defer close(s.acceptDone)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isClosed() {
				return
			}
			Logger.GetLogger().Error("accept err: " + err.Error())
			time.Sleep(10 * time.Millisecond)
			continue
		}
		s.wg.Add(1)
		c := newRtspConn(conn, s)
		go c.start()
	}
}

// Stop closes the listener, which ends the accept loop, then every
// connection, and waits for the handlers to clean up.
func (s *RtspServer) Stop() {
	s.mu.Lock()
	if s.Closed {
		s.mu.Unlock()
		return
	}
	s.Closed = true
	close(s.Exit)
	s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		<-s.acceptDone
	}
	s.Registry.CloseAll()
	s.wg.Wait()
	Logger.GetLogger().Info("rtsp server stopped")
}
