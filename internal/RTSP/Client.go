package RTSP

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"git.hub.com/wangyl/RTSP_ENGINE/internal/RTP"
	"git.hub.com/wangyl/RTSP_ENGINE/internal/RichConn"
	"git.hub.com/wangyl/RTSP_ENGINE/internal/SDP"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultConnectTimeout    = 10 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultClientReadTimeout = 10 * time.Second
	defaultStopTimeout       = 5 * time.Second
	teardownTimeout          = 2 * time.Second
)

type ClientConfig struct {
	Url                 string
	ConnectTimeout      time.Duration
	KeepAliveInterval   time.Duration
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	UserAgent           string
	RtpPorts            RTP.PortRange
	HonorSessionTimeout bool
	StopTimeout         time.Duration
}

// RtspClient plays one server url: OPTIONS, DESCRIBE, a SETUP per media,
// PLAY, then OPTIONS keep-alives until stopped. Media arrives over UDP.
type RtspClient struct {
	Conf     ClientConfig
	listener ClientListener
	log      *zap.Logger

	state int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	tracks []*TrackContext

	// owned by the session goroutine
	rawUrl         string
	url            string
	aggregateUrl   string
	conn           *RichConn.ConnRich
	rw             *RichConn.ReaderWriter
	parser         *ResponseParser
	seq            int
	session        string
	sessionTimeout time.Duration
	authLine       string
}

func NewRtspClient(conf ClientConfig, listener ClientListener) *RtspClient {
	if conf.ConnectTimeout <= 0 {
		conf.ConnectTimeout = defaultConnectTimeout
	}
	if conf.KeepAliveInterval <= 0 {
		conf.KeepAliveInterval = defaultKeepAliveInterval
	}
	if conf.ReadTimeout <= 0 {
		conf.ReadTimeout = defaultClientReadTimeout
	}
	if conf.StopTimeout <= 0 {
		conf.StopTimeout = defaultStopTimeout
	}
	if listener == nil {
		listener = BaseClientListener{}
	}
	return &RtspClient{
		Conf:     conf,
		listener: listener,
		log:      Logger.GetLogger().With(zap.String("rtsp_addr", conf.Url)),
	}
}

func (c *RtspClient) State() ClientState {
	return ClientState(atomic.LoadInt32(&c.state))
}

func (c *RtspClient) setState(s ClientState) {
	atomic.StoreInt32(&c.state, int32(s))
	c.log.Debug("client state " + s.String())
}

// Start launches the session goroutine. It does nothing while one runs.
func (c *RtspClient) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		select {
		case <-c.done:
		default:
			return
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
}

// Stop cancels the session and waits up to StopTimeout for it to end. It
// reports whether the goroutine finished in time.
func (c *RtspClient) Stop() bool {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if done == nil {
		return true
	}
	cancel()
	select {
	case <-done:
		return true
	case <-time.After(c.Conf.StopTimeout):
		c.log.Warn("rtsp client stop timed out")
		return false
	}
}

// Done is closed once the current session goroutine has returned.
func (c *RtspClient) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

func (c *RtspClient) Tracks() []*TrackContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*TrackContext, len(c.tracks))
	copy(out, c.tracks)
	return out
}

func (c *RtspClient) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	var err error
	connected := false
	defer func() {
		if p := recover(); p != nil {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			c.log.Error(fmt.Sprintf("panic: %v\n%s", p, buf))
			err = NewRtspError(StatusUnknown, "panic: %v", p)
		}
		c.finalize(ctx, err, connected)
	}()
	if err = c.connect(ctx); err != nil {
		return
	}
	connected = true
	c.listener.OnConnected(c)
	if err = c.negotiate(ctx); err != nil {
		return
	}
	err = c.keepAlive(ctx)
}

func (c *RtspClient) connect(ctx context.Context) error {
	u, err := url.Parse(c.Conf.Url)
	if err != nil {
		return WrapRtspError(StatusUnknown, err, "parse url")
	}
	if u.Scheme != "rtsp" {
		return NewRtspError(StatusUnknown, "unsupported url scheme %q", u.Scheme)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), "554")
	}
	c.rawUrl = u.String()
	u.User = nil
	c.url = u.String()
	c.aggregateUrl = c.url

	dialer := net.Dialer{Timeout: c.Conf.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", u.Host)
	if err != nil {
		return WrapRtspError(StatusUnknown, err, "connect "+u.Host)
	}
	c.conn = RichConn.NewConnRich(conn, c.Conf.ReadTimeout, c.Conf.WriteTimeout)
	c.rw = RichConn.NewReaderWriter(c.conn, 4096)
	c.parser = NewResponseParser(c.rw.Reader)
	c.seq = 0
	c.session = ""
	c.sessionTimeout = 0
	c.authLine = ""
	c.setState(StateConnected)
	c.log.Info("rtsp client connected", zap.String("local", conn.LocalAddr().String()))
	return nil
}

func (c *RtspClient) negotiate(ctx context.Context) error {
	if _, err := c.request(ctx, OPTIONS, c.url, nil); err != nil {
		return err
	}
	c.setState(StateOptionsSent)

	header := make(Header)
	header.Set(Accept, "application/sdp")
	resp, err := c.request(ctx, DESCRIBE, c.url, header)
	if err != nil {
		return err
	}
	base := c.url
	if v := resp.Header.Get(ContentBase); v != "" {
		base = v
	} else if v := resp.Header.Get(ContentLocation); v != "" {
		base = v
	}
	c.setState(StateDescribed)
	if len(resp.Body) > 0 {
		sd, err := SDP.Parse(resp.Body)
		if err != nil {
			return WrapRtspError(StatusUnknown, err, "parse sdp")
		}
		c.listener.OnSdpReceived(c, sd)
		if sd.Control != "" {
			c.aggregateUrl = SDP.ResolveControl(base, sd.Control)
		}
		for i, md := range sd.Medias {
			if err = c.setupTrack(ctx, i, SDP.ResolveControl(base, md.Control), md); err != nil {
				return err
			}
		}
	} else {
		c.log.Warn("describe response without sdp")
	}

	header = make(Header)
	header.Set(Range, "npt=0.000-")
	if _, err = c.request(ctx, PLAY, c.aggregateUrl, header); err != nil {
		return err
	}
	c.setState(StatePlaying)
	c.log.Info("rtsp client playing", zap.Int("tracks", len(c.Tracks())), zap.String("session", c.session))
	return nil
}

// setupTrack binds the receiver before advertising its ports, so packets
// sent right after the SETUP reply are not lost.
func (c *RtspClient) setupTrack(ctx context.Context, index int, trackUrl string, md *SDP.MediaDescription) error {
	track := &TrackContext{Index: index, Media: md, Url: trackUrl}
	receiver, err := RTP.NewReceiver(nil, c.Conf.RtpPorts,
		func(data []byte) { c.listener.OnRtpReceived(c, track, data) },
		func(data []byte) { c.listener.OnRtcpReceived(c, track, data) })
	if err != nil {
		return WrapRtspError(StatusUnknown, err, "open rtp receiver")
	}
	rtpPort, rtcpPort := receiver.LocalPorts()
	track.mu.Lock()
	track.receiver = receiver
	track.clientPorts = [2]int{rtpPort, rtcpPort}
	track.mu.Unlock()
	c.mu.Lock()
	c.tracks = append(c.tracks, track)
	c.mu.Unlock()

	header := make(Header)
	header.Set(Transport, fmt.Sprintf("RTP/AVP;unicast;client_port=%d-%d", rtpPort, rtcpPort))
	resp, err := c.request(ctx, SETUP, trackUrl, header)
	if err != nil {
		return err
	}
	if v, ok := resp.Header.Lookup(Transport); ok {
		th, err := ParseTransportHeader(v)
		if err != nil {
			return WrapRtspError(StatusUnknown, err, "parse setup transport")
		}
		track.negotiated(th)
		if ip := net.ParseIP(th.Destination); th.Multicast && ip != nil && ip.IsMulticast() {
			if err = receiver.JoinGroup(ip); err != nil {
				c.log.Warn("join multicast fail: "+err.Error(), zap.String("group", th.Destination))
			}
		}
	}
	c.setState(StateSetup)
	client, server := track.Ports()
	c.log.Info("track setup", zap.String("url", trackUrl), zap.String("media", md.Type),
		zap.Ints("client_port", client[:]), zap.Ints("server_port", server[:]))
	return nil
}

func (c *RtspClient) keepAliveInterval() time.Duration {
	interval := c.Conf.KeepAliveInterval
	if c.Conf.HonorSessionTimeout && c.sessionTimeout > 0 && c.sessionTimeout/2 < interval {
		interval = c.sessionTimeout / 2
	}
	return interval
}

// keepAlive re-issues OPTIONS until ctx is cancelled.
func (c *RtspClient) keepAlive(ctx context.Context) error {
	timer := time.NewTimer(c.keepAliveInterval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		if _, err := c.request(ctx, OPTIONS, c.url, nil); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		timer.Reset(c.keepAliveInterval())
	}
}

// request sends one request and fails on any non-2xx reply. A 401 with a
// challenge is retried once with credentials from the url.
func (c *RtspClient) request(ctx context.Context, method Method, uri string, header Header) (*Response, error) {
	resp, err := c.roundTrip(ctx, method, uri, header)
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusUnauthorized && c.authLine == "" {
		if line := resp.Header.Get(WWW_Authenticate); line != "" {
			c.authLine = line
			if resp, err = c.roundTrip(ctx, method, uri, header); err != nil {
				return nil, err
			}
		}
	}
	if !resp.Status.IsSuccess() {
		return resp, NewRtspError(resp.Status, "%s %s: %s", method, uri, resp.Reason)
	}
	return resp, nil
}

func (c *RtspClient) roundTrip(ctx context.Context, method Method, uri string, header Header) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapRtspError(StatusUnknown, err, string(method))
	}
	// closing the socket is the only way to interrupt a blocked read; the
	// callback may outlive this call, so it must not touch c.conn
	conn := c.conn
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	req := NewRequest(method, uri)
	for k, v := range header {
		req.Header[k] = v
	}
	c.seq++
	req.SetCSeq(c.seq)
	if c.Conf.UserAgent != "" {
		req.SetHeader(UserAgent, c.Conf.UserAgent)
	}
	if c.session != "" {
		req.SetHeader(SessionID, c.session)
	}
	if c.authLine != "" {
		auth, err := Digest(method, c.authLine, c.rawUrl)
		if err != nil {
			return nil, WrapRtspError(StatusUnauthorized, err, "authorization")
		}
		req.SetHeader(Authorization, auth)
	}
	if err := c.rw.WriteFlush(req.Marshal()); err != nil {
		return nil, WrapRtspError(StatusUnknown, err, "write "+string(method))
	}
	for {
		resp, err := c.parser.Parse()
		if err != nil {
			var re *RtspError
			if errors.As(err, &re) {
				return nil, err
			}
			return nil, WrapRtspError(StatusUnknown, err, "read "+string(method)+" response")
		}
		seq, ok := resp.CSeq()
		if ok && seq < c.seq {
			c.log.Debug("skip stale response", zap.Int("cseq", seq))
			continue
		}
		if ok && seq > c.seq {
			return nil, NewRtspError(StatusUnknown, "%s response CSeq %d, expected %d", method, seq, c.seq)
		}
		if v, ok := resp.Header.Lookup(SessionID); ok {
			id, timeout := ParseSessionHeader(v)
			if id != "" {
				c.session = id
			}
			if timeout > 0 {
				c.sessionTimeout = timeout
			}
		}
		return resp, nil
	}
}

// teardown is best effort; it runs even after cancellation.
func (c *RtspClient) teardown() {
	c.conn.ReadTimeout = teardownTimeout
	c.conn.WriteTimeout = teardownTimeout
	if _, err := c.request(context.Background(), TEARDOWN, c.aggregateUrl, nil); err != nil {
		c.log.Warn("teardown fail: " + err.Error())
		return
	}
	c.setState(StateTornDown)
}

// finalize is the single exit path of a session, whatever stage it reached.
func (c *RtspClient) finalize(ctx context.Context, err error, connected bool) {
	c.mu.Lock()
	tracks := c.tracks
	c.tracks = nil
	c.mu.Unlock()

	if connected && (c.session != "" || len(tracks) > 0) {
		c.teardown()
	}
	for _, track := range tracks {
		track.mu.RLock()
		receiver := track.receiver
		track.mu.RUnlock()
		if receiver != nil {
			_ = receiver.Close()
		}
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn, c.rw, c.parser = nil, nil, nil
	c.session = ""
	c.setState(StateDisconnected)

	if err != nil && ctx.Err() == nil {
		c.log.Error("rtsp client session fail: " + err.Error())
		c.listener.OnError(c, asRtspError(err))
	}
	if connected {
		c.log.Info("rtsp client disconnected")
		c.listener.OnDisconnected(c)
	}
}
