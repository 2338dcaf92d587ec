package RTSP

import (
	"fmt"
	"net"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"git.hub.com/wangyl/RTSP_ENGINE/internal/RTP"
	"git.hub.com/wangyl/RTSP_ENGINE/internal/RichConn"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Logger"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Snowflake"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const publicMethods = "OPTIONS, DESCRIBE, SETUP, PLAY, PAUSE, TEARDOWN, GET_PARAMETER"

// RtspConn serves one accepted control connection.
type RtspConn struct {
	sessionID string
	remote    string
	server    *RtspServer

	netConn net.Conn
	conn    *RichConn.ConnRich
	rw      *RichConn.ReaderWriter
	parser  *RequestParser
	log     *zap.Logger

	setupDone bool
	streams   []*MediaStream

	closeOnce sync.Once
}

func newRtspConn(conn net.Conn, srv *RtspServer) *RtspConn {
	c := &RtspConn{
		sessionID: Snowflake.GenerateSessionId(),
		remote:    conn.RemoteAddr().String(),
		server:    srv,
		netConn:   conn,
		conn:      RichConn.NewConnRich(conn, srv.Conf.ReadTimeout, srv.Conf.WriteTimeout),
	}
	c.rw = RichConn.NewReaderWriter(c.conn, 4096)
	c.parser = NewRequestParser(c.rw.Reader)
	c.log = Logger.GetLogger().With(zap.String("remote", c.remote), zap.String("session", c.sessionID))
	return c
}

func (c *RtspConn) start() {
	defer c.server.wg.Done()
	if !c.server.Registry.Attach(c) {
		c.stop()
		return
	}
	defer func() {
		if err := recover(); err != nil {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			c.log.Error(fmt.Sprintf("panic: %v\n%s", err, buf))
		}
		c.cleanup()
	}()
	c.log.Debug("connection attached")
	for c.serveOne() {
	}
}

// serveOne handles a single request and reports whether to keep reading.
func (c *RtspConn) serveOne() bool {
	ctx := NewContext()
	req, err := c.parser.Parse()
	if err != nil {
		if errors.Is(err, ErrDisconnected) {
			c.log.Debug("peer disconnected")
			return false
		}
		status := StatusOf(err)
		if status == StatusUnknown {
			c.log.Info("read connection: " + err.Error())
			return false
		}
		c.log.Warn("parse request fail: " + err.Error())
		ctx.req = req
		ctx.resp = GenerateResponse(status, nil, nil)
		return c.HandleRtspResponse(ctx) == nil
	}
	ctx.req = req
	c.HandleRtspRequest(ctx)
	if err := c.HandleRtspResponse(ctx); err != nil {
		c.log.Info("write response: " + err.Error())
		return false
	}
	return req.Method != TEARDOWN
}

func (c *RtspConn) HandleRtspRequest(ctx *Context) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Error(fmt.Sprintf("handle %s panic: %v", ctx.req.Method, p))
			ctx.resp = GenerateResponse(StatusInternalServerError, nil, nil)
		}
	}()
	ctx.url, _ = url.Parse(ctx.req.URI)
	var err error
	switch ctx.req.Method {
	case OPTIONS:
		err = c.Options(ctx)
	case DESCRIBE:
		err = c.Describe(ctx)
	case SETUP:
		err = c.Setup(ctx)
	case PLAY:
		err = c.Play(ctx)
	case PAUSE:
		ctx.resp = GenerateResponse(StatusOK, nil, nil)
	case TEARDOWN:
		err = c.Teardown(ctx)
	case GET_PARAMETER:
		ctx.resp = GenerateResponse(StatusOK, nil, nil)
	case ANNOUNCE, RECORD, REDIRECT, SET_PARAMETER:
		ctx.resp = GenerateResponse(StatusNotImplemented, nil, nil)
	default:
		ctx.resp = GenerateResponse(StatusBadRequest, nil, nil)
	}
	if err != nil {
		if ctx.resp == nil {
			c.log.Error(fmt.Sprintf("handle %s fail: %s", ctx.req.Method, err.Error()))
			ctx.resp = GenerateResponse(StatusInternalServerError, nil, nil)
		} else {
			c.log.Warn(fmt.Sprintf("reject %s: %s", ctx.req.Method, err.Error()), zap.Int("status", int(ctx.resp.Status)))
		}
	}
}

// HandleRtspResponse adds the common headers and writes ctx.resp.
func (c *RtspConn) HandleRtspResponse(ctx *Context) error {
	resp := ctx.resp
	resp.ServerName = c.server.Conf.ServerName
	if ctx.req != nil {
		if seq, ok := ctx.req.CSeq(); ok {
			resp.SetCSeq(seq)
		}
		if c.setupDone {
			if _, ok := resp.Header.Lookup(SessionID); !ok {
				resp.SetHeader(SessionID, c.sessionHeader())
			}
		}
	}
	return c.rw.WriteFlush(resp.Marshal())
}

func (c *RtspConn) sessionHeader() string {
	return c.sessionID + ";timeout=" + strconv.Itoa(int(c.server.Conf.SessionTimeout.Seconds()))
}

func (c *RtspConn) Options(ctx *Context) error {
	header := make(Header)
	header.Set(Public, publicMethods)
	ctx.resp = GenerateResponse(StatusOK, header, nil)
	return nil
}

func (c *RtspConn) Describe(ctx *Context) (err error) {
	sess := c.server.Registry.Session()
	if sess == nil {
		return errors.New("no active session")
	}
	var body []byte
	remote, local := c.netConn.RemoteAddr(), c.netConn.LocalAddr()
	if describer, ok := c.server.factory.(SessionDescriber); ok {
		body, err = describer.DescribeSession(sess, remote, local)
	} else {
		body, err = sess.describe(remote, local, c.server.Conf.MulticastAddress, c.server.Conf.MulticastTTL)
	}
	if err != nil {
		return errors.Wrap(err, "describe session")
	}
	header := make(Header)
	header.Set(ContentBase, "rtsp://"+local.String()+"/")
	header.Set(ContentType, "application/sdp")
	ctx.resp = GenerateResponse(StatusOK, header, body)
	return nil
}

func (c *RtspConn) Setup(ctx *Context) error {
	trackID, ok := ExtractTrackID(ctx.req.URI)
	if !ok {
		ctx.resp = GenerateResponse(StatusBadRequest, nil, nil)
		return errors.New("setup without track id")
	}
	var stream *MediaStream
	if sess := c.server.Registry.Session(); sess != nil {
		stream = sess.Stream(trackID)
	}
	if stream == nil {
		ctx.resp = GenerateResponse(StatusBadRequest, nil, nil)
		return errors.Errorf("unknown track %s", trackID)
	}
	ts, ok := ctx.req.Header.Lookup(Transport)
	if !ok {
		ctx.resp = GenerateResponse(StatusBadRequest, nil, nil)
		return errors.New("setup without transport")
	}
	th, err := ParseTransportHeader(ts)
	if err != nil || th.IsTCP() {
		ctx.resp = GenerateResponse(StatusUnsupportedTransport, nil, nil)
		if err == nil {
			err = errors.New("interleaved transport")
		}
		return err
	}

	dest := c.server.Conf.MulticastAddress
	if dest == nil {
		dest = addrIP(c.netConn.RemoteAddr())
	}
	transport, err := RTP.Open(nil, c.server.Conf.RtpPorts)
	if err != nil {
		return err
	}
	rtpPort, rtcpPort := transport.LocalPorts()
	clientPorts := [2]int{rtpPort, rtcpPort}
	if th.ClientPorts != nil {
		clientPorts = *th.ClientPorts
	}
	if err = transport.SetDestination(dest, clientPorts[0], clientPorts[1], c.server.Conf.MulticastTTL); err != nil {
		transport.Close()
		return err
	}
	sub := &Subscriber{
		SessionId:   c.sessionID,
		Transport:   transport,
		Destination: dest,
		ClientPorts: clientPorts,
	}
	if old := stream.subscribe(sub); old != nil {
		old.Transport.Close()
	} else {
		c.streams = append(c.streams, stream)
	}
	c.setupDone = true

	ssrc := stream.SSRC()
	reply := &TransportHeader{
		Protocol:    th.Protocol,
		Multicast:   dest.IsMulticast(),
		Destination: dest.String(),
		ClientPorts: &clientPorts,
		ServerPorts: &[2]int{rtpPort, rtcpPort},
		SSRC:        &ssrc,
		Mode:        "play",
	}
	if reply.Multicast {
		reply.TTL = c.server.Conf.MulticastTTL
	}
	header := make(Header)
	header.Set(Transport, reply.String())
	header.Set(SessionID, c.sessionHeader())
	header.Set(CacheControl, "no-cache")
	ctx.resp = GenerateResponse(StatusOK, header, nil)
	c.log.Info("track setup", zap.String("track", trackID), zap.String("destination", transport.Destination()))
	return nil
}

func (c *RtspConn) Play(ctx *Context) error {
	sess := c.server.Registry.Session()
	if sess == nil {
		return errors.New("no active session")
	}
	starter, _ := c.server.factory.(SessionStarter)
	if err := sess.start(starter); err != nil {
		return errors.Wrap(err, "start session")
	}
	base := aggregateBase(ctx)
	var infos []string
	for _, ms := range sess.Streams() {
		infos = append(infos, fmt.Sprintf("url=%s/trackID=%s;seq=0", base, ms.TrackID))
	}
	header := make(Header)
	header.Set(Range, "npt=0.000-")
	if len(infos) > 0 {
		header.Set(RtpInfo, strings.Join(infos, ","))
	}
	ctx.resp = GenerateResponse(StatusOK, header, nil)
	return nil
}

// aggregateBase is the request URL without credentials, query or track
// suffix, the prefix of every RTP-Info url.
func aggregateBase(ctx *Context) string {
	if ctx.url == nil || ctx.url.Host == "" {
		base := ctx.req.URI
		if i := strings.Index(base, "/trackID="); i >= 0 {
			base = base[:i]
		}
		return strings.TrimRight(base, "/")
	}
	u := *ctx.url
	u.User, u.RawQuery, u.Fragment, u.RawPath = nil, "", "", ""
	if i := strings.Index(u.Path, "/trackID="); i >= 0 {
		u.Path = u.Path[:i]
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

func (c *RtspConn) Teardown(ctx *Context) error {
	c.releaseSubscribers()
	ctx.resp = GenerateResponse(StatusOK, nil, nil)
	return nil
}

func (c *RtspConn) releaseSubscribers() {
	for _, ms := range c.streams {
		if sub := ms.unsubscribe(c.sessionID); sub != nil {
			sub.Transport.Close()
		}
	}
	c.streams = nil
}

// cleanup runs on every exit path of start.
func (c *RtspConn) cleanup() {
	c.releaseSubscribers()
	c.server.Registry.Detach(c)
	c.stop()
	c.log.Debug("connection detached")
}

// stop closes the socket, which unblocks a pending read. Safe from any goroutine.
func (c *RtspConn) stop() {
	c.closeOnce.Do(func() {
		_ = c.netConn.Close()
	})
}
