package RTSP

import (
	"bufio"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestRequestRoundTrip(t *testing.T) {
	req := NewRequest(SETUP, "rtsp://127.0.0.1:554/live/trackID=1")
	req.SetCSeq(3)
	req.SetHeader(Transport, "RTP/AVP;unicast;client_port=5000-5001")
	req.SetHeader("X-Custom", "a:b:c")
	req.Body = []byte("hello")

	raw := req.String()
	require.True(t, strings.HasPrefix(raw, "SETUP rtsp://127.0.0.1:554/live/trackID=1 RTSP/1.0\r\nCSeq: 3\r\n"))
	require.Contains(t, raw, "Content-Length: 5\r\n")

	got, err := NewRequestParser(reader(raw)).Parse()
	require.NoError(t, err)
	require.Equal(t, SETUP, got.Method)
	require.Equal(t, req.URI, got.URI)
	require.Equal(t, RTSP_VERSION, got.Version)
	for k, v := range req.Header {
		require.Equal(t, v, got.GetHeader(strings.ToUpper(k)))
	}
	require.Equal(t, "5", got.GetHeader(ContentLength))
	require.Equal(t, []byte("hello"), got.Body)
	seq, ok := got.CSeq()
	require.True(t, ok)
	require.Equal(t, 3, seq)
}

func TestResponseRoundTrip(t *testing.T) {
	header := make(Header)
	header.Set(ContentBase, "rtsp://10.0.0.1:554/")
	header.Set(ContentType, "application/sdp")
	resp := GenerateResponse(StatusOK, header, []byte("v=0\r\n"))
	resp.ServerName = "RTSP_ENGINE/1.0"
	resp.SetCSeq(2)

	raw := resp.String()
	require.True(t, strings.HasPrefix(raw, "RTSP/1.0 200 OK\r\nServer: RTSP_ENGINE/1.0\r\nCSeq: 2\r\n"))

	got, err := NewResponseParser(reader(raw)).Parse()
	require.NoError(t, err)
	require.Equal(t, StatusOK, got.Status)
	require.Equal(t, "OK", got.Reason)
	require.Equal(t, "RTSP_ENGINE/1.0", got.ServerName)
	require.Equal(t, "rtsp://10.0.0.1:554/", got.GetHeader("content-base"))
	require.Equal(t, "5", got.GetHeader(ContentLength))
	require.Equal(t, []byte("v=0\r\n"), got.Body)
}

func TestResponseAlwaysHasContentLength(t *testing.T) {
	raw := GenerateResponse(StatusNotImplemented, nil, nil).String()
	require.Equal(t, "RTSP/1.0 501 Not Implemented\r\nContent-Length: 0\r\n\r\n", raw)

	raw = NewResponse(StatusUnknown).String()
	require.True(t, strings.HasPrefix(raw, "RTSP/1.0 500 Internal Server Error\r\n"))
}

func TestResponseParserReadsExactBody(t *testing.T) {
	raw := "RTSP/1.0 200 OK\r\nCSeq: 1\r\nContent-Length: 3\r\n\r\nabc" +
		"RTSP/1.0 404 Not Found\r\nCSeq: 2\r\n\r\n"
	p := NewResponseParser(reader(raw))

	first, err := p.Parse()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), first.Body)

	second, err := p.Parse()
	require.NoError(t, err)
	require.Equal(t, StatusNotFound, second.Status)
	seq, _ := second.CSeq()
	require.Equal(t, 2, seq)

	_, err = p.Parse()
	require.True(t, errors.Is(err, ErrDisconnected))
}

func TestResponseUnknownStatus(t *testing.T) {
	resp, err := NewResponseParser(reader("RTSP/1.0 299 Whatever\r\n\r\n")).Parse()
	require.NoError(t, err)
	require.Equal(t, StatusUnknown, resp.Status)
	require.Equal(t, "Whatever", resp.Reason)
}

func TestParseBadRequestLine(t *testing.T) {
	for _, line := range []string{
		"garbage",
		"OPTIONS rtsp://x",
		"OPTIONS rtsp://x HTTP/1.1",
		"OPTIONS  RTSP/1.0",
		"OPT(IONS rtsp://x RTSP/1.0",
	} {
		raw := line + "\r\nCSeq: 1\r\n\r\nOPTIONS * RTSP/1.0\r\nCSeq: 2\r\n\r\n"
		p := NewRequestParser(reader(raw))
		req, err := p.Parse()
		require.Nil(t, req, line)
		require.Equal(t, StatusBadRequest, StatusOf(err), line)

		// the next request on the stream is still framed
		req, err = p.Parse()
		require.NoError(t, err, line)
		require.Equal(t, OPTIONS, req.Method)
		require.Equal(t, "*", req.URI)
	}
}

func TestParseMalformedHeaderKeepsCSeq(t *testing.T) {
	raw := "DESCRIBE rtsp://x/live RTSP/1.0\r\nCSeq: 9\r\nno colon here\r\nAccept: application/sdp\r\n\r\n"
	req, err := NewRequestParser(reader(raw)).Parse()
	require.Equal(t, StatusBadRequest, StatusOf(err))
	require.NotNil(t, req)
	seq, ok := req.CSeq()
	require.True(t, ok)
	require.Equal(t, 9, seq)
	require.Equal(t, "application/sdp", req.GetHeader(Accept))
}

func TestParseHeaderValueWithColons(t *testing.T) {
	raw := "PLAY rtsp://x/live RTSP/1.0\r\ncseq: 4\r\nContent-Base: rtsp://1.2.3.4:554/live/\r\n" +
		"Range:npt=0.000-\r\nX-Long: first\r\n  second\r\n\r\n"
	req, err := NewRequestParser(reader(raw)).Parse()
	require.NoError(t, err)
	require.Equal(t, "rtsp://1.2.3.4:554/live/", req.GetHeader(ContentBase))
	require.Equal(t, "npt=0.000-", req.GetHeader(Range))
	require.Equal(t, "first second", req.GetHeader("x-long"))
	seq, _ := req.CSeq()
	require.Equal(t, 4, seq)
}

func TestParseUnknownMethod(t *testing.T) {
	req, err := NewRequestParser(reader("FOO rtsp://x RTSP/1.0\r\n\r\n")).Parse()
	require.NoError(t, err)
	require.Equal(t, UNKNOWN, req.Method)
}

func TestParseDisconnected(t *testing.T) {
	_, err := NewRequestParser(reader("")).Parse()
	require.True(t, errors.Is(err, ErrDisconnected))

	_, err = NewRequestParser(reader("\r\n\r\n")).Parse()
	require.True(t, errors.Is(err, ErrDisconnected))

	// a cut inside the request line is a transport failure
	_, err = NewRequestParser(reader("OPTIONS rtsp://x")).Parse()
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrDisconnected))
	require.Equal(t, StatusUnknown, StatusOf(err))
}

func TestParseBodyLimits(t *testing.T) {
	raw := "ANNOUNCE rtsp://x RTSP/1.0\r\nCSeq: 1\r\nContent-Length: 99999999\r\n\r\n"
	req, err := NewRequestParser(reader(raw)).Parse()
	require.Equal(t, StatusBadRequest, StatusOf(err))
	require.NotNil(t, req)

	raw = "ANNOUNCE rtsp://x RTSP/1.0\r\nCSeq: 1\r\nContent-Length: abc\r\n\r\n"
	_, err = NewRequestParser(reader(raw)).Parse()
	require.Equal(t, StatusBadRequest, StatusOf(err))

	raw = "RTSP/1.0 200 OK\r\nContent-Length: 10\r\n\r\nshort"
	_, err = NewResponseParser(reader(raw)).Parse()
	require.Equal(t, StatusUnknown, StatusOf(err))
}

func TestParseLineTooLong(t *testing.T) {
	raw := "OPTIONS rtsp://x/" + strings.Repeat("a", maxLineLength) + " RTSP/1.0\r\n\r\n"
	_, err := NewRequestParser(reader(raw)).Parse()
	require.Equal(t, StatusBadRequest, StatusOf(err))
}

func TestParseErrorKeepsFraming(t *testing.T) {
	for name, raw := range map[string]string{
		"long request line":   "OPTIONS rtsp://x/" + strings.Repeat("a", 5000) + " RTSP/1.0\r\nCSeq: 1\r\n\r\n",
		"broken with body":    "BROKEN\r\nContent-Length: 22\r\n\r\nOPTIONS x RTSP/1.0\r\n\r\n",
		"long header line":    "OPTIONS * RTSP/1.0\r\nX-Big: " + strings.Repeat("b", 5000) + "\r\nCSeq: 1\r\n\r\n",
		"bad header and body": "SET_PARAMETER * RTSP/1.0\r\nbogus\r\nContent-Length: 20\r\n\r\nOPTIONS * RTSP/1.0\r\n",
		"oversized body":      "ANNOUNCE * RTSP/1.0\r\nContent-Length: 1048600\r\n\r\n" + strings.Repeat("c", 1048600),
	} {
		p := NewRequestParser(reader(raw))
		_, err := p.Parse()
		require.Equal(t, StatusBadRequest, StatusOf(err), name)

		_, err = p.Parse()
		require.True(t, errors.Is(err, ErrDisconnected), name)
	}
}
