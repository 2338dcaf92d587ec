package RTSP

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	maxLineLength = 4096
	MaxBodySize   = 1 << 20
)

var errLineTooLong = errors.New("line too long")

// readLine returns one line without its CRLF. n is the number of bytes
// consumed, so callers can tell an empty stream from a truncated line. An
// overlong line is consumed to its end before errLineTooLong is returned.
func readLine(r *bufio.Reader) (line string, n int, err error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := r.ReadSlice('\n')
		n += len(chunk)
		if !tooLong && len(buf)+len(chunk) > maxLineLength {
			tooLong, buf = true, nil
		}
		if !tooLong {
			buf = append(buf, chunk...)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			return "", n, err
		}
		if tooLong {
			return "", n, errLineTooLong
		}
		return strings.TrimRight(string(buf), "\r\n"), n, nil
	}
}

// readFirstLine skips blank keep-alive lines in front of a message.
func readFirstLine(r *bufio.Reader) (string, error) {
	for {
		line, n, err := readLine(r)
		if err != nil {
			if n == 0 && err == io.EOF {
				return "", ErrDisconnected
			}
			if err == errLineTooLong {
				return "", err
			}
			return "", WrapRtspError(StatusUnknown, err, "read start line")
		}
		if line != "" {
			return line, nil
		}
	}
}

func isTokenChar(c byte) bool {
	return c > ' ' && c < 0x7f && !strings.ContainsRune("()<>@,;:\\\"/[]?={}", rune(c))
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isTokenChar(s[i]) {
			return false
		}
	}
	return true
}

// readHeaders consumes the whole header block even when a line is malformed,
// so the stream stays framed; the first problem is returned afterwards.
func readHeaders(r *bufio.Reader, h Header, status StatusCode) error {
	var bad error
	var last string
	for {
		line, _, err := readLine(r)
		if err != nil {
			if err == errLineTooLong {
				if bad == nil {
					bad = NewRtspError(status, "header line too long")
				}
				continue
			}
			return WrapRtspError(StatusUnknown, err, "read header")
		}
		if line == "" {
			return bad
		}
		if (line[0] == ' ' || line[0] == '\t') && last != "" {
			h[last] = h[last] + " " + strings.TrimSpace(line)
			continue
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			if bad == nil {
				bad = NewRtspError(status, "malformed header line %q", line)
			}
			continue
		}
		name := strings.TrimSpace(line[:i])
		if !isToken(name) {
			if bad == nil {
				bad = NewRtspError(status, "malformed header name %q", name)
			}
			continue
		}
		last = lower(name)
		h[last] = strings.TrimSpace(line[i+1:])
	}
}

func readBody(r *bufio.Reader, h Header, status StatusCode) ([]byte, error) {
	v, ok := h.Lookup(ContentLength)
	if !ok {
		return nil, nil
	}
	length, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || length < 0 {
		return nil, NewRtspError(status, "invalid Content-Length %q", v)
	}
	if length == 0 {
		return nil, nil
	}
	if length > MaxBodySize {
		discardBody(r, h)
		return nil, NewRtspError(status, "Content-Length %d exceeds %d", length, MaxBodySize)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, WrapRtspError(StatusUnknown, err, "read body")
	}
	return body, nil
}

// discardBody skips the body announced by h without buffering it.
func discardBody(r *bufio.Reader, h Header) {
	v, ok := h.Lookup(ContentLength)
	if !ok {
		return
	}
	length, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || length <= 0 {
		return
	}
	_, _ = io.CopyN(io.Discard, r, length)
}

// skipMessage consumes the header block and body of a request whose start
// line was rejected.
func skipMessage(r *bufio.Reader) {
	h := make(Header)
	if err := readHeaders(r, h, StatusBadRequest); err != nil && StatusOf(err) == StatusUnknown {
		return
	}
	discardBody(r, h)
}

type RequestParser struct {
	r *bufio.Reader
}

func NewRequestParser(r *bufio.Reader) *RequestParser {
	return &RequestParser{r: r}
}

// Parse reads one request. On a 400 the partially parsed request is returned
// alongside the error so the caller can still echo its CSeq.
func (p *RequestParser) Parse() (*Request, error) {
	line, err := readFirstLine(p.r)
	if err != nil {
		if err == errLineTooLong {
			skipMessage(p.r)
			return nil, NewRtspError(StatusBadRequest, "request line too long")
		}
		return nil, err
	}
	req, err := parseRequestLine(line)
	if err != nil {
		skipMessage(p.r)
		return nil, err
	}
	if err = readHeaders(p.r, req.Header, StatusBadRequest); err != nil {
		if StatusOf(err) != StatusUnknown {
			discardBody(p.r, req.Header)
		}
		return req, err
	}
	if req.Body, err = readBody(p.r, req.Header, StatusBadRequest); err != nil {
		return req, err
	}
	return req, nil
}

// METHOD SP URI SP RTSP/VERSION
func parseRequestLine(line string) (*Request, error) {
	i := strings.IndexByte(line, ' ')
	j := strings.LastIndexByte(line, ' ')
	if i <= 0 || j == i {
		return nil, NewRtspError(StatusBadRequest, "malformed request line %q", line)
	}
	method := line[:i]
	uri := strings.TrimSpace(line[i+1 : j])
	version := line[j+1:]
	if !isToken(method) || uri == "" || strings.ContainsAny(uri, " \t") ||
		!strings.HasPrefix(version, "RTSP/") || len(version) == len("RTSP/") {
		return nil, NewRtspError(StatusBadRequest, "malformed request line %q", line)
	}
	return &Request{
		Method:  ParseMethod(method),
		URI:     uri,
		Version: version,
		Header:  make(Header),
	}, nil
}

type ResponseParser struct {
	r *bufio.Reader
}

func NewResponseParser(r *bufio.Reader) *ResponseParser {
	return &ResponseParser{r: r}
}

func (p *ResponseParser) Parse() (*Response, error) {
	line, err := readFirstLine(p.r)
	if err != nil {
		if err == errLineTooLong {
			return nil, NewRtspError(StatusUnknown, "status line too long")
		}
		return nil, err
	}
	resp, err := parseStatusLine(line)
	if err != nil {
		return nil, err
	}
	if err = readHeaders(p.r, resp.Header, StatusUnknown); err != nil {
		return resp, err
	}
	resp.ServerName = resp.Header.Get(Server)
	if resp.Body, err = readBody(p.r, resp.Header, StatusUnknown); err != nil {
		return resp, err
	}
	return resp, nil
}

// RTSP/VERSION SP CODE SP REASON
func parseStatusLine(line string) (*Response, error) {
	i := strings.IndexByte(line, ' ')
	if i <= 0 || !strings.HasPrefix(line, "RTSP/") {
		return nil, NewRtspError(StatusUnknown, "malformed status line %q", line)
	}
	rest := strings.TrimLeft(line[i+1:], " ")
	codeStr, reason := rest, ""
	if j := strings.IndexByte(rest, ' '); j >= 0 {
		codeStr, reason = rest[:j], strings.TrimSpace(rest[j+1:])
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil || len(codeStr) != 3 {
		return nil, NewRtspError(StatusUnknown, "malformed status code %q", codeStr)
	}
	return &Response{
		Version: line[:i],
		Status:  StatusFromCode(code),
		Reason:  reason,
		Header:  make(Header),
	}, nil
}
