package RTSP

import (
	"strings"
)

type Response struct {
	Version    string
	Status     StatusCode
	Reason     string
	ServerName string
	Header     Header
	Body       []byte
}

func NewResponse(status StatusCode) *Response {
	return &Response{
		Version: RTSP_VERSION,
		Status:  status,
		Reason:  status.Reason(),
		Header:  make(Header),
	}
}

func GenerateResponse(status StatusCode, header Header, body []byte) *Response {
	resp := NewResponse(status)
	for k, v := range header {
		resp.Header[k] = v
	}
	resp.Body = body
	return resp
}

func (r *Response) SetHeader(name, value string) {
	if r.Header == nil {
		r.Header = make(Header)
	}
	r.Header.Set(name, value)
}

func (r *Response) GetHeader(name string) string {
	return r.Header.Get(name)
}

func (r *Response) CSeq() (int, bool) {
	return parseCSeq(r.Header)
}

func (r *Response) SetCSeq(seq int) {
	r.SetHeader(CSeq, itoa(seq))
}

func (r *Response) Marshal() []byte {
	return []byte(r.String())
}

// String always carries Content-Length, computed from the body. The local
// StatusUnknown sentinel goes out as 500.
func (r *Response) String() string {
	var str strings.Builder
	status := r.Status
	if status == StatusUnknown {
		status = StatusInternalServerError
	}
	str.WriteString(RTSP_VERSION + " " + itoa(int(status)) + " " + status.Reason() + "\r\n")
	serverName := r.ServerName
	if serverName == "" {
		serverName = r.Header.Get(Server)
	}
	if serverName != "" {
		str.WriteString(Server + ": " + serverName + "\r\n")
	}
	cseqKey := lower(CSeq)
	if v, ok := r.Header[cseqKey]; ok {
		str.WriteString(CSeq + ": " + v + "\r\n")
	}
	r.Header.write(&str, cseqKey, lower(Server), lower(ContentLength))
	str.WriteString(ContentLength + ": " + itoa(len(r.Body)) + "\r\n")
	str.WriteString("\r\n")
	str.Write(r.Body)
	return str.String()
}
