package RTSP

import (
	"strings"
)

type Request struct {
	Method  Method
	URI     string
	Version string
	Header  Header
	Body    []byte
}

func NewRequest(method Method, uri string) *Request {
	return &Request{
		Method:  method,
		URI:     uri,
		Version: RTSP_VERSION,
		Header:  make(Header),
	}
}

func (r *Request) SetHeader(name, value string) {
	if r.Header == nil {
		r.Header = make(Header)
	}
	r.Header.Set(name, value)
}

func (r *Request) GetHeader(name string) string {
	return r.Header.Get(name)
}

func (r *Request) CSeq() (int, bool) {
	return parseCSeq(r.Header)
}

func (r *Request) SetCSeq(seq int) {
	r.SetHeader(CSeq, itoa(seq))
}

// Marshal writes the request line, CSeq first, the remaining headers sorted
// by name and the body. Content-Length is emitted only when there is a body.
func (r *Request) Marshal() []byte {
	return []byte(r.String())
}

func (r *Request) String() string {
	var str strings.Builder
	version := r.Version
	if version == "" {
		version = RTSP_VERSION
	}
	str.WriteString(string(r.Method) + " " + r.URI + " " + version + "\r\n")
	cseqKey := lower(CSeq)
	if v, ok := r.Header[cseqKey]; ok {
		str.WriteString(CSeq + ": " + v + "\r\n")
	}
	r.Header.write(&str, cseqKey, lower(ContentLength))
	if len(r.Body) > 0 {
		str.WriteString(ContentLength + ": " + itoa(len(r.Body)) + "\r\n")
	}
	str.WriteString("\r\n")
	str.Write(r.Body)
	return str.String()
}
