package RTSP

import "net/url"

// Context travels through one request: url is the parsed request URI, nil
// when it does not parse, and the handler fills resp.
type Context struct {
	url  *url.URL
	req  *Request
	resp *Response
}

func NewContext() *Context {
	return &Context{}
}
