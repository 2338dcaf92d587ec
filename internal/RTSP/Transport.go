package RTSP

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// TransportHeader is the first transport spec of a Transport header.
type TransportHeader struct {
	Protocol    string
	Multicast   bool
	Destination string
	Source      string
	ClientPorts *[2]int
	ServerPorts *[2]int
	Ports       *[2]int
	TTL         int
	SSRC        *uint32
	Mode        string
}

// IsTCP reports interleaved delivery, which this engine does not serve.
func (t *TransportHeader) IsTCP() bool {
	return strings.HasSuffix(strings.ToUpper(t.Protocol), "/TCP")
}

func parsePortPair(v string) (*[2]int, error) {
	a, b, found := strings.Cut(v, "-")
	p1, err := strconv.Atoi(a)
	if err != nil || p1 <= 0 || p1 > 65535 {
		return nil, errors.Errorf("invalid port %q", v)
	}
	p2 := p1 + 1
	if found {
		p2, err = strconv.Atoi(b)
		if err != nil || p2 <= 0 || p2 > 65535 {
			return nil, errors.Errorf("invalid port %q", v)
		}
	}
	return &[2]int{p1, p2}, nil
}

func ParseTransportHeader(v string) (*TransportHeader, error) {
	spec, _, _ := strings.Cut(v, ",")
	params := strings.Split(strings.TrimSpace(spec), ";")
	t := &TransportHeader{Protocol: strings.TrimSpace(params[0])}
	if !strings.HasPrefix(strings.ToUpper(t.Protocol), "RTP/AVP") {
		return nil, errors.Errorf("unsupported transport protocol %q", t.Protocol)
	}
	for _, param := range params[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(param), "=")
		var err error
		switch strings.ToLower(key) {
		case "unicast":
			t.Multicast = false
		case "multicast":
			t.Multicast = true
		case "destination":
			t.Destination = val
		case "source":
			t.Source = val
		case "client_port":
			t.ClientPorts, err = parsePortPair(val)
		case "server_port":
			t.ServerPorts, err = parsePortPair(val)
		case "port":
			t.Ports, err = parsePortPair(val)
		case "ttl":
			t.TTL, err = strconv.Atoi(val)
		case "ssrc":
			var ssrc uint64
			ssrc, err = strconv.ParseUint(val, 16, 32)
			s := uint32(ssrc)
			t.SSRC = &s
		case "mode":
			t.Mode = strings.Trim(val, `"`)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "transport parameter %q", param)
		}
	}
	return t, nil
}

func (t *TransportHeader) String() string {
	parts := []string{t.Protocol}
	if t.Multicast {
		parts = append(parts, "multicast")
	} else {
		parts = append(parts, "unicast")
	}
	if t.Destination != "" {
		parts = append(parts, "destination="+t.Destination)
	}
	if t.Source != "" {
		parts = append(parts, "source="+t.Source)
	}
	if t.ClientPorts != nil {
		parts = append(parts, fmt.Sprintf("client_port=%d-%d", t.ClientPorts[0], t.ClientPorts[1]))
	}
	if t.ServerPorts != nil {
		parts = append(parts, fmt.Sprintf("server_port=%d-%d", t.ServerPorts[0], t.ServerPorts[1]))
	}
	if t.Ports != nil {
		parts = append(parts, fmt.Sprintf("port=%d-%d", t.Ports[0], t.Ports[1]))
	}
	if t.TTL > 0 {
		parts = append(parts, "ttl="+strconv.Itoa(t.TTL))
	}
	if t.SSRC != nil {
		parts = append(parts, fmt.Sprintf("ssrc=%08X", *t.SSRC))
	}
	if t.Mode != "" {
		parts = append(parts, "mode="+t.Mode)
	}
	return strings.Join(parts, ";")
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ExtractTrackID finds trackID=<word> in a request URI.
func ExtractTrackID(uri string) (string, bool) {
	const key = "trackID="
	i := strings.Index(uri, key)
	if i < 0 {
		return "", false
	}
	rest := uri[i+len(key):]
	n := 0
	for n < len(rest) && isWordChar(rest[n]) {
		n++
	}
	if n == 0 {
		return "", false
	}
	return rest[:n], true
}

// ExtractClientPorts finds client_port=<rtp>-<rtcp> in a Transport value.
// ok is false when the parameter is absent, since ports may be server-assigned.
func ExtractClientPorts(transport string) (rtpPort, rtcpPort int, ok bool) {
	for _, param := range strings.Split(transport, ";") {
		key, val, found := strings.Cut(strings.TrimSpace(param), "=")
		if !found || key != "client_port" {
			continue
		}
		a, b, found := strings.Cut(val, "-")
		if !found {
			return 0, 0, false
		}
		p1, err1 := strconv.Atoi(a)
		p2, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return p1, p2, true
	}
	return 0, 0, false
}

// ParseSessionHeader splits "<id>;timeout=<seconds>".
func ParseSessionHeader(v string) (id string, timeout time.Duration) {
	params := strings.Split(v, ";")
	id = strings.TrimSpace(params[0])
	for _, param := range params[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(param), "=")
		if strings.ToLower(key) == "timeout" {
			if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
				timeout = time.Duration(secs) * time.Second
			}
		}
	}
	return
}
