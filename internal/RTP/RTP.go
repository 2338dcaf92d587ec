package RTP

import (
	"math/rand"
	"net"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"
)

const openAttempts = 64

var ErrNoDestination = errors.New("rtp transport has no destination")

// PortRange bounds the RTP port of a pair. RTCP always uses RTP+1.
type PortRange struct {
	Min int
	Max int
}

/*
Transport is a bound RTP/RTCP socket pair. The RTP port is even and the
RTCP port is the next one up.
*/
type Transport struct {
	rtpConn  *net.UDPConn
	rtcpConn *net.UDPConn
	rtpPort  int
	rtcpPort int

	mu      sync.RWMutex
	rtpDst  *net.UDPAddr
	rtcpDst *net.UDPAddr

	closeOnce sync.Once
}

func listen(ip net.IP, port int) (*net.UDPConn, error) {
	return net.ListenUDP("udp", &net.UDPAddr{IP: ip, Port: port})
}

// Open binds a pair inside ports on ip (nil means every interface). A zero
// range lets the kernel pick and keeps the first even port it hands out.
func Open(ip net.IP, ports PortRange) (*Transport, error) {
	var lastErr error
	for i := 0; i < openAttempts; i++ {
		port := 0
		if ports.Max > ports.Min+1 {
			span := (ports.Max - ports.Min) / 2
			port = ports.Min + 2*rand.Intn(span)
			if port%2 != 0 {
				port++
			}
		}
		rtpConn, err := listen(ip, port)
		if err != nil {
			lastErr = err
			continue
		}
		rtpPort := rtpConn.LocalAddr().(*net.UDPAddr).Port
		if rtpPort%2 != 0 {
			rtpConn.Close()
			continue
		}
		rtcpConn, err := listen(ip, rtpPort+1)
		if err != nil {
			rtpConn.Close()
			lastErr = err
			continue
		}
		return &Transport{
			rtpConn:  rtpConn,
			rtcpConn: rtcpConn,
			rtpPort:  rtpPort,
			rtcpPort: rtpPort + 1,
		}, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no even port available")
	}
	return nil, errors.Wrapf(lastErr, "open rtp pair in %d-%d", ports.Min, ports.Max)
}

func (t *Transport) LocalPorts() (int, int) {
	return t.rtpPort, t.rtcpPort
}

// SetDestination points writes at ip:rtpPort and ip:rtcpPort. For multicast
// destinations ttl is applied to both sockets.
func (t *Transport) SetDestination(ip net.IP, rtpPort, rtcpPort, ttl int) error {
	if ip.IsMulticast() && ttl > 0 && ip.To4() != nil {
		for _, c := range []*net.UDPConn{t.rtpConn, t.rtcpConn} {
			if err := ipv4.NewPacketConn(c).SetMulticastTTL(ttl); err != nil {
				return errors.Wrap(err, "set multicast ttl")
			}
		}
	}
	t.mu.Lock()
	t.rtpDst = &net.UDPAddr{IP: ip, Port: rtpPort}
	t.rtcpDst = &net.UDPAddr{IP: ip, Port: rtcpPort}
	t.mu.Unlock()
	return nil
}

func (t *Transport) Destination() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.rtpDst == nil {
		return ""
	}
	return net.JoinHostPort(t.rtpDst.IP.String(), strconv.Itoa(t.rtpDst.Port))
}

func (t *Transport) WriteRTP(b []byte) error {
	t.mu.RLock()
	dst := t.rtpDst
	t.mu.RUnlock()
	if dst == nil {
		return ErrNoDestination
	}
	_, err := t.rtpConn.WriteToUDP(b, dst)
	return err
}

func (t *Transport) WriteRTCP(b []byte) error {
	t.mu.RLock()
	dst := t.rtcpDst
	t.mu.RUnlock()
	if dst == nil {
		return ErrNoDestination
	}
	_, err := t.rtcpConn.WriteToUDP(b, dst)
	return err
}

// JoinGroup subscribes both sockets to an IPv4 multicast group.
func (t *Transport) JoinGroup(group net.IP) error {
	if group.To4() == nil {
		return errors.Errorf("multicast group %s is not ipv4", group)
	}
	for _, c := range []*net.UDPConn{t.rtpConn, t.rtcpConn} {
		if err := ipv4.NewPacketConn(c).JoinGroup(nil, &net.UDPAddr{IP: group}); err != nil {
			return errors.Wrapf(err, "join multicast group %s", group)
		}
	}
	return nil
}

func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		err = t.rtpConn.Close()
		if err2 := t.rtcpConn.Close(); err == nil {
			err = err2
		}
	})
	return err
}
