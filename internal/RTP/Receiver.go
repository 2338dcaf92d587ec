package RTP

import (
	"net"
	"sync"

	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Logger"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"go.uber.org/zap"
)

// MaxPayloadSize is the largest datagram accepted: an Ethernet MTU minus IP
// and UDP headers. Anything bigger is counted as invalid and dropped.
const MaxPayloadSize = 1472

type Stats struct {
	RtpPackets   uint64
	RtpBytes     uint64
	RtpLost      uint64
	RtcpPackets  uint64
	Invalid      uint64
	LastSequence uint16
}

// Receiver reads both sockets of a Transport and hands every valid datagram
// to the callbacks. It is live as soon as NewReceiver returns.
type Receiver struct {
	*Transport
	onRTP  func([]byte)
	onRTCP func([]byte)

	statsMu sync.Mutex
	stats   Stats
	started bool

	wg sync.WaitGroup
}

func NewReceiver(ip net.IP, ports PortRange, onRTP, onRTCP func([]byte)) (*Receiver, error) {
	t, err := Open(ip, ports)
	if err != nil {
		return nil, err
	}
	r := &Receiver{
		Transport: t,
		onRTP:     onRTP,
		onRTCP:    onRTCP,
	}
	r.wg.Add(2)
	go r.readLoop(t.rtpConn, r.handleRTP)
	go r.readLoop(t.rtcpConn, r.handleRTCP)
	return r, nil
}

func (r *Receiver) readLoop(conn *net.UDPConn, handle func([]byte)) {
	defer r.wg.Done()
	buf := make([]byte, MaxPayloadSize+1)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if n > MaxPayloadSize {
			r.countInvalid()
			Logger.GetLogger().Debug("drop oversized datagram", zap.Int("port", conn.LocalAddr().(*net.UDPAddr).Port))
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		handle(data)
	}
}

func (r *Receiver) handleRTP(data []byte) {
	var h rtp.Header
	if _, err := h.Unmarshal(data); err != nil || h.Version != 2 {
		r.countInvalid()
		Logger.GetLogger().Debug("drop invalid rtp datagram", zap.Int("len", len(data)), zap.Int("port", r.rtpPort))
		return
	}
	r.statsMu.Lock()
	if r.started {
		if gap := h.SequenceNumber - r.stats.LastSequence; gap > 1 && gap < 0x8000 {
			r.stats.RtpLost += uint64(gap - 1)
		}
	}
	r.started = true
	r.stats.LastSequence = h.SequenceNumber
	r.stats.RtpPackets++
	r.stats.RtpBytes += uint64(len(data))
	r.statsMu.Unlock()
	if r.onRTP != nil {
		r.onRTP(data)
	}
}

func (r *Receiver) handleRTCP(data []byte) {
	if _, err := rtcp.Unmarshal(data); err != nil {
		r.countInvalid()
		Logger.GetLogger().Debug("drop invalid rtcp datagram", zap.Int("len", len(data)), zap.Error(err))
		return
	}
	r.statsMu.Lock()
	r.stats.RtcpPackets++
	r.statsMu.Unlock()
	if r.onRTCP != nil {
		r.onRTCP(data)
	}
}

func (r *Receiver) countInvalid() {
	r.statsMu.Lock()
	r.stats.Invalid++
	r.statsMu.Unlock()
}

func (r *Receiver) Stats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}

// Close releases the sockets and waits for both read loops to return.
func (r *Receiver) Close() error {
	err := r.Transport.Close()
	r.wg.Wait()
	return err
}
