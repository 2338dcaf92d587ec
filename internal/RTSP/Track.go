package RTSP

import (
	"sync"

	"git.hub.com/wangyl/RTSP_ENGINE/internal/RTP"
	"git.hub.com/wangyl/RTSP_ENGINE/internal/SDP"
)

type ClientState int32

const (
	StateDisconnected ClientState = iota
	StateConnected
	StateOptionsSent
	StateDescribed
	StateSetup
	StatePlaying
	StateTornDown
)

var clientStateNames = [...]string{"Disconnected", "Connected", "OptionsSent", "Described", "Setup", "Playing", "TornDown"}

func (s ClientState) String() string {
	if s < 0 || int(s) >= len(clientStateNames) {
		return "Invalid"
	}
	return clientStateNames[s]
}

// TrackContext is the client side of one negotiated media description.
type TrackContext struct {
	Index int
	Media *SDP.MediaDescription
	Url   string

	receiver *RTP.Receiver

	mu          sync.RWMutex
	clientPorts [2]int
	serverPorts [2]int
	ssrc        uint32
	hasSSRC     bool
}

// Ports returns the negotiated client and server port pairs.
func (t *TrackContext) Ports() (client, server [2]int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clientPorts, t.serverPorts
}

func (t *TrackContext) SSRC() (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ssrc, t.hasSSRC
}

func (t *TrackContext) Stats() RTP.Stats {
	t.mu.RLock()
	receiver := t.receiver
	t.mu.RUnlock()
	if receiver == nil {
		return RTP.Stats{}
	}
	return receiver.Stats()
}

func (t *TrackContext) negotiated(th *TransportHeader) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if th.ClientPorts != nil {
		t.clientPorts = *th.ClientPorts
	}
	if th.ServerPorts != nil {
		t.serverPorts = *th.ServerPorts
	}
	if th.SSRC != nil {
		t.ssrc, t.hasSSRC = *th.SSRC, true
	}
}
