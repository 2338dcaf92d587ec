package RTSP

import "git.hub.com/wangyl/RTSP_ENGINE/internal/SDP"

// ClientListener receives every event of an RtspClient. Media callbacks run
// on the receiver goroutines; the rest run on the session goroutine.
type ClientListener interface {
	OnConnected(c *RtspClient)
	OnDisconnected(c *RtspClient)
	OnError(c *RtspClient, err *RtspError)
	OnSdpReceived(c *RtspClient, sdp *SDP.SessionDescription)
	OnRtpReceived(c *RtspClient, track *TrackContext, data []byte)
	OnRtcpReceived(c *RtspClient, track *TrackContext, data []byte)
}

// BaseClientListener ignores every event. Embed it to implement only some.
type BaseClientListener struct{}

func (BaseClientListener) OnConnected(*RtspClient)                            {}
func (BaseClientListener) OnDisconnected(*RtspClient)                         {}
func (BaseClientListener) OnError(*RtspClient, *RtspError)                    {}
func (BaseClientListener) OnSdpReceived(*RtspClient, *SDP.SessionDescription) {}
func (BaseClientListener) OnRtpReceived(*RtspClient, *TrackContext, []byte)   {}
func (BaseClientListener) OnRtcpReceived(*RtspClient, *TrackContext, []byte)  {}
