package SDP

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pion/sdp/v3"
	"github.com/pkg/errors"
)

const (
	V_SDP = "video"
	A_SDP = "audio"
)

// MediaDescription is one m= section with the attributes the RTSP engines
// look at lifted out of the attribute list.
type MediaDescription struct {
	Type        string
	Control     string
	PayloadType int
	RtpMap      string
	Fmtp        string
	Media       *sdp.MediaDescription
}

type SessionDescription struct {
	Control string
	Medias  []*MediaDescription
	Raw     []byte
	Desc    *sdp.SessionDescription
}

// Parse decodes an SDP body. A description without media sections is valid;
// it simply has no tracks to set up.
func Parse(data []byte) (*SessionDescription, error) {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal(data); err != nil {
		return nil, errors.Wrap(err, "unmarshal sdp")
	}
	sd := &SessionDescription{
		Raw:  data,
		Desc: &desc,
	}
	for _, attr := range desc.Attributes {
		if attr.Key == "control" {
			sd.Control = attr.Value
		}
	}
	for _, m := range desc.MediaDescriptions {
		md := &MediaDescription{
			Type:        m.MediaName.Media,
			PayloadType: -1,
			Media:       m,
		}
		if len(m.MediaName.Formats) > 0 {
			if pt, err := strconv.Atoi(m.MediaName.Formats[0]); err == nil {
				md.PayloadType = pt
			}
		}
		if v, ok := m.Attribute("control"); ok {
			md.Control = v
		}
		if v, ok := m.Attribute("rtpmap"); ok {
			md.RtpMap = afterPayloadType(v)
		}
		if v, ok := m.Attribute("fmtp"); ok {
			md.Fmtp = afterPayloadType(v)
		}
		sd.Medias = append(sd.Medias, md)
	}
	return sd, nil
}

// "96 H264/90000" -> "H264/90000"
func afterPayloadType(v string) string {
	if i := strings.IndexByte(v, ' '); i >= 0 {
		return strings.TrimSpace(v[i+1:])
	}
	return v
}

// ResolveControl turns a media control attribute into the URL a SETUP is
// sent to. Absolute rtsp URLs are used as they are; anything else is joined
// to base with exactly one slash. "*" or an empty control means base itself.
func ResolveControl(base, control string) string {
	lower := strings.ToLower(control)
	if strings.HasPrefix(lower, "rtsp://") || strings.HasPrefix(lower, "rtsps://") {
		return control
	}
	if control == "" || control == "*" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(control, "/")
}

type TrackParams struct {
	TrackID     string
	MediaType   string
	PayloadType uint8
	RtpMap      string
	Fmtp        string
	Port        int
}

type BuildParams struct {
	SessionName string
	Local       net.IP
	Remote      net.IP
	TTL         int
	Tracks      []TrackParams
}

func addrType(ip net.IP) string {
	if ip.To4() == nil && ip.To16() != nil {
		return "IP6"
	}
	return "IP4"
}

func ipString(ip net.IP) string {
	if ip == nil {
		return "0.0.0.0"
	}
	return ip.String()
}

// Build serializes a description for a DESCRIBE reply. The origin carries the
// local address and the connection line the address media will be sent to.
func Build(p BuildParams) ([]byte, error) {
	now := uint64(time.Now().Unix())
	conn := &sdp.ConnectionInformation{
		NetworkType: "IN",
		AddressType: addrType(p.Remote),
		Address:     &sdp.Address{Address: ipString(p.Remote)},
	}
	if p.Remote != nil && p.Remote.IsMulticast() && p.TTL > 0 {
		ttl := p.TTL
		conn.Address.TTL = &ttl
	}
	name := p.SessionName
	if name == "" {
		name = "Unnamed"
	}
	desc := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      now,
			SessionVersion: now,
			NetworkType:    "IN",
			AddressType:    addrType(p.Local),
			UnicastAddress: ipString(p.Local),
		},
		SessionName:           sdp.SessionName(name),
		ConnectionInformation: conn,
		TimeDescriptions:      []sdp.TimeDescription{{Timing: sdp.Timing{StartTime: 0, StopTime: 0}}},
		Attributes: []sdp.Attribute{
			sdp.NewAttribute("tool", "RTSP_ENGINE"),
			sdp.NewAttribute("range", "npt=now-"),
		},
	}
	for _, t := range p.Tracks {
		pt := strconv.Itoa(int(t.PayloadType))
		m := &sdp.MediaDescription{
			MediaName: sdp.MediaName{
				Media:   t.MediaType,
				Port:    sdp.RangedPort{Value: t.Port},
				Protos:  []string{"RTP", "AVP"},
				Formats: []string{pt},
			},
		}
		if t.RtpMap != "" {
			m.Attributes = append(m.Attributes, sdp.NewAttribute("rtpmap", pt+" "+t.RtpMap))
		}
		if t.Fmtp != "" {
			m.Attributes = append(m.Attributes, sdp.NewAttribute("fmtp", pt+" "+t.Fmtp))
		}
		m.Attributes = append(m.Attributes, sdp.NewAttribute("control", "trackID="+t.TrackID))
		desc.MediaDescriptions = append(desc.MediaDescriptions, m)
	}
	return desc.Marshal()
}
