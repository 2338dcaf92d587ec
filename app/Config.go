package app

import (
	"net"
	"time"

	"git.hub.com/wangyl/RTSP_ENGINE/internal/RTP"
	"git.hub.com/wangyl/RTSP_ENGINE/internal/RTSP"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Settings"
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func ServerConfigFrom(conf Settings.Config) RTSP.ServerConfig {
	return RTSP.ServerConfig{
		Port:             conf.APP.RtspPort,
		ServerName:       conf.APP.ServerName,
		ReadTimeout:      seconds(conf.Server.ReadTimeout),
		WriteTimeout:     seconds(conf.Server.WriteTimeout),
		RtpPorts:         RTP.PortRange{Min: conf.Server.RtpPortMin, Max: conf.Server.RtpPortMax},
		SessionTimeout:   seconds(conf.Server.SessionTimeout),
		MulticastAddress: net.ParseIP(conf.Server.MulticastAddress),
		MulticastTTL:     conf.Server.MulticastTTL,
	}
}

func ClientConfigFrom(conf Settings.Config, url string) RTSP.ClientConfig {
	return RTSP.ClientConfig{
		Url:                 url,
		ConnectTimeout:      seconds(conf.Client.ConnectTimeout),
		KeepAliveInterval:   seconds(conf.Client.KeepAliveInterval),
		UserAgent:           conf.Client.UserAgent,
		RtpPorts:            RTP.PortRange{Min: conf.Client.RtpPortMin, Max: conf.Client.RtpPortMax},
		HonorSessionTimeout: conf.Client.HonorSessionTimeout,
	}
}
