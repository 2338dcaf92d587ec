package app

import (
	"git.hub.com/wangyl/RTSP_ENGINE/internal/RTSP"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Logger"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Settings"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type RtspService struct {
	Server  *RTSP.RtspServer
	Factory *RelayFactory
}

func (s *RtspService) Init(conf Settings.Config) error {
	if conf.Relay.Upstream == "" {
		return errors.New("relay upstream is not configured")
	}
	s.Factory = NewRelayFactory(ClientConfigFrom(conf, conf.Relay.Upstream), seconds(conf.Relay.SdpWait))
	s.Server = RTSP.NewRtspServer(ServerConfigFrom(conf), s.Factory)
	return nil
}

func (s *RtspService) StartWork() error {
	if err := s.Server.Serve(); err != nil {
		return errors.Wrap(err, "start rtsp server")
	}
	Logger.GetLogger().Info("Rtsp Service start", zap.String("addr", s.Server.Addr().String()),
		zap.String("upstream", s.Factory.ClientConf.Url))
	return nil
}

func (s *RtspService) Stop() {
	if s.Server != nil {
		s.Server.Stop()
	}
	Logger.GetLogger().Info("Rtsp Service stop")
}
