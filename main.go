package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.hub.com/wangyl/RTSP_ENGINE/Global"
	"git.hub.com/wangyl/RTSP_ENGINE/app"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Logger"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Settings"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	a := kingpin.New(filepath.Base(os.Args[0]), "rtsp engine")
	a.HelpFlag.Short('h')
	a.Flag("config", "config path").Short('c').StringVar(&Global.ConfigPath)
	serve := a.Command("serve", "relay the configured upstream over rtsp").Default()
	upstream := serve.Flag("upstream", "upstream rtsp url, overrides the config").String()
	play := a.Command("play", "pull an rtsp url and log its media")
	playUrl := play.Arg("url", "rtsp url").Required().String()

	cmd, err := a.Parse(os.Args[1:])
	if err != nil {
		Logger.GetLogger().Error("init flag fail: " + err.Error())
		os.Exit(-1)
	}
	if err = Global.GlobalInit(); err != nil {
		Logger.GetLogger().Error("init fail: " + err.Error())
		os.Exit(-1)
	}
	defer Logger.Sync()

	conf := Settings.GetConfig()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	switch cmd {
	case serve.FullCommand():
		if *upstream != "" {
			conf.Relay.Upstream = *upstream
		}
		var rtspService app.RtspService
		if err = rtspService.Init(conf); err != nil {
			Logger.GetLogger().Error("init service fail: " + err.Error())
			os.Exit(-1)
		}
		if err = rtspService.StartWork(); err != nil {
			Logger.GetLogger().Error(err.Error())
			os.Exit(-1)
		}
		s := <-quit
		Logger.GetLogger().Info("signal received", zap.String("signal", s.String()))
		rtspService.Stop()
	case play.FullCommand():
		player := app.NewRtspPlayer(app.ClientConfigFrom(conf, *playUrl))
		player.Start()
		select {
		case s := <-quit:
			Logger.GetLogger().Info("signal received", zap.String("signal", s.String()))
			player.Stop()
		case <-player.Done():
			player.Stop()
			if player.Err() != nil {
				Logger.Sync()
				os.Exit(1)
			}
		}
	}
}
