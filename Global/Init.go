package Global

import (
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Logger"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Settings"
	"git.hub.com/wangyl/RTSP_ENGINE/pkg/Snowflake"
)

var ConfigPath string

func GlobalInit() (err error) {
	//init config
	if err = Settings.ReadConfig(ConfigPath); err != nil {
		return err
	}
	//init Logger
	conf := Settings.GetConfig().Logger
	if err = Logger.Init(
		Logger.SetDevelopment(conf.Development),
		Logger.SetLevelString(conf.Level),
		Logger.SetLogFileDir(conf.LogDir),
		Logger.SetMaxAge(conf.MaxAge),
		Logger.SetMaxBackups(conf.MaxBackups),
		Logger.SetMaxSize(conf.MaxSize),
	); err != nil {
		return err
	}
	return Snowflake.Init(1)
}
