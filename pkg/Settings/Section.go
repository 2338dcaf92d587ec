package Settings

type Config struct {
	APP    APP    `toml:"APP" yaml:"app"`
	Server Server `toml:"Server" yaml:"server"`
	Client Client `toml:"Client" yaml:"client"`
	Relay  Relay  `toml:"Relay" yaml:"relay"`
	Logger Logger `toml:"Logger" yaml:"logger"`
}

func (c *Config) fixme() {
	if c.APP.RtspPort == 0 {
		c.APP.RtspPort = 554
	}
	if c.APP.ServerName == "" {
		c.APP.ServerName = "RTSP_ENGINE/1.0"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 60
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10
	}
	if c.Server.RtpPortMin == 0 {
		c.Server.RtpPortMin = 20000
	}
	if c.Server.RtpPortMax == 0 {
		c.Server.RtpPortMax = 30000
	}
	if c.Server.SessionTimeout == 0 {
		c.Server.SessionTimeout = 60
	}
	if c.Server.MulticastTTL == 0 {
		c.Server.MulticastTTL = 16
	}
	if c.Client.ConnectTimeout == 0 {
		c.Client.ConnectTimeout = 10
	}
	if c.Client.KeepAliveInterval == 0 {
		c.Client.KeepAliveInterval = 30
	}
	if c.Client.UserAgent == "" {
		c.Client.UserAgent = "RTSP_ENGINE/1.0"
	}
	if c.Client.RtpPortMin == 0 {
		c.Client.RtpPortMin = 30000
	}
	if c.Client.RtpPortMax == 0 {
		c.Client.RtpPortMax = 40000
	}
	if c.Relay.SdpWait == 0 {
		c.Relay.SdpWait = 10
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
}

type APP struct {
	RtspPort   int    `toml:"RtspPort" yaml:"rtsp_port"`
	ServerName string `toml:"ServerName" yaml:"server_name"`
}

// Server timeouts are in seconds.
type Server struct {
	ReadTimeout      int    `toml:"ReadTimeout" yaml:"read_timeout"`
	WriteTimeout     int    `toml:"WriteTimeout" yaml:"write_timeout"`
	RtpPortMin       int    `toml:"RtpPortMin" yaml:"rtp_port_min"`
	RtpPortMax       int    `toml:"RtpPortMax" yaml:"rtp_port_max"`
	SessionTimeout   int    `toml:"SessionTimeout" yaml:"session_timeout"`
	MulticastAddress string `toml:"MulticastAddress" yaml:"multicast_address"`
	MulticastTTL     int    `toml:"MulticastTTL" yaml:"multicast_ttl"`
}

type Client struct {
	ConnectTimeout      int    `toml:"ConnectTimeout" yaml:"connect_timeout"`
	KeepAliveInterval   int    `toml:"KeepAliveInterval" yaml:"keep_alive_interval"`
	UserAgent           string `toml:"UserAgent" yaml:"user_agent"`
	RtpPortMin          int    `toml:"RtpPortMin" yaml:"rtp_port_min"`
	RtpPortMax          int    `toml:"RtpPortMax" yaml:"rtp_port_max"`
	HonorSessionTimeout bool   `toml:"HonorSessionTimeout" yaml:"honor_session_timeout"`
}

type Relay struct {
	Upstream string `toml:"Upstream" yaml:"upstream"`
	SdpWait  int    `toml:"SdpWait" yaml:"sdp_wait"`
}

type Logger struct {
	Level       string `toml:"Level" yaml:"level"`
	LogDir      string `toml:"LogDir" yaml:"log_dir"`
	MaxSize     int    `toml:"MaxSize" yaml:"max_size"`
	MaxBackups  int    `toml:"MaxBackups" yaml:"max_backups"`
	MaxAge      int    `toml:"MaxAge" yaml:"max_age"`
	Development bool   `toml:"Development" yaml:"development"`
}
