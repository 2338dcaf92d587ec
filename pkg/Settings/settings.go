package Settings

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var config Config

func GetConfig() Config {
	return config
}

// ReadConfig loads a TOML file, or YAML when the extension says so. An empty
// path keeps the defaults.
func ReadConfig(configPath string) error {
	var c Config
	if configPath != "" {
		switch strings.ToLower(filepath.Ext(configPath)) {
		case ".yaml", ".yml":
			data, err := os.ReadFile(configPath)
			if err != nil {
				return errors.Wrap(err, "read config")
			}
			if err = yaml.Unmarshal(data, &c); err != nil {
				return errors.Wrap(err, "parse yaml config")
			}
		default:
			if _, err := toml.DecodeFile(configPath, &c); err != nil {
				return errors.Wrap(err, "parse toml config")
			}
		}
	}
	c.fixme()
	if c.Server.RtpPortMin >= c.Server.RtpPortMax || c.Client.RtpPortMin >= c.Client.RtpPortMax {
		return errors.New("rtp port range is empty")
	}
	config = c
	return nil
}
