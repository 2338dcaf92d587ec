package Logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Option struct {
	LogDir      string
	FiLeName    string
	Level       zapcore.Level
	MaxSize     int // MB
	MaxBackups  int
	MaxAge      int // days
	Development bool
}

func (i *Option) fixup() {
	if i.LogDir == "" {
		path, _ := os.Executable()
		i.LogDir = filepath.Dir(path)
	}
	if i.FiLeName == "" {
		i.FiLeName = filepath.Base(os.Args[0])
	}
	if i.MaxBackups == 0 {
		i.MaxBackups = 5
	}
	if i.MaxSize == 0 {
		i.MaxSize = 500
	}
	if i.MaxAge == 0 {
		i.MaxAge = 5
	}
}

type ModOptions func(options *Option)

func SetMaxSize(MaxSize int) ModOptions {
	return func(option *Option) {
		option.MaxSize = MaxSize
	}
}

func SetMaxBackups(MaxBackups int) ModOptions {
	return func(option *Option) {
		option.MaxBackups = MaxBackups
	}
}

func SetMaxAge(MaxAge int) ModOptions {
	return func(option *Option) {
		option.MaxAge = MaxAge
	}
}

func SetLogFileDir(LogFileDir string) ModOptions {
	return func(option *Option) {
		option.LogDir = LogFileDir
	}
}

func SetFileName(FileName string) ModOptions {
	return func(option *Option) {
		option.FiLeName = FileName
	}
}

func SetLevel(Level zapcore.Level) ModOptions {
	return func(option *Option) {
		option.Level = Level
	}
}

// SetLevelString accepts debug/info/warn/error; anything else keeps debug.
func SetLevelString(level string) ModOptions {
	return func(option *Option) {
		switch strings.ToLower(level) {
		case "info":
			option.Level = zapcore.InfoLevel
		case "warn":
			option.Level = zapcore.WarnLevel
		case "error":
			option.Level = zapcore.ErrorLevel
		default:
			option.Level = zapcore.DebugLevel
		}
	}
}

func SetDevelopment(Development bool) ModOptions {
	return func(option *Option) {
		option.Development = Development
	}
}
