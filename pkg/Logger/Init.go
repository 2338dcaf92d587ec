package Logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger         = new(Logger)
	opt            = new(Option)
	mu             sync.Mutex
	debugConsoleWS = zapcore.Lock(os.Stdout)
	errorConsoleWS = zapcore.Lock(os.Stderr)
)

type Logger struct {
	Opt       *Option
	inited    bool
	log       *zap.Logger
	zapConfig zap.Config
}

// GetLogger returns the process logger. Before Init it hands out a
// development console logger so packages can log without setup.
func GetLogger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger.log == nil {
		logger.log = zap.New(zapcore.NewTee(consoleCores(zapcore.DebugLevel)...), zap.AddCaller())
	}
	return logger.log
}

func Init(opts ...ModOptions) (err error) {
	mu.Lock()
	defer mu.Unlock()
	if logger.inited {
		logger.log.Info("[NewLogger] logger Inited")
		return nil
	}
	for _, item := range opts {
		item(opt)
	}
	opt.fixup()
	logger.Opt = opt
	if opt.Development {
		logger.zapConfig = zap.NewDevelopmentConfig()
	} else {
		logger.zapConfig = zap.NewProductionConfig()
	}
	logger.zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	logger.zapConfig.EncoderConfig.EncodeTime = timeEncoder
	logger.zapConfig.DisableStacktrace = true
	logger.zapConfig.Level.SetLevel(opt.Level)
	if err = logger.init(); err != nil {
		return
	}
	logger.inited = true
	return nil
}

// Sync flushes buffered entries, called on shutdown.
func Sync() {
	mu.Lock()
	l := logger.log
	mu.Unlock()
	if l != nil {
		_ = l.Sync()
	}
}

func (l *Logger) init() error {
	var err error
	l.log, err = l.zapConfig.Build(l.cores())
	return err
}

func (l *Logger) fileSyncer(level string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(l.Opt.LogDir, fmt.Sprintf("%s-%s.log", l.Opt.FiLeName, level)),
		MaxSize:    l.Opt.MaxSize,
		MaxAge:     l.Opt.MaxAge,
		MaxBackups: l.Opt.MaxBackups,
		LocalTime:  true,
		Compress:   false,
	})
}

func (l *Logger) cores() zap.Option {
	var cores []zapcore.Core
	if l.Opt.Development {
		cores = consoleCores(l.zapConfig.Level.Level())
	} else {
		fileEncoder := zapcore.NewJSONEncoder(l.zapConfig.EncoderConfig)
		minLevel := l.zapConfig.Level.Level()
		errPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.ErrorLevel && lvl >= minLevel
		})
		infoPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl < zapcore.ErrorLevel && lvl >= minLevel
		})
		cores = []zapcore.Core{
			zapcore.NewCore(fileEncoder, l.fileSyncer("error"), errPriority),
			zapcore.NewCore(fileEncoder, l.fileSyncer("info"), infoPriority),
		}
	}
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(cores...)
	})
}

func consoleCores(minLevel zapcore.Level) []zapcore.Core {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = timeEncoder
	consoleEncoder := NewConsoleEncoder(encoderConfig)
	errPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel && lvl >= minLevel
	})
	outPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl < zapcore.ErrorLevel && lvl >= minLevel
	})
	return []zapcore.Core{
		zapcore.NewCore(consoleEncoder, errorConsoleWS, errPriority),
		zapcore.NewCore(consoleEncoder, debugConsoleWS, outPriority),
	}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05"))
}
