package Logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	Red     = 31
	Yellow  = 33
	Magenta = 35
	Cyan    = 36
)

var _pool = buffer.NewPool()

// ConsoleEncoder prints a colored level, time and caller prefix and lets the
// wrapped console encoder render message context as a trailing JSON object.
type ConsoleEncoder struct {
	zapcore.Encoder
	cfg zapcore.EncoderConfig
}

func NewConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	fieldsOnly := cfg
	fieldsOnly.TimeKey = ""
	fieldsOnly.LevelKey = ""
	fieldsOnly.NameKey = ""
	fieldsOnly.CallerKey = ""
	fieldsOnly.MessageKey = ""
	fieldsOnly.StacktraceKey = ""
	fieldsOnly.LineEnding = zapcore.DefaultLineEnding
	return &ConsoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(fieldsOnly),
		cfg:     cfg,
	}
}

func (c *ConsoleEncoder) Clone() zapcore.Encoder {
	return &ConsoleEncoder{
		Encoder: c.Encoder.Clone(),
		cfg:     c.cfg,
	}
}

func levelColor(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return Magenta
	case zapcore.InfoLevel:
		return Cyan
	case zapcore.WarnLevel:
		return Yellow
	default:
		return Red
	}
}

func (c *ConsoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := _pool.Get()
	line.AppendString(fmt.Sprintf("\x1b[%dm%s\x1b[0m", levelColor(ent.Level), strings.ToUpper(ent.Level.String())))
	line.AppendByte('\t')
	if c.cfg.TimeKey != "" {
		line.AppendString(ent.Time.Format("2006-01-02 15:04:05"))
		line.AppendByte('\t')
	}
	if ent.Caller.Defined {
		line.AppendString(ent.Caller.TrimmedPath())
		line.AppendByte('\t')
	}
	line.AppendString(ent.Message)
	rest, err := c.Encoder.EncodeEntry(ent, fields)
	if err != nil {
		line.Free()
		return nil, err
	}
	if rest.Len() > len(zapcore.DefaultLineEnding) {
		line.AppendByte('\t')
	}
	line.AppendString(rest.String())
	rest.Free()
	return line, nil
}
