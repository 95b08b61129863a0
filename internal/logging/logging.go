// Package logging builds the zap logger the CLI reports build progress with.
package logging

import (
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level selects how much the logger prints.
type Level int

// Verbosity levels, from least to most output.
const (
	LevelQuiet   Level = iota // errors only
	LevelNormal               // info and above
	LevelVerbose              // debug and above
)

// Config configures New.
type Config struct {
	Level Level
	Color bool // colored level names, for terminals
}

// New returns a console logger writing to w. A nil w yields a no-op logger.
func New(w io.Writer, cfg Config) *zap.Logger {
	if w == nil {
		return zap.NewNop()
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(time.TimeOnly),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: " ",
	}
	if cfg.Color {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(zapLevel(cfg.Level)),
	)
	return zap.New(core)
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelQuiet:
		return zapcore.ErrorLevel
	case LevelVerbose:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// LevelFor maps the CLI's --quiet and --verbose flags to a Level.
// Quiet wins when both are set.
func LevelFor(quiet, verbose bool) Level {
	switch {
	case quiet:
		return LevelQuiet
	case verbose:
		return LevelVerbose
	default:
		return LevelNormal
	}
}
