// Package logger builds the zap loggers used across the service.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level, encoding and sinks. Format is "json" or "console".
type Config struct {
	Level       string
	Format      string
	Development bool
	OutputPaths []string
}

func New(cfg Config) (*zap.Logger, error) {
	log, _, err := NewWithLevel(cfg)
	return log, err
}

// NewWithLevel also returns the AtomicLevel behind the logger so config
// reloads can change verbosity in place.
func NewWithLevel(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(ParseLevel(cfg.Level))

	zc := zap.Config{
		Level:            level,
		Development:      cfg.Development,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
	}
	if cfg.Development {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	if cfg.Format == "console" {
		zc.Encoding = "console"
	}
	if len(zc.OutputPaths) == 0 {
		zc.OutputPaths = []string{"stdout"}
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := zc.Build()
	if err != nil {
		return nil, level, err
	}
	return log, level, nil
}

// ParseLevel reads a level name. Unknown or empty names mean info.
func ParseLevel(text string) zapcore.Level {
	level, err := zapcore.ParseLevel(text)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}
