// Package logger builds the zap loggers used across the ledger and carries
// request-scoped loggers through contexts, gin and GORM.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level, encoding and destination of the root logger.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or a file path
	TimeFormat string // layout of the time field
}

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// DefaultConfig is a colored console logger at debug level.
func DefaultConfig() *Config {
	return &Config{Level: "debug", Format: "console", Output: "stdout", TimeFormat: defaultTimeFormat}
}

// ProductionConfig is a JSON logger at info level.
func ProductionConfig() *Config {
	return &Config{Level: "info", Format: "json", Output: "stdout", TimeFormat: defaultTimeFormat}
}

// New builds a logger from cfg, or from DefaultConfig when cfg is nil.
// Entries at error level and above carry a stack trace.
func New(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	encoding, err := encodingFor(cfg.Format)
	if err != nil {
		return nil, err
	}

	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		EncoderConfig:    encoderConfig(encoding, cfg.TimeFormat),
		OutputPaths:      []string{outputPath(cfg.Output)},
		ErrorOutputPaths: []string{"stderr"},
	}
	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger for %q: %w", cfg.Output, err)
	}
	return log, nil
}

// NewForEnvironment picks ProductionConfig for "production" and
// DefaultConfig otherwise.
func NewForEnvironment(env string) (*zap.Logger, error) {
	if env == "production" {
		return New(ProductionConfig())
	}
	return New(DefaultConfig())
}

var levels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"":        zapcore.InfoLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

// ParseLevel converts a case-insensitive level name. An empty name is info.
func ParseLevel(name string) (zapcore.Level, error) {
	if level, ok := levels[strings.ToLower(strings.TrimSpace(name))]; ok {
		return level, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
}

func encodingFor(format string) (string, error) {
	switch f := strings.ToLower(format); f {
	case "", "json":
		return "json", nil
	case "console":
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q", format)
	}
}

func encoderConfig(encoding, timeFormat string) zapcore.EncoderConfig {
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(timeFormat)
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	if encoding == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return ec
}

func outputPath(output string) string {
	switch lower := strings.ToLower(output); lower {
	case "", "stdout":
		return "stdout"
	case "stderr":
		return lower
	default:
		return output
	}
}
