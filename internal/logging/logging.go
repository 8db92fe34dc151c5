// Package logging builds the zap logger shared by the rxforecast commands.
package logging

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config builds the zap configuration for level and format ("json" or
// "console"). verbose forces debug level.
func Config(level, format string, verbose bool) (zap.Config, error) {
	var cfg zap.Config
	switch format {
	case "json", "":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return zap.Config{}, fmt.Errorf("unknown log format %q", format)
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return zap.Config{}, fmt.Errorf("invalid log level: %w", err)
		}
		cfg.Level = lvl
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg, nil
}

// New builds a logger writing to stderr.
func New(level, format string, verbose bool) (*zap.Logger, error) {
	cfg, err := Config(level, format, verbose)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Stage logs the start of a pipeline stage at debug level and returns a
// function that logs its completion with the elapsed time and any extra
// fields.
func Stage(logger *zap.Logger, name string) func(fields ...zap.Field) {
	start := time.Now()
	logger.Debug("Stage started", zap.String("stage", name))
	return func(fields ...zap.Field) {
		fields = append(fields, zap.String("stage", name), zap.Duration("elapsed", time.Since(start)))
		logger.Info("Stage finished", fields...)
	}
}
