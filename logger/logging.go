package logger

import (
	"context"
	"fmt"

	"mikhailche/lurelog/config"
	"mikhailche/lurelog/lib/tracer.v2"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func New(ctx context.Context, cfg config.LogConfig) (*zap.Logger, error) {
	_, span := tracer.Open(ctx, tracer.Named("newLogger"))
	defer span.Close()

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("newLogger: %w", err)
	}
	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.DisableCaller = false
	zapConfig.Level.SetLevel(level)
	log, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("newLogger: %w", err)
	}
	return log, nil
}

// WithAlerts tees error-level entries into core, leaving the original output intact.
func WithAlerts(log *zap.Logger, core zapcore.Core) *zap.Logger {
	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, core)
	}))
}

func ForTests() (*zap.Logger, error) {
	return zap.NewDevelopment()
}
