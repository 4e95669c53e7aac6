// Package logging builds the process logger.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the logger level.
type Config struct {
	Debug bool
	// Quiet raises the level to warn; used by commands whose stdout is the product.
	Quiet bool
}

// New builds a production zap logger writing JSON to stderr.
func New(cfg Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	switch {
	case cfg.Debug:
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case cfg.Quiet:
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
