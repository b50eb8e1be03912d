package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the process logger: development encoding for local
// runs, JSON production encoding otherwise, with the level taken from
// config.
func NewLogger(cfg LoggerConfig, env string) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if env == "local" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level

	return zc.Build()
}
