package config

import (
	"time"

	"go.uber.org/zap/zapcore"
)

type Option func(*Config)

// WithLogLevel overrides the level only when LOG_LEVEL was left at its default.
func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		if c.Log.LogLevel == zapcore.InfoLevel {
			c.Log.LogLevel = level
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		if c.Server.WriteTimeout == 0 {
			c.Server.WriteTimeout = d
		}
	}
}
