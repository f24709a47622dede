package core

import (
	"time"
)

// Config holds engine configuration
type Config struct {
	ShutdownTimeout time.Duration
}

// EngineOption is a function that modifies engine configuration
type EngineOption func(*Config)

// defaultConfig returns default configuration
func defaultConfig() *Config {
	return &Config{
		ShutdownTimeout: 30 * time.Second,
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout
func WithShutdownTimeout(d time.Duration) EngineOption {
	return func(c *Config) {
		c.ShutdownTimeout = d
	}
}

// DispatcherConfig holds dispatcher configuration
type DispatcherConfig struct {
	SubmitBufferSize int
}

// DispatcherOption is a function that modifies dispatcher configuration
type DispatcherOption func(*DispatcherConfig)

// defaultDispatcherConfig returns default dispatcher configuration
func defaultDispatcherConfig() *DispatcherConfig {
	return &DispatcherConfig{
		SubmitBufferSize: 256,
	}
}

// WithSubmitBufferSize sets the submit channel buffer size
func WithSubmitBufferSize(size int) DispatcherOption {
	return func(c *DispatcherConfig) {
		c.SubmitBufferSize = size
	}
}
