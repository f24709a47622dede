package server

import "time"

// Config holds connection-supervisor settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Path is the WebSocket endpoint path.
	Path string

	// PingPeriod is the liveness probe period. A connection that has not
	// answered the previous probe when the next one is due is terminated,
	// so worst-case detection latency is twice this value.
	PingPeriod time.Duration

	// WriteTimeout bounds each outbound write.
	WriteTimeout time.Duration

	// ReadLimit caps the size of one inbound frame in bytes.
	ReadLimit int64

	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int
}

// DefaultConfig returns the default supervisor settings.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		Path:         "/ws",
		PingPeriod:   30 * time.Second,
		WriteTimeout: 10 * time.Second,
		ReadLimit:    64 * 1024,
		SendBuffer:   64,
	}
}

// withDefaults fills zero-valued fields.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.Path == "" {
		c.Path = d.Path
	}
	if c.PingPeriod == 0 {
		c.PingPeriod = d.PingPeriod
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ReadLimit == 0 {
		c.ReadLimit = d.ReadLimit
	}
	if c.SendBuffer == 0 {
		c.SendBuffer = d.SendBuffer
	}
	return c
}
