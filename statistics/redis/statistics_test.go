package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, "redis://localhost:6379/", opts.URI)
	assert.Equal(t, "stathub:", opts.Namespace)
	assert.Equal(t, 10, opts.MaxConnections)
	assert.Equal(t, 2, opts.MaxIdle)
	assert.Equal(t, 240*time.Second, opts.IdleTimeout)
}

func TestKeyBuilders(t *testing.T) {
	stats := NewStatistics(Options{Namespace: "stathub:"})

	assert.Equal(t, "stathub:workers", stats.workersKey())
	assert.Equal(t, "stathub:worker:host:1-0", stats.workerKey("host:1-0"))
	assert.Equal(t, "stathub:worker:host:1-0:job", stats.workerJobKey("host:1-0"))
	assert.Equal(t, "stathub:stat:processed", stats.statProcessedKey(""))
	assert.Equal(t, "stathub:stat:processed:host:1-0", stats.statProcessedKey("host:1-0"))
	assert.Equal(t, "stathub:stat:failed", stats.statFailedKey(""))
	assert.Equal(t, "stathub:stat:failed:host:1-0", stats.statFailedKey("host:1-0"))
	assert.Equal(t, "stathub:failed", stats.failedKey())
}

func TestType(t *testing.T) {
	assert.Equal(t, "redis", NewStatistics(DefaultOptions()).Type())
}

func TestHealth_NotConnected(t *testing.T) {
	stats := NewStatistics(DefaultOptions())
	assert.Error(t, stats.Health())
}

func TestClose_BeforeConnect(t *testing.T) {
	stats := NewStatistics(DefaultOptions())
	assert.NoError(t, stats.Close())
}

func TestDial_RejectsUnknownScheme(t *testing.T) {
	opts := DefaultOptions()
	opts.URI = "http://localhost:6379/"

	_, err := dial(opts)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid Redis URI scheme")
}
