package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clusterstats/stathub/message"
)

func TestRequestQueue_FIFO(t *testing.T) {
	q := NewRequestQueue()

	q.Push(testJob(message.KindClusterStats, "insert", "a"))
	q.Push(testJob(message.KindClusterStats, "insert", "b"))
	q.Push(testJob(message.KindNodeStats, "insert", "c"))

	assert.Equal(t, 3, q.Len())

	first, ok := q.Pop()
	assert.True(t, ok)
	assert.Contains(t, string(first.Data), "a")

	second, ok := q.Pop()
	assert.True(t, ok)
	assert.Contains(t, string(second.Data), "b")

	third, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, message.KindNodeStats, third.Kind)

	assert.Equal(t, 0, q.Len())
}

func TestRequestQueue_PopEmpty(t *testing.T) {
	q := NewRequestQueue()

	_, ok := q.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}
