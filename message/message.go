// Package message defines the wire frame exchanged with connected agents
// and the internal job/completion records passed between the supervisor,
// the dispatcher, and the workers. Frames are decoded exactly once, at the
// connection boundary; everything past that point works with typed values.
package message

import (
	"encoding/json"
	"fmt"

	"github.com/clusterstats/stathub/errors"
)

// JobKind identifies the family of backend operations a job belongs to.
type JobKind int

const (
	// KindClusterStats covers cluster-level telemetry documents.
	KindClusterStats JobKind = 0
	// KindNodeStats covers per-node telemetry documents.
	KindNodeStats JobKind = 1
)

// Valid reports whether k is a known job kind.
func (k JobKind) Valid() bool {
	switch k {
	case KindClusterStats, KindNodeStats:
		return true
	}
	return false
}

func (k JobKind) String() string {
	switch k {
	case KindClusterStats:
		return "cluster-stats"
	case KindNodeStats:
		return "node-stats"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Channel is the name of a subscription channel. The set of channels is
// fixed at startup; there is no dynamic channel creation.
type Channel string

const (
	// ChannelStats is the privileged job-intake channel. Frames published
	// here are handed to the dispatcher instead of being fanned out.
	ChannelStats Channel = "stats"
	// ChannelDashboard is a pure fan-out channel.
	ChannelDashboard Channel = "dashboard"
)

// Channels returns the fixed channel set known at startup.
func Channels() []Channel {
	return []Channel{ChannelStats, ChannelDashboard}
}

// Frame is one inbound JSON object as sent by a connected agent.
type Frame struct {
	MessageType JobKind         `json:"message_type"`
	Channel     Channel         `json:"channel"`
	Request     string          `json:"request"`
	Data        json.RawMessage `json:"data"`
}

// Decode parses a single frame from raw. A malformed or out-of-range frame
// yields a DecodeError; callers log it and keep the connection alive.
func Decode(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, errors.NewDecodeError(err)
	}
	if !f.MessageType.Valid() {
		return Frame{}, errors.NewDecodeError(fmt.Errorf("unknown message_type %d", int(f.MessageType)))
	}
	if f.Channel == "" {
		return Frame{}, errors.NewDecodeError(errors.ErrEmptyChannel)
	}
	return f, nil
}

// Job converts the frame into the dispatcher-facing job record.
func (f Frame) Job() Job {
	return Job{Kind: f.MessageType, Request: f.Request, Data: f.Data}
}

// Job is a unit of backend work submitted on the intake channel. Jobs are
// transient: created on publish, dropped once a worker reports completion.
type Job struct {
	Kind    JobKind         `json:"type"`
	Request string          `json:"request"`
	Data    json.RawMessage `json:"data"`
}

// Completion results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Completion is the signal a worker emits after finishing a job,
// success or not.
type Completion struct {
	Result string `json:"result"`
	Err    string `json:"error,omitempty"`
}

// Succeeded reports whether the completion carries no error.
func (c Completion) Succeeded() bool {
	return c.Result == ResultSuccess
}
