// Package channels implements the subscription registry: a fixed set of
// named channels, each holding an ordered, identity-deduplicated set of
// subscribed connections. One channel is the privileged job intake; frames
// published there go to the dispatcher, never to subscribers. The other
// channels are pure fan-out registries.
package channels

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/clusterstats/stathub/errors"
	"github.com/clusterstats/stathub/message"
)

// AckPrefix is the one-time acknowledgment text sent on a connection's
// first successful subscribe to a channel.
const AckPrefix = "You are connected to the channel "

// Subscriber is a connection as the registry sees it: an identity to dedup
// on and a way to push text at it.
type Subscriber interface {
	ID() uuid.UUID
	Send(data []byte) error
}

// Submitter receives jobs published on the intake channel.
type Submitter interface {
	Submit(job message.Job)
}

// Registry maps channel names to their subscriber sets. The channel set is
// fixed at construction; subscriber sets mutate as connections come and go.
// Connections run on their own goroutines, so the maps are mutex-guarded.
type Registry struct {
	mu         sync.Mutex
	subs       map[message.Channel][]Subscriber
	intake     message.Channel
	dispatcher Submitter
}

// NewRegistry creates a registry over the fixed channel set. Frames
// arriving on intake are forwarded to dispatcher.
func NewRegistry(dispatcher Submitter, intake message.Channel, channels []message.Channel) *Registry {
	subs := make(map[message.Channel][]Subscriber, len(channels))
	for _, ch := range channels {
		subs[ch] = nil
	}

	return &Registry{
		subs:       subs,
		intake:     intake,
		dispatcher: dispatcher,
	}
}

// Subscribe adds sub to the channel's subscriber set. It is idempotent: a
// connection already subscribed is left untouched and receives no second
// acknowledgment. The first successful subscribe sends exactly one ack.
func (r *Registry) Subscribe(ch message.Channel, sub Subscriber) error {
	r.mu.Lock()
	existing, ok := r.subs[ch]
	if !ok {
		r.mu.Unlock()
		return errors.ErrUnknownChannel
	}

	for _, s := range existing {
		if s.ID() == sub.ID() {
			r.mu.Unlock()
			return nil
		}
	}

	r.subs[ch] = append(existing, sub)
	r.mu.Unlock()

	if err := sub.Send([]byte(AckPrefix + string(ch))); err != nil {
		slog.Debug("Subscribe ack not delivered", "channel", ch, "conn", sub.ID(), "error", err)
	}
	return nil
}

// UnsubscribeAll removes sub from every channel's subscriber set. It is
// invoked exactly once, when the connection closes.
func (r *Registry) UnsubscribeAll(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for ch, subscribers := range r.subs {
		for i, s := range subscribers {
			if s.ID() == sub.ID() {
				r.subs[ch] = append(subscribers[:i:i], subscribers[i+1:]...)
				break
			}
		}
	}
}

// Route handles one decoded frame from a connection: subscribe-on-first-
// message bookkeeping, then intake forwarding. A frame naming an unknown
// channel is silently ignored apart from a debug log line.
func (r *Registry) Route(frame message.Frame, sub Subscriber) {
	if err := r.Subscribe(frame.Channel, sub); err != nil {
		slog.Debug("Frame for unknown channel ignored", "channel", frame.Channel, "conn", sub.ID())
		return
	}

	if frame.Channel == r.intake {
		r.dispatcher.Submit(frame.Job())
	}
}

// Broadcast sends payload to every subscriber of ch in subscription order
// and returns the delivery count. The intake channel is never fanned out.
// No core code path invokes this today; it exists for the fan-out channels.
func (r *Registry) Broadcast(ch message.Channel, payload []byte) int {
	if ch == r.intake {
		return 0
	}

	r.mu.Lock()
	subscribers := make([]Subscriber, len(r.subs[ch]))
	copy(subscribers, r.subs[ch])
	r.mu.Unlock()

	delivered := 0
	for _, s := range subscribers {
		if err := s.Send(payload); err != nil {
			slog.Debug("Broadcast delivery failed", "channel", ch, "conn", s.ID(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Subscribers returns the subscriber count for ch.
func (r *Registry) Subscribers(ch message.Channel) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[ch])
}
