package channels

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clusterstats/stathub/errors"
	"github.com/clusterstats/stathub/message"
)

type fakeSubscriber struct {
	id   uuid.UUID
	mu   sync.Mutex
	sent [][]byte
	fail error
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{id: uuid.New()}
}

func (f *fakeSubscriber) ID() uuid.UUID { return f.id }

func (f *fakeSubscriber) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeSubscriber) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, b := range f.sent {
		out[i] = string(b)
	}
	return out
}

type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []message.Job
}

func (f *fakeSubmitter) Submit(job message.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
}

func (f *fakeSubmitter) submitted() []message.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message.Job(nil), f.jobs...)
}

func newTestRegistry() (*Registry, *fakeSubmitter) {
	submitter := &fakeSubmitter{}
	return NewRegistry(submitter, message.ChannelStats, message.Channels()), submitter
}

func TestSubscribe_SendsSingleAck(t *testing.T) {
	reg, _ := newTestRegistry()
	sub := newFakeSubscriber()

	require.NoError(t, reg.Subscribe(message.ChannelDashboard, sub))
	require.NoError(t, reg.Subscribe(message.ChannelDashboard, sub))
	require.NoError(t, reg.Subscribe(message.ChannelDashboard, sub))

	assert.Equal(t, []string{AckPrefix + "dashboard"}, sub.received())
	assert.Equal(t, 1, reg.Subscribers(message.ChannelDashboard))
}

func TestSubscribe_UnknownChannel(t *testing.T) {
	reg, _ := newTestRegistry()
	sub := newFakeSubscriber()

	err := reg.Subscribe(message.Channel("metrics"), sub)
	assert.ErrorIs(t, err, errors.ErrUnknownChannel)
	assert.Empty(t, sub.received())
}

func TestSubscribe_PerChannelAcks(t *testing.T) {
	reg, _ := newTestRegistry()
	sub := newFakeSubscriber()

	require.NoError(t, reg.Subscribe(message.ChannelStats, sub))
	require.NoError(t, reg.Subscribe(message.ChannelDashboard, sub))

	assert.Equal(t, []string{
		AckPrefix + "stats",
		AckPrefix + "dashboard",
	}, sub.received())
}

func TestUnsubscribeAll(t *testing.T) {
	reg, _ := newTestRegistry()
	a := newFakeSubscriber()
	b := newFakeSubscriber()

	require.NoError(t, reg.Subscribe(message.ChannelStats, a))
	require.NoError(t, reg.Subscribe(message.ChannelDashboard, a))
	require.NoError(t, reg.Subscribe(message.ChannelDashboard, b))

	reg.UnsubscribeAll(a)

	assert.Equal(t, 0, reg.Subscribers(message.ChannelStats))
	assert.Equal(t, 1, reg.Subscribers(message.ChannelDashboard))

	// a can come back and gets a fresh ack
	require.NoError(t, reg.Subscribe(message.ChannelDashboard, a))
	assert.Equal(t, 3, len(a.received()))
}

func TestRoute_IntakeSubmitsJob(t *testing.T) {
	reg, submitter := newTestRegistry()
	sub := newFakeSubscriber()

	frame := message.Frame{
		MessageType: message.KindClusterStats,
		Channel:     message.ChannelStats,
		Request:     "insert",
		Data:        []byte(`{"cluster_id":"cluster-a"}`),
	}
	reg.Route(frame, sub)

	jobs := submitter.submitted()
	require.Len(t, jobs, 1)
	assert.Equal(t, message.KindClusterStats, jobs[0].Kind)
	assert.Equal(t, "insert", jobs[0].Request)
	assert.Equal(t, 1, reg.Subscribers(message.ChannelStats))
}

func TestRoute_FanOutChannelDoesNotSubmit(t *testing.T) {
	reg, submitter := newTestRegistry()
	sub := newFakeSubscriber()

	reg.Route(message.Frame{
		MessageType: message.KindClusterStats,
		Channel:     message.ChannelDashboard,
		Request:     "insert",
	}, sub)

	assert.Empty(t, submitter.submitted())
	assert.Equal(t, 1, reg.Subscribers(message.ChannelDashboard))
}

func TestRoute_UnknownChannelIgnored(t *testing.T) {
	reg, submitter := newTestRegistry()
	sub := newFakeSubscriber()

	reg.Route(message.Frame{
		MessageType: message.KindClusterStats,
		Channel:     message.Channel("nope"),
		Request:     "insert",
	}, sub)

	assert.Empty(t, submitter.submitted())
	assert.Empty(t, sub.received())
}

func TestBroadcast_SubscriptionOrder(t *testing.T) {
	reg, _ := newTestRegistry()
	subs := []*fakeSubscriber{newFakeSubscriber(), newFakeSubscriber(), newFakeSubscriber()}
	for _, s := range subs {
		require.NoError(t, reg.Subscribe(message.ChannelDashboard, s))
	}

	delivered := reg.Broadcast(message.ChannelDashboard, []byte("refresh"))
	assert.Equal(t, 3, delivered)

	for _, s := range subs {
		got := s.received()
		require.Len(t, got, 2)
		assert.Equal(t, "refresh", got[1])
	}
}

func TestBroadcast_SkipsFailedSends(t *testing.T) {
	reg, _ := newTestRegistry()
	ok := newFakeSubscriber()
	broken := newFakeSubscriber()
	require.NoError(t, reg.Subscribe(message.ChannelDashboard, ok))
	require.NoError(t, reg.Subscribe(message.ChannelDashboard, broken))
	broken.fail = errors.ErrNotConnected

	delivered := reg.Broadcast(message.ChannelDashboard, []byte("refresh"))
	assert.Equal(t, 1, delivered)
}

func TestBroadcast_NeverFansOutIntake(t *testing.T) {
	reg, _ := newTestRegistry()
	sub := newFakeSubscriber()
	require.NoError(t, reg.Subscribe(message.ChannelStats, sub))

	delivered := reg.Broadcast(message.ChannelStats, []byte("refresh"))
	assert.Equal(t, 0, delivered)
	assert.Equal(t, []string{AckPrefix + "stats"}, sub.received())
}
