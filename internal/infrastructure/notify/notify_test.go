package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestAsyncNotifier_DeliversThroughBroker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := NewLocalBroker()
	msgs, unsubscribe, err := broker.Subscribe(ctx, "service-s1")
	require.NoError(t, err)
	defer unsubscribe()

	n := NewAsyncNotifier(broker, 8, zap.NewNop())
	go n.Run(ctx)

	n.Notify(ctx, "service-s1", "quote-accepted", map[string]string{"quote_id": "q1"})
	n.Notify(ctx, "service-other", "quote-accepted", map[string]string{"quote_id": "q2"})

	msg := receive(t, msgs)
	assert.Equal(t, "quote-accepted", msg.Event)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "q1", payload["quote_id"])

	select {
	case extra := <-msgs:
		t.Fatalf("unexpected message on channel: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAsyncNotifier_DropsWhenFull(t *testing.T) {
	n := NewAsyncNotifier(NewLogPublisher(zap.NewNop()), 1, zap.NewNop())
	n.Notify(context.Background(), "c", "e", 1)
	n.Notify(context.Background(), "c", "e", 2)
	n.Notify(context.Background(), "c", "e", 3)
	assert.Equal(t, int64(2), n.Dropped())
}

func TestAsyncNotifier_UnmarshalablePayloadIsSkipped(t *testing.T) {
	n := NewAsyncNotifier(NewLogPublisher(zap.NewNop()), 1, zap.NewNop())
	n.Notify(context.Background(), "c", "e", make(chan int))
	assert.Len(t, n.queue, 0)
	assert.Equal(t, int64(0), n.Dropped())
}

func TestLocalBroker_CancelClosesChannel(t *testing.T) {
	broker := NewLocalBroker()
	msgs, cancel, err := broker.Subscribe(context.Background(), "c")
	require.NoError(t, err)
	cancel()
	cancel()
	_, ok := <-msgs
	assert.False(t, ok)
	require.NoError(t, broker.Publish(context.Background(), Message{Channel: "c"}))
}

func TestLocalBroker_ContextEndsSubscription(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	broker := NewLocalBroker()
	msgs, _, err := broker.Subscribe(ctx, "c")
	require.NoError(t, err)
	cancel()
	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed")
	}
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestMultiPublisher(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingPublisher{err: boom}
	b := &recordingPublisher{}
	err := MultiPublisher{a, b}.Publish(context.Background(), Message{Channel: "c"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, b.msgs, 1)
}
