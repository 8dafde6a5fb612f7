package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 64

// LocalBroker fans messages out to in-process subscribers. Slow subscribers
// miss messages instead of blocking the publisher.
type LocalBroker struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan Message
}

var _ Broker = (*LocalBroker)(nil)

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: map[string]map[string]chan Message{}}
}

func (b *LocalBroker) Publish(_ context.Context, msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[msg.Channel] {
		select {
		case ch <- msg:
		default:
		}
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, channel string) (<-chan Message, func(), error) {
	id := uuid.NewString()
	ch := make(chan Message, subscriberBuffer)

	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = map[string]chan Message{}
	}
	b.subs[channel][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[channel], id)
			if len(b.subs[channel]) == 0 {
				delete(b.subs, channel)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}
