package notify

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"homeservices/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const DefaultBufferSize = 256

// Message is the envelope delivered to subscribers of a channel.
type Message struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// Publisher delivers one message to every current subscriber of its channel.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Subscriber streams the messages of one channel until cancel is called or ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (msgs <-chan Message, cancel func(), err error)
}

// Broker is both ends of a pub/sub transport.
type Broker interface {
	Publisher
	Subscriber
}

// AsyncNotifier queues notifications in a bounded buffer drained by Run. A
// full buffer drops the notification; Notify never blocks the caller.
type AsyncNotifier struct {
	queue     chan Message
	publisher Publisher
	logger    *zap.Logger
	dropped   atomic.Int64
}

var _ interfaces.INotifier = (*AsyncNotifier)(nil)

func NewAsyncNotifier(publisher Publisher, size int, logger *zap.Logger) *AsyncNotifier {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &AsyncNotifier{queue: make(chan Message, size), publisher: publisher, logger: logger}
}

func (n *AsyncNotifier) Notify(_ context.Context, channel, event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("[notify] payload marshal failed", zap.String("channel", channel), zap.String("event", event), zap.Error(err))
		return
	}
	msg := Message{Channel: channel, Event: event, Payload: body, At: time.Now().UTC()}
	select {
	case n.queue <- msg:
	default:
		n.dropped.Add(1)
		n.logger.Warn("[notify] buffer full, dropping", zap.String("channel", channel), zap.String("event", event))
	}
}

// Dropped reports how many notifications were discarded because the buffer was full.
func (n *AsyncNotifier) Dropped() int64 { return n.dropped.Load() }

// Run publishes queued messages until ctx is cancelled.
func (n *AsyncNotifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-n.queue:
			// publish with a fresh context so a cancelled request does not lose the event
			pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := n.publisher.Publish(pubCtx, msg); err != nil {
				n.logger.Error("[notify] publish failed", zap.String("channel", msg.Channel), zap.String("event", msg.Event), zap.Error(err))
			}
			cancel()
		}
	}
}
