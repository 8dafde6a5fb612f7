package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher records notifications in the log only.
type LogPublisher struct{ logger *zap.Logger }

func NewLogPublisher(logger *zap.Logger) *LogPublisher { return &LogPublisher{logger: logger} }

func (p *LogPublisher) Publish(_ context.Context, msg Message) error {
	p.logger.Info("[notify] event", zap.String("channel", msg.Channel), zap.String("event", msg.Event), zap.ByteString("payload", msg.Payload))
	return nil
}

// MultiPublisher publishes to every publisher and returns the first error.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, msg Message) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}
