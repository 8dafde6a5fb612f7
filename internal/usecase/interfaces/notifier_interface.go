package interfaces

import "context"

// INotifier broadcasts lifecycle events. Delivery is fire-and-forget: callers
// never wait on, or fail because of, a notification.
type INotifier interface {
	Notify(ctx context.Context, channel, event string, payload any)
}
