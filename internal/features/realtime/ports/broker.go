package ports

import (
	"context"

	"storefront-checkout/internal/features/realtime/domain"
)

// Broker fans events out to subscribers across instances.
// This is a Secondary Port (Driven Port).
type Broker interface {
	Publish(ctx context.Context, topic string, event domain.Event) error

	// Subscribe listens on topics until the subscription is closed or ctx ends.
	Subscribe(ctx context.Context, topics ...string) (Subscription, error)
}

// Subscription delivers events for the subscribed topics.
type Subscription interface {
	// Events is closed when the subscription ends.
	Events() <-chan domain.Event
	Close() error
}
