package service

import (
	"context"
	"time"

	"storefront-checkout/internal/core/logger"
	catalog "storefront-checkout/internal/features/catalog/domain"
	orders "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/realtime/domain"
	"storefront-checkout/internal/features/realtime/ports"

	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// Broadcaster turns committed order and stock changes into realtime events.
// It satisfies the notifier ports of the catalog, checkout and orders
// features. Delivery is best effort: failures are logged and never reach the
// caller, whose change is already committed.
type Broadcaster struct {
	broker ports.Broker
	now    func() time.Time
}

// NewBroadcaster creates a new instance of Broadcaster.
func NewBroadcaster(broker ports.Broker) *Broadcaster {
	return &Broadcaster{
		broker: broker,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// OrderCreated announces a new order to admins and its owner.
func (b *Broadcaster) OrderCreated(ctx context.Context, o *orders.Order) {
	b.publish(ctx, domain.EventOrderCreated, o, orderTopics(o)...)
}

// OrderUpdated announces a status, exchange or shipment change.
func (b *Broadcaster) OrderUpdated(ctx context.Context, o *orders.Order) {
	b.publish(ctx, domain.EventOrderUpdated, o, orderTopics(o)...)
}

// ExchangeRequested announces a new exchange request.
func (b *Broadcaster) ExchangeRequested(ctx context.Context, o *orders.Order) {
	b.publish(ctx, domain.EventExchangeRequested, o, orderTopics(o)...)
}

// StockUpdated announces the current size counters of a product.
func (b *Broadcaster) StockUpdated(ctx context.Context, p *catalog.Product) {
	b.publish(ctx, domain.EventStockUpdated, p, domain.TopicStock)
}

func orderTopics(o *orders.Order) []string {
	topics := []string{domain.TopicAdmin}
	if o.UserID != "" {
		topics = append(topics, domain.UserTopic(o.UserID))
	}
	return topics
}

func (b *Broadcaster) publish(ctx context.Context, t domain.EventType, payload interface{}, topics ...string) {
	l := logger.Named("realtime")

	ev, err := domain.NewEvent(t, payload, b.now())
	if err != nil {
		l.Error("Failed to build event", zap.String("type", string(t)), zap.Error(err))
		return
	}

	// The request may finish before the broker answers.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	for _, topic := range topics {
		if err := b.broker.Publish(ctx, topic, ev); err != nil {
			l.Warn("Failed to publish event",
				zap.String("type", string(t)),
				zap.String("topic", topic),
				zap.String("event_id", ev.ID),
				zap.Error(err),
			)
		}
	}
}
