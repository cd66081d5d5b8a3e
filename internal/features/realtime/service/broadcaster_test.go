package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	catalog "storefront-checkout/internal/features/catalog/domain"
	orders "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/realtime/domain"
	"storefront-checkout/internal/features/realtime/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic string
	event domain.Event
}

type recordingBroker struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (r *recordingBroker) Publish(ctx context.Context, topic string, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, published{topic: topic, event: event})
	return nil
}

func (r *recordingBroker) Subscribe(ctx context.Context, topics ...string) (ports.Subscription, error) {
	return nil, errors.New("not supported")
}

func (r *recordingBroker) topics() []string {
	var out []string
	for _, p := range r.sent {
		out = append(out, p.topic)
	}
	return out
}

func TestBroadcaster_OrderEventsReachAdminAndOwner(t *testing.T) {
	broker := &recordingBroker{}
	b := NewBroadcaster(broker)
	o := &orders.Order{ID: "o1", OrderCode: "ORD-ABC", UserID: "u1"}

	b.OrderCreated(context.Background(), o)
	b.OrderUpdated(context.Background(), o)
	b.ExchangeRequested(context.Background(), o)

	require.Len(t, broker.sent, 6)
	assert.Equal(t, []string{"admin", "user:u1", "admin", "user:u1", "admin", "user:u1"}, broker.topics())
	assert.Equal(t, domain.EventOrderCreated, broker.sent[0].event.Type)
	assert.Equal(t, domain.EventOrderUpdated, broker.sent[2].event.Type)
	assert.Equal(t, domain.EventExchangeRequested, broker.sent[4].event.Type)

	// Both topics share one event id so clients can de-duplicate.
	assert.Equal(t, broker.sent[0].event.ID, broker.sent[1].event.ID)
	assert.NotEqual(t, broker.sent[0].event.ID, broker.sent[2].event.ID)

	var snapshot orders.Order
	require.NoError(t, json.Unmarshal(broker.sent[0].event.Payload, &snapshot))
	assert.Equal(t, "ORD-ABC", snapshot.OrderCode)
}

func TestBroadcaster_StockGoesToStockTopic(t *testing.T) {
	broker := &recordingBroker{}
	b := NewBroadcaster(broker)

	b.StockUpdated(context.Background(), &catalog.Product{ID: "tee", SKU: "TEE-1", Sizes: map[string]int{"M": 2}})

	require.Len(t, broker.sent, 1)
	assert.Equal(t, domain.TopicStock, broker.sent[0].topic)
	assert.Equal(t, domain.EventStockUpdated, broker.sent[0].event.Type)
	assert.Contains(t, string(broker.sent[0].event.Payload), `"M":2`)
}

func TestBroadcaster_FailuresAreSwallowed(t *testing.T) {
	broker := &recordingBroker{err: errors.New("redis down")}
	b := NewBroadcaster(broker)

	assert.NotPanics(t, func() {
		b.OrderUpdated(context.Background(), &orders.Order{ID: "o1", UserID: "u1"})
	})
	assert.Empty(t, broker.sent)
}

func TestBroadcaster_PublishesAfterRequestCancelled(t *testing.T) {
	broker := &recordingBroker{}
	b := NewBroadcaster(broker)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b.OrderCreated(ctx, &orders.Order{ID: "o1"})
	assert.Equal(t, []string{"admin"}, broker.topics())
}
