package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/features/realtime/domain"
	"storefront-checkout/internal/features/realtime/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "storefront:events:"

// RedisBroker implements ports.Broker over Redis pub/sub so that every API
// instance sees events committed by any other.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker creates a broker on an existing client.
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Publish sends the event to every current subscriber of topic.
func (b *RedisBroker) Publish(ctx context.Context, topic string, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, channelPrefix+topic, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe confirms the subscription with Redis before returning, so events
// published afterwards are not missed.
func (b *RedisBroker) Subscribe(ctx context.Context, topics ...string) (ports.Subscription, error) {
	channels := make([]string, 0, len(topics))
	for _, t := range topics {
		channels = append(channels, channelPrefix+t)
	}

	ps := b.client.Subscribe(ctx, channels...)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", strings.Join(topics, ","), err)
	}

	sub := &redisSubscription{
		ps:     ps,
		events: make(chan domain.Event, 16),
		done:   make(chan struct{}),
	}
	go sub.pump(ctx)
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan domain.Event
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) Events() <-chan domain.Event {
	return s.events
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

func (s *redisSubscription) pump(ctx context.Context) {
	defer close(s.events)
	defer s.Close()

	messages := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var ev domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Named("realtime").Warn("Dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}
}
