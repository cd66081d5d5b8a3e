package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/core/cache"
	"storefront-checkout/internal/features/checkout/domain"
)

const intentKeyPrefix = "payment_intent:"

// RedisIntentStore implements ports.IntentStore using the cache adaptation.
type RedisIntentStore struct {
	cache cache.Cache
}

// NewRedisIntentStore creates a new RedisIntentStore.
func NewRedisIntentStore(c cache.Cache) *RedisIntentStore {
	return &RedisIntentStore{
		cache: c,
	}
}

func intentKey(gatewayOrderID string) string {
	return intentKeyPrefix + gatewayOrderID
}

// Save stores the intent until ttl elapses.
func (r *RedisIntentStore) Save(ctx context.Context, intent domain.Intent, ttl time.Duration) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal payment intent: %w", err)
	}

	if err := r.cache.Set(ctx, intentKey(intent.GatewayOrderID), data, ttl); err != nil {
		return fmt.Errorf("failed to save payment intent to cache: %w", err)
	}
	return nil
}

// Get retrieves the intent for a gateway order.
func (r *RedisIntentStore) Get(ctx context.Context, gatewayOrderID string) (*domain.Intent, error) {
	data, err := r.cache.Get(ctx, intentKey(gatewayOrderID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, domain.ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent from cache: %w", err)
	}

	var intent domain.Intent
	if err := json.Unmarshal(data, &intent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}
	return &intent, nil
}

// Delete removes the intent once the order exists.
func (r *RedisIntentStore) Delete(ctx context.Context, gatewayOrderID string) error {
	if err := r.cache.Delete(ctx, intentKey(gatewayOrderID)); err != nil {
		return fmt.Errorf("failed to delete payment intent from cache: %w", err)
	}
	return nil
}
