package ports

import (
	"context"

	"storefront-checkout/internal/features/orders/domain"
)

// OrderService defines the order lifecycle operations exposed over HTTP.
// This is a Primary Port (Driving Port).
type OrderService interface {
	// Get returns any order by id or code. Admin only.
	Get(ctx context.Context, ref string) (*domain.Order, error)

	// GetOwned returns the order only when userID owns it.
	GetOwned(ctx context.Context, userID, ref string) (*domain.Order, error)

	ListMine(ctx context.Context, userID string, filter ListFilter) ([]domain.Order, error)
	ListAll(ctx context.Context, filter ListFilter) ([]domain.Order, error)

	UpdateStatus(ctx context.Context, ref string, to domain.Status, refund *domain.RefundDetails) (*domain.Order, error)
	RequestExchange(ctx context.Context, userID, ref string, items []domain.ExchangeItem, reason string) (*domain.Order, error)
	UpdateExchange(ctx context.Context, ref string, to domain.ExchangeState, note string) (*domain.Order, error)
}
