package ports

import (
	"context"

	"storefront-checkout/internal/features/catalog/domain"
)

// ProductRepository persists products and their size counters.
// This is a Secondary Port (Driven Port). Every method honours a transaction carried in ctx.
type ProductRepository interface {
	// GetByID returns domain.ErrProductNotFound when absent.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByIDs returns the products found, keyed by id. Missing ids are simply absent.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)

	// DecrementSize subtracts qty only if the current count is >= qty.
	// It reports false, without error, when the condition did not hold.
	DecrementSize(ctx context.Context, id, size string, qty int) (bool, error)

	// IncrementSize adds qty to an existing size. Returns domain.ErrUnknownSize
	// or domain.ErrProductNotFound when there is nothing to increment.
	IncrementSize(ctx context.Context, id, size string, qty int) error

	// SetSize overwrites a size counter, creating the size if needed.
	SetSize(ctx context.Context, id, size string, count int) error
}

// StockNotifier is told about products whose counters changed, after commit.
type StockNotifier interface {
	StockUpdated(ctx context.Context, product *domain.Product)
}

// StockService is the admin-facing stock API.
// This is a Primary Port (Driving Port).
type StockService interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SetStock(ctx context.Context, productID, size string, count int) (*domain.Product, error)
	AdjustStock(ctx context.Context, productID, size string, delta int) (*domain.Product, error)
}
