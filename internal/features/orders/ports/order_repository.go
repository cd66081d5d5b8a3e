package ports

import (
	"context"

	catalog "storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/orders/domain"
)

// ListFilter narrows order listings.
type ListFilter struct {
	// Status filters by base status when set.
	Status domain.Status
	// Limit caps the page size. Zero means the repository default.
	Limit int
	// Offset skips that many orders, newest first.
	Offset int
}

// OrderRepository persists orders.
// This is a Secondary Port (Driven Port). Every method honours a transaction carried in ctx.
type OrderRepository interface {
	// Create inserts a new order and assigns its ID. It returns
	// domain.ErrDuplicatePayment or domain.ErrDuplicateOrderCode on unique violations.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID returns domain.ErrOrderNotFound when absent.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByCode looks an order up by its human readable code.
	GetByCode(ctx context.Context, code string) (*domain.Order, error)

	// GetByPaymentID looks an order up by gateway payment id.
	GetByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error)

	// GetByTrackingID looks an order up by carrier AWB.
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.Order, error)

	// CodeExists reports whether an order code is taken.
	CodeExists(ctx context.Context, code string) (bool, error)

	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string, filter ListFilter) ([]domain.Order, error)

	// List returns all orders, newest first.
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)

	// Update replaces the order if its stored version still equals order.Version,
	// then increments order.Version. Returns domain.ErrVersionConflict otherwise,
	// and domain.ErrDuplicateTracking when the AWB belongs to another order.
	Update(ctx context.Context, order *domain.Order) error
}

// Notifier receives order events after commit.
type Notifier interface {
	OrderCreated(ctx context.Context, order *domain.Order)
	OrderUpdated(ctx context.Context, order *domain.Order)
	ExchangeRequested(ctx context.Context, order *domain.Order)
	StockUpdated(ctx context.Context, product *catalog.Product)
}

// StockLedger reserves and releases units inside the caller's transaction.
type StockLedger interface {
	Reserve(ctx context.Context, lines []catalog.StockLine) ([]*catalog.Product, error)
	Release(ctx context.Context, lines []catalog.StockLine) ([]*catalog.Product, error)
}
