package ports

import (
	"context"
	"time"

	catalog "storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/checkout/domain"
	orders "storefront-checkout/internal/features/orders/domain"
	pricing "storefront-checkout/internal/features/pricing/domain"
)

// CheckoutService turns carts into orders.
// This is a Primary Port (Driving Port).
type CheckoutService interface {
	// PlaceOrder creates an unpaid cash on delivery order.
	PlaceOrder(ctx context.Context, userID string, req domain.CheckoutRequest) (*orders.Order, error)

	// CreatePaymentIntent opens a gateway order for the server computed total.
	CreatePaymentIntent(ctx context.Context, userID string, req domain.CheckoutRequest) (*domain.PaymentIntent, error)

	// VerifyPayment creates the paid order for a verified gateway callback. The
	// boolean reports that the order already existed for this payment.
	VerifyPayment(ctx context.Context, userID string, req domain.VerifyRequest) (*orders.Order, bool, error)
}

// PaymentGateway is the online payment provider.
// This is a Secondary Port (Driven Port).
type PaymentGateway interface {
	// CreateOrder registers an amount in paise the customer can pay against.
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string) (*domain.GatewayOrder, error)

	// FetchOrder reads a gateway order back.
	FetchOrder(ctx context.Context, gatewayOrderID string) (*domain.GatewayOrder, error)

	// VerifySignature checks a payment callback signature.
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
}

// IntentStore caches cart snapshots by gateway order id.
// This is a Secondary Port (Driven Port).
type IntentStore interface {
	Save(ctx context.Context, intent domain.Intent, ttl time.Duration) error

	// Get returns domain.ErrIntentNotFound once the intent expired.
	Get(ctx context.Context, gatewayOrderID string) (*domain.Intent, error)

	Delete(ctx context.Context, gatewayOrderID string) error
}

// Pricer is the authoritative price source.
type Pricer interface {
	PriceForCheckout(ctx context.Context, lines []pricing.CartLine, couponCode string) (*pricing.Quote, error)
	RecordUsage(ctx context.Context, quote *pricing.Quote, orderID, userID string) error
}

// StockLedger checks and reserves units. Reserve runs inside the caller's transaction.
type StockLedger interface {
	Check(ctx context.Context, lines []catalog.StockLine) (map[string]*catalog.Product, error)
	Reserve(ctx context.Context, lines []catalog.StockLine) ([]*catalog.Product, error)
}

// OrderStore is the slice of the order repository checkout needs.
type OrderStore interface {
	Create(ctx context.Context, order *orders.Order) error
	GetByPaymentID(ctx context.Context, paymentID string) (*orders.Order, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

// Notifier receives checkout events after commit.
type Notifier interface {
	OrderCreated(ctx context.Context, order *orders.Order)
	StockUpdated(ctx context.Context, product *catalog.Product)
}
