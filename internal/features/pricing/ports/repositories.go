package ports

import (
	"context"

	catalog "storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/pricing/domain"
)

// ProductReader loads catalog prices.
type ProductReader interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*catalog.Product, error)
}

// CouponRepository reads coupons.
// This is a Secondary Port (Driven Port).
type CouponRepository interface {
	// GetByCode matches the normalised code. Returns domain.ErrCouponNotFound when absent.
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)

	// ListVisible returns coupons flagged visible.
	ListVisible(ctx context.Context) ([]domain.Coupon, error)
}

// CouponUsageLedger is the append-only record of applied coupons.
type CouponUsageLedger interface {
	// Record inserts a usage. Returns domain.ErrUsageRecorded when the
	// (coupon, order) pair already exists.
	Record(ctx context.Context, usage domain.CouponUsage) error
}

// GiftRepository reads the gift ladder.
type GiftRepository interface {
	ListActive(ctx context.Context) ([]domain.FreeGift, error)
}

// PricingService prices carts for display and lists promotions.
// This is a Primary Port (Driving Port).
type PricingService interface {
	Quote(ctx context.Context, lines []domain.CartLine, couponCode string) (*domain.Quote, error)
	ListCoupons(ctx context.Context) ([]domain.Coupon, error)
	ListGifts(ctx context.Context) ([]domain.FreeGift, error)
}
