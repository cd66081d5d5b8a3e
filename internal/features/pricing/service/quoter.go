package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	catalog "storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/pricing/domain"
	"storefront-checkout/internal/features/pricing/ports"
)

// Quoter loads prices, coupons and gifts and runs the calculator.
type Quoter struct {
	products ports.ProductReader
	coupons  ports.CouponRepository
	usages   ports.CouponUsageLedger
	gifts    ports.GiftRepository
	now      func() time.Time
}

// NewQuoter creates a new instance of Quoter.
func NewQuoter(products ports.ProductReader, coupons ports.CouponRepository, usages ports.CouponUsageLedger, gifts ports.GiftRepository) *Quoter {
	return &Quoter{
		products: products,
		coupons:  coupons,
		usages:   usages,
		gifts:    gifts,
		now:      time.Now,
	}
}

// Quote prices a cart for display. Nothing is persisted and invalid gift lines
// are reported, not rejected.
func (q *Quoter) Quote(ctx context.Context, lines []domain.CartLine, couponCode string) (*domain.Quote, error) {
	in, err := q.load(ctx, lines, couponCode)
	if err != nil {
		return nil, err
	}

	quote, err := domain.Calculate(in)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// PriceForCheckout is the authoritative price. Any invalid gift line or
// inapplicable coupon rejects the checkout.
func (q *Quoter) PriceForCheckout(ctx context.Context, lines []domain.CartLine, couponCode string) (*domain.Quote, error) {
	quote, err := q.Quote(ctx, lines, couponCode)
	if err != nil {
		return nil, err
	}
	if len(quote.InvalidGifts) > 0 {
		return nil, &domain.InvalidGiftError{Lines: quote.InvalidGifts}
	}
	return quote, nil
}

// RecordUsage appends the coupon usage for an order. A usage already recorded
// for the same order is accepted so retried checkouts are not double counted.
func (q *Quoter) RecordUsage(ctx context.Context, quote *domain.Quote, orderID, userID string) error {
	if quote == nil || quote.Coupon == nil {
		return nil
	}

	err := q.usages.Record(ctx, domain.CouponUsage{
		CouponID: quote.Coupon.ID,
		Code:     quote.Coupon.Code,
		OrderID:  orderID,
		UserID:   userID,
		Savings:  quote.Discount,
		At:       q.now(),
	})
	if err != nil && !errors.Is(err, domain.ErrUsageRecorded) {
		return fmt.Errorf("pricing: failed to record coupon usage: %w", err)
	}
	return nil
}

// ListCoupons returns visible coupons that have not expired.
func (q *Quoter) ListCoupons(ctx context.Context) ([]domain.Coupon, error) {
	all, err := q.coupons.ListVisible(ctx)
	if err != nil {
		return nil, fmt.Errorf("pricing: failed to list coupons: %w", err)
	}

	now := q.now()
	out := make([]domain.Coupon, 0, len(all))
	for _, c := range all {
		if c.Expired(now) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// ListGifts returns the active gift ladder by ascending threshold.
func (q *Quoter) ListGifts(ctx context.Context) ([]domain.FreeGift, error) {
	gifts, err := q.gifts.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("pricing: failed to list gifts: %w", err)
	}
	return domain.SortGifts(gifts), nil
}

func (q *Quoter) load(ctx context.Context, lines []domain.CartLine, couponCode string) (domain.Input, error) {
	if len(lines) == 0 {
		return domain.Input{}, domain.ErrEmptyCart
	}

	ids := catalog.ProductIDs(domain.StockLines(lines))
	products, err := q.products.GetByIDs(ctx, ids)
	if err != nil {
		return domain.Input{}, fmt.Errorf("pricing: failed to load products: %w", err)
	}

	gifts, err := q.gifts.ListActive(ctx)
	if err != nil {
		return domain.Input{}, fmt.Errorf("pricing: failed to load gifts: %w", err)
	}

	in := domain.Input{
		Lines:    lines,
		Products: products,
		Gifts:    gifts,
		Now:      q.now(),
	}

	code := domain.NormalizeCode(couponCode)
	if code == "" {
		return in, nil
	}

	coupon, err := q.coupons.GetByCode(ctx, code)
	switch {
	case errors.Is(err, domain.ErrCouponNotFound):
		in.CouponCode = code
	case err != nil:
		return domain.Input{}, fmt.Errorf("pricing: failed to load coupon: %w", err)
	default:
		in.Coupon = coupon
	}
	return in, nil
}
