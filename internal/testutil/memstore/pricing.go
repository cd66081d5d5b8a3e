package memstore

import (
	"context"
	"sort"

	pricing "storefront-checkout/internal/features/pricing/domain"
)

// CouponRepo implements the pricing CouponRepository and CouponUsageLedger ports.
type CouponRepo struct {
	s *Store
}

// Coupons returns the coupon repository view.
func (s *Store) Coupons() *CouponRepo {
	return &CouponRepo{s: s}
}

// Seed inserts coupons keyed by normalised code.
func (r *CouponRepo) Seed(coupons ...*pricing.Coupon) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range coupons {
		cp := *c
		if cp.ID == "" {
			cp.ID = r.s.nextID("coupon-")
		}
		r.s.coupons[pricing.NormalizeCode(c.Code)] = &cp
	}
}

// Usages returns every recorded usage.
func (r *CouponRepo) Usages() []pricing.CouponUsage {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]pricing.CouponUsage, 0, len(r.s.usages))
	for _, u := range r.s.usages {
		out = append(out, u)
	}
	return out
}

func (r *CouponRepo) GetByCode(ctx context.Context, code string) (*pricing.Coupon, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.coupons[pricing.NormalizeCode(code)]
	if !ok {
		return nil, pricing.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *CouponRepo) ListVisible(ctx context.Context) ([]pricing.Coupon, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]pricing.Coupon, 0)
	for _, c := range r.s.coupons {
		if c.IsVisible {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *CouponRepo) Record(ctx context.Context, u pricing.CouponUsage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := u.CouponID + "\x00" + u.OrderID
	if _, ok := r.s.usages[key]; ok {
		return pricing.ErrUsageRecorded
	}
	r.s.usages[key] = u
	return nil
}

// GiftRepo implements the pricing GiftRepository port.
type GiftRepo struct {
	s *Store
}

// Gifts returns the gift repository view.
func (s *Store) Gifts() *GiftRepo {
	return &GiftRepo{s: s}
}

// Seed appends gifts.
func (r *GiftRepo) Seed(gifts ...pricing.FreeGift) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.gifts = append(r.s.gifts, gifts...)
}

func (r *GiftRepo) ListActive(ctx context.Context) ([]pricing.FreeGift, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]pricing.FreeGift, 0, len(r.s.gifts))
	for _, g := range r.s.gifts {
		if g.IsActive {
			out = append(out, g)
		}
	}
	return out, nil
}
