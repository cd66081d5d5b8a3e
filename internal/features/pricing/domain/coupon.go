package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrCouponNotFound is returned by repositories when no coupon has the code.
var ErrCouponNotFound = errors.New("coupon not found")

// ErrUsageRecorded is returned when the (coupon, order) usage already exists.
var ErrUsageRecorded = errors.New("coupon usage already recorded")

// CouponType selects how Value is interpreted.
type CouponType string

const (
	// CouponFlat subtracts Value from the subtotal.
	CouponFlat CouponType = "flat"
	// CouponPercentage subtracts Value percent of the regular subtotal.
	CouponPercentage CouponType = "percentage"
)

// Coupon reasons reported by CouponError.
const (
	CouponReasonNotFound        = "not_found"
	CouponReasonExpired         = "expired"
	CouponReasonBelowMinBilling = "below_min_billing"
)

// Coupon is a discount code.
type Coupon struct {
	// ID is the storage identifier.
	ID string `json:"id"`
	// Code is unique and matched case-insensitively.
	Code string `json:"code"`
	// Type is flat or percentage.
	Type CouponType `json:"type"`
	// Value is an amount for flat coupons, a percent for percentage coupons.
	Value decimal.Decimal `json:"value"`
	// MinBilling is the subtotal needed for the coupon to apply.
	MinBilling decimal.Decimal `json:"minBilling"`
	// MaxDiscount caps percentage discounts when set.
	MaxDiscount *decimal.Decimal `json:"maxDiscount,omitempty"`
	// Expiry is the instant after which the coupon no longer applies.
	Expiry *time.Time `json:"expiry,omitempty"`
	// IsVisible lists the coupon on the public coupon page.
	IsVisible bool `json:"isVisible"`
	// CreatedAt is when the coupon was created.
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeCode canonicalises a user entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Expired reports whether the coupon is past its expiry at now.
func (c *Coupon) Expired(now time.Time) bool {
	return c.Expiry != nil && now.After(*c.Expiry)
}

// Discount computes the saving. Percentage coupons apply to the regular
// subtotal only and are capped at MaxDiscount. The result never exceeds subtotal.
func (c *Coupon) Discount(regularSubtotal, subtotal decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.Type {
	case CouponPercentage:
		d = regularSubtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
		if c.MaxDiscount != nil && d.GreaterThan(*c.MaxDiscount) {
			d = *c.MaxDiscount
		}
	default:
		d = c.Value
	}

	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	return d
}

// CouponError explains why a coupon did not apply.
type CouponError struct {
	Code       string           `json:"code"`
	Reason     string           `json:"reason"`
	MinBilling *decimal.Decimal `json:"minBilling,omitempty"`
}

func (e *CouponError) Error() string {
	switch e.Reason {
	case CouponReasonExpired:
		return fmt.Sprintf("coupon %s has expired", e.Code)
	case CouponReasonBelowMinBilling:
		return fmt.Sprintf("coupon %s requires a minimum bill of %s", e.Code, e.MinBilling.StringFixed(2))
	default:
		return fmt.Sprintf("coupon %s not found", e.Code)
	}
}

// CouponUsage is one append-only ledger entry, unique per (CouponID, OrderID).
type CouponUsage struct {
	CouponID string          `json:"couponId"`
	Code     string          `json:"code"`
	OrderID  string          `json:"orderId"`
	UserID   string          `json:"userId"`
	Savings  decimal.Decimal `json:"savings"`
	At       time.Time       `json:"at"`
}
