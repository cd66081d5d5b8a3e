package domain

import (
	"errors"
	"fmt"
	"time"

	pricing "storefront-checkout/internal/features/pricing/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrMissingAddress is returned when no delivery address was chosen.
	ErrMissingAddress = errors.New("address is required")
	// ErrMissingPaymentFields is returned when a verification lacks gateway ids or signature.
	ErrMissingPaymentFields = errors.New("razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	// ErrNothingToCharge is returned when an online payment is requested for a zero total.
	ErrNothingToCharge = errors.New("order total is zero, use cash on delivery")
	// ErrIntentNotFound is returned when a payment intent expired or never existed.
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrIntentOwner is returned when a payment intent belongs to another user.
	ErrIntentOwner = errors.New("payment intent belongs to another user")
	// ErrCodeExhausted is returned when no free order code was found.
	ErrCodeExhausted = errors.New("could not generate a unique order code")
)

// SignatureError means the payment callback was not signed by the gateway.
// It is never retried.
type SignatureError struct {
	GatewayOrderID string `json:"razorpay_order_id"`
}

func (e *SignatureError) Error() string {
	return "payment signature mismatch for " + e.GatewayOrderID
}

// AmountMismatchError means the amount paid differs from the freshly computed total.
type AmountMismatchError struct {
	ExpectedPaise int64 `json:"expected"`
	PaidPaise     int64 `json:"paid"`
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("paid amount %d does not match order total %d", e.PaidPaise, e.ExpectedPaise)
}

// GatewayError wraps a failed call to the payment gateway.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return "payment gateway " + e.Op + " failed: " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// CheckoutRequest is what the client submits to place an order.
type CheckoutRequest struct {
	// Products are the cart lines. Prices are never taken from the client.
	Products []pricing.CartLine `json:"products"`
	// CouponCode is optional.
	CouponCode string `json:"couponCode,omitempty"`
	// AddressID references a saved address.
	AddressID string `json:"addressId"`
}

// VerifyRequest is the payment callback forwarded by the client, plus the cart intent.
type VerifyRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
	// Products, CouponCode and AddressID fall back to the cached intent when empty.
	Products   []pricing.CartLine `json:"products,omitempty"`
	CouponCode string             `json:"couponCode,omitempty"`
	AddressID  string             `json:"addressId,omitempty"`
}

// GatewayOrder is the payment gateway's order object.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// PaymentIntent is returned to the client to open the gateway checkout widget.
type PaymentIntent struct {
	// OrderID is the gateway order id.
	OrderID string `json:"orderId"`
	// Amount is the server computed total in paise.
	Amount int64 `json:"amount"`
	// Currency is the store currency.
	Currency string `json:"currency"`
	// KeyID is the gateway public key.
	KeyID string `json:"keyId"`
	// Total is Amount in rupees, for display.
	Total decimal.Decimal `json:"total"`
}

// Intent is the cart snapshot cached against a gateway order until the
// payment is verified.
type Intent struct {
	GatewayOrderID string             `json:"gatewayOrderId"`
	UserID         string             `json:"userId"`
	AmountPaise    int64              `json:"amountPaise"`
	Currency       string             `json:"currency"`
	Lines          []pricing.CartLine `json:"lines"`
	CouponCode     string             `json:"couponCode,omitempty"`
	AddressID      string             `json:"addressId"`
	CreatedAt      time.Time          `json:"createdAt"`
}

var hundred = decimal.NewFromInt(100)

// ToPaise converts a rupee amount to the gateway's minor unit, rounding half away from zero.
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
