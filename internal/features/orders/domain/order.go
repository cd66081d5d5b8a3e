package domain

import (
	"errors"
	"time"

	catalog "storefront-checkout/internal/features/catalog/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderNotFound is returned when no order matches the lookup key.
	ErrOrderNotFound = errors.New("order not found")
	// ErrVersionConflict is returned when an update raced with another writer.
	ErrVersionConflict = errors.New("order was modified concurrently")
	// ErrDuplicatePayment is returned when an order already exists for a gateway payment id.
	ErrDuplicatePayment = errors.New("order already exists for payment")
	// ErrDuplicateOrderCode is returned when a generated order code is already taken.
	ErrDuplicateOrderCode = errors.New("order code already exists")
	// ErrDuplicateTracking is returned when a carrier AWB is already assigned to another order.
	ErrDuplicateTracking = errors.New("tracking id already assigned to another order")
)

// PaymentStatus records whether money has been captured.
type PaymentStatus string

const (
	// PaymentPaid means the gateway captured the payment.
	PaymentPaid PaymentStatus = "paid"
	// PaymentUnpaid means nothing was captured yet (e.g. cash on delivery).
	PaymentUnpaid PaymentStatus = "unpaid"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	// PaymentMethodCOD is cash on delivery.
	PaymentMethodCOD PaymentMethod = "cod"
	// PaymentMethodOnline is a gateway payment verified before order creation.
	PaymentMethodOnline PaymentMethod = "online"
)

// Order is the persisted result of a checkout.
type Order struct {
	// ID is the storage identifier.
	ID string `json:"id"`
	// OrderCode is the unique human readable code, e.g. ORD-7KQ2M9XA.
	OrderCode string `json:"orderCode"`
	// UserID is the owner.
	UserID string `json:"userId"`
	// Products are the lines with prices captured at order time.
	Products []OrderLine `json:"products"`
	// Subtotal is regular lines plus gift charges.
	Subtotal decimal.Decimal `json:"subtotal"`
	// Discount is the coupon saving.
	Discount decimal.Decimal `json:"discount"`
	// CouponCode is the applied coupon, if any.
	CouponCode string `json:"couponCode,omitempty"`
	// TotalAmount is the server computed charge.
	TotalAmount decimal.Decimal `json:"totalAmount"`
	// Status is the base lifecycle state.
	Status Status `json:"status"`
	// PaymentStatus is paid or unpaid.
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	// PaymentMethod is cod or online.
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	// Payment carries gateway identifiers for online orders.
	Payment *Payment `json:"payment,omitempty"`
	// TrackingID is the carrier AWB once booked.
	TrackingID string `json:"trackingId,omitempty"`
	// ShipmentID is the carrier shipment reference, set even when AWB assignment failed.
	ShipmentID string `json:"shipmentId,omitempty"`
	// Courier is the assigned courier name.
	Courier string `json:"courier,omitempty"`
	// LabelURL points at the printable shipping label.
	LabelURL string `json:"labelUrl,omitempty"`
	// AddressID references the customer's saved address.
	AddressID string `json:"addressId"`
	// RefundDetails is required when cancelling a paid order.
	RefundDetails *RefundDetails `json:"refundDetails,omitempty"`
	// Exchange is the optional overlay on a delivered order.
	Exchange *Exchange `json:"exchange,omitempty"`
	// TrackingHistory lists carrier events, oldest first.
	TrackingHistory []TrackingEvent `json:"trackingHistory,omitempty"`
	// CreatedAt is when the order was placed.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the last mutation.
	UpdatedAt time.Time `json:"updatedAt"`
	// Version guards optimistic updates.
	Version int64 `json:"version"`
}

// OrderLine is one purchased line.
type OrderLine struct {
	// ProductID references the catalog product.
	ProductID string `json:"productId"`
	// SKU is copied for display and carrier manifests.
	SKU string `json:"sku"`
	// Name is copied for display.
	Name string `json:"name"`
	// Size is the size label reserved.
	Size string `json:"size"`
	// Quantity is the number of units.
	Quantity int `json:"quantity"`
	// Price is the unit price at order time.
	Price decimal.Decimal `json:"price"`
	// IsGift marks a claimed free gift line.
	IsGift bool `json:"isGift"`
}

// Payment holds gateway identifiers.
type Payment struct {
	// GatewayOrderID is the gateway order the customer paid against.
	GatewayOrderID string `json:"gatewayOrderId"`
	// GatewayPaymentID is unique per captured payment.
	GatewayPaymentID string `json:"gatewayPaymentId"`
}

// RefundDetails records a refund issued outside this service.
type RefundDetails struct {
	// Reference is the gateway refund id or bank reference.
	Reference string `json:"reference"`
	// Amount refunded.
	Amount decimal.Decimal `json:"amount"`
	// Note is free text.
	Note string `json:"note,omitempty"`
	// RefundedAt is when the refund was issued.
	RefundedAt time.Time `json:"refundedAt"`
}

// TrackingEvent is one carrier status push.
type TrackingEvent struct {
	// Status is the carrier's own status text.
	Status string `json:"status"`
	// Location is where the scan happened, if reported.
	Location string `json:"location,omitempty"`
	// Timestamp is the carrier event time.
	Timestamp time.Time `json:"timestamp"`
}

// StockLines returns the units the customer currently holds, gifts included.
// A completed exchange swaps its items from the original to the new size.
func (o *Order) StockLines() []catalog.StockLine {
	lines := make([]catalog.StockLine, 0, len(o.Products))
	for _, p := range o.Products {
		lines = append(lines, catalog.StockLine{ProductID: p.ProductID, Size: p.Size, Quantity: p.Quantity})
	}
	if o.Exchange == nil || o.Exchange.State != ExchangeExchanged {
		return lines
	}

	for _, it := range o.Exchange.Items {
		lines = append(lines,
			catalog.StockLine{ProductID: it.ProductID, Size: it.FromSize, Quantity: -it.Quantity},
			catalog.StockLine{ProductID: it.ProductID, Size: it.ToSize, Quantity: it.Quantity},
		)
	}
	held := make([]catalog.StockLine, 0, len(lines))
	for _, l := range catalog.MergeLines(lines) {
		if l.Quantity > 0 {
			held = append(held, l)
		}
	}
	return held
}

// HasTrackingEvent reports whether the same (status, timestamp) pair was already recorded.
func (o *Order) HasTrackingEvent(e TrackingEvent) bool {
	for _, h := range o.TrackingHistory {
		if h.Status == e.Status && h.Timestamp.Equal(e.Timestamp) {
			return true
		}
	}
	return false
}

// RecordShipment stores carrier references. When awb is set the order moves to shipped.
func (o *Order) RecordShipment(shipmentID, awb, courier, labelURL string, now time.Time) error {
	if o.Status != StatusPending && o.Status != StatusProcessing {
		return &StateTransitionError{From: string(o.Status), To: string(StatusShipped), Reason: "only pending or processing orders can be booked"}
	}

	o.ShipmentID = shipmentID
	if labelURL != "" {
		o.LabelURL = labelURL
	}
	if awb != "" {
		o.TrackingID = awb
		o.Courier = courier
		o.Status = StatusShipped
	}
	o.UpdatedAt = now
	return nil
}
