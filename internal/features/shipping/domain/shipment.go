package domain

import (
	"errors"
	"time"

	orders "storefront-checkout/internal/features/orders/domain"

	"github.com/shopspring/decimal"
)

var (
	// ErrMissingAWB is returned for webhooks without a tracking number.
	ErrMissingAWB = errors.New("awb is required")
	// ErrInvalidAddress is returned when the delivery address is incomplete.
	ErrInvalidAddress = errors.New("delivery address needs name, phone, line1, city, state and pincode")
)

// UpstreamBookingError means the carrier rejected or failed a booking step.
// The order keeps its status and the booking can be retried.
type UpstreamBookingError struct {
	// Step is the failing call, e.g. "create shipment".
	Step string
	Err  error
}

func (e *UpstreamBookingError) Error() string {
	return "carrier " + e.Step + " failed: " + e.Err.Error()
}

func (e *UpstreamBookingError) Unwrap() error {
	return e.Err
}

// Address is the delivery address sent to the carrier.
type Address struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country,omitempty"`
}

// Valid reports whether every field the carrier requires is present.
func (a Address) Valid() bool {
	return a.Name != "" && a.Phone != "" && a.Line1 != "" && a.City != "" && a.State != "" && a.Pincode != ""
}

// Parcel is the packed size and weight.
type Parcel struct {
	WeightKg  float64 `json:"weightKg"`
	LengthCm  float64 `json:"lengthCm"`
	BreadthCm float64 `json:"breadthCm"`
	HeightCm  float64 `json:"heightCm"`
}

// DefaultParcel fits a folded garment mailer.
var DefaultParcel = Parcel{WeightKg: 0.5, LengthCm: 30, BreadthCm: 25, HeightCm: 3}

// WithDefaults fills unset dimensions from DefaultParcel.
func (p Parcel) WithDefaults() Parcel {
	if p.WeightKg <= 0 {
		p.WeightKg = DefaultParcel.WeightKg
	}
	if p.LengthCm <= 0 {
		p.LengthCm = DefaultParcel.LengthCm
	}
	if p.BreadthCm <= 0 {
		p.BreadthCm = DefaultParcel.BreadthCm
	}
	if p.HeightCm <= 0 {
		p.HeightCm = DefaultParcel.HeightCm
	}
	return p
}

// BookRequest is the admin's booking action.
type BookRequest struct {
	// OrderID is an order id or order code.
	OrderID string  `json:"orderId"`
	Address Address `json:"address"`
	Parcel  Parcel  `json:"parcel"`
}

// ShipmentItem is one manifest line.
type ShipmentItem struct {
	Name  string
	SKU   string
	Units int
	Price decimal.Decimal
}

// ShipmentRequest is everything the carrier needs to create a shipment.
type ShipmentRequest struct {
	OrderCode string
	OrderDate time.Time
	Address   Address
	Items     []ShipmentItem
	// CashOnDelivery makes the carrier collect Total.
	CashOnDelivery bool
	Discount       decimal.Decimal
	Total          decimal.Decimal
	Parcel         Parcel
}

// NewShipmentRequest builds the manifest of an order.
func NewShipmentRequest(o *orders.Order, addr Address, parcel Parcel) ShipmentRequest {
	items := make([]ShipmentItem, 0, len(o.Products))
	for _, l := range o.Products {
		name := l.Name
		if name == "" {
			name = l.SKU
		}
		items = append(items, ShipmentItem{
			Name:  name + " (" + l.Size + ")",
			SKU:   l.SKU + "-" + l.Size,
			Units: l.Quantity,
			Price: l.Price,
		})
	}
	return ShipmentRequest{
		OrderCode:      o.OrderCode,
		OrderDate:      o.CreatedAt,
		Address:        addr,
		Items:          items,
		CashOnDelivery: o.PaymentStatus == orders.PaymentUnpaid,
		Discount:       o.Discount,
		Total:          o.TotalAmount,
		Parcel:         parcel.WithDefaults(),
	}
}

// Assignment is the courier chosen for a shipment.
type Assignment struct {
	AWB     string
	Courier string
}

// Booking is the outcome of a booking attempt.
type Booking struct {
	ShipmentID string `json:"shipmentId"`
	AWB        string `json:"awb,omitempty"`
	Courier    string `json:"courier,omitempty"`
	LabelURL   string `json:"labelUrl,omitempty"`
	// Warning is set when the shipment exists but a later step failed.
	Warning string `json:"warning,omitempty"`
}

// BookingResult pairs the booking with the updated order.
type BookingResult struct {
	Booking
	Order *orders.Order `json:"order"`
}
