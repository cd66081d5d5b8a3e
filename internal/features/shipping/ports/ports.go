package ports

import (
	"context"

	orders "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/shipping/domain"
)

// ShippingService books shipments and ingests carrier pushes.
// This is a Primary Port (Driving Port).
type ShippingService interface {
	Book(ctx context.Context, req domain.BookRequest) (*domain.BookingResult, error)
	HandleWebhook(ctx context.Context, event domain.WebhookEvent) (*domain.WebhookResult, error)
}

// Carrier is the shipping provider.
// This is a Secondary Port (Driven Port).
type Carrier interface {
	// CreateShipment registers the order with the carrier and returns its shipment id.
	CreateShipment(ctx context.Context, req domain.ShipmentRequest) (string, error)

	// AssignAWB picks a courier and allocates a tracking number.
	AssignAWB(ctx context.Context, shipmentID string) (*domain.Assignment, error)

	// GenerateLabel returns a printable label URL.
	GenerateLabel(ctx context.Context, shipmentID string) (string, error)
}

// OrderLifecycle is the slice of the order service shipping drives.
type OrderLifecycle interface {
	Get(ctx context.Context, ref string) (*orders.Order, error)
	AttachShipment(ctx context.Context, ref, shipmentID, awb, courier, labelURL string) (*orders.Order, error)
	ApplyCarrierUpdate(ctx context.Context, trackingID string, to orders.Status, event orders.TrackingEvent) (*orders.Order, bool, error)
}
