package service

import (
	"context"
	"errors"
	"strings"

	"storefront-checkout/internal/core/logger"
	orders "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/shipping/domain"
	"storefront-checkout/internal/features/shipping/ports"

	"go.uber.org/zap"
)

// ShippingService books orders with the carrier and applies its status pushes.
type ShippingService struct {
	carrier ports.Carrier
	orders  ports.OrderLifecycle
}

// NewShippingService creates a new instance of ShippingService.
func NewShippingService(carrier ports.Carrier, lifecycle ports.OrderLifecycle) *ShippingService {
	return &ShippingService{
		carrier: carrier,
		orders:  lifecycle,
	}
}

// Book creates the shipment, assigns a courier and fetches the label. A
// shipment created by an earlier partial attempt is reused. If the courier
// cannot be assigned the shipment id is still stored and a warning returned;
// the order stays unshipped until a retry succeeds.
func (s *ShippingService) Book(ctx context.Context, req domain.BookRequest) (*domain.BookingResult, error) {
	if !req.Address.Valid() {
		return nil, domain.ErrInvalidAddress
	}

	o, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status != orders.StatusPending && o.Status != orders.StatusProcessing {
		return nil, &orders.StateTransitionError{From: string(o.Status), To: string(orders.StatusShipped), Reason: "only pending or processing orders can be booked"}
	}

	l := logger.Named("shipping").With(zap.String("order_code", o.OrderCode))

	shipmentID := o.ShipmentID
	if shipmentID == "" {
		shipmentID, err = s.carrier.CreateShipment(ctx, domain.NewShipmentRequest(o, req.Address, req.Parcel))
		if err != nil {
			l.Error("Shipment creation failed", zap.Error(err))
			return nil, &domain.UpstreamBookingError{Step: "create shipment", Err: err}
		}
	} else {
		l.Info("Reusing existing shipment", zap.String("shipment_id", shipmentID))
	}

	booking := domain.Booking{ShipmentID: shipmentID}

	assignment, err := s.carrier.AssignAWB(ctx, shipmentID)
	if err != nil {
		l.Warn("Courier assignment failed", zap.String("shipment_id", shipmentID), zap.Error(err))
		booking.Warning = "shipment created but courier assignment failed: " + err.Error()
		updated, aerr := s.orders.AttachShipment(ctx, o.ID, shipmentID, "", "", "")
		if aerr != nil {
			return nil, aerr
		}
		return &domain.BookingResult{Booking: booking, Order: updated}, nil
	}
	booking.AWB = assignment.AWB
	booking.Courier = assignment.Courier

	label, err := s.carrier.GenerateLabel(ctx, shipmentID)
	if err != nil {
		l.Warn("Label generation failed", zap.String("shipment_id", shipmentID), zap.Error(err))
		booking.Warning = "label generation failed: " + err.Error()
	}
	booking.LabelURL = label

	updated, err := s.orders.AttachShipment(ctx, o.ID, shipmentID, booking.AWB, booking.Courier, booking.LabelURL)
	if err != nil {
		return nil, err
	}

	l.Info("Order booked",
		zap.String("shipment_id", shipmentID),
		zap.String("awb", booking.AWB),
		zap.String("courier", booking.Courier),
	)
	return &domain.BookingResult{Booking: booking, Order: updated}, nil
}

// HandleWebhook records a carrier push. Unknown status text is kept in the
// history without moving the order. A push that would regress the order is
// ignored and reported, not failed, so the carrier stops retrying it.
func (s *ShippingService) HandleWebhook(ctx context.Context, event domain.WebhookEvent) (*domain.WebhookResult, error) {
	awb := strings.TrimSpace(string(event.AWB))
	if awb == "" {
		return nil, domain.ErrMissingAWB
	}

	l := logger.Named("shipping").With(zap.String("awb", awb), zap.String("carrier_status", event.CurrentStatus))

	to, mapped := domain.MapCarrierStatus(event.CurrentStatus)
	if !mapped {
		l.Debug("Unmapped carrier status")
	}

	o, changed, err := s.orders.ApplyCarrierUpdate(ctx, awb, to, event.TrackingEvent())
	var ste *orders.StateTransitionError
	if errors.As(err, &ste) {
		l.Warn("Carrier update rejected", zap.String("from", ste.From), zap.String("to", ste.To), zap.String("reason", ste.Reason))
	}
	if err != nil {
		return nil, err
	}

	res := &domain.WebhookResult{OrderCode: o.OrderCode, Status: o.Status, Outcome: domain.OutcomeApplied}
	if !changed {
		res.Outcome = domain.OutcomeDuplicate
	}
	return res, nil
}
