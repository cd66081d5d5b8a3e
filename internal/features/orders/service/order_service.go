package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/core/logger"
	catalog "storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/orders/ports"

	"go.uber.org/zap"
)

// ErrForbidden is returned when a customer touches another user's order.
var ErrForbidden = errors.New("order belongs to another user")

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// OrderService handles the order lifecycle after checkout: admin status
// changes, the exchange overlay and carrier updates.
type OrderService struct {
	// repo persists orders.
	repo ports.OrderRepository
	// tx scopes every read-decide-write sequence.
	tx database.TxRunner
	// ledger restocks and reserves units for cancellations, returns and exchanges.
	ledger ports.StockLedger
	// notifier is told about committed changes.
	notifier ports.Notifier
	now      func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(repo ports.OrderRepository, tx database.TxRunner, ledger ports.StockLedger, notifier ports.Notifier) *OrderService {
	return &OrderService{
		repo:     repo,
		tx:       tx,
		ledger:   ledger,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns an order by id or order code.
func (s *OrderService) Get(ctx context.Context, ref string) (*domain.Order, error) {
	return s.find(ctx, ref)
}

// GetOwned returns the order only when userID owns it.
func (s *OrderService) GetOwned(ctx context.Context, userID, ref string) (*domain.Order, error) {
	o, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, userID string, filter ports.ListFilter) ([]domain.Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID, page(filter))
	if err != nil {
		return nil, fmt.Errorf("orders: failed to list orders for user: %w", err)
	}
	return orders, nil
}

// ListAll returns every order, newest first. Admin only.
func (s *OrderService) ListAll(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx, page(filter))
	if err != nil {
		return nil, fmt.Errorf("orders: failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus applies an admin transition. Cancelled and returned orders
// put their units back in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, ref string, to domain.Status, refund *domain.RefundDetails) (*domain.Order, error) {
	var (
		order    *domain.Order
		restored []*catalog.Product
		from     domain.Status
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.find(ctx, ref)
		if err != nil {
			return err
		}
		from = o.Status
		if err := o.ApplyAdminTransition(to, refund, s.now()); err != nil {
			return err
		}
		if to == domain.StatusCancelled || to == domain.StatusReturned {
			if restored, err = s.ledger.Release(ctx, o.StockLines()); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Named("orders").Info("Order status updated",
		zap.String("order_code", order.OrderCode),
		zap.String("from", string(from)),
		zap.String("status", string(order.Status)),
	)
	s.committed(ctx, order, restored)
	return order, nil
}

// RequestExchange attaches an exchange request to the caller's delivered order.
func (s *OrderService) RequestExchange(ctx context.Context, userID, ref string, items []domain.ExchangeItem, reason string) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.find(ctx, ref)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return ErrForbidden
		}
		if err := o.RequestExchange(items, reason, s.now()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Named("orders").Info("Exchange requested",
		zap.String("order_code", order.OrderCode),
		zap.Int("items", len(order.Exchange.Items)),
	)
	if s.notifier != nil {
		s.notifier.ExchangeRequested(ctx, order)
	}
	return order, nil
}

// UpdateExchange advances the exchange overlay. Approval reserves the
// replacement sizes, rejecting an approved exchange gives them back, and
// completion restocks the returned sizes.
func (s *OrderService) UpdateExchange(ctx context.Context, ref string, to domain.ExchangeState, note string) (*domain.Order, error) {
	var (
		order   *domain.Order
		touched []*catalog.Product
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.find(ctx, ref)
		if err != nil {
			return err
		}
		from, err := o.AdvanceExchange(to, note, s.now())
		if err != nil {
			return err
		}

		switch {
		case to == domain.ExchangeApproved:
			touched, err = s.ledger.Reserve(ctx, o.Exchange.ReplacementLines())
		case to == domain.ExchangeRejected && from == domain.ExchangeApproved:
			touched, err = s.ledger.Release(ctx, o.Exchange.ReplacementLines())
		case to == domain.ExchangeExchanged:
			touched, err = s.ledger.Release(ctx, o.Exchange.ReturnedLines())
		}
		if err != nil {
			return err
		}

		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Named("orders").Info("Exchange updated",
		zap.String("order_code", order.OrderCode),
		zap.String("exchange_state", string(order.Exchange.State)),
	)
	s.committed(ctx, order, touched)
	return order, nil
}

// ApplyCarrierUpdate records a carrier event against the order shipped under
// trackingID. The event is appended to the tracking history once. When to is
// set the status moves forward or sideways to returned; returned orders are
// restocked. Replaying an event leaves the order unchanged. It reports whether
// the order was modified.
func (s *OrderService) ApplyCarrierUpdate(ctx context.Context, trackingID string, to domain.Status, event domain.TrackingEvent) (*domain.Order, bool, error) {
	var (
		order    *domain.Order
		restored []*catalog.Product
		dirty    bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		dirty = false
		restored = nil

		o, err := s.repo.GetByTrackingID(ctx, trackingID)
		if err != nil {
			return err
		}

		now := s.now()
		if !o.HasTrackingEvent(event) {
			o.TrackingHistory = append(o.TrackingHistory, event)
			o.UpdatedAt = now
			dirty = true
		}

		if to != "" {
			changed, err := o.ApplyCarrierStatus(to, now)
			if err != nil {
				return err
			}
			if changed && to == domain.StatusReturned {
				if restored, err = s.ledger.Release(ctx, o.StockLines()); err != nil {
					return err
				}
			}
			dirty = dirty || changed
		}

		order = o
		if !dirty {
			return nil
		}
		return s.repo.Update(ctx, o)
	})
	if err != nil {
		return nil, false, err
	}

	l := logger.Named("orders")
	if !dirty {
		l.Debug("Carrier update ignored", zap.String("awb", trackingID), zap.String("carrier_status", event.Status))
		return order, false, nil
	}
	l.Info("Carrier update applied",
		zap.String("order_code", order.OrderCode),
		zap.String("awb", trackingID),
		zap.String("carrier_status", event.Status),
		zap.String("status", string(order.Status)),
	)
	s.committed(ctx, order, restored)
	return order, true, nil
}

// AttachShipment stores carrier booking references on the order. A non-empty
// awb moves it to shipped.
func (s *OrderService) AttachShipment(ctx context.Context, ref, shipmentID, awb, courier, labelURL string) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.find(ctx, ref)
		if err != nil {
			return err
		}
		if err := o.RecordShipment(shipmentID, awb, courier, labelURL, s.now()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Named("orders").Info("Shipment attached",
		zap.String("order_code", order.OrderCode),
		zap.String("shipment_id", shipmentID),
		zap.String("awb", awb),
		zap.String("status", string(order.Status)),
	)
	s.committed(ctx, order, nil)
	return order, nil
}

func (s *OrderService) committed(ctx context.Context, order *domain.Order, products []*catalog.Product) {
	if s.notifier == nil {
		return
	}
	s.notifier.OrderUpdated(ctx, order)
	for _, p := range products {
		s.notifier.StockUpdated(ctx, p)
	}
}

// find accepts either a storage id or an order code.
func (s *OrderService) find(ctx context.Context, ref string) (*domain.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrOrderNotFound
	}
	if strings.HasPrefix(strings.ToUpper(ref), domain.CodePrefix) {
		return s.repo.GetByCode(ctx, strings.ToUpper(ref))
	}
	return s.repo.GetByID(ctx, ref)
}

func page(f ports.ListFilter) ports.ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
