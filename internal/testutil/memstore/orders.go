package memstore

import (
	"context"
	"sort"

	orders "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/orders/ports"
)

// OrderRepo implements the orders OrderRepository port.
type OrderRepo struct {
	s *Store
}

// Orders returns the order repository view.
func (s *Store) Orders() *OrderRepo {
	return &OrderRepo{s: s}
}

// Seed inserts an order as-is, assigning an ID when empty.
func (r *OrderRepo) Seed(o *orders.Order) *orders.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o.ID == "" {
		o.ID = r.s.nextID("order-")
	}
	r.s.orders[o.ID] = cloneOrder(o)
	return o
}

// Count returns the number of stored orders.
func (r *OrderRepo) Count() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.orders)
}

func (r *OrderRepo) Create(ctx context.Context, o *orders.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.orders {
		if existing.OrderCode == o.OrderCode {
			return orders.ErrDuplicateOrderCode
		}
		if o.Payment != nil && existing.Payment != nil && o.Payment.GatewayPaymentID != "" &&
			existing.Payment.GatewayPaymentID == o.Payment.GatewayPaymentID {
			return orders.ErrDuplicatePayment
		}
	}
	o.ID = r.s.nextID("order-")
	o.Version = 1
	r.s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*orders.Order, error) {
	return r.find(func(o *orders.Order) bool { return o.ID == id })
}

func (r *OrderRepo) GetByCode(ctx context.Context, code string) (*orders.Order, error) {
	return r.find(func(o *orders.Order) bool { return o.OrderCode == code })
}

func (r *OrderRepo) GetByPaymentID(ctx context.Context, paymentID string) (*orders.Order, error) {
	return r.find(func(o *orders.Order) bool {
		return o.Payment != nil && o.Payment.GatewayPaymentID == paymentID
	})
}

func (r *OrderRepo) GetByTrackingID(ctx context.Context, trackingID string) (*orders.Order, error) {
	return r.find(func(o *orders.Order) bool { return trackingID != "" && o.TrackingID == trackingID })
}

func (r *OrderRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	if err == orders.ErrOrderNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string, filter ports.ListFilter) ([]orders.Order, error) {
	return r.list(func(o *orders.Order) bool { return o.UserID == userID }, filter), nil
}

func (r *OrderRepo) List(ctx context.Context, filter ports.ListFilter) ([]orders.Order, error) {
	return r.list(func(*orders.Order) bool { return true }, filter), nil
}

func (r *OrderRepo) Update(ctx context.Context, o *orders.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.orders[o.ID]
	if !ok {
		return orders.ErrOrderNotFound
	}
	if existing.Version != o.Version {
		return orders.ErrVersionConflict
	}
	if o.TrackingID != "" {
		for id, other := range r.s.orders {
			if id != o.ID && other.TrackingID == o.TrackingID {
				return orders.ErrDuplicateTracking
			}
		}
	}
	o.Version++
	r.s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepo) find(match func(*orders.Order) bool) (*orders.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, o := range r.s.orders {
		if match(o) {
			return cloneOrder(o), nil
		}
	}
	return nil, orders.ErrOrderNotFound
}

func (r *OrderRepo) list(match func(*orders.Order) bool, filter ports.ListFilter) []orders.Order {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]orders.Order, 0)
	for _, o := range r.s.orders {
		if !match(o) || (filter.Status != "" && o.Status != filter.Status) {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []orders.Order{}
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out
}

func cloneOrder(o *orders.Order) *orders.Order {
	c := *o
	c.Products = append([]orders.OrderLine(nil), o.Products...)
	c.TrackingHistory = append([]orders.TrackingEvent(nil), o.TrackingHistory...)
	if o.Payment != nil {
		p := *o.Payment
		c.Payment = &p
	}
	if o.RefundDetails != nil {
		r := *o.RefundDetails
		c.RefundDetails = &r
	}
	if o.Exchange != nil {
		e := *o.Exchange
		e.Items = append([]orders.ExchangeItem(nil), o.Exchange.Items...)
		c.Exchange = &e
	}
	return &c
}
