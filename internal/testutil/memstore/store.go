// Package memstore is an in-memory implementation of the repository ports
// used by service tests. Transactions are serialised and roll back every
// collection on error, so concurrency properties can be exercised in-process.
package memstore

import (
	"context"
	"strconv"
	"sync"

	catalog "storefront-checkout/internal/features/catalog/domain"
	orders "storefront-checkout/internal/features/orders/domain"
	pricing "storefront-checkout/internal/features/pricing/domain"
)

type txKey struct{}

// Store holds every collection.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	products map[string]*catalog.Product
	orders   map[string]*orders.Order
	coupons  map[string]*pricing.Coupon
	usages   map[string]pricing.CouponUsage
	gifts    []pricing.FreeGift

	seq     int
	pingErr error
	txCount int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		products: make(map[string]*catalog.Product),
		orders:   make(map[string]*orders.Order),
		coupons:  make(map[string]*pricing.Coupon),
		usages:   make(map[string]pricing.CouponUsage),
	}
}

type snapshot struct {
	products map[string]*catalog.Product
	orders   map[string]*orders.Order
	coupons  map[string]*pricing.Coupon
	usages   map[string]pricing.CouponUsage
	gifts    []pricing.FreeGift
}

// WithinTx runs fn with exclusive access. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.txCount++
	snap := s.snapshot()
	s.mu.Unlock()

	err := fn(context.WithValue(ctx, txKey{}, true))
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
	}
	return err
}

// Ping returns the error set with SetPingError.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pingErr
}

// SetPingError makes Ping fail, simulating an unreachable database.
func (s *Store) SetPingError(err error) {
	s.mu.Lock()
	s.pingErr = err
	s.mu.Unlock()
}

// TxCount returns how many top-level transactions were started.
func (s *Store) TxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.txCount
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return prefix + strconv.Itoa(s.seq)
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		products: make(map[string]*catalog.Product, len(s.products)),
		orders:   make(map[string]*orders.Order, len(s.orders)),
		coupons:  make(map[string]*pricing.Coupon, len(s.coupons)),
		usages:   make(map[string]pricing.CouponUsage, len(s.usages)),
		gifts:    append([]pricing.FreeGift(nil), s.gifts...),
	}
	for k, v := range s.products {
		snap.products[k] = cloneProduct(v)
	}
	for k, v := range s.orders {
		snap.orders[k] = cloneOrder(v)
	}
	for k, v := range s.coupons {
		c := *v
		snap.coupons[k] = &c
	}
	for k, v := range s.usages {
		snap.usages[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.orders = snap.orders
	s.coupons = snap.coupons
	s.usages = snap.usages
	s.gifts = snap.gifts
}
