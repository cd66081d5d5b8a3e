package memstore

import (
	"context"
	"time"

	catalog "storefront-checkout/internal/features/catalog/domain"
)

// ProductRepo implements the catalog ProductRepository port.
type ProductRepo struct {
	s *Store
}

// Products returns the product repository view.
func (s *Store) Products() *ProductRepo {
	return &ProductRepo{s: s}
}

// Seed inserts products as-is.
func (r *ProductRepo) Seed(products ...*catalog.Product) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range products {
		r.s.products[p.ID] = cloneProduct(p)
	}
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (r *ProductRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*catalog.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]*catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (r *ProductRepo) DecrementSize(ctx context.Context, id, size string, qty int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return false, nil
	}
	n, ok := p.Sizes[size]
	if !ok || n < qty {
		return false, nil
	}
	p.Sizes[size] = n - qty
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *ProductRepo) IncrementSize(ctx context.Context, id, size string, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return catalog.ErrProductNotFound
	}
	if _, ok := p.Sizes[size]; !ok {
		return catalog.ErrUnknownSize
	}
	p.Sizes[size] += qty
	p.UpdatedAt = time.Now()
	return nil
}

func (r *ProductRepo) SetSize(ctx context.Context, id, size string, count int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return catalog.ErrProductNotFound
	}
	if p.Sizes == nil {
		p.Sizes = make(map[string]int)
	}
	p.Sizes[size] = count
	p.UpdatedAt = time.Now()
	return nil
}

func cloneProduct(p *catalog.Product) *catalog.Product {
	c := *p
	c.Sizes = make(map[string]int, len(p.Sizes))
	for k, v := range p.Sizes {
		c.Sizes[k] = v
	}
	return &c
}
