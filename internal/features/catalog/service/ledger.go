package service

import (
	"context"
	"fmt"

	"storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/catalog/ports"
)

// Ledger is the only writer of size counters. Reserve and Release must be
// called with a transactional ctx so that a failure leaves no partial change.
type Ledger struct {
	products ports.ProductRepository
}

// NewLedger creates a Ledger over the product repository.
func NewLedger(products ports.ProductRepository) *Ledger {
	return &Ledger{products: products}
}

// Check validates every line against current stock without mutating anything.
// It returns the loaded products keyed by id.
func (l *Ledger) Check(ctx context.Context, lines []domain.StockLine) (map[string]*domain.Product, error) {
	merged := domain.MergeLines(lines)

	products, err := l.products.GetByIDs(ctx, domain.ProductIDs(merged))
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to load products: %w", err)
	}

	for _, line := range merged {
		if line.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		p, ok := products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, line.ProductID)
		}
		available, ok := p.Available(line.Size)
		if !ok {
			return nil, fmt.Errorf("%w: %s size %s", domain.ErrUnknownSize, p.SKU, line.Size)
		}
		if available < line.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID: p.ID,
				SKU:       p.SKU,
				Size:      line.Size,
				Requested: line.Quantity,
				Available: available,
			}
		}
	}

	return products, nil
}

// Reserve validates all lines first and only then decrements each counter.
// A decrement that loses a race reports the fresh availability.
// It returns the products after the decrement.
func (l *Ledger) Reserve(ctx context.Context, lines []domain.StockLine) ([]*domain.Product, error) {
	merged := domain.MergeLines(lines)

	products, err := l.Check(ctx, merged)
	if err != nil {
		return nil, err
	}

	for _, line := range merged {
		ok, err := l.products.DecrementSize(ctx, line.ProductID, line.Size, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("ledger: failed to decrement %s/%s: %w", line.ProductID, line.Size, err)
		}
		if !ok {
			return nil, l.shortfall(ctx, products[line.ProductID], line)
		}
	}

	return l.reload(ctx, merged)
}

// Release puts units back, e.g. on cancellation, return or completed exchange.
func (l *Ledger) Release(ctx context.Context, lines []domain.StockLine) ([]*domain.Product, error) {
	merged := domain.MergeLines(lines)

	for _, line := range merged {
		if line.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		if err := l.products.IncrementSize(ctx, line.ProductID, line.Size, line.Quantity); err != nil {
			return nil, fmt.Errorf("ledger: failed to release %s/%s: %w", line.ProductID, line.Size, err)
		}
	}

	return l.reload(ctx, merged)
}

func (l *Ledger) shortfall(ctx context.Context, p *domain.Product, line domain.StockLine) error {
	available := 0
	if fresh, err := l.products.GetByID(ctx, line.ProductID); err == nil {
		available, _ = fresh.Available(line.Size)
	}
	return &domain.InsufficientStockError{
		ProductID: line.ProductID,
		SKU:       p.SKU,
		Size:      line.Size,
		Requested: line.Quantity,
		Available: available,
	}
}

func (l *Ledger) reload(ctx context.Context, lines []domain.StockLine) ([]*domain.Product, error) {
	ids := domain.ProductIDs(lines)
	byID, err := l.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to reload products: %w", err)
	}

	out := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
