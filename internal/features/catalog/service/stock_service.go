package service

import (
	"context"
	"fmt"

	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/catalog/ports"

	"go.uber.org/zap"
)

// StockService handles admin stock edits. Edits go through the same
// conditional primitives as checkout, inside a transaction.
type StockService struct {
	products ports.ProductRepository
	tx       database.TxRunner
	notifier ports.StockNotifier
}

// NewStockService creates a new instance of StockService.
func NewStockService(products ports.ProductRepository, tx database.TxRunner, notifier ports.StockNotifier) *StockService {
	return &StockService{
		products: products,
		tx:       tx,
		notifier: notifier,
	}
}

// GetProduct returns a product with its current size counters.
func (s *StockService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.GetByID(ctx, id)
}

// SetStock overwrites the counter of one size. Unknown sizes are created.
func (s *StockService) SetStock(ctx context.Context, productID, size string, count int) (*domain.Product, error) {
	if !domain.ValidSizeLabel(size) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSize, size)
	}
	if count < 0 {
		return nil, domain.ErrNegativeStock
	}

	var updated *domain.Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.products.SetSize(ctx, productID, size, count); err != nil {
			return err
		}
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("stock: failed to set %s/%s: %w", productID, size, err)
	}

	s.committed(ctx, updated, "set", size, count)
	return updated, nil
}

// AdjustStock applies a signed delta to one existing size. A negative delta
// larger than the counter is rejected with an InsufficientStockError.
func (s *StockService) AdjustStock(ctx context.Context, productID, size string, delta int) (*domain.Product, error) {
	if delta == 0 {
		return s.products.GetByID(ctx, productID)
	}

	var updated *domain.Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		available, ok := p.Available(size)
		if !ok {
			return fmt.Errorf("%w: %s size %s", domain.ErrUnknownSize, p.SKU, size)
		}

		if delta > 0 {
			if err := s.products.IncrementSize(ctx, productID, size, delta); err != nil {
				return err
			}
		} else {
			ok, err := s.products.DecrementSize(ctx, productID, size, -delta)
			if err != nil {
				return err
			}
			if !ok {
				return &domain.InsufficientStockError{
					ProductID: p.ID,
					SKU:       p.SKU,
					Size:      size,
					Requested: -delta,
					Available: available,
				}
			}
		}

		updated, err = s.products.GetByID(ctx, productID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("stock: failed to adjust %s/%s: %w", productID, size, err)
	}

	s.committed(ctx, updated, "adjust", size, delta)
	return updated, nil
}

func (s *StockService) committed(ctx context.Context, p *domain.Product, op, size string, n int) {
	logger.Named("stock").Info("Stock updated",
		zap.String("op", op),
		zap.String("sku", p.SKU),
		zap.String("size", size),
		zap.Int("value", n),
		zap.Int("now", p.Sizes[size]),
	)
	if s.notifier != nil {
		s.notifier.StockUpdated(ctx, p)
	}
}
