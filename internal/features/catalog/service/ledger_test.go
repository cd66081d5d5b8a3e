package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/testutil/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedStore() *memstore.Store {
	store := memstore.New()
	store.Products().Seed(
		&domain.Product{ID: "tee", SKU: "TEE-BLK", OfferPrice: decimal.NewFromInt(600), Sizes: map[string]int{"S": 3, "M": 1, "L": 0}},
		&domain.Product{ID: "hood", SKU: "HOOD-GRY", OfferPrice: decimal.NewFromInt(1400), Sizes: map[string]int{"M": 5}},
	)
	return store
}

func sizeOf(t *testing.T, store *memstore.Store, id, size string) int {
	p, err := store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Sizes[size]
}

func TestLedger_Reserve(t *testing.T) {
	store := seedStore()
	ledger := NewLedger(store.Products())

	var products []*domain.Product
	err := store.WithinTx(context.Background(), func(ctx context.Context) error {
		var err error
		products, err = ledger.Reserve(ctx, []domain.StockLine{
			{ProductID: "tee", Size: "S", Quantity: 2},
			{ProductID: "hood", Size: "M", Quantity: 1},
		})
		return err
	})
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, 1, sizeOf(t, store, "tee", "S"))
	assert.Equal(t, 4, sizeOf(t, store, "hood", "M"))
	assert.Equal(t, 1, products[0].Sizes["S"])
}

func TestLedger_Reserve_AllOrNothing(t *testing.T) {
	store := seedStore()
	ledger := NewLedger(store.Products())

	err := store.WithinTx(context.Background(), func(ctx context.Context) error {
		_, err := ledger.Reserve(ctx, []domain.StockLine{
			{ProductID: "hood", Size: "M", Quantity: 1},
			{ProductID: "tee", Size: "S", Quantity: 1},
			{ProductID: "tee", Size: "L", Quantity: 1},
		})
		return err
	})

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "TEE-BLK", ise.SKU)
	assert.Equal(t, "L", ise.Size)
	assert.Equal(t, 0, ise.Available)

	assert.Equal(t, 5, sizeOf(t, store, "hood", "M"))
	assert.Equal(t, 3, sizeOf(t, store, "tee", "S"))
}

func TestLedger_Reserve_MergesDuplicateLines(t *testing.T) {
	store := seedStore()
	ledger := NewLedger(store.Products())

	err := store.WithinTx(context.Background(), func(ctx context.Context) error {
		_, err := ledger.Reserve(ctx, []domain.StockLine{
			{ProductID: "tee", Size: "S", Quantity: 2},
			{ProductID: "tee", Size: "S", Quantity: 2},
		})
		return err
	})

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 4, ise.Requested)
	assert.Equal(t, 3, ise.Available)
}

func TestLedger_Check_Errors(t *testing.T) {
	ledger := NewLedger(seedStore().Products())
	ctx := context.Background()

	_, err := ledger.Check(ctx, []domain.StockLine{{ProductID: "ghost", Size: "M", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = ledger.Check(ctx, []domain.StockLine{{ProductID: "tee", Size: "XXL", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrUnknownSize)

	_, err = ledger.Check(ctx, []domain.StockLine{{ProductID: "tee", Size: "S", Quantity: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	products, err := ledger.Check(ctx, []domain.StockLine{{ProductID: "tee", Size: "M", Quantity: 1}})
	require.NoError(t, err)
	assert.Contains(t, products, "tee")
}

func TestLedger_Release(t *testing.T) {
	store := seedStore()
	ledger := NewLedger(store.Products())

	_, err := ledger.Release(context.Background(), []domain.StockLine{{ProductID: "tee", Size: "L", Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 2, sizeOf(t, store, "tee", "L"))

	_, err = ledger.Release(context.Background(), []domain.StockLine{{ProductID: "tee", Size: "XS", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrUnknownSize)
}

// TestLedger_NoOversell races many single-unit checkouts for the same size.
func TestLedger_NoOversell(t *testing.T) {
	const available = 7
	const buyers = 40

	store := memstore.New()
	store.Products().Seed(&domain.Product{ID: "tee", SKU: "TEE-BLK", Sizes: map[string]int{"M": available}})
	ledger := NewLedger(store.Products())

	var wins, shortfalls int64
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithinTx(context.Background(), func(ctx context.Context) error {
				_, err := ledger.Reserve(ctx, []domain.StockLine{{ProductID: "tee", Size: "M", Quantity: 1}})
				return err
			})
			var ise *domain.InsufficientStockError
			switch {
			case err == nil:
				atomic.AddInt64(&wins, 1)
			case errors.As(err, &ise):
				atomic.AddInt64(&shortfalls, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(available), wins)
	assert.Equal(t, int64(buyers-available), shortfalls)
	assert.Equal(t, 0, sizeOf(t, store, "tee", "M"))
}

// racyRepo lets Check pass and then loses the conditional decrement, as when
// another transaction commits in between.
type racyRepo struct {
	mock.Mock
}

func (m *racyRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *racyRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[string]*domain.Product), args.Error(1)
}

func (m *racyRepo) DecrementSize(ctx context.Context, id, size string, qty int) (bool, error) {
	args := m.Called(ctx, id, size, qty)
	return args.Bool(0), args.Error(1)
}

func (m *racyRepo) IncrementSize(ctx context.Context, id, size string, qty int) error {
	return m.Called(ctx, id, size, qty).Error(0)
}

func (m *racyRepo) SetSize(ctx context.Context, id, size string, count int) error {
	return m.Called(ctx, id, size, count).Error(0)
}

func TestLedger_Reserve_LostRaceReportsFreshAvailability(t *testing.T) {
	repo := new(racyRepo)
	before := &domain.Product{ID: "tee", SKU: "TEE-BLK", Sizes: map[string]int{"M": 1}}
	after := &domain.Product{ID: "tee", SKU: "TEE-BLK", Sizes: map[string]int{"M": 0}}

	repo.On("GetByIDs", mock.Anything, []string{"tee"}).Return(map[string]*domain.Product{"tee": before}, nil)
	repo.On("DecrementSize", mock.Anything, "tee", "M", 1).Return(false, nil)
	repo.On("GetByID", mock.Anything, "tee").Return(after, nil)

	_, err := NewLedger(repo).Reserve(context.Background(), []domain.StockLine{{ProductID: "tee", Size: "M", Quantity: 1}})

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 0, ise.Available)
	repo.AssertExpectations(t)
}
