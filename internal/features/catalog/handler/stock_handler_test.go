package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/features/catalog/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStockService is a mock implementation of ports.StockService
type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockStockService) SetStock(ctx context.Context, productID, size string, count int) (*domain.Product, error) {
	args := m.Called(ctx, productID, size, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockStockService) AdjustStock(ctx context.Context, productID, size string, delta int) (*domain.Product, error) {
	args := m.Called(ctx, productID, size, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func setupApp(service *MockStockService) *fiber.App {
	app := fiber.New()
	h := NewStockHandler(service)
	app.Get("/products/:id/stock", h.GetStock)
	app.Put("/admin/products/:id/stock", h.UpdateStock)
	return app
}

func putStock(t *testing.T, app *fiber.App, body string) *http.Response {
	req := httptest.NewRequest("PUT", "/admin/products/p1/stock", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestStockHandler_GetStock(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("GetProduct", mock.Anything, "p1").Return(&domain.Product{ID: "p1", SKU: "TEE", Sizes: map[string]int{"M": 3}}, nil).Once()

		resp, err := setupApp(svc).Test(httptest.NewRequest("GET", "/products/p1/stock", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body StockResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 3, body.Sizes["M"])
		svc.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("GetProduct", mock.Anything, "p1").Return(nil, domain.ErrProductNotFound).Once()

		resp, err := setupApp(svc).Test(httptest.NewRequest("GET", "/products/p1/stock", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("InternalError", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("GetProduct", mock.Anything, "p1").Return(nil, errors.New("db error")).Once()

		resp, err := setupApp(svc).Test(httptest.NewRequest("GET", "/products/p1/stock", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestStockHandler_UpdateStock(t *testing.T) {
	product := &domain.Product{ID: "p1", SKU: "TEE", Sizes: map[string]int{"M": 5}}

	t.Run("SetCount", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("SetStock", mock.Anything, "p1", "M", 5).Return(product, nil).Once()

		resp := putStock(t, setupApp(svc), `{"size":"M","count":5}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("AdjustDelta", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("AdjustStock", mock.Anything, "p1", "M", -2).Return(product, nil).Once()

		resp := putStock(t, setupApp(svc), `{"size":"M","delta":-2}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("BothOrNeither", func(t *testing.T) {
		svc := new(MockStockService)
		app := setupApp(svc)

		assert.Equal(t, http.StatusBadRequest, putStock(t, app, `{"size":"M","count":1,"delta":1}`).StatusCode)
		assert.Equal(t, http.StatusBadRequest, putStock(t, app, `{"size":"M"}`).StatusCode)
		svc.AssertNotCalled(t, "SetStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Insufficient", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("AdjustStock", mock.Anything, "p1", "M", -9).
			Return(nil, &domain.InsufficientStockError{ProductID: "p1", SKU: "TEE", Size: "M", Requested: 9, Available: 5}).Once()

		resp := putStock(t, setupApp(svc), `{"size":"M","delta":-9}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body struct {
			Details domain.InsufficientStockError `json:"details"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 5, body.Details.Available)
	})

	t.Run("NegativeCount", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("SetStock", mock.Anything, "p1", "M", -1).Return(nil, domain.ErrNegativeStock).Once()

		resp := putStock(t, setupApp(svc), `{"size":"M","count":-1}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("DatabaseUnavailable", func(t *testing.T) {
		svc := new(MockStockService)
		svc.On("AdjustStock", mock.Anything, "p1", "M", 1).
			Return(nil, fmt.Errorf("%w: no primary", database.ErrUnavailable)).Once()

		resp := putStock(t, setupApp(svc), `{"size":"M","delta":1}`)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}
