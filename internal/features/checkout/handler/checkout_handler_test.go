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
	"time"

	"storefront-checkout/internal/core/auth"
	"storefront-checkout/internal/core/database"
	catalog "storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/checkout/domain"
	orders "storefront-checkout/internal/features/orders/domain"
	pricing "storefront-checkout/internal/features/pricing/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "checkout-test-secret"

// MockCheckoutService is a mock implementation of ports.CheckoutService
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) PlaceOrder(ctx context.Context, userID string, req domain.CheckoutRequest) (*orders.Order, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orders.Order), args.Error(1)
}

func (m *MockCheckoutService) CreatePaymentIntent(ctx context.Context, userID string, req domain.CheckoutRequest) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentIntent), args.Error(1)
}

func (m *MockCheckoutService) VerifyPayment(ctx context.Context, userID string, req domain.VerifyRequest) (*orders.Order, bool, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*orders.Order), args.Bool(1), args.Error(2)
}

func setupApp(svc *MockCheckoutService) *fiber.App {
	app := fiber.New()
	h := NewCheckoutHandler(svc)
	mw := auth.NewMiddleware(secret)
	app.Post("/orders", mw.RequireAuth(), h.PlaceOrder)
	app.Post("/payments/order", mw.RequireAuth(), h.CreatePaymentIntent)
	app.Post("/payments/verify", mw.RequireAuth(), h.VerifyPayment)
	return app
}

func post(t *testing.T, app *fiber.App, path string, body interface{}, authenticated bool) *http.Response {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if authenticated {
		tok, err := auth.Sign(secret, "u1", auth.RoleCustomer, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func errorBody(t *testing.T, resp *http.Response) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

var cart = domain.CheckoutRequest{
	Products:  []pricing.CartLine{{ProductID: "tee", Size: "M", Quantity: 1}},
	AddressID: "addr-1",
}

func TestCheckoutHandler_PlaceOrder(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("PlaceOrder", mock.Anything, "u1", cart).Return(&orders.Order{ID: "o1", OrderCode: "ORD-AAAA2222"}, nil).Once()

		resp := post(t, setupApp(svc), "/orders", cart, true)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("Shortfall", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("PlaceOrder", mock.Anything, "u1", cart).
			Return(nil, &catalog.InsufficientStockError{ProductID: "tee", SKU: "TEE-BLK", Size: "M", Requested: 1, Available: 0}).Once()

		resp := post(t, setupApp(svc), "/orders", cart, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := errorBody(t, resp)
		details := body["details"].(map[string]interface{})
		assert.Equal(t, "TEE-BLK", details["sku"])
		assert.Equal(t, "M", details["size"])
		assert.Equal(t, float64(0), details["available"])
	})

	t.Run("MissingAddress", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("PlaceOrder", mock.Anything, "u1", mock.Anything).Return(nil, domain.ErrMissingAddress).Once()

		resp := post(t, setupApp(svc), "/orders", domain.CheckoutRequest{}, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		resp := post(t, setupApp(new(MockCheckoutService)), "/orders", cart, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCheckoutHandler_CreatePaymentIntent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("CreatePaymentIntent", mock.Anything, "u1", cart).
			Return(&domain.PaymentIntent{OrderID: "order_1", Amount: 60000, Currency: "INR", KeyID: "rzp"}, nil).Once()

		resp := post(t, setupApp(svc), "/payments/order", cart, true)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var intent domain.PaymentIntent
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&intent))
		assert.Equal(t, int64(60000), intent.Amount)
	})

	t.Run("GatewayDown", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("CreatePaymentIntent", mock.Anything, "u1", cart).
			Return(nil, &domain.GatewayError{Op: "create order", Err: errors.New("timeout")}).Once()

		resp := post(t, setupApp(svc), "/payments/order", cart, true)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("CouponRejected", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("CreatePaymentIntent", mock.Anything, "u1", mock.Anything).
			Return(nil, &pricing.CouponError{Code: "OLD", Reason: pricing.CouponReasonExpired}).Once()

		resp := post(t, setupApp(svc), "/payments/order", cart, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCheckoutHandler_VerifyPayment(t *testing.T) {
	req := domain.VerifyRequest{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: "abc"}

	t.Run("Created", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("VerifyPayment", mock.Anything, "u1", req).Return(&orders.Order{ID: "o1"}, false, nil).Once()

		resp := post(t, setupApp(svc), "/payments/verify", req, true)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("AlreadyCreated", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("VerifyPayment", mock.Anything, "u1", req).Return(&orders.Order{ID: "o1"}, true, nil).Once()

		resp := post(t, setupApp(svc), "/payments/verify", req, true)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("BadSignature", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("VerifyPayment", mock.Anything, "u1", req).Return(nil, false, &domain.SignatureError{GatewayOrderID: "order_1"}).Once()

		resp := post(t, setupApp(svc), "/payments/verify", req, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Payment signature verification failed", errorBody(t, resp)["error"])
	})

	t.Run("AmountMismatch", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("VerifyPayment", mock.Anything, "u1", req).Return(nil, false, &domain.AmountMismatchError{ExpectedPaise: 2, PaidPaise: 1}).Once()

		resp := post(t, setupApp(svc), "/payments/verify", req, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("ForeignIntent", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("VerifyPayment", mock.Anything, "u1", req).Return(nil, false, domain.ErrIntentOwner).Once()

		resp := post(t, setupApp(svc), "/payments/verify", req, true)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Internal", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("VerifyPayment", mock.Anything, "u1", req).Return(nil, false, errors.New("boom")).Once()

		resp := post(t, setupApp(svc), "/payments/verify", req, true)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("DatabaseUnavailable", func(t *testing.T) {
		svc := new(MockCheckoutService)
		svc.On("VerifyPayment", mock.Anything, "u1", req).
			Return(nil, false, fmt.Errorf("insert order: %w", database.ErrUnavailable)).Once()

		resp := post(t, setupApp(svc), "/payments/verify", req, true)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "database unavailable", errorBody(t, resp)["error"])
	})
}
