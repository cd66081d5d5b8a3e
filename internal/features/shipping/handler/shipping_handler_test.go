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
	orders "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/shipping/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	secret       = "shipping-test-secret"
	webhookToken = "hook-token"
)

// MockShippingService is a mock implementation of ports.ShippingService
type MockShippingService struct {
	mock.Mock
}

func (m *MockShippingService) Book(ctx context.Context, req domain.BookRequest) (*domain.BookingResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookingResult), args.Error(1)
}

func (m *MockShippingService) HandleWebhook(ctx context.Context, event domain.WebhookEvent) (*domain.WebhookResult, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WebhookResult), args.Error(1)
}

func setupApp(svc *MockShippingService) *fiber.App {
	app := fiber.New()
	h := NewShippingHandler(svc, webhookToken)
	mw := auth.NewMiddleware(secret)

	app.Post("/shipping/book", mw.RequireAdmin(), h.Book)
	app.Post("/shipping/webhook", h.Webhook)
	return app
}

func post(t *testing.T, app *fiber.App, path string, headers map[string]string, body string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func bearer(t *testing.T, role string) map[string]string {
	tok, err := auth.Sign(secret, "user-1", role, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + tok}
}

const bookBody = `{"orderId":"ORD-AAAA2222","address":{"name":"Asha Rao","phone":"9999999999","line1":"12 MG Road","city":"Pune","state":"MH","pincode":"411001"}}`

func TestShippingHandler_Book(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockShippingService)
		svc.On("Book", mock.Anything, mock.MatchedBy(func(r domain.BookRequest) bool {
			return r.OrderID == "ORD-AAAA2222" && r.Address.Pincode == "411001"
		})).Return(&domain.BookingResult{
			Booking: domain.Booking{ShipmentID: "280640308", AWB: "19041424751540"},
			Order:   &orders.Order{OrderCode: "ORD-AAAA2222", Status: orders.StatusShipped},
		}, nil).Once()

		resp := post(t, setupApp(svc), "/shipping/book", bearer(t, auth.RoleAdmin), bookBody)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body domain.BookingResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "19041424751540", body.AWB)
		assert.Equal(t, orders.StatusShipped, body.Order.Status)
		svc.AssertExpectations(t)
	})

	t.Run("CustomerForbidden", func(t *testing.T) {
		resp := post(t, setupApp(new(MockShippingService)), "/shipping/book", bearer(t, auth.RoleCustomer), bookBody)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("MissingOrder", func(t *testing.T) {
		svc := new(MockShippingService)
		resp := post(t, setupApp(svc), "/shipping/book", bearer(t, auth.RoleAdmin), `{"address":{}}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		svc.AssertNotCalled(t, "Book", mock.Anything, mock.Anything)
	})

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"Upstream", &domain.UpstreamBookingError{Step: "create shipment", Err: errors.New("502")}, http.StatusBadGateway},
		{"AlreadyShipped", &orders.StateTransitionError{From: "shipped", To: "shipped", Reason: "already booked"}, http.StatusConflict},
		{"UnknownOrder", orders.ErrOrderNotFound, http.StatusNotFound},
		{"BadAddress", domain.ErrInvalidAddress, http.StatusBadRequest},
		{"ReusedAWB", fmt.Errorf("attach shipment: %w", orders.ErrDuplicateTracking), http.StatusConflict},
		{"DatabaseUnavailable", fmt.Errorf("%w: no primary", database.ErrUnavailable), http.StatusServiceUnavailable},
		{"Internal", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockShippingService)
			svc.On("Book", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			resp := post(t, setupApp(svc), "/shipping/book", bearer(t, auth.RoleAdmin), bookBody)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestShippingHandler_Webhook(t *testing.T) {
	payload := `{"awb":19041424751540,"current_status":"Delivered","current_timestamp":"23 05 2026 11:43:52","scans":[{"date":"2026-05-23 11:43:52","activity":"Delivered","location":"Pune"}]}`
	withToken := map[string]string{WebhookTokenHeader: webhookToken}

	t.Run("Applied", func(t *testing.T) {
		svc := new(MockShippingService)
		svc.On("HandleWebhook", mock.Anything, mock.MatchedBy(func(e domain.WebhookEvent) bool {
			return e.AWB == "19041424751540" && e.CurrentStatus == "Delivered"
		})).Return(&domain.WebhookResult{OrderCode: "ORD-AAAA2222", Status: orders.StatusDelivered, Outcome: domain.OutcomeApplied}, nil).Once()

		resp := post(t, setupApp(svc), "/shipping/webhook", withToken, payload)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body domain.WebhookResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.OutcomeApplied, body.Outcome)
		svc.AssertExpectations(t)
	})

	t.Run("BadToken", func(t *testing.T) {
		svc := new(MockShippingService)
		resp := post(t, setupApp(svc), "/shipping/webhook", map[string]string{WebhookTokenHeader: "guess"}, payload)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp = post(t, setupApp(svc), "/shipping/webhook", nil, payload)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		svc.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything)
	})

	t.Run("UnknownAWB", func(t *testing.T) {
		svc := new(MockShippingService)
		svc.On("HandleWebhook", mock.Anything, mock.Anything).Return(nil, orders.ErrOrderNotFound).Once()

		resp := post(t, setupApp(svc), "/shipping/webhook", withToken, payload)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("MissingAWB", func(t *testing.T) {
		svc := new(MockShippingService)
		svc.On("HandleWebhook", mock.Anything, mock.Anything).Return(nil, domain.ErrMissingAWB).Once()

		resp := post(t, setupApp(svc), "/shipping/webhook", withToken, `{"current_status":"Delivered"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Regression", func(t *testing.T) {
		svc := new(MockShippingService)
		svc.On("HandleWebhook", mock.Anything, mock.Anything).
			Return(nil, &orders.StateTransitionError{From: "returned", To: "delivered", Reason: "order is in a terminal status"}).Once()

		resp := post(t, setupApp(svc), "/shipping/webhook", withToken, payload)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("DatabaseUnavailable", func(t *testing.T) {
		svc := new(MockShippingService)
		svc.On("HandleWebhook", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: no primary", database.ErrUnavailable)).Once()

		resp := post(t, setupApp(svc), "/shipping/webhook", withToken, payload)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestShippingHandler_EmptyTokenRejectsAll(t *testing.T) {
	h := NewShippingHandler(new(MockShippingService), "")
	assert.False(t, h.authorized(""))
	assert.False(t, h.authorized("anything"))
}
