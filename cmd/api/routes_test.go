package main

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-checkout/internal/core/auth"
	cataloghandler "storefront-checkout/internal/features/catalog/handler"
	checkouthandler "storefront-checkout/internal/features/checkout/handler"
	orderhandler "storefront-checkout/internal/features/orders/handler"
	pricinghandler "storefront-checkout/internal/features/pricing/handler"
	realtimehandler "storefront-checkout/internal/features/realtime/handler"
	shippinghandler "storefront-checkout/internal/features/shipping/handler"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "routes-secret"

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newRoutedApp(db pinger) *fiber.App {
	app := fiber.New()
	registerRoutes(app, auth.NewMiddleware(testSecret), db, pinger{}, handlers{
		stock:    cataloghandler.NewStockHandler(nil),
		pricing:  pricinghandler.NewPricingHandler(nil),
		orders:   orderhandler.NewOrderHandler(nil),
		checkout: checkouthandler.NewCheckoutHandler(nil),
		shipping: shippinghandler.NewShippingHandler(nil, "hook-token"),
		events:   realtimehandler.NewEventsHandler(nil),
	})
	return app
}

func TestRegisterRoutes_WritesRequireDatabase(t *testing.T) {
	admin, err := auth.Sign(testSecret, "admin-1", auth.RoleAdmin, time.Hour)
	require.NoError(t, err)
	customer, err := auth.Sign(testSecret, "u1", auth.RoleCustomer, time.Hour)
	require.NoError(t, err)

	app := newRoutedApp(pinger{err: errors.New("no primary")})

	cases := []struct {
		method, path, token string
	}{
		{"PUT", "/admin/products/p1/stock", admin},
		{"POST", "/orders", customer},
		{"POST", "/payments/order", customer},
		{"POST", "/payments/verify", customer},
		{"PUT", "/orders/o1", admin},
		{"POST", "/orders/o1/exchange", customer},
		{"PUT", "/orders/o1/exchange", admin},
		{"POST", "/shipping/book", admin},
		{"POST", "/shipping/webhook", ""},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
		})
	}
}

func TestRegisterRoutes_AuthRunsBeforeDatabaseGate(t *testing.T) {
	app := newRoutedApp(pinger{err: errors.New("no primary")})

	resp, err := app.Test(httptest.NewRequest("PUT", "/orders/o1", strings.NewReader(`{}`)))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterRoutes_HealthyDatabasePassesThrough(t *testing.T) {
	app := newRoutedApp(pinger{})

	req := httptest.NewRequest("POST", "/shipping/webhook", strings.NewReader(`{}`))
	req.Header.Set(shippinghandler.WebhookTokenHeader, "wrong")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
