package main

import (
	"storefront-checkout/internal/core/auth"
	"storefront-checkout/internal/core/server"
	cataloghandler "storefront-checkout/internal/features/catalog/handler"
	checkouthandler "storefront-checkout/internal/features/checkout/handler"
	orderhandler "storefront-checkout/internal/features/orders/handler"
	pricinghandler "storefront-checkout/internal/features/pricing/handler"
	realtimehandler "storefront-checkout/internal/features/realtime/handler"
	shippinghandler "storefront-checkout/internal/features/shipping/handler"

	"github.com/gofiber/fiber/v2"
)

type handlers struct {
	stock    *cataloghandler.StockHandler
	pricing  *pricinghandler.PricingHandler
	orders   *orderhandler.OrderHandler
	checkout *checkouthandler.CheckoutHandler
	shipping *shippinghandler.ShippingHandler
	events   *realtimehandler.EventsHandler
}

// registerRoutes mounts the public API. Routes that write to the store are
// gated on a database ping after authentication.
func registerRoutes(app *fiber.App, mw *auth.Middleware, db, redis server.Pinger, h handlers) {
	requireDB := server.RequireDatabase(db)

	app.Get("/health", server.HealthHandler(map[string]server.Pinger{
		"mongo": db,
		"redis": redis,
	}))

	app.Get("/products/:id/stock", h.stock.GetStock)
	app.Put("/admin/products/:id/stock", mw.RequireAdmin(), requireDB, h.stock.UpdateStock)

	app.Post("/cart/quote", h.pricing.Quote)
	app.Get("/coupons", h.pricing.ListCoupons)
	app.Get("/gifts", h.pricing.ListGifts)

	app.Post("/orders", mw.RequireAuth(), requireDB, h.checkout.PlaceOrder)
	app.Post("/payments/order", mw.RequireAuth(), requireDB, h.checkout.CreatePaymentIntent)
	app.Post("/payments/verify", mw.RequireAuth(), requireDB, h.checkout.VerifyPayment)

	app.Get("/orders/mine", mw.RequireAuth(), h.orders.ListMine)
	app.Get("/orders/:id", mw.RequireAuth(), h.orders.GetOrder)
	app.Put("/orders/:id", mw.RequireAdmin(), requireDB, h.orders.UpdateStatus)
	app.Post("/orders/:id/exchange", mw.RequireAuth(), requireDB, h.orders.RequestExchange)
	app.Put("/orders/:id/exchange", mw.RequireAdmin(), requireDB, h.orders.UpdateExchange)
	app.Get("/admin/orders", mw.RequireAdmin(), h.orders.ListAll)

	app.Post("/shipping/book", mw.RequireAdmin(), requireDB, h.shipping.Book)
	app.Post("/shipping/webhook", requireDB, h.shipping.Webhook)

	app.Get("/realtime/events", mw.OptionalAuth(), h.events.Stream)
}
