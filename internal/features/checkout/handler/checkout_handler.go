package handler

import (
	"context"
	"errors"
	"net/http"

	"storefront-checkout/internal/core/auth"
	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/server"
	catalog "storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/checkout/domain"
	"storefront-checkout/internal/features/checkout/ports"
	orders "storefront-checkout/internal/features/orders/domain"
	pricing "storefront-checkout/internal/features/pricing/domain"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CheckoutHandler handles order placement and online payments.
type CheckoutHandler struct {
	service ports.CheckoutService
}

// NewCheckoutHandler creates a new instance of CheckoutHandler.
func NewCheckoutHandler(s ports.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		service: s,
	}
}

// PlaceOrder handles POST /orders.
// @Summary Place a cash on delivery order
// @Description Prices the cart on the server, reserves stock and creates an unpaid order.
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body domain.CheckoutRequest true "Cart"
// @Success 201 {object} orders.Order
// @Failure 400 {object} server.ErrorResponse "Invalid cart, coupon, gift or stock shortfall"
// @Failure 401 {object} server.ErrorResponse
// @Failure 503 {object} server.ErrorResponse
// @Router /orders [post]
func (h *CheckoutHandler) PlaceOrder(c *fiber.Ctx) error {
	p, _ := auth.FromContext(c)

	var req domain.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Error(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	order, err := h.service.PlaceOrder(c.UserContext(), p.UserID, req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(order)
}

// CreatePaymentIntent handles POST /payments/order.
// @Summary Create a payment intent
// @Description Opens a gateway order for the server computed total. Stock is checked but not reserved.
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body domain.CheckoutRequest true "Cart"
// @Success 200 {object} domain.PaymentIntent
// @Failure 400 {object} server.ErrorResponse
// @Failure 502 {object} server.ErrorResponse
// @Router /payments/order [post]
func (h *CheckoutHandler) CreatePaymentIntent(c *fiber.Ctx) error {
	p, _ := auth.FromContext(c)

	var req domain.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Error(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	intent, err := h.service.CreatePaymentIntent(c.UserContext(), p.UserID, req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(intent)
}

// VerifyPayment handles POST /payments/verify.
// @Summary Verify a payment and create the order
// @Description Checks the gateway signature, prices and reserves the cart again and creates a paid order. Retried callbacks return the existing order with 200.
// @Tags Checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body domain.VerifyRequest true "Gateway callback and cart"
// @Success 200 {object} orders.Order "Order already created for this payment"
// @Success 201 {object} orders.Order
// @Failure 400 {object} server.ErrorResponse "Signature mismatch, amount mismatch or stock shortfall"
// @Failure 403 {object} server.ErrorResponse
// @Failure 502 {object} server.ErrorResponse
// @Router /payments/verify [post]
func (h *CheckoutHandler) VerifyPayment(c *fiber.Ctx) error {
	p, _ := auth.FromContext(c)

	var req domain.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Error(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	order, already, err := h.service.VerifyPayment(c.UserContext(), p.UserID, req)
	if err != nil {
		return WriteError(c, err)
	}
	if already {
		return c.Status(http.StatusOK).JSON(order)
	}
	return c.Status(http.StatusCreated).JSON(order)
}

// WriteError maps checkout errors to responses. Shortfalls and pricing
// failures carry the offending line so the client can react.
func WriteError(c *fiber.Ctx, err error) error {
	var (
		stockErr     *catalog.InsufficientStockError
		couponErr    *pricing.CouponError
		giftErr      *pricing.InvalidGiftError
		signatureErr *domain.SignatureError
		mismatchErr  *domain.AmountMismatchError
		gatewayErr   *domain.GatewayError
	)
	switch {
	case errors.As(err, &stockErr):
		return server.Error(c, http.StatusBadRequest, stockErr.Error(), stockErr)
	case errors.As(err, &couponErr):
		return server.Error(c, http.StatusBadRequest, couponErr.Error(), couponErr)
	case errors.As(err, &giftErr):
		return server.Error(c, http.StatusBadRequest, giftErr.Error(), giftErr)
	case errors.As(err, &signatureErr):
		return server.Error(c, http.StatusBadRequest, "Payment signature verification failed", signatureErr)
	case errors.As(err, &mismatchErr):
		return server.Error(c, http.StatusBadRequest, mismatchErr.Error(), mismatchErr)
	case errors.Is(err, domain.ErrMissingAddress),
		errors.Is(err, domain.ErrMissingPaymentFields),
		errors.Is(err, domain.ErrNothingToCharge),
		errors.Is(err, pricing.ErrEmptyCart),
		errors.Is(err, pricing.ErrInvalidLine),
		errors.Is(err, catalog.ErrUnknownSize),
		errors.Is(err, catalog.ErrInvalidQuantity):
		return server.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrIntentOwner):
		return server.Error(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, catalog.ErrProductNotFound):
		return server.Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, orders.ErrVersionConflict):
		return server.Error(c, http.StatusConflict, err.Error(), nil)
	case errors.As(err, &gatewayErr):
		logger.Named("checkout").Error("Payment gateway call failed",
			zap.String("op", gatewayErr.Op),
			zap.String("ray_id", server.RayID(c)),
			zap.Error(err),
		)
		return server.Error(c, http.StatusBadGateway, "Payment gateway unavailable", nil)
	case errors.Is(err, context.DeadlineExceeded):
		return server.Error(c, http.StatusServiceUnavailable, "Checkout timed out", nil)
	case errors.Is(err, database.ErrUnavailable):
		return server.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
	}

	logger.Named("checkout").Error("Checkout request failed",
		zap.String("ray_id", server.RayID(c)),
		zap.Error(err),
	)
	return server.Error(c, http.StatusInternalServerError, "Internal server error", nil)
}
