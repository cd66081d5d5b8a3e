package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/server"
	orders "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/shipping/domain"
	"storefront-checkout/internal/features/shipping/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// WebhookTokenHeader carries the shared secret configured on the carrier dashboard.
const WebhookTokenHeader = "x-api-key"

// ShippingHandler handles shipment booking and carrier pushes.
type ShippingHandler struct {
	service      ports.ShippingService
	webhookToken string
}

// NewShippingHandler creates a new instance of ShippingHandler.
func NewShippingHandler(s ports.ShippingService, webhookToken string) *ShippingHandler {
	return &ShippingHandler{
		service:      s,
		webhookToken: webhookToken,
	}
}

// Book handles POST /shipping/book.
// @Summary Book a shipment
// @Description Creates the carrier shipment, assigns an AWB and generates a label. When the shipment is created but a later step fails the response carries a warning and the booking can be retried.
// @Tags Shipping
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body domain.BookRequest true "Order and delivery address"
// @Success 200 {object} domain.BookingResult
// @Failure 400 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Failure 502 {object} server.ErrorResponse
// @Router /shipping/book [post]
func (h *ShippingHandler) Book(c *fiber.Ctx) error {
	var req domain.BookRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Error(c, http.StatusBadRequest, "Invalid request body", nil)
	}
	if req.OrderID == "" {
		return server.Error(c, http.StatusBadRequest, "orderId is required", nil)
	}

	res, err := h.service.Book(c.UserContext(), req)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

// Webhook handles POST /shipping/webhook.
// @Summary Carrier status push
// @Description Applies a carrier tracking update. Replays are acknowledged without changes; a push that would regress the order is rejected with 409.
// @Tags Shipping
// @Accept json
// @Produce json
// @Param x-api-key header string true "Webhook token"
// @Param body body domain.WebhookEvent true "Carrier payload"
// @Success 200 {object} domain.WebhookResult
// @Failure 400 {object} server.ErrorResponse
// @Failure 401 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Failure 503 {object} server.ErrorResponse
// @Router /shipping/webhook [post]
func (h *ShippingHandler) Webhook(c *fiber.Ctx) error {
	if !h.authorized(c.Get(WebhookTokenHeader)) {
		return server.Error(c, http.StatusUnauthorized, "Invalid webhook token", nil)
	}

	var event domain.WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		return server.Error(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	res, err := h.service.HandleWebhook(c.UserContext(), event)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

func (h *ShippingHandler) authorized(got string) bool {
	if h.webhookToken == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookToken)) == 1
}

// WriteError maps shipping errors to responses.
func WriteError(c *fiber.Ctx, err error) error {
	var (
		upstreamErr   *domain.UpstreamBookingError
		transitionErr *orders.StateTransitionError
	)
	switch {
	case errors.As(err, &upstreamErr):
		logger.Named("shipping").Warn("Carrier booking failed",
			zap.String("step", upstreamErr.Step),
			zap.String("ray_id", server.RayID(c)),
			zap.Error(err),
		)
		return server.Error(c, http.StatusBadGateway, upstreamErr.Error(), fiber.Map{"step": upstreamErr.Step})
	case errors.As(err, &transitionErr):
		return server.Error(c, http.StatusConflict, transitionErr.Error(), transitionErr)
	case errors.Is(err, orders.ErrOrderNotFound):
		return server.Error(c, http.StatusNotFound, "Order not found", nil)
	case errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrMissingAWB):
		return server.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, orders.ErrVersionConflict),
		errors.Is(err, orders.ErrDuplicateTracking):
		return server.Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, database.ErrUnavailable):
		return server.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
	}

	logger.Get().Error("Shipping request failed",
		zap.String("ray_id", server.RayID(c)),
		zap.Error(err),
	)
	return server.Error(c, http.StatusInternalServerError, "Internal server error", nil)
}
