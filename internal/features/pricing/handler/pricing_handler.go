package handler

import (
	"errors"
	"net/http"

	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/server"
	catalog "storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/pricing/domain"
	"storefront-checkout/internal/features/pricing/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PricingHandler handles HTTP requests for cart pricing and promotions.
type PricingHandler struct {
	service ports.PricingService
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(service ports.PricingService) *PricingHandler {
	return &PricingHandler{
		service: service,
	}
}

// QuoteRequest is the cart to price.
type QuoteRequest struct {
	Products   []domain.CartLine `json:"products"`
	CouponCode string            `json:"couponCode"`
}

// Quote handles POST /cart/quote.
// @Summary Price a cart
// @Description Computes totals, coupon discount and gift eligibility from current catalog prices. Nothing is persisted.
// @Tags Pricing
// @Accept json
// @Produce json
// @Param cart body QuoteRequest true "Cart lines and optional coupon"
// @Success 200 {object} domain.Quote
// @Failure 400 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /cart/quote [post]
func (h *PricingHandler) Quote(c *fiber.Ctx) error {
	var req QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Error(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	quote, err := h.service.Quote(c.UserContext(), req.Products, req.CouponCode)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(quote)
}

// ListCoupons handles GET /coupons.
// @Summary List coupons
// @Description Returns visible coupons that have not expired.
// @Tags Pricing
// @Produce json
// @Success 200 {array} domain.Coupon
// @Failure 500 {object} server.ErrorResponse
// @Router /coupons [get]
func (h *PricingHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.ListCoupons(c.UserContext())
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(coupons)
}

// ListGifts handles GET /gifts.
// @Summary List the gift ladder
// @Description Returns active free gifts by ascending threshold.
// @Tags Pricing
// @Produce json
// @Success 200 {array} domain.FreeGift
// @Failure 500 {object} server.ErrorResponse
// @Router /gifts [get]
func (h *PricingHandler) ListGifts(c *fiber.Ctx) error {
	gifts, err := h.service.ListGifts(c.UserContext())
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(gifts)
}

// WriteError maps pricing and catalog validation errors to responses.
// Unrecognised errors are logged and answered with 500.
func WriteError(c *fiber.Ctx, err error) error {
	var (
		couponErr *domain.CouponError
		giftErr   *domain.InvalidGiftError
		stockErr  *catalog.InsufficientStockError
	)
	switch {
	case errors.As(err, &couponErr):
		return server.Error(c, http.StatusBadRequest, couponErr.Error(), couponErr)
	case errors.As(err, &giftErr):
		return server.Error(c, http.StatusBadRequest, giftErr.Error(), giftErr)
	case errors.As(err, &stockErr):
		return server.Error(c, http.StatusBadRequest, stockErr.Error(), stockErr)
	case errors.Is(err, catalog.ErrProductNotFound):
		return server.Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidLine),
		errors.Is(err, catalog.ErrUnknownSize),
		errors.Is(err, catalog.ErrInvalidQuantity):
		return server.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, database.ErrUnavailable):
		return server.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
	}

	logger.Get().Error("Pricing request failed", zap.Error(err), zap.String("ray_id", server.RayID(c)))
	return server.Error(c, http.StatusInternalServerError, "Internal server error", nil)
}
