package handler

import (
	"errors"
	"net/http"

	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/server"
	"storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/catalog/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StockHandler handles HTTP requests for product stock.
type StockHandler struct {
	service ports.StockService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(service ports.StockService) *StockHandler {
	return &StockHandler{
		service: service,
	}
}

// StockResponse is the public view of a product's size counters.
type StockResponse struct {
	ProductID string         `json:"productId"`
	SKU       string         `json:"sku"`
	Sizes     map[string]int `json:"sizes"`
}

// StockUpdateRequest edits one size. Exactly one of Count or Delta must be set.
type StockUpdateRequest struct {
	Size  string `json:"size"`
	Count *int   `json:"count,omitempty"`
	Delta *int   `json:"delta,omitempty"`
}

// GetStock handles GET /products/:id/stock.
// @Summary Get product stock
// @Description Returns the available units per size.
// @Tags Catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} StockResponse
// @Failure 404 {object} server.ErrorResponse
// @Failure 500 {object} server.ErrorResponse
// @Router /products/{id}/stock [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	p, err := h.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(toStockResponse(p))
}

// UpdateStock handles PUT /admin/products/:id/stock.
// @Summary Update product stock
// @Description Sets (count) or adjusts (delta) one size counter. Admin only.
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param body body StockUpdateRequest true "Stock edit"
// @Success 200 {object} StockResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /admin/products/{id}/stock [put]
func (h *StockHandler) UpdateStock(c *fiber.Ctx) error {
	var req StockUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Error(c, http.StatusBadRequest, "Invalid request body", nil)
	}
	if (req.Count == nil) == (req.Delta == nil) {
		return server.Error(c, http.StatusBadRequest, "Exactly one of count or delta is required", nil)
	}

	var (
		p   *domain.Product
		err error
	)
	if req.Count != nil {
		p, err = h.service.SetStock(c.UserContext(), c.Params("id"), req.Size, *req.Count)
	} else {
		p, err = h.service.AdjustStock(c.UserContext(), c.Params("id"), req.Size, *req.Delta)
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(toStockResponse(p))
}

func (h *StockHandler) fail(c *fiber.Ctx, err error) error {
	var ise *domain.InsufficientStockError
	switch {
	case errors.As(err, &ise):
		return server.Error(c, http.StatusBadRequest, ise.Error(), ise)
	case errors.Is(err, domain.ErrProductNotFound):
		return server.Error(c, http.StatusNotFound, "Product not found", nil)
	case errors.Is(err, domain.ErrUnknownSize), errors.Is(err, domain.ErrNegativeStock):
		return server.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, database.ErrUnavailable):
		return server.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
	}
	logger.Get().Error("Stock request failed", zap.Error(err), zap.String("ray_id", server.RayID(c)))
	return server.Error(c, http.StatusInternalServerError, "Internal server error", nil)
}

func toStockResponse(p *domain.Product) StockResponse {
	return StockResponse{ProductID: p.ID, SKU: p.SKU, Sizes: p.Sizes}
}
