package handler

import (
	"errors"
	"net/http"

	"storefront-checkout/internal/core/auth"
	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/server"
	catalog "storefront-checkout/internal/features/catalog/domain"
	"storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/orders/ports"
	"storefront-checkout/internal/features/orders/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderHandler handles HTTP requests related to orders.
type OrderHandler struct {
	// service is the order lifecycle service.
	service ports.OrderService
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(s ports.OrderService) *OrderHandler {
	return &OrderHandler{
		service: s,
	}
}

// UpdateStatusRequest is the admin status change body.
type UpdateStatusRequest struct {
	Status        string                `json:"status"`
	RefundDetails *domain.RefundDetails `json:"refundDetails,omitempty"`
}

// ExchangeRequest is the customer's exchange request body.
type ExchangeRequest struct {
	Items  []domain.ExchangeItem `json:"items"`
	Reason string                `json:"reason"`
}

// UpdateExchangeRequest is the admin exchange transition body.
type UpdateExchangeRequest struct {
	State string `json:"state"`
	Note  string `json:"note"`
}

// ListMine handles GET /orders/mine.
// @Summary List my orders
// @Description Returns the caller's orders, newest first.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Orders to skip"
// @Success 200 {array} domain.Order
// @Failure 400 {object} server.ErrorResponse
// @Failure 401 {object} server.ErrorResponse
// @Router /orders/mine [get]
func (h *OrderHandler) ListMine(c *fiber.Ctx) error {
	p, _ := auth.FromContext(c)
	filter, ok := listFilter(c)
	if !ok {
		return server.Error(c, http.StatusBadRequest, "Invalid status filter", nil)
	}

	orders, err := h.service.ListMine(c.UserContext(), p.UserID, filter)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(orders)
}

// ListAll handles GET /admin/orders.
// @Summary List all orders
// @Description Returns every order, newest first. Admin only.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Orders to skip"
// @Success 200 {array} domain.Order
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Router /admin/orders [get]
func (h *OrderHandler) ListAll(c *fiber.Ctx) error {
	filter, ok := listFilter(c)
	if !ok {
		return server.Error(c, http.StatusBadRequest, "Invalid status filter", nil)
	}

	orders, err := h.service.ListAll(c.UserContext(), filter)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(orders)
}

// GetOrder handles GET /orders/:id.
// @Summary Get an order
// @Description Fetch an order by id or order code. Customers only see their own orders.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID or code"
// @Success 200 {object} domain.Order
// @Failure 403 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	p, _ := auth.FromContext(c)

	var (
		order *domain.Order
		err   error
	)
	if p.IsAdmin() {
		order, err = h.service.Get(c.UserContext(), c.Params("id"))
	} else {
		order, err = h.service.GetOwned(c.UserContext(), p.UserID, c.Params("id"))
	}
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(order)
}

// UpdateStatus handles PUT /orders/:id.
// @Summary Change order status
// @Description Applies an admin status transition. Cancelling a paid order requires refundDetails.reference.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID or code"
// @Param body body UpdateStatusRequest true "Target status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /orders/{id} [put]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Error(c, http.StatusBadRequest, "Invalid request body", nil)
	}
	to, ok := domain.ParseStatus(req.Status)
	if !ok {
		return server.Error(c, http.StatusBadRequest, "Unknown status", fiber.Map{"status": req.Status})
	}

	order, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), to, req.RefundDetails)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(order)
}

// RequestExchange handles POST /orders/:id/exchange.
// @Summary Request a size exchange
// @Description Attaches an exchange request to the caller's delivered order.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID or code"
// @Param body body ExchangeRequest true "Items to swap"
// @Success 200 {object} domain.Order
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /orders/{id}/exchange [post]
func (h *OrderHandler) RequestExchange(c *fiber.Ctx) error {
	p, _ := auth.FromContext(c)

	var req ExchangeRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Error(c, http.StatusBadRequest, "Invalid request body", nil)
	}

	order, err := h.service.RequestExchange(c.UserContext(), p.UserID, c.Params("id"), req.Items, req.Reason)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(order)
}

// UpdateExchange handles PUT /orders/:id/exchange.
// @Summary Advance an exchange
// @Description Moves the exchange overlay to the given state. Admin only.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID or code"
// @Param body body UpdateExchangeRequest true "Target exchange state"
// @Success 200 {object} domain.Order
// @Failure 400 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /orders/{id}/exchange [put]
func (h *OrderHandler) UpdateExchange(c *fiber.Ctx) error {
	var req UpdateExchangeRequest
	if err := c.BodyParser(&req); err != nil {
		return server.Error(c, http.StatusBadRequest, "Invalid request body", nil)
	}
	to, ok := domain.ParseExchangeState(req.State)
	if !ok {
		return server.Error(c, http.StatusBadRequest, "Unknown exchange state", fiber.Map{"state": req.State})
	}

	order, err := h.service.UpdateExchange(c.UserContext(), c.Params("id"), to, req.Note)
	if err != nil {
		return WriteError(c, err)
	}
	return c.Status(http.StatusOK).JSON(order)
}

// WriteError maps order errors to responses. Unrecognised errors are logged
// and answered with 500.
func WriteError(c *fiber.Ctx, err error) error {
	var (
		ste *domain.StateTransitionError
		ise *catalog.InsufficientStockError
	)
	switch {
	case errors.As(err, &ste):
		return server.Error(c, http.StatusConflict, ste.Error(), ste)
	case errors.As(err, &ise):
		return server.Error(c, http.StatusBadRequest, ise.Error(), ise)
	case errors.Is(err, domain.ErrOrderNotFound):
		return server.Error(c, http.StatusNotFound, "Order not found", nil)
	case errors.Is(err, service.ErrForbidden):
		return server.Error(c, http.StatusForbidden, "Order belongs to another user", nil)
	case errors.Is(err, domain.ErrExchangeExists),
		errors.Is(err, domain.ErrNoExchange),
		errors.Is(err, domain.ErrVersionConflict):
		return server.Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidExchange),
		errors.Is(err, catalog.ErrUnknownSize),
		errors.Is(err, catalog.ErrProductNotFound):
		return server.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, database.ErrUnavailable):
		return server.Error(c, http.StatusServiceUnavailable, "database unavailable", nil)
	}

	logger.Get().Error("Order request failed",
		zap.String("order_id", c.Params("id")),
		zap.String("ray_id", server.RayID(c)),
		zap.Error(err),
	)
	return server.Error(c, http.StatusInternalServerError, "Internal server error", nil)
}

func listFilter(c *fiber.Ctx) (ports.ListFilter, bool) {
	f := ports.ListFilter{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		st, ok := domain.ParseStatus(raw)
		if !ok {
			return f, false
		}
		f.Status = st
	}
	return f, true
}
