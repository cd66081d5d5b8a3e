package server

import (
	"context"
	"time"

	"storefront-checkout/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Pinger is any dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	// Status is "ok" or "degraded".
	Status string `json:"status"`
	// Checks maps dependency name to "ok" or the failure message.
	Checks map[string]string `json:"checks"`
}

// HealthHandler pings every registered dependency.
// @Summary Health check
// @Description Reports reachability of MongoDB and Redis.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func HealthHandler(deps map[string]Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(deps))}
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				continue
			}
			resp.Checks[name] = "ok"
		}

		if resp.Status != "ok" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
		}
		return c.JSON(resp)
	}
}

// RequireDatabase rejects the request with 503 when the database does not answer a ping.
// Routes that write to the store sit behind it.
func RequireDatabase(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Get().Warn("Database unavailable",
				zap.String("path", c.Path()),
				zap.String("ray_id", RayID(c)),
				zap.Error(err),
			)
			return Error(c, fiber.StatusServiceUnavailable, "database unavailable", nil)
		}
		return c.Next()
	}
}
