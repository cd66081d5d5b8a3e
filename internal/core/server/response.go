package server

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents the structure of an error response.
type ErrorResponse struct {
	// Error is the human readable description.
	Error string `json:"error"`
	// RayID is the unique request identifier for debugging.
	RayID string `json:"ray_id"`
	// Details carries structured context, e.g. the failing line of an insufficient stock error.
	Details interface{} `json:"details,omitempty"`
}

// RayID returns the request id assigned by the requestid middleware.
func RayID(c *fiber.Ctx) string {
	rayID, ok := c.Locals("requestid").(string)
	if !ok || rayID == "" {
		return "unknown"
	}
	return rayID
}

// Error writes an ErrorResponse with the given status.
func Error(c *fiber.Ctx, status int, msg string, details interface{}) error {
	return c.Status(status).JSON(ErrorResponse{
		Error:   msg,
		RayID:   RayID(c),
		Details: details,
	})
}
