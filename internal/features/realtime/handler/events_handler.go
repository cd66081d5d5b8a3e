package handler

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront-checkout/internal/core/auth"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/server"
	"storefront-checkout/internal/features/realtime/domain"
	"storefront-checkout/internal/features/realtime/ports"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const defaultHeartbeat = 25 * time.Second

// EventsHandler streams realtime events to browsers as server-sent events.
type EventsHandler struct {
	// broker delivers events published by any instance.
	broker ports.Broker
	// heartbeat is how often an idle stream sends a comment line.
	heartbeat time.Duration
}

// NewEventsHandler creates a new instance of EventsHandler.
func NewEventsHandler(broker ports.Broker) *EventsHandler {
	return &EventsHandler{
		broker:    broker,
		heartbeat: defaultHeartbeat,
	}
}

// TopicsFor returns the topics a caller may listen to. Customers never see
// another user's orders.
func TopicsFor(p auth.Principal, authenticated bool) []string {
	switch {
	case !authenticated:
		return []string{domain.TopicStock}
	case p.IsAdmin():
		return []string{domain.TopicAdmin, domain.TopicStock}
	default:
		return []string{domain.UserTopic(p.UserID), domain.TopicStock}
	}
}

// Stream handles GET /realtime/events.
// @Summary Realtime event stream
// @Description Server-sent events carrying full order and stock snapshots. Admins receive every order, customers their own, anonymous clients stock only.
// @Tags Realtime
// @Produce text/event-stream
// @Param access_token query string false "Bearer token for clients that cannot set headers"
// @Success 200 {object} domain.Event
// @Failure 503 {object} server.ErrorResponse
// @Router /realtime/events [get]
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	p, ok := auth.FromContext(c)
	topics := TopicsFor(p, ok)

	// The stream outlives the handler, so it cannot use the request context.
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := h.broker.Subscribe(ctx, topics...)
	if err != nil {
		cancel()
		logger.Named("realtime").Error("Failed to subscribe",
			zap.Strings("topics", topics),
			zap.String("ray_id", server.RayID(c)),
			zap.Error(err),
		)
		return server.Error(c, http.StatusServiceUnavailable, "Realtime stream unavailable", nil)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	heartbeat := h.heartbeat
	userID := p.UserID
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer sub.Close()

		l := logger.Named("realtime")
		l.Debug("Stream opened", zap.String("user_id", userID), zap.Strings("topics", topics))
		defer l.Debug("Stream closed", zap.String("user_id", userID))

		if _, err := w.WriteString("retry: 3000\n\n"); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					return
				}
			case <-ticker.C:
				// A failed flush means the client went away.
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, ev domain.Event) error {
	if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, ev.Payload); err != nil {
		return err
	}
	return w.Flush()
}
