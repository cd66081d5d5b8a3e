package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType names what changed.
type EventType string

const (
	EventOrderCreated      EventType = "order_created"
	EventOrderUpdated      EventType = "order_updated"
	EventStockUpdated      EventType = "stock_updated"
	EventExchangeRequested EventType = "exchange_request_submitted"
)

// Topics events are published to.
const (
	// TopicAdmin carries every order event.
	TopicAdmin = "admin"
	// TopicStock carries stock snapshots for every shopper.
	TopicStock = "stock"
)

const userTopicPrefix = "user:"

// UserTopic is the private topic of one customer.
func UserTopic(userID string) string {
	return userTopicPrefix + userID
}

// Event carries a full snapshot of the changed record. Consumers replace
// their copy keyed by id instead of applying deltas.
type Event struct {
	// ID is unique per event, for client side de-duplication.
	ID string `json:"id"`
	// Type names what changed.
	Type EventType `json:"type"`
	// OccurredAt is when the change was committed.
	OccurredAt time.Time `json:"occurredAt"`
	// Payload is the JSON snapshot of the order or product.
	Payload json.RawMessage `json:"payload"`
}

// NewEvent snapshots payload into an event.
func NewEvent(t EventType, payload interface{}, now time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: now,
		Payload:    raw,
	}, nil
}
