package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	orders "storefront-checkout/internal/features/orders/domain"
)

// carrierStatuses maps carrier status text, lowercased, to order statuses.
// Statuses not listed here are recorded in the tracking history only.
var carrierStatuses = map[string]orders.Status{
	"picked up":        orders.StatusShipped,
	"shipped":          orders.StatusShipped,
	"in transit":       orders.StatusShipped,
	"out for delivery": orders.StatusShipped,
	"delivered":        orders.StatusDelivered,
	"rto":              orders.StatusReturned,
	"rto initiated":    orders.StatusReturned,
	"rto delivered":    orders.StatusReturned,
	"undelivered":      orders.StatusReturned,
	"cancelled":        orders.StatusReturned,
	"canceled":         orders.StatusReturned,
}

// MapCarrierStatus translates carrier status text.
func MapCarrierStatus(text string) (orders.Status, bool) {
	st, ok := carrierStatuses[strings.ToLower(strings.Join(strings.Fields(text), " "))]
	return st, ok
}

// ist is the zone carrier timestamps are reported in.
var ist = time.FixedZone("IST", 5*60*60+30*60)

var timestampLayouts = []string{
	"02 01 2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Text accepts a JSON string or number. Carriers send AWBs as either.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

// Scan is one carrier scan.
type Scan struct {
	Date     string `json:"date"`
	Activity string `json:"activity"`
	Location string `json:"location"`
}

// WebhookEvent is the carrier's status push.
type WebhookEvent struct {
	AWB           Text   `json:"awb"`
	CurrentStatus string `json:"current_status"`
	Timestamp     string `json:"current_timestamp"`
	Scans         []Scan `json:"scans,omitempty"`
}

// Location is the place of the latest scan, if any.
func (e WebhookEvent) Location() string {
	if len(e.Scans) == 0 {
		return ""
	}
	return e.Scans[len(e.Scans)-1].Location
}

// Time parses the event timestamp. Zone-less values are in IST.
func (e WebhookEvent) Time() (time.Time, error) {
	raw := strings.TrimSpace(e.Timestamp)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, ist); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised carrier timestamp %q", e.Timestamp)
}

// TrackingEvent converts the push into an order history entry. An
// unparseable timestamp is left zero so replays still de-duplicate.
func (e WebhookEvent) TrackingEvent() orders.TrackingEvent {
	at, _ := e.Time()
	return orders.TrackingEvent{
		Status:    strings.TrimSpace(e.CurrentStatus),
		Location:  e.Location(),
		Timestamp: at,
	}
}

// Webhook outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
)

// WebhookResult reports what a carrier push did to the order.
type WebhookResult struct {
	OrderCode string        `json:"orderCode"`
	Status    orders.Status `json:"status"`
	Outcome   string        `json:"outcome"`
}
