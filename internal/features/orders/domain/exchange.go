package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	catalog "storefront-checkout/internal/features/catalog/domain"
)

var (
	// ErrExchangeExists is returned when an order already carries an exchange.
	ErrExchangeExists = errors.New("exchange already requested for this order")
	// ErrNoExchange is returned when advancing an exchange that was never requested.
	ErrNoExchange = errors.New("order has no exchange request")
	// ErrInvalidExchange is returned for exchange items that do not match the order.
	ErrInvalidExchange = errors.New("invalid exchange request")
)

// ExchangeState is the sub-state of the exchange overlay.
type ExchangeState string

const (
	ExchangePending   ExchangeState = "pending"
	ExchangeApproved  ExchangeState = "approved"
	ExchangePickedUp  ExchangeState = "picked_up"
	ExchangeInTransit ExchangeState = "in_transit"
	ExchangeExchanged ExchangeState = "exchanged"
	ExchangeRejected  ExchangeState = "rejected"
)

// ParseExchangeState validates an exchange state string.
func ParseExchangeState(s string) (ExchangeState, bool) {
	st := ExchangeState(s)
	if _, ok := exchangeTransitions[st]; ok || st == ExchangeExchanged || st == ExchangeRejected {
		return st, true
	}
	return "", false
}

// Terminal reports whether the exchange is finished.
func (s ExchangeState) Terminal() bool {
	return s == ExchangeExchanged || s == ExchangeRejected
}

var exchangeTransitions = map[ExchangeState][]ExchangeState{
	ExchangePending:   {ExchangeApproved, ExchangeRejected},
	ExchangeApproved:  {ExchangePickedUp, ExchangeRejected},
	ExchangePickedUp:  {ExchangeInTransit},
	ExchangeInTransit: {ExchangeExchanged},
}

// Exchange is a size swap request attached to a delivered order. The base
// status stays delivered while the exchange runs.
type Exchange struct {
	// State is the current sub-state.
	State ExchangeState `json:"state"`
	// Items are the swaps requested.
	Items []ExchangeItem `json:"items"`
	// Reason is the customer's explanation.
	Reason string `json:"reason,omitempty"`
	// Note is the latest admin remark.
	Note string `json:"note,omitempty"`
	// RequestedAt is when the customer asked.
	RequestedAt time.Time `json:"requestedAt"`
	// UpdatedAt is the last sub-state change.
	UpdatedAt time.Time `json:"updatedAt"`
}

// ExchangeItem swaps Quantity units of a product from one size to another.
type ExchangeItem struct {
	ProductID string `json:"productId"`
	FromSize  string `json:"fromSize"`
	ToSize    string `json:"toSize"`
	Quantity  int    `json:"quantity"`
}

// ReplacementLines are the units to reserve when the exchange is approved.
func (e *Exchange) ReplacementLines() []catalog.StockLine {
	lines := make([]catalog.StockLine, 0, len(e.Items))
	for _, it := range e.Items {
		lines = append(lines, catalog.StockLine{ProductID: it.ProductID, Size: it.ToSize, Quantity: it.Quantity})
	}
	return lines
}

// ReturnedLines are the units that come back to stock once the exchange completes.
func (e *Exchange) ReturnedLines() []catalog.StockLine {
	lines := make([]catalog.StockLine, 0, len(e.Items))
	for _, it := range e.Items {
		lines = append(lines, catalog.StockLine{ProductID: it.ProductID, Size: it.FromSize, Quantity: it.Quantity})
	}
	return lines
}

// RequestExchange attaches a pending exchange. Only delivered orders qualify
// and only one exchange per order is allowed.
func (o *Order) RequestExchange(items []ExchangeItem, reason string, now time.Time) error {
	if o.Exchange != nil {
		return ErrExchangeExists
	}
	if o.Status != StatusDelivered {
		return &StateTransitionError{From: string(o.Status), To: "exchange:" + string(ExchangePending), Reason: "exchange requires a delivered order"}
	}
	if err := o.validateExchangeItems(items); err != nil {
		return err
	}

	o.Exchange = &Exchange{
		State:       ExchangePending,
		Items:       items,
		Reason:      strings.TrimSpace(reason),
		RequestedAt: now,
		UpdatedAt:   now,
	}
	o.UpdatedAt = now
	return nil
}

// AdvanceExchange moves the overlay along its own machine. It returns the previous state.
func (o *Order) AdvanceExchange(to ExchangeState, note string, now time.Time) (ExchangeState, error) {
	if o.Exchange == nil {
		return "", ErrNoExchange
	}
	from := o.Exchange.State

	allowed := false
	for _, s := range exchangeTransitions[from] {
		if s == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return from, &StateTransitionError{From: "exchange:" + string(from), To: "exchange:" + string(to), Reason: "transition not allowed"}
	}

	o.Exchange.State = to
	if note != "" {
		o.Exchange.Note = note
	}
	o.Exchange.UpdatedAt = now
	o.UpdatedAt = now
	return from, nil
}

func (o *Order) validateExchangeItems(items []ExchangeItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidExchange)
	}

	ordered := make(map[string]int)
	for _, p := range o.Products {
		if p.IsGift {
			continue
		}
		ordered[p.ProductID+"\x00"+p.Size] += p.Quantity
	}

	requested := make(map[string]int)
	for _, it := range items {
		if it.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidExchange)
		}
		if it.FromSize == it.ToSize {
			return fmt.Errorf("%w: %s is already size %s", ErrInvalidExchange, it.ProductID, it.ToSize)
		}
		if !catalog.ValidSizeLabel(it.ToSize) {
			return fmt.Errorf("%w: invalid size %q", ErrInvalidExchange, it.ToSize)
		}
		key := it.ProductID + "\x00" + it.FromSize
		requested[key] += it.Quantity
		if requested[key] > ordered[key] {
			return fmt.Errorf("%w: %s size %s was not ordered in that quantity", ErrInvalidExchange, it.ProductID, it.FromSize)
		}
	}
	return nil
}
