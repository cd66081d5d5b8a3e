package domain

import (
	"fmt"
	"time"
)

// Status is the base order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	switch st {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusReturned:
		return st, true
	}
	return "", false
}

// Terminal reports whether no further base transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusReturned
}

// adminTransitions lists the moves an admin may make.
var adminTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusReturned},
	StatusDelivered:  {StatusReturned},
}

// happyPathRank orders the forward-only states a carrier can report.
var happyPathRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// StateTransitionError is returned for any move that violates a guard.
type StateTransitionError struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s: %s", e.From, e.To, e.Reason)
}

// CanTransition reports whether an admin may move an order from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range adminTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ApplyAdminTransition moves the order to status to. Cancelling a paid order
// requires a refund reference.
func (o *Order) ApplyAdminTransition(to Status, refund *RefundDetails, now time.Time) error {
	if o.Status.Terminal() {
		return &StateTransitionError{From: string(o.Status), To: string(to), Reason: "order is in a terminal status"}
	}
	if !CanTransition(o.Status, to) {
		return &StateTransitionError{From: string(o.Status), To: string(to), Reason: "transition not allowed"}
	}
	if to == StatusCancelled && o.PaymentStatus == PaymentPaid {
		if refund == nil || refund.Reference == "" {
			return &StateTransitionError{From: string(o.Status), To: string(to), Reason: "refund details required for a paid order"}
		}
	}
	if o.Exchange != nil && !o.Exchange.State.Terminal() {
		return &StateTransitionError{From: string(o.Status), To: string(to), Reason: "exchange in progress"}
	}

	if refund != nil && to == StatusCancelled {
		r := *refund
		if r.RefundedAt.IsZero() {
			r.RefundedAt = now
		}
		o.RefundDetails = &r
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// ApplyCarrierStatus applies a status derived from a carrier webhook.
// It moves forward along pending, processing, shipped, delivered, or sideways
// from shipped to returned. Reporting the current status is a no-op. Any other
// change would regress the order and is rejected. It reports whether the status changed.
func (o *Order) ApplyCarrierStatus(to Status, now time.Time) (bool, error) {
	if to == o.Status {
		return false, nil
	}
	if o.Status.Terminal() {
		return false, &StateTransitionError{From: string(o.Status), To: string(to), Reason: "order is in a terminal status"}
	}

	if to == StatusReturned {
		if o.Status != StatusShipped {
			return false, &StateTransitionError{From: string(o.Status), To: string(to), Reason: "carrier return only applies to shipped orders"}
		}
	} else {
		fromRank, okFrom := happyPathRank[o.Status]
		toRank, okTo := happyPathRank[to]
		if !okFrom || !okTo || toRank <= fromRank {
			return false, &StateTransitionError{From: string(o.Status), To: string(to), Reason: "carrier update would regress the order"}
		}
	}

	o.Status = to
	o.UpdatedAt = now
	return true, nil
}
