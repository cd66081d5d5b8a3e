package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToPaise(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1100", 110000},
		{"999.99", 99999},
		{"0.005", 1},
		{"10.004", 1000},
		{"0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToPaise(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestErrors(t *testing.T) {
	assert.Equal(t, "paid amount 100 does not match order total 110000",
		(&AmountMismatchError{ExpectedPaise: 110000, PaidPaise: 100}).Error())
	assert.Contains(t, (&SignatureError{GatewayOrderID: "order_1"}).Error(), "order_1")

	cause := errors.New("timeout")
	err := &GatewayError{Op: "create order", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "payment gateway create order failed: timeout", err.Error())
}
