package breaker

import (
	"errors"
	"time"

	"storefront-checkout/internal/core/logger"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrOpen is returned while the breaker is rejecting calls.
var ErrOpen = errors.New("circuit breaker open")

// Breaker guards calls to one upstream.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// Settings tune a Breaker. Zero values fall back to the defaults in New.
type Settings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a trial call.
	OpenTimeout time.Duration
	// IsClientError marks errors that say nothing about upstream health, such as a 4xx.
	IsClientError func(err error) bool
}

// New creates a breaker named after the upstream it protects.
func New(name string, s Settings) *Breaker {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout == 0 {
		s.OpenTimeout = 30 * time.Second
	}

	l := logger.Named("breaker")
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("Circuit breaker state changed",
				zap.String("upstream", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return s.IsClientError != nil && s.IsClientError(err)
		},
	})

	return &Breaker{cb: cb}
}

// Do runs fn through the breaker. Results are captured by fn's closure.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

// State returns the current state name, e.g. "closed".
func (b *Breaker) State() string {
	return b.cb.State().String()
}
