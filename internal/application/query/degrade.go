// Package query contains read operations (CQRS - Queries).
//
// Reads never fail because the store is unavailable: each figure falls back
// to zero or an empty list, a warning is logged and the result is marked as
// degraded. Only authorization and input errors are returned to the caller.
package query

import (
	"context"
	"log/slog"

	"github.com/scholarhub/scholarship-review/pkg/circuitbreaker"
)

// Degrader runs store reads through an optional circuit breaker and turns
// failures into zero values.
type Degrader struct {
	breaker *circuitbreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewDegrader creates a Degrader. breaker may be nil.
func NewDegrader(breaker *circuitbreaker.CircuitBreaker, logger *slog.Logger) *Degrader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Degrader{breaker: breaker, logger: logger}
}

// readOrZero returns fn's value, or the zero value and false when the read
// failed or the breaker rejected it.
func readOrZero[T any](ctx context.Context, d *Degrader, op string, fn func(context.Context) (T, error)) (T, bool) {
	var (
		value T
		err   error
	)
	if d.breaker != nil {
		value, err = circuitbreaker.ExecuteWithData(ctx, d.breaker, fn)
	} else {
		value, err = fn(ctx)
	}
	if err != nil {
		var zero T
		d.logger.Warn("store read degraded to default",
			"operation", op,
			"breaker_open", circuitbreaker.IsRejected(err),
			"error", err,
		)
		return zero, false
	}
	return value, true
}
