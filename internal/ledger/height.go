// Package ledger supplies the monotonically increasing logical clock
// the registry stamps on every operation. The registry never advances
// or reads the clock itself; middleware draws a height from a source
// and injects it into the request context.
package ledger

import (
	"context"
	"sync/atomic"
)

// HeightSource hands out logical heights. Implementations must be
// monotonic: no height returned by Next is ever repeated or exceeded
// by an earlier call's result.
type HeightSource interface {
	// Next advances the clock and returns the new height.
	Next(ctx context.Context) (uint64, error)
	// Current returns the latest height without advancing.
	Current(ctx context.Context) (uint64, error)
}

// Counter is a process-local height source. Suitable for single
// instance deployments and tests; multi-instance deployments share a
// RedisSource instead.
type Counter struct {
	height atomic.Uint64
}

// NewCounter starts the clock at start.
func NewCounter(start uint64) *Counter {
	c := &Counter{}
	c.height.Store(start)
	return c
}

func (c *Counter) Next(_ context.Context) (uint64, error) {
	return c.height.Add(1), nil
}

func (c *Counter) Current(_ context.Context) (uint64, error) {
	return c.height.Load(), nil
}
