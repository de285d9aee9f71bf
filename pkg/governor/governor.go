// Package governor enforces the scan's request pacing and total budget.
//
// Every outbound request made anywhere in the engine must pass through
// a single shared Governor. The crawler and all test runners hold the
// same instance, so the configured interval holds across the whole scan
// regardless of how many goroutines are issuing requests.
package governor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/websecscan/websecscan/pkg/defaults"
	"github.com/websecscan/websecscan/pkg/duration"
)

// ErrBudgetExceeded is returned by Acquire once the scan has issued its
// maximum request count or run past its maximum elapsed time.
var ErrBudgetExceeded = errors.New("governor: request budget exceeded")

// Governor paces outbound requests at a fixed interval and tracks the
// cumulative request count against the emergency budget.
//
// The limiter carries a burst of one token, so the first Acquire call
// returns immediately and every subsequent call waits out the interval.
type Governor struct {
	limiter  *rate.Limiter
	interval time.Duration

	requests    atomic.Int64
	started     time.Time
	maxRequests int64
	maxElapsed  time.Duration
}

// New creates a Governor with the given minimum interval between
// requests and the standard budget ceilings. The ceilings are a safety
// brake, not an operator tunable: no configuration path reaches them.
func New(interval time.Duration) *Governor {
	return NewWithBudget(interval, defaults.BudgetMaxRequests, duration.BudgetMaxElapsed)
}

// NewWithBudget creates a Governor with explicit budget ceilings.
// Tests use it to trip the brake without issuing hundreds of requests.
func NewWithBudget(interval time.Duration, maxRequests int64, maxElapsed time.Duration) *Governor {
	return &Governor{
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		interval:    interval,
		started:     time.Now(),
		maxRequests: maxRequests,
		maxElapsed:  maxElapsed,
	}
}

// Acquire blocks until the pacing interval permits another request,
// then consumes one unit of budget. It returns ErrBudgetExceeded when
// the scan-wide ceiling has been hit, or the context's error when the
// caller is cancelled while waiting.
func (g *Governor) Acquire(ctx context.Context) error {
	if g.BudgetExceeded() {
		return ErrBudgetExceeded
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	// Re-check after the wait: another goroutine may have spent the
	// last unit while we were blocked.
	if g.requests.Add(1) > g.maxRequests {
		return ErrBudgetExceeded
	}
	return nil
}

// BudgetExceeded reports whether the scan has exhausted its request
// count or its wall-clock allowance.
func (g *Governor) BudgetExceeded() bool {
	return g.requests.Load() >= g.maxRequests || time.Since(g.started) >= g.maxElapsed
}

// Requests returns the number of budget units consumed so far.
func (g *Governor) Requests() int64 {
	return g.requests.Load()
}

// Elapsed returns the wall-clock time since the governor was created.
func (g *Governor) Elapsed() time.Duration {
	return time.Since(g.started)
}

// Interval returns the configured pacing interval.
func (g *Governor) Interval() time.Duration {
	return g.interval
}
