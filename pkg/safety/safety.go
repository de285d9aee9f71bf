// Package safety implements the scan-wide emergency brake.
//
// The Supervisor watches the shared governor and the scan context.
// When either trips, every Guard call across the engine starts failing
// with ErrEmergencyAbort and the scan winds down with whatever results
// it has collected so far. An aborted scan is incomplete, not failed.
package safety

import (
	"context"
	"errors"
	"sync"

	"github.com/websecscan/websecscan/pkg/governor"
)

// ErrEmergencyAbort signals that the scan must stop issuing requests
// immediately. Partial results remain valid.
var ErrEmergencyAbort = errors.New("safety: emergency abort")

// Supervisor coordinates the emergency brake for one scan.
type Supervisor struct {
	gov *governor.Governor

	mu      sync.Mutex
	tripped bool
	reason  string
	onAbort []func(reason string)
}

// NewSupervisor creates a Supervisor bound to the scan's governor.
func NewSupervisor(gov *governor.Governor) *Supervisor {
	return &Supervisor{gov: gov}
}

// OnAbort registers a callback invoked exactly once when the brake
// trips, with the reason. Used to emit the abort warning event.
func (s *Supervisor) OnAbort(fn func(reason string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAbort = append(s.onAbort, fn)
}

// Guard checks whether the scan may continue. It trips the brake on
// context cancellation or an exceeded budget, and keeps returning
// ErrEmergencyAbort on every call thereafter.
func (s *Supervisor) Guard(ctx context.Context) error {
	if s.Tripped() {
		return ErrEmergencyAbort
	}
	if ctx.Err() != nil {
		s.trip("scan cancelled")
		return ErrEmergencyAbort
	}
	if s.gov != nil && s.gov.BudgetExceeded() {
		s.trip("request budget exceeded")
		return ErrEmergencyAbort
	}
	return nil
}

// Abort trips the brake explicitly with the given reason.
func (s *Supervisor) Abort(reason string) {
	s.trip(reason)
}

// Tripped reports whether the brake has tripped.
func (s *Supervisor) Tripped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tripped
}

// Reason returns the abort reason, or "" while the scan is healthy.
func (s *Supervisor) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

func (s *Supervisor) trip(reason string) {
	s.mu.Lock()
	if s.tripped {
		s.mu.Unlock()
		return
	}
	s.tripped = true
	s.reason = reason
	callbacks := s.onAbort
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(reason)
	}
}
