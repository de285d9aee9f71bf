// Package runner defines the contract every vulnerability test runner
// implements and the shared plumbing they execute through.
//
// Runners receive the crawl result and a shared Input carrying the
// scan's governor and safety supervisor. All of a runner's outbound
// requests must go through Input.Do so pacing and the emergency brake
// hold engine-wide.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/websecscan/websecscan/pkg/events"
	"github.com/websecscan/websecscan/pkg/finding"
	"github.com/websecscan/websecscan/pkg/governor"
	"github.com/websecscan/websecscan/pkg/metrics"
	"github.com/websecscan/websecscan/pkg/robots"
	"github.com/websecscan/websecscan/pkg/safety"
	"github.com/websecscan/websecscan/pkg/scan"
	"github.com/websecscan/websecscan/pkg/ui"
)

// Input is everything a runner needs to execute against a crawled site.
type Input struct {
	ScanID    string
	Target    scan.CrawlTarget
	Endpoints []scan.DiscoveredEndpoint
	Forms     []scan.Form

	Client   *http.Client
	Governor *governor.Governor
	Guard    *safety.Supervisor
	Sink     events.Sink
	Metrics  *metrics.Metrics

	// Robots is the scan's exclusion policy. Crawl-discovered endpoints
	// are already filtered, but runners that derive their own paths must
	// check it before requesting them. Nil means allow-all (operator
	// consented to skipping robots.txt).
	Robots *robots.Policy
}

// Runner is a single vulnerability test module.
type Runner interface {
	// Name is the stable runner identifier used in events and the registry.
	Name() string

	// Run executes the test against the crawl result. It returns the
	// findings it could confirm; a non-nil error means the runner was
	// cut short (emergency abort, cancellation), and any findings
	// returned alongside it are still valid.
	Run(ctx context.Context, in Input) ([]finding.Finding, error)
}

// Do issues one governed request. It consults the safety supervisor,
// waits out the pacing interval, stamps the scanner User-Agent and
// executes. Every runner and the crawler funnel through here.
func (in Input) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if in.Guard != nil {
		if err := in.Guard.Guard(ctx); err != nil {
			return nil, err
		}
	}
	if in.Governor != nil {
		if err := in.Governor.Acquire(ctx); err != nil {
			if err == governor.ErrBudgetExceeded && in.Guard != nil {
				in.Guard.Abort("request budget exceeded")
				return nil, safety.ErrEmergencyAbort
			}
			return nil, err
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", ui.UserAgent())
	}
	in.Metrics.RequestIssued()
	return in.Client.Do(req)
}

// IsAbort reports whether err means the scan is winding down rather
// than a single request failing. Runners propagate abort errors and
// skip past everything else: one dead endpoint must not end the scan.
func IsAbort(err error) bool {
	return errors.Is(err, safety.ErrEmergencyAbort) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Emit sends an event to the scan's sink, if one is attached.
func (in Input) Emit(e events.Event) {
	if in.Sink != nil {
		in.Sink.Emit(e)
	}
}

// Registry holds the enabled runners in registration order. Order is
// part of the engine's determinism contract, so the registry never
// sorts or reshuffles.
type Registry struct {
	runners []Runner
	byName  map[string]Runner
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Runner)}
}

// Register adds a runner. Duplicate names are an error: two runners
// with one name would make event attribution ambiguous.
func (r *Registry) Register(rn Runner) error {
	name := rn.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("runner: duplicate runner %q", name)
	}
	r.byName[name] = rn
	r.runners = append(r.runners, rn)
	return nil
}

// MustRegister is Register for wiring done at startup.
func (r *Registry) MustRegister(rn Runner) {
	if err := r.Register(rn); err != nil {
		panic(err)
	}
}

// Get returns the named runner.
func (r *Registry) Get(name string) (Runner, bool) {
	rn, ok := r.byName[name]
	return rn, ok
}

// All returns the runners in registration order.
func (r *Registry) All() []Runner {
	out := make([]Runner, len(r.runners))
	copy(out, r.runners)
	return out
}

// Names returns the registered runner names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.runners))
	for _, rn := range r.runners {
		names = append(names, rn.Name())
	}
	return names
}
