// Package engine orchestrates a full scan: configuration validation,
// robots policy, the discovery crawl, and the vulnerability runners,
// all paced through one shared governor and guarded by one safety
// supervisor.
//
// The engine holds no global state. Every scan gets fresh components,
// and all progress flows through the events.Sink the caller supplies.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/websecscan/websecscan/pkg/config"
	"github.com/websecscan/websecscan/pkg/crawler"
	"github.com/websecscan/websecscan/pkg/duration"
	"github.com/websecscan/websecscan/pkg/events"
	"github.com/websecscan/websecscan/pkg/finding"
	"github.com/websecscan/websecscan/pkg/governor"
	"github.com/websecscan/websecscan/pkg/httpclient"
	"github.com/websecscan/websecscan/pkg/metrics"
	"github.com/websecscan/websecscan/pkg/robots"
	"github.com/websecscan/websecscan/pkg/runner"
	"github.com/websecscan/websecscan/pkg/safety"
	"github.com/websecscan/websecscan/pkg/scan"
)

// Report is the final result of a scan. Findings are deduplicated and
// deterministically ordered.
type Report struct {
	ScanID    string            `json:"scan_id"`
	Target    string            `json:"target"`
	Status    scan.Status       `json:"status"`
	Findings  []finding.Finding `json:"findings"`
	Pages     int               `json:"pages"`
	Endpoints int               `json:"endpoints"`
	Requests  int64             `json:"requests"`
	StartedAt time.Time         `json:"started_at"`
	Elapsed   time.Duration     `json:"elapsed"`
	Visited   []string          `json:"visited,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}

// Engine runs scans with a fixed set of registered runners.
type Engine struct {
	opts     config.Options
	registry *runner.Registry
	sink     events.Sink
	metrics  *metrics.Metrics

	// newGovernor builds the per-scan governor. Tests swap it in to
	// shrink the request budget; production always uses governor.New.
	newGovernor func(time.Duration) *governor.Governor
}

// New creates an Engine. The sink may be nil for silent operation;
// metrics may be nil when no collection is wanted. Options are
// validated here so a misconfigured engine can never start a scan.
func New(opts config.Options, registry *runner.Registry, sink events.Sink, m *metrics.Metrics) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		return nil, fmt.Errorf("engine: runner registry is required")
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Engine{opts: opts, registry: registry, sink: sink, metrics: m, newGovernor: governor.New}, nil
}

// Run executes one scan and always returns a Report. The error is
// non-nil only for failures before any work started (bad target URL);
// once the scan is underway, problems surface as the report status and
// its warnings, never as a lost report.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	target, err := scan.NewTarget(e.opts.TargetURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, duration.ScanMax)
	defer cancel()

	scanID := uuid.NewString()
	state := scan.NewState()
	report := &Report{
		ScanID:    scanID,
		Target:    target.RootURL,
		StartedAt: state.StartedAt(),
	}

	e.sink.Emit(events.NewScanStarted(scanID, target.RootURL, e.opts.MaxDepth, e.opts.MaxPages, e.opts.RateLimit))
	if e.opts.AggressiveRate() {
		e.warn(report, scanID, "config", fmt.Sprintf("rate limit %v is below the recommended floor of %v", e.opts.RateLimit, duration.RateLimitSoftFloor))
	}

	gov := e.newGovernor(e.opts.RateLimit)
	guard := safety.NewSupervisor(gov)
	guard.OnAbort(func(reason string) {
		e.metrics.EmergencyAbort()
		e.sink.Emit(events.NewWarning(scanID, "safety", "emergency abort: "+reason))
	})

	client := httpclient.New(httpclient.WithTimeout(e.opts.Timeout))

	in := runner.Input{
		ScanID:   scanID,
		Target:   target,
		Client:   client,
		Governor: gov,
		Guard:    guard,
		Sink:     e.sink,
		Metrics:  e.metrics,
	}

	policy := e.loadRobotsPolicy(ctx, report, scanID, target)
	in.Robots = policy

	crawlCfg := crawler.Config{
		MaxDepth:           e.opts.MaxDepth,
		MaxPages:           e.opts.MaxPages,
		AllowExternalLinks: e.opts.AllowExternalLinks,
	}
	crawlRes := crawler.New(crawlCfg, policy, state, in).Crawl(ctx)
	for _, crawlErr := range crawlRes.Errors {
		report.Warnings = append(report.Warnings, crawlErr.Error())
	}

	in.Endpoints = crawlRes.Endpoints
	in.Forms = crawlRes.Forms
	report.Pages = state.Pages()
	report.Endpoints = len(crawlRes.Endpoints)
	report.Visited = crawlRes.Visited

	findings, failed := e.runAll(ctx, in)

	switch {
	case failed:
		state.Finish(scan.StatusFailed)
	case guard.Tripped() || (crawlRes.Truncated && crawlRes.TruncatedReason == "emergency abort"):
		state.Finish(scan.StatusIncomplete)
	default:
		state.Finish(scan.StatusCompleted)
	}

	return e.finish(report, state, gov, findings), nil
}

// loadRobotsPolicy loads the target's robots policy, or returns nil
// (allow-all) when the operator consented to skipping it. Fetch
// failures warn and fail open.
func (e *Engine) loadRobotsPolicy(ctx context.Context, report *Report, scanID string, target scan.CrawlTarget) *robots.Policy {
	if !e.opts.RespectRobotsTxt {
		e.warn(report, scanID, "robots", "robots.txt compliance disabled by operator consent")
		return nil
	}
	policy, err := robots.NewEvaluator(nil).Load(ctx, target.Origin)
	if err != nil {
		e.warn(report, scanID, "robots", err.Error()+"; continuing without restrictions")
	}
	return policy
}

// runAll executes every registered runner concurrently. Findings are
// merged in registration order regardless of completion order, keeping
// reports deterministic. failed is true only for errors that are not
// aborts or cancellations.
func (e *Engine) runAll(ctx context.Context, in runner.Input) (findings []finding.Finding, failed bool) {
	runners := e.registry.All()
	perRunner := make([][]finding.Finding, len(runners))
	errs := make([]error, len(runners))

	var wg sync.WaitGroup
	for i, rn := range runners {
		e.sink.Emit(events.NewRunnerStarted(in.ScanID, rn.Name(), len(in.Endpoints)))
		wg.Add(1)
		go func(i int, rn runner.Runner) {
			defer wg.Done()
			perRunner[i], errs[i] = rn.Run(ctx, in)
		}(i, rn)
	}
	wg.Wait()

	for i, rn := range runners {
		findings = append(findings, perRunner[i]...)
		err := errs[i]
		if err == nil {
			continue
		}
		if runner.IsAbort(err) {
			continue
		}
		failed = true
		e.sink.Emit(events.NewScanError(in.ScanID, rn.Name(), in.Target.RootURL, err.Error(), true))
	}
	return findings, failed
}

func (e *Engine) finish(report *Report, state *scan.State, gov *governor.Governor, findings []finding.Finding) *Report {
	report.Status = state.Status()
	report.Findings = finding.Aggregate(findings)
	report.Requests = gov.Requests()
	report.Elapsed = time.Since(report.StartedAt)
	if report.Pages == 0 {
		report.Pages = state.Pages()
	}

	e.sink.Emit(events.NewScanCompleted(report.ScanID, string(report.Status),
		report.Pages, report.Requests, len(report.Findings), report.Elapsed))
	return report
}

func (e *Engine) warn(report *Report, scanID, phase, msg string) {
	report.Warnings = append(report.Warnings, msg)
	e.sink.Emit(events.NewWarning(scanID, phase, msg))
}

// DefaultRegistry returns a registry with every built-in runner in its
// canonical order.
func DefaultRegistry() *runner.Registry {
	reg := runner.NewRegistry()
	for _, rn := range builtinRunners() {
		reg.MustRegister(rn)
	}
	return reg
}
