// Package events defines the progress events the engine emits while
// scanning. The engine never manages delivery: it writes onto a Sink
// handle supplied by the caller, so there is no process-wide log state.
package events

import "time"

// Type identifies the kind of event.
type Type string

const (
	// TypeScanStarted indicates a scan has begun.
	TypeScanStarted Type = "scan_started"
	// TypePageCrawled indicates the crawler fetched a page.
	TypePageCrawled Type = "page_crawled"
	// TypeEndpointFound indicates a new endpoint was discovered.
	TypeEndpointFound Type = "endpoint_found"
	// TypeRunnerStarted indicates a test runner began executing.
	TypeRunnerStarted Type = "runner_started"
	// TypeFindingReported indicates a runner produced a finding.
	TypeFindingReported Type = "finding_reported"
	// TypeWarning indicates a non-fatal degradation (robots fetch
	// failure, skipped endpoint, aggressive rate config).
	TypeWarning Type = "warning"
	// TypeScanError indicates an error; Fatal distinguishes scan-ending
	// errors from per-request ones.
	TypeScanError Type = "scan_error"
	// TypeScanCompleted indicates the scan reached a terminal status.
	TypeScanCompleted Type = "scan_completed"
)

// Level classifies an event for display purposes.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is the base interface for all engine events.
type Event interface {
	EventType() Type
	Timestamp() time.Time
	ScanID() string
}

// Base contains common fields for all events.
// It is designed to be embedded in specific event types.
type Base struct {
	Type Type      `json:"type"`
	Time time.Time `json:"timestamp"`
	Scan string    `json:"scan_id"`
}

// EventType returns the type of this event.
func (e Base) EventType() Type { return e.Type }

// Timestamp returns when this event occurred.
func (e Base) Timestamp() time.Time { return e.Time }

// ScanID returns the identifier of the scan that produced this event.
func (e Base) ScanID() string { return e.Scan }

func newBase(t Type, scanID string) Base {
	return Base{Type: t, Time: time.Now(), Scan: scanID}
}

// ScanStarted is emitted once when the engine begins a scan.
type ScanStarted struct {
	Base
	Target    string `json:"target"`
	MaxDepth  int    `json:"max_depth"`
	MaxPages  int    `json:"max_pages"`
	RateLimit int64  `json:"rate_limit_ms"`
}

// NewScanStarted creates a ScanStarted event.
func NewScanStarted(scanID, target string, maxDepth, maxPages int, rateLimit time.Duration) *ScanStarted {
	return &ScanStarted{
		Base:      newBase(TypeScanStarted, scanID),
		Target:    target,
		MaxDepth:  maxDepth,
		MaxPages:  maxPages,
		RateLimit: rateLimit.Milliseconds(),
	}
}

// PageCrawled is emitted for every page the crawler fetches.
type PageCrawled struct {
	Base
	URL        string `json:"url"`
	Depth      int    `json:"depth"`
	StatusCode int    `json:"status_code"`
	Links      int    `json:"links"`
	Forms      int    `json:"forms"`
}

// NewPageCrawled creates a PageCrawled event.
func NewPageCrawled(scanID, url string, depth, status, links, forms int) *PageCrawled {
	return &PageCrawled{
		Base:       newBase(TypePageCrawled, scanID),
		URL:        url,
		Depth:      depth,
		StatusCode: status,
		Links:      links,
		Forms:      forms,
	}
}

// EndpointFound is emitted when discovery yields a new endpoint.
type EndpointFound struct {
	Base
	URL    string `json:"url"`
	Method string `json:"method"`
	Source string `json:"source"`
}

// NewEndpointFound creates an EndpointFound event.
func NewEndpointFound(scanID, url, method, source string) *EndpointFound {
	return &EndpointFound{
		Base:   newBase(TypeEndpointFound, scanID),
		URL:    url,
		Method: method,
		Source: source,
	}
}

// RunnerStarted is emitted when a test runner begins.
type RunnerStarted struct {
	Base
	Runner    string `json:"runner"`
	Endpoints int    `json:"endpoints"`
}

// NewRunnerStarted creates a RunnerStarted event.
func NewRunnerStarted(scanID, runner string, endpoints int) *RunnerStarted {
	return &RunnerStarted{
		Base:      newBase(TypeRunnerStarted, scanID),
		Runner:    runner,
		Endpoints: endpoints,
	}
}

// FindingReported is emitted for each finding as it is produced,
// before aggregation. Consumers wanting the deduplicated view should
// read the final report instead.
type FindingReported struct {
	Base
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

// NewFindingReported creates a FindingReported event.
func NewFindingReported(scanID, ruleID, severity, title, url string) *FindingReported {
	return &FindingReported{
		Base:     newBase(TypeFindingReported, scanID),
		RuleID:   ruleID,
		Severity: severity,
		Title:    title,
		URL:      url,
	}
}

// Warning is emitted for non-fatal degradations.
type Warning struct {
	Base
	Phase   string `json:"phase,omitempty"`
	Message string `json:"message"`
}

// NewWarning creates a Warning event.
func NewWarning(scanID, phase, message string) *Warning {
	return &Warning{
		Base:    newBase(TypeWarning, scanID),
		Phase:   phase,
		Message: message,
	}
}

// ScanError is emitted when an error occurs during scanning.
// Fatal is true only for errors that terminate the scan.
type ScanError struct {
	Base
	Phase   string `json:"phase,omitempty"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// NewScanError creates a ScanError event.
func NewScanError(scanID, phase, target, message string, fatal bool) *ScanError {
	return &ScanError{
		Base:    newBase(TypeScanError, scanID),
		Phase:   phase,
		Target:  target,
		Message: message,
		Fatal:   fatal,
	}
}

// ScanCompleted is emitted once with the terminal status.
type ScanCompleted struct {
	Base
	Status   string `json:"status"`
	Pages    int    `json:"pages"`
	Requests int64  `json:"requests"`
	Findings int    `json:"findings"`
	Elapsed  int64  `json:"elapsed_ms"`
}

// NewScanCompleted creates a ScanCompleted event.
func NewScanCompleted(scanID, status string, pages int, requests int64, findings int, elapsed time.Duration) *ScanCompleted {
	return &ScanCompleted{
		Base:     newBase(TypeScanCompleted, scanID),
		Status:   status,
		Pages:    pages,
		Requests: requests,
		Findings: findings,
		Elapsed:  elapsed.Milliseconds(),
	}
}

// LevelOf maps an event to a display level.
func LevelOf(e Event) Level {
	switch ev := e.(type) {
	case *Warning:
		return LevelWarning
	case *ScanError:
		return LevelError
	case *FindingReported:
		return LevelWarning
	case *ScanCompleted:
		if ev.Status == "completed" {
			return LevelSuccess
		}
		return LevelWarning
	default:
		return LevelInfo
	}
}
