// Package scan defines the shared data model for a scan: the target,
// discovered endpoints and forms, and the mutable state the engine
// accumulates while running.
package scan

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Status is the lifecycle state of a scan.
type Status string

const (
	// StatusRunning means the scan is in progress.
	StatusRunning Status = "running"
	// StatusCompleted means the scan finished within all limits.
	StatusCompleted Status = "completed"
	// StatusIncomplete means the scan was halted by the emergency
	// budget brake or cancellation; partial results are valid.
	StatusIncomplete Status = "incomplete"
	// StatusFailed means an internal invariant was violated;
	// accumulated findings are still surfaced.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusIncomplete || s == StatusFailed
}

// EndpointSource records how an endpoint was discovered.
type EndpointSource string

const (
	SourceLink     EndpointSource = "link"
	SourceScript   EndpointSource = "script"
	SourceForm     EndpointSource = "form"
	SourceRedirect EndpointSource = "redirect"
)

// CrawlTarget identifies the root of a scan. Immutable once created.
type CrawlTarget struct {
	RootURL   string
	Origin    string // scheme://host[:port]
	CreatedAt time.Time
}

// NewTarget parses rawURL and derives the origin.
func NewTarget(rawURL string) (CrawlTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return CrawlTarget{}, fmt.Errorf("scan: invalid target url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return CrawlTarget{}, fmt.Errorf("scan: target url must be http(s), got %q", u.Scheme)
	}
	if u.Host == "" {
		return CrawlTarget{}, fmt.Errorf("scan: target url %q has no host", rawURL)
	}
	return CrawlTarget{
		RootURL:   rawURL,
		Origin:    u.Scheme + "://" + u.Host,
		CreatedAt: time.Now(),
	}, nil
}

// SameOrigin reports whether rawURL shares the target's origin.
func (t CrawlTarget) SameOrigin(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme+"://"+u.Host == t.Origin
}

// FrontierEntry is one unit of crawl work: a URL at a known depth.
type FrontierEntry struct {
	URL   string
	Depth int
	From  string // page that linked here; empty for the root
}

// DiscoveredEndpoint is a testable URL with its known parameters.
type DiscoveredEndpoint struct {
	URL    string
	Method string
	Params []string
	Depth  int
	Source EndpointSource
}

// FormField is a single input in a form, in document order.
type FormField struct {
	Name string
	Type string
}

// Form is an HTML form found on a crawled page.
type Form struct {
	PageURL string
	Action  string
	Method  string
	Fields  []FormField
}

// FieldNames returns the names of all named fields, in order.
func (f Form) FieldNames() []string {
	names := make([]string, 0, len(f.Fields))
	for _, fld := range f.Fields {
		if fld.Name != "" {
			names = append(names, fld.Name)
		}
	}
	return names
}

// sessionCookieHints are name fragments that mark a cookie as carrying
// session state.
var sessionCookieHints = []string{"sess", "sid", "auth", "token", "login", "jwt"}

// LooksLikeSessionCookie reports whether a cookie name suggests it
// carries session state. The CSRF and auth runners share this so they
// agree on which cookies count.
func LooksLikeSessionCookie(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range sessionCookieHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// StateChanging reports whether submitting the form mutates server state.
func (f Form) StateChanging() bool {
	switch f.Method {
	case "POST", "PUT", "DELETE", "PATCH":
		return true
	}
	return false
}

// State is the mutable record of a running scan. The engine owns it;
// other components read through accessor methods. Once a terminal
// status is set the state is frozen: further mutations are ignored.
type State struct {
	mu        sync.RWMutex
	visited   map[string]bool
	pages     int
	startedAt time.Time
	status    Status
}

// NewState creates a running State.
func NewState() *State {
	return &State{
		visited:   make(map[string]bool),
		startedAt: time.Now(),
		status:    StatusRunning,
	}
}

// MarkVisited records a URL as visited and counts the page.
// Returns false if the URL was already visited or the state is frozen.
func (s *State) MarkVisited(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() || s.visited[url] {
		return false
	}
	s.visited[url] = true
	s.pages++
	return true
}

// Visited reports whether the URL has been visited.
func (s *State) Visited(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visited[url]
}

// VisitedURLs returns all visited URLs in sorted order.
func (s *State) VisitedURLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	urls := make([]string, 0, len(s.visited))
	for u := range s.visited {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Pages returns the number of pages visited so far.
func (s *State) Pages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pages
}

// StartedAt returns when the scan began.
func (s *State) StartedAt() time.Time {
	return s.startedAt
}

// Status returns the current lifecycle status.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Finish sets a terminal status. The first terminal status wins;
// later calls are ignored so a completed scan cannot be demoted.
func (s *State) Finish(status Status) {
	if !status.Terminal() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return
	}
	s.status = status
}
