// Package crawler implements the discovery phase: a breadth-first,
// same-origin crawl that maps pages, links, forms and script-referenced
// endpoints without ever submitting state-changing requests.
//
// The crawl loop is deliberately single-owner: one goroutine drains the
// frontier in FIFO order, so with a fixed site the set of visited pages
// and discovered endpoints is reproducible run to run.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/websecscan/websecscan/pkg/defaults"
	"github.com/websecscan/websecscan/pkg/events"
	"github.com/websecscan/websecscan/pkg/iohelper"
	"github.com/websecscan/websecscan/pkg/robots"
	"github.com/websecscan/websecscan/pkg/runner"
	"github.com/websecscan/websecscan/pkg/scan"
)

// Config holds crawl limits and scope policy.
type Config struct {
	MaxDepth           int
	MaxPages           int
	AllowExternalLinks bool
}

// DefaultConfig returns conservative crawl limits.
func DefaultConfig() Config {
	return Config{
		MaxDepth: defaults.MaxDepth,
		MaxPages: defaults.MaxPages,
	}
}

// Result is the outcome of a crawl: the raw material the test runners
// operate on.
type Result struct {
	Endpoints []scan.DiscoveredEndpoint
	Forms     []scan.Form
	Visited   []string
	Errors    []error

	// Truncated is set when the crawl stopped early (page cap, budget,
	// abort) rather than by exhausting the frontier.
	Truncated bool
	// TruncatedReason names why, when Truncated is set.
	TruncatedReason string
}

// Crawler walks a target breadth-first within its origin.
type Crawler struct {
	cfg    Config
	policy *robots.Policy
	state  *scan.State
	in     runner.Input
}

// New creates a Crawler. The robots policy may be nil, which is
// treated as allow-all; the engine passes nil when the operator has
// explicitly consented to ignoring robots rules.
func New(cfg Config, policy *robots.Policy, state *scan.State, in runner.Input) *Crawler {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaults.MaxDepth
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaults.MaxPages
	}
	return &Crawler{cfg: cfg, policy: policy, state: state, in: in}
}

// Crawl runs the breadth-first walk from the target root. The crawl
// never fails outright: per-page fetch errors land in Result.Errors
// and an emergency abort is reported through Result.Truncated.
func (c *Crawler) Crawl(ctx context.Context) *Result {
	res := &Result{}
	seenEndpoints := make(map[string]bool)

	frontier := []scan.FrontierEntry{{URL: c.in.Target.RootURL, Depth: 0}}

	for len(frontier) > 0 {
		entry := frontier[0]
		frontier = frontier[1:]

		if c.state.Pages() >= c.cfg.MaxPages {
			res.Truncated = true
			res.TruncatedReason = "page limit reached"
			break
		}

		norm := normalizeURL(entry.URL)
		if norm == "" || c.state.Visited(norm) {
			continue
		}
		if !c.allowed(norm) {
			continue
		}
		if !c.state.MarkVisited(norm) {
			continue
		}

		page, err := c.fetch(ctx, norm)
		if err != nil {
			if runner.IsAbort(err) {
				res.Truncated = true
				res.TruncatedReason = "emergency abort"
				return res
			}
			res.Errors = append(res.Errors, fmt.Errorf("crawler: fetching %s: %w", norm, err))
			c.in.Emit(events.NewScanError(c.in.ScanID, "crawl", norm, err.Error(), false))
			continue
		}

		c.in.Metrics.PageCrawled(entry.Depth)
		c.in.Emit(events.NewPageCrawled(c.in.ScanID, norm, entry.Depth, page.StatusCode, len(page.Links), len(page.Forms)))

		// The visited page itself is an endpoint, carrying whatever
		// query parameters its URL advertises.
		c.recordEndpoint(res, seenEndpoints, scan.DiscoveredEndpoint{
			URL:    norm,
			Method: http.MethodGet,
			Params: queryParams(norm),
			Depth:  entry.Depth,
			Source: scan.SourceLink,
		})

		for _, form := range page.Forms {
			res.Forms = append(res.Forms, form)
			c.recordEndpoint(res, seenEndpoints, scan.DiscoveredEndpoint{
				URL:    form.Action,
				Method: form.Method,
				Params: form.FieldNames(),
				Depth:  entry.Depth,
				Source: scan.SourceForm,
			})
		}

		for _, ep := range page.ScriptEndpoints {
			ep.Depth = entry.Depth
			c.recordEndpoint(res, seenEndpoints, ep)
		}

		if page.RedirectTo != "" {
			c.recordEndpoint(res, seenEndpoints, scan.DiscoveredEndpoint{
				URL:    page.RedirectTo,
				Method: http.MethodGet,
				Params: queryParams(page.RedirectTo),
				Depth:  entry.Depth,
				Source: scan.SourceRedirect,
			})
			page.Links = append(page.Links, page.RedirectTo)
		}

		if entry.Depth >= c.cfg.MaxDepth {
			continue
		}
		for _, link := range page.Links {
			next := normalizeURL(link)
			if next == "" || c.state.Visited(next) || !c.allowed(next) {
				continue
			}
			frontier = append(frontier, scan.FrontierEntry{
				URL:   next,
				Depth: entry.Depth + 1,
				From:  norm,
			})
		}
	}

	res.Visited = c.state.VisitedURLs()
	sortEndpoints(res.Endpoints)
	return res
}

// allowed applies origin scope and the robots policy.
func (c *Crawler) allowed(rawURL string) bool {
	if !c.cfg.AllowExternalLinks && !c.in.Target.SameOrigin(rawURL) {
		return false
	}
	if c.policy != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			return false
		}
		if !c.policy.Allowed(u.Path) {
			return false
		}
	}
	return true
}

// page holds what one fetch yielded.
type page struct {
	StatusCode      int
	Links           []string
	Forms           []scan.Form
	ScriptEndpoints []scan.DiscoveredEndpoint
	RedirectTo      string
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.in.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer iohelper.DrainAndClose(resp.Body)

	p := &page{StatusCode: resp.StatusCode}

	if loc := resp.Header.Get("Location"); loc != "" && resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if abs := resolveURL(pageURL, loc); abs != "" {
			p.RedirectTo = abs
		}
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "text/html") && ct != "" {
		return p, nil
	}

	body, err := iohelper.ReadBodyDefault(resp.Body)
	if err != nil {
		return p, nil
	}

	ex := extract(string(body), pageURL)
	p.Links = ex.links
	p.Forms = ex.forms
	p.ScriptEndpoints = ex.scriptEndpoints
	return p, nil
}

func (c *Crawler) recordEndpoint(res *Result, seen map[string]bool, ep scan.DiscoveredEndpoint) {
	ep.URL = normalizeURL(ep.URL)
	if ep.URL == "" {
		return
	}
	if !c.cfg.AllowExternalLinks && !c.in.Target.SameOrigin(ep.URL) {
		return
	}
	if ep.Method == "" {
		ep.Method = http.MethodGet
	}
	key := ep.Method + " " + ep.URL
	if seen[key] {
		return
	}
	seen[key] = true
	res.Endpoints = append(res.Endpoints, ep)
	c.in.Emit(events.NewEndpointFound(c.in.ScanID, ep.URL, ep.Method, string(ep.Source)))
}

// normalizeURL strips fragments and trailing ambiguity so the visited
// set treats /a, /a# and /a?x=1 distinctly but consistently.
func normalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	abs := b.ResolveReference(r)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

func queryParams(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	q := u.Query()
	if len(q) == 0 {
		return nil
	}
	params := make([]string, 0, len(q))
	for name := range q {
		params = append(params, name)
	}
	sort.Strings(params)
	return params
}

// sortEndpoints orders endpoints by URL then method. Discovery order
// depends on page layout; report order should not.
func sortEndpoints(eps []scan.DiscoveredEndpoint) {
	sort.SliceStable(eps, func(i, j int) bool {
		if eps[i].URL != eps[j].URL {
			return eps[i].URL < eps[j].URL
		}
		return eps[i].Method < eps[j].Method
	})
}
