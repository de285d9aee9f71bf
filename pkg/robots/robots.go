// Package robots fetches and evaluates the target's robots exclusion
// file. The policy is loaded once per scan and consulted by the crawler
// before every page fetch.
//
// A failed or non-2xx fetch produces a fail-open policy (allow-all),
// surfaced through Policy.FailOpen so callers can report the condition
// rather than silently assume it.
package robots

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/websecscan/websecscan/pkg/duration"
	"github.com/websecscan/websecscan/pkg/httpclient"
	"github.com/websecscan/websecscan/pkg/iohelper"
	"github.com/websecscan/websecscan/pkg/ui"
)

// Policy holds the parsed Disallow prefixes applying to all agents.
type Policy struct {
	// Disallowed is the ordered list of path prefixes from
	// `User-agent: *` groups. Order matters: first listed match wins.
	Disallowed []string

	// FailOpen is true when the policy could not be retrieved and the
	// evaluator defaulted to allow-all.
	FailOpen bool
}

// Allowed reports whether the given request path may be fetched.
// The first listed rule whose prefix matches the path decides; with no
// match the path is allowed.
func (p *Policy) Allowed(path string) bool {
	if p == nil || p.FailOpen {
		return true
	}
	if path == "" {
		path = "/"
	}
	for _, prefix := range p.Disallowed {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// Evaluator loads robots policies over HTTP.
type Evaluator struct {
	client    *http.Client
	userAgent string
}

// NewEvaluator creates an Evaluator with a short fetch timeout.
// A nil client gets a dedicated one; robots fetches should not share
// the scan client's longer per-request timeout.
func NewEvaluator(client *http.Client) *Evaluator {
	if client == nil {
		client = httpclient.New(httpclient.WithTimeout(duration.RobotsFetch))
	}
	return &Evaluator{
		client:    client,
		userAgent: ui.UserAgentWithContext("robots"),
	}
}

// Load fetches and parses origin's /robots.txt. It always returns a
// usable policy: on any fetch or status failure the policy fails open
// and the returned error describes why, so the caller can emit a
// warning without treating the condition as fatal.
func (e *Evaluator) Load(ctx context.Context, origin string) (*Policy, error) {
	robotsURL := strings.TrimRight(origin, "/") + "/robots.txt"

	fetchCtx, cancel := context.WithTimeout(ctx, duration.RobotsFetch)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return &Policy{FailOpen: true}, fmt.Errorf("robots: building request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return &Policy{FailOpen: true}, fmt.Errorf("robots: fetch failed: %w", err)
	}
	defer iohelper.DrainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Policy{FailOpen: true}, fmt.Errorf("robots: fetch returned status %d", resp.StatusCode)
	}

	body, err := iohelper.ReadBodySmall(resp.Body)
	if err != nil {
		return &Policy{FailOpen: true}, fmt.Errorf("robots: reading body: %w", err)
	}

	return Parse(string(body)), nil
}

// Parse extracts Disallow prefixes from `User-agent: *` groups.
// Rules for specifically named agents are ignored: the scanner honors
// the rules a site publishes for everyone.
func Parse(content string) *Policy {
	policy := &Policy{}

	appliesToAll := false
	inAgentRun := false // consecutive User-agent lines form one group header

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}

		field, value, ok := splitField(line)
		if !ok {
			continue
		}

		switch field {
		case "user-agent":
			if !inAgentRun {
				// New group header resets applicability.
				appliesToAll = false
			}
			inAgentRun = true
			if value == "*" {
				appliesToAll = true
			}
		case "disallow":
			inAgentRun = false
			if appliesToAll && value != "" {
				policy.Disallowed = append(policy.Disallowed, value)
			}
		default:
			inAgentRun = false
		}
	}

	return policy
}

func splitField(line string) (field, value string, ok bool) {
	i := strings.Index(line, ":")
	if i < 0 {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(line[:i])), strings.TrimSpace(line[i+1:]), true
}
