// Package authsession analyzes authentication and session handling:
// cookie hardening attributes, session token strength, and
// administrative paths reachable without credentials.
//
// Cookie analysis piggybacks on a single governed request to the
// target root. The admin probe issues one unauthenticated GET per
// well-known path; it never attempts to log in or guess credentials.
package authsession

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/websecscan/websecscan/pkg/defaults"
	"github.com/websecscan/websecscan/pkg/finding"
	"github.com/websecscan/websecscan/pkg/iohelper"
	"github.com/websecscan/websecscan/pkg/runner"
	"github.com/websecscan/websecscan/pkg/scan"
)

// Rule IDs for the checks this runner performs. Each cookie attribute
// gets its own rule so the aggregator keeps them distinct.
const (
	RuleCookieSecure   = "cookie-missing-secure"
	RuleCookieHTTPOnly = "cookie-missing-httponly"
	RuleCookieSameSite = "cookie-missing-samesite"
	RuleWeakToken      = "session-token-weak"
	RuleOpenAdmin      = "admin-path-unauthenticated"
)

const (
	owaspCategory = "A07:2021 Identification and Authentication Failures"

	cookieRemediation = "Set Secure, HttpOnly and SameSite on all session cookies."
	tokenRemediation  = "Generate session tokens with at least 128 bits of entropy from a cryptographic source."
	adminRemediation  = "Require authentication for all administrative interfaces and return 401 or a redirect to login for anonymous requests."
)

// adminPaths are probed unauthenticated, in fixed order.
var adminPaths = []string{
	"/admin",
	"/admin/",
	"/administrator",
	"/manage",
	"/dashboard",
	"/admin/login",
	"/wp-admin/",
}

// adminMarkers identify administrative content in a 200 response.
var adminMarkers = []string{
	"admin panel",
	"administration",
	"admin dashboard",
	"control panel",
	"user management",
	"manage users",
}

// Tester is the auth and session analysis runner.
type Tester struct{}

// NewTester creates a Tester.
func NewTester() *Tester { return &Tester{} }

// Name implements runner.Runner.
func (t *Tester) Name() string { return "authsession" }

// Run performs cookie analysis then the admin path probe.
func (t *Tester) Run(ctx context.Context, in runner.Input) ([]finding.Finding, error) {
	findings, err := t.analyzeCookies(ctx, in)
	if err != nil {
		return findings, err
	}

	adminFindings, err := t.probeAdminPaths(ctx, in)
	findings = append(findings, adminFindings...)
	return findings, err
}

// analyzeCookies fetches the root once and checks every session cookie
// for the three hardening attributes plus token strength. Each missing
// attribute is its own finding so remediation can be tracked per
// attribute.
func (t *Tester) analyzeCookies(ctx context.Context, in runner.Input) ([]finding.Finding, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.Target.RootURL, nil)
	if err != nil {
		return nil, nil
	}
	resp, err := in.Do(ctx, req)
	if err != nil {
		if runner.IsAbort(err) {
			return nil, err
		}
		return nil, nil
	}
	defer iohelper.DrainAndClose(resp.Body)

	var findings []finding.Finding
	loc := finding.Location{Method: http.MethodGet, URL: in.Target.RootURL}

	for _, c := range resp.Cookies() {
		if !scan.LooksLikeSessionCookie(c.Name) {
			continue
		}

		if !c.Secure {
			findings = t.report(findings, in, finding.New(RuleCookieSecure, owaspCategory,
				finding.SeverityHigh, finding.ConfidenceHigh,
				"Session cookie without Secure flag",
				fmt.Sprintf("cookie %q is sent over plaintext HTTP", c.Name),
				withParam(loc, c.Name), cookieRemediation))
		}
		if !c.HttpOnly {
			findings = t.report(findings, in, finding.New(RuleCookieHTTPOnly, owaspCategory,
				finding.SeverityMedium, finding.ConfidenceHigh,
				"Session cookie without HttpOnly flag",
				fmt.Sprintf("cookie %q is readable from JavaScript", c.Name),
				withParam(loc, c.Name), cookieRemediation))
		}
		if c.SameSite == http.SameSiteDefaultMode || c.SameSite == http.SameSiteNoneMode {
			findings = t.report(findings, in, finding.New(RuleCookieSameSite, owaspCategory,
				finding.SeverityMedium, finding.ConfidenceHigh,
				"Session cookie without SameSite attribute",
				fmt.Sprintf("cookie %q is attached to cross-site requests", c.Name),
				withParam(loc, c.Name), cookieRemediation))
		}
		if len(c.Value) > 0 && len(c.Value) < defaults.SessionTokenMinLen {
			findings = t.report(findings, in, finding.New(RuleWeakToken, owaspCategory,
				finding.SeverityHigh, finding.ConfidenceMedium,
				"Session token too short to resist guessing",
				fmt.Sprintf("cookie %q carries a %d-character token", c.Name, len(c.Value)),
				withParam(loc, c.Name), tokenRemediation))
		}
	}

	return findings, nil
}

// probeAdminPaths requests each well-known admin path anonymously.
// A 200 response with administrative content is reported; redirects to
// a login page are the healthy outcome and stay silent.
func (t *Tester) probeAdminPaths(ctx context.Context, in runner.Input) ([]finding.Finding, error) {
	var findings []finding.Finding

	for _, path := range adminPaths {
		// These paths come from a fixed list, not the crawl, so the
		// robots policy has not seen them yet.
		if !in.Robots.Allowed(path) {
			continue
		}
		probeURL := in.Target.Origin + path
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
		if err != nil {
			continue
		}
		resp, err := in.Do(ctx, req)
		if err != nil {
			if runner.IsAbort(err) {
				return findings, err
			}
			continue
		}
		body, readErr := iohelper.ReadBodyDefault(resp.Body)
		iohelper.DrainAndClose(resp.Body)
		if readErr != nil || resp.StatusCode != http.StatusOK {
			continue
		}

		lower := strings.ToLower(string(body))
		for _, marker := range adminMarkers {
			if idx := strings.Index(lower, marker); idx >= 0 {
				loc := finding.Location{Method: http.MethodGet, URL: probeURL}
				findings = t.report(findings, in, finding.New(RuleOpenAdmin, owaspCategory,
					finding.SeverityCritical, finding.ConfidenceMedium,
					"Administrative page reachable without authentication",
					runner.Snippet(string(body), idx, len(marker)),
					loc, adminRemediation))
				break
			}
		}
	}

	return findings, nil
}

func (t *Tester) report(findings []finding.Finding, in runner.Input, f finding.Finding) []finding.Finding {
	in.Emit(runner.FindingEvent(in.ScanID, f))
	in.Metrics.FindingReported(string(f.Severity))
	return append(findings, f)
}

func withParam(loc finding.Location, cookieName string) finding.Location {
	loc.Parameter = cookieName
	return loc
}
