// Package csrf analyzes state-changing forms for missing cross-site
// request forgery defenses.
//
// The analysis is passive: it inspects forms already collected by the
// crawler and the cookie attributes the site sets, issuing only a
// single governed request to observe Set-Cookie headers. No form is
// ever submitted.
package csrf

import (
	"context"
	"net/http"
	"strings"

	"github.com/websecscan/websecscan/pkg/finding"
	"github.com/websecscan/websecscan/pkg/iohelper"
	"github.com/websecscan/websecscan/pkg/runner"
	"github.com/websecscan/websecscan/pkg/scan"
)

const (
	// RuleID identifies missing-CSRF-protection findings.
	RuleID = "csrf-missing-token"

	owaspCategory = "A01:2021 Broken Access Control"

	remediation = "Embed a per-session anti-CSRF token in every state-changing form and verify it server-side. Set SameSite=Lax or Strict on session cookies as defense in depth."
)

// tokenFieldNames are the conventional hidden-field names frameworks
// use for anti-CSRF tokens, lowercased for comparison.
var tokenFieldNames = []string{
	"csrf",
	"csrf_token",
	"csrftoken",
	"csrfmiddlewaretoken",
	"_csrf",
	"_token",
	"xsrf_token",
	"_xsrf",
	"authenticity_token",
	"__requestverificationtoken",
	"anticsrf",
	"nonce",
	"form_token",
	"security_token",
}

// HasTokenField reports whether any form field looks like an anti-CSRF
// token.
func HasTokenField(form scan.Form) bool {
	for _, name := range form.FieldNames() {
		lower := strings.ToLower(name)
		for _, known := range tokenFieldNames {
			if lower == known {
				return true
			}
		}
		// Framework-prefixed variants like "laravel_csrf_token".
		if strings.Contains(lower, "csrf") || strings.Contains(lower, "xsrf") {
			return true
		}
	}
	return false
}

// Tester is the CSRF analysis runner.
type Tester struct{}

// NewTester creates a Tester.
func NewTester() *Tester { return &Tester{} }

// Name implements runner.Runner.
func (t *Tester) Name() string { return "csrf" }

// Run flags every state-changing form without a recognizable token.
// A SameSite=Lax or Strict session cookie drops confidence one tier:
// the browser default then blocks the classic cross-site POST, leaving
// only narrower attack paths.
func (t *Tester) Run(ctx context.Context, in runner.Input) ([]finding.Finding, error) {
	sameSiteProtected, err := t.sessionCookiesSameSite(ctx, in)
	if err != nil {
		return nil, err
	}

	var findings []finding.Finding
	for _, form := range in.Forms {
		if !form.StateChanging() || HasTokenField(form) {
			continue
		}

		conf := finding.ConfidenceHigh
		evidence := "state-changing form with fields [" + strings.Join(form.FieldNames(), ", ") + "] carries no anti-CSRF token"
		if sameSiteProtected {
			conf = conf.Downgrade()
			evidence += "; session cookie sets SameSite, limiting cross-site submission"
		}

		loc := finding.Location{Method: form.Method, URL: form.Action}
		f := finding.New(RuleID, owaspCategory, finding.SeverityMedium, conf,
			"Form without CSRF protection", evidence, loc, remediation)
		findings = append(findings, f)
		in.Emit(runner.FindingEvent(in.ScanID, f))
		in.Metrics.FindingReported(string(f.Severity))
	}

	return findings, nil
}

// sessionCookiesSameSite fetches the target root once and reports
// whether every session-looking cookie declares SameSite.
func (t *Tester) sessionCookiesSameSite(ctx context.Context, in runner.Input) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.Target.RootURL, nil)
	if err != nil {
		return false, nil
	}
	resp, err := in.Do(ctx, req)
	if err != nil {
		if runner.IsAbort(err) {
			return false, err
		}
		// Cookie info unavailable; assume unprotected.
		return false, nil
	}
	defer iohelper.DrainAndClose(resp.Body)

	cookies := resp.Cookies()
	sawSession := false
	for _, c := range cookies {
		if !scan.LooksLikeSessionCookie(c.Name) {
			continue
		}
		sawSession = true
		if c.SameSite == http.SameSiteDefaultMode || c.SameSite == http.SameSiteNoneMode {
			return false, nil
		}
	}
	return sawSession, nil
}
