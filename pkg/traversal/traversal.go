// Package traversal detects path traversal by requesting well-known
// system files through dot-dot sequences and matching their contents.
//
// Detection relies on file sentinels that cannot plausibly occur in
// normal application output, and every hit is gated against a control
// response so error pages that merely mention the probe never count.
package traversal

import (
	"context"
	"net/http"

	"github.com/websecscan/websecscan/pkg/events"
	"github.com/websecscan/websecscan/pkg/finding"
	"github.com/websecscan/websecscan/pkg/iohelper"
	"github.com/websecscan/websecscan/pkg/regexcache"
	"github.com/websecscan/websecscan/pkg/runner"
	"github.com/websecscan/websecscan/pkg/scan"
)

const (
	// RuleID identifies path traversal findings.
	RuleID = "path-traversal"

	owaspCategory = "A01:2021 Broken Access Control"

	remediation = "Resolve user-supplied paths against an allowlisted base directory and reject any path that escapes it after canonicalization."

	controlValue = "websecscan.txt"
)

// Payload is one traversal probe with the sentinel proving it worked.
type Payload struct {
	Value       string
	Target      string
	SentinelRE  string
	Description string
}

// Payloads returns the probe table in fixed order. Unix targets come
// first; depth and encoding variants cover the common normalizer gaps.
func Payloads() []Payload {
	return []Payload{
		{`../../../etc/passwd`, "/etc/passwd", `root:[x*]?:0:0:`, "relative traversal"},
		{`../../../../../../etc/passwd`, "/etc/passwd", `root:[x*]?:0:0:`, "deep relative traversal"},
		{`..%2f..%2f..%2fetc%2fpasswd`, "/etc/passwd", `root:[x*]?:0:0:`, "URL-encoded separators"},
		{`....//....//....//etc/passwd`, "/etc/passwd", `root:[x*]?:0:0:`, "doubled dot-dot"},
		{`../../../proc/version`, "/proc/version", `Linux version`, "proc version read"},
		{`..\..\..\windows\win.ini`, "win.ini", `(?i)\[fonts\]`, "backslash traversal"},
		{`..%5c..%5c..%5cwindows%5cwin.ini`, "win.ini", `(?i)\[fonts\]`, "encoded backslash traversal"},
		{`..\..\..\boot.ini`, "boot.ini", `(?i)\[boot loader\]`, "boot.ini read"},
	}
}

// Tester is the path traversal runner.
type Tester struct {
	payloads []Payload
}

// NewTester creates a Tester with the full payload table.
func NewTester() *Tester {
	return &Tester{payloads: Payloads()}
}

// Name implements runner.Runner.
func (t *Tester) Name() string { return "traversal" }

// Run probes every parameterized GET endpoint and every form field.
func (t *Tester) Run(ctx context.Context, in runner.Input) ([]finding.Finding, error) {
	var findings []finding.Finding

	for _, ep := range in.Endpoints {
		if ep.Method != http.MethodGet || len(ep.Params) == 0 {
			continue
		}
		for _, param := range ep.Params {
			fs, err := t.probeParam(ctx, in, ep, param)
			findings = append(findings, fs...)
			if err != nil {
				return findings, err
			}
		}
	}

	for _, form := range in.Forms {
		for _, field := range form.FieldNames() {
			fs, err := t.probeFormField(ctx, in, form, field)
			findings = append(findings, fs...)
			if err != nil {
				return findings, err
			}
		}
	}

	return findings, nil
}

func (t *Tester) probeParam(ctx context.Context, in runner.Input, ep scan.DiscoveredEndpoint, param string) ([]finding.Finding, error) {
	loc := finding.Location{Method: http.MethodGet, URL: ep.URL, Parameter: param}

	control, err := t.fetchQuery(ctx, in, ep.URL, param, controlValue)
	if err != nil {
		return nil, err
	}

	for _, p := range t.payloads {
		body, err := t.fetchQuery(ctx, in, ep.URL, param, p.Value)
		if err != nil {
			return nil, err
		}
		if f, ok := t.inspect(body, control, p, loc); ok {
			in.Emit(runner.FindingEvent(in.ScanID, f))
			in.Metrics.FindingReported(string(f.Severity))
			return []finding.Finding{f}, nil
		}
	}
	return nil, nil
}

func (t *Tester) probeFormField(ctx context.Context, in runner.Input, form scan.Form, field string) ([]finding.Finding, error) {
	loc := finding.Location{Method: form.Method, URL: form.Action, Parameter: field}

	control, err := t.fetchForm(ctx, in, form, field, controlValue)
	if err != nil {
		return nil, err
	}

	for _, p := range t.payloads {
		body, err := t.fetchForm(ctx, in, form, field, p.Value)
		if err != nil {
			return nil, err
		}
		if f, ok := t.inspect(body, control, p, loc); ok {
			in.Emit(runner.FindingEvent(in.ScanID, f))
			in.Metrics.FindingReported(string(f.Severity))
			return []finding.Finding{f}, nil
		}
	}
	return nil, nil
}

func (t *Tester) fetchQuery(ctx context.Context, in runner.Input, epURL, param, value string) (string, error) {
	probeURL, err := runner.InjectQueryParam(epURL, param, value)
	if err != nil {
		return "", nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return "", nil
	}
	return t.do(ctx, in, req)
}

func (t *Tester) fetchForm(ctx context.Context, in runner.Input, form scan.Form, field, value string) (string, error) {
	req, err := runner.FormRequest(ctx, form, field, value)
	if err != nil {
		return "", nil
	}
	return t.do(ctx, in, req)
}

// do issues one probe; non-abort request errors skip the probe.
func (t *Tester) do(ctx context.Context, in runner.Input, req *http.Request) (string, error) {
	resp, err := in.Do(ctx, req)
	if err != nil {
		if runner.IsAbort(err) {
			return "", err
		}
		in.Emit(events.NewScanError(in.ScanID, "traversal", req.URL.String(), err.Error(), false))
		return "", nil
	}
	defer iohelper.DrainAndClose(resp.Body)
	body, err := iohelper.ReadBodyDefault(resp.Body)
	if err != nil {
		return "", nil
	}
	return string(body), nil
}

func (t *Tester) inspect(body, control string, p Payload, loc finding.Location) (finding.Finding, bool) {
	if body == "" {
		return finding.Finding{}, false
	}
	re := regexcache.MustGet(p.SentinelRE)
	idx := re.FindStringIndex(body)
	if idx == nil {
		return finding.Finding{}, false
	}
	if re.MatchString(control) {
		return finding.Finding{}, false
	}

	evidence := runner.Snippet(body, idx[0], idx[1]-idx[0])
	title := "Path traversal exposing " + p.Target
	f := finding.New(RuleID, owaspCategory, finding.SeverityHigh, finding.ConfidenceHigh, title, evidence, loc, remediation)
	return f, true
}
