// Package sqli detects error-based SQL injection.
//
// The tester sends syntax-breaking probes and looks for engine-specific
// error signatures in the response. Every probe is gated by a control
// request carrying a benign value: a signature that also appears in the
// control response is site furniture (documentation, error-themed
// content) and never counts as evidence. Time-based techniques are
// excluded on purpose; they are indistinguishable from network jitter
// at the conservative request rates this engine runs at.
package sqli

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
	// RuleID identifies error-based SQL injection findings.
	RuleID = "sqli-error"

	owaspCategory = "A03:2021 Injection"

	remediation = "Use parameterized queries or prepared statements for all database access. Never concatenate user input into SQL text."

	// controlValue is the benign input used to baseline each parameter
	// before any syntax-breaking probe is evaluated.
	controlValue = "websecscan"
)

// Probes are the syntax-breaking inputs, ordered cheapest first.
// None of them mutates data; they only malform the statement.
var Probes = []string{
	`'`,
	`"`,
	`'--`,
	`')`,
	`' OR '1'='1`,
}

// signature maps a database engine to the error patterns it leaks.
type signature struct {
	Engine   string
	Patterns []string
}

// signatures holds per-engine error fingerprints. Patterns are matched
// case-insensitively via regexcache.
var signatures = []signature{
	{"MySQL", []string{
		`(?i)you have an error in your sql syntax`,
		`(?i)warning:\s*mysqli?_`,
		`(?i)check the manual that corresponds to your (mysql|mariadb) server version`,
		`(?i)unknown column '[^']+' in 'field list'`,
	}},
	{"PostgreSQL", []string{
		`(?i)pg_query\(\)`,
		`(?i)unterminated quoted string at or near`,
		`(?i)syntax error at or near`,
		`ERROR:\s+column "[^"]+" does not exist`,
	}},
	{"SQLite", []string{
		`(?i)sqlite3?\.OperationalError`,
		`(?i)SQLite error`,
		`(?i)unrecognized token:`,
		`(?i)near "[^"]*": syntax error`,
	}},
	{"SQL Server", []string{
		`(?i)unclosed quotation mark after the character string`,
		`(?i)incorrect syntax near`,
		`(?i)microsoft ole db provider for sql server`,
		`(?i)System\.Data\.SqlClient\.SqlException`,
	}},
	{"Oracle", []string{
		`ORA-00933`,
		`ORA-01756`,
		`ORA-00921`,
		`(?i)quoted string not properly terminated`,
	}},
}

// Tester is the error-based SQL injection runner.
type Tester struct{}

// NewTester creates a Tester.
func NewTester() *Tester { return &Tester{} }

// Name implements runner.Runner.
func (t *Tester) Name() string { return "sqli" }

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

	controlBody, err := t.fetchQuery(ctx, in, ep.URL, param, controlValue)
	if err != nil {
		return nil, err
	}

	for _, probe := range Probes {
		body, err := t.fetchQuery(ctx, in, ep.URL, param, probe)
		if err != nil {
			return nil, err
		}
		if f, ok := t.inspect(body, controlBody, loc); ok {
			in.Emit(runner.FindingEvent(in.ScanID, f))
			in.Metrics.FindingReported(string(f.Severity))
			return []finding.Finding{f}, nil
		}
	}
	return nil, nil
}

func (t *Tester) probeFormField(ctx context.Context, in runner.Input, form scan.Form, field string) ([]finding.Finding, error) {
	loc := finding.Location{Method: form.Method, URL: form.Action, Parameter: field}

	controlBody, err := t.fetchForm(ctx, in, form, field, controlValue)
	if err != nil {
		return nil, err
	}

	for _, probe := range Probes {
		body, err := t.fetchForm(ctx, in, form, field, probe)
		if err != nil {
			return nil, err
		}
		if f, ok := t.inspect(body, controlBody, loc); ok {
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
		in.Emit(events.NewScanError(in.ScanID, "sqli", req.URL.String(), err.Error(), false))
		return "", nil
	}
	defer iohelper.DrainAndClose(resp.Body)
	body, err := iohelper.ReadBodyDefault(resp.Body)
	if err != nil {
		return "", nil
	}
	return string(body), nil
}

// inspect looks for an engine signature present in the probe response
// but absent from the control response.
func (t *Tester) inspect(body, controlBody string, loc finding.Location) (finding.Finding, bool) {
	engine, pattern := match(body)
	if engine == "" {
		return finding.Finding{}, false
	}
	if controlMatch, _ := match(controlBody); controlMatch != "" {
		// The page talks about SQL errors regardless of input.
		return finding.Finding{}, false
	}

	re := regexcache.MustGet(pattern)
	idx := re.FindStringIndex(body)
	evidence := ""
	if idx != nil {
		evidence = runner.Snippet(body, idx[0], idx[1]-idx[0])
	}

	title := "SQL injection (" + engine + " error signature)"
	f := finding.New(RuleID, owaspCategory, finding.SeverityCritical, finding.ConfidenceHigh, title, evidence, loc, remediation)
	return f, true
}

// match returns the first engine whose signature appears in the body.
func match(body string) (engine, pattern string) {
	if body == "" {
		return "", ""
	}
	for _, sig := range signatures {
		for _, p := range sig.Patterns {
			if regexcache.MustGet(p).MatchString(body) {
				return sig.Engine, p
			}
		}
	}
	return "", ""
}
