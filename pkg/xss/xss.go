// Package xss detects reflected cross-site scripting by injecting
// benign marker payloads and inspecting how the application echoes
// them back.
//
// Payloads never carry executable behavior: each is a unique marker
// token wrapped in the breakout syntax of one injection context. An
// un-encoded echo of the full payload proves the context can be
// escaped; an entity-encoded echo shows the input flows to output but
// is being sanitized.
package xss

import (
	"context"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/websecscan/websecscan/pkg/events"
	"github.com/websecscan/websecscan/pkg/finding"
	"github.com/websecscan/websecscan/pkg/iohelper"
	"github.com/websecscan/websecscan/pkg/runner"
	"github.com/websecscan/websecscan/pkg/scan"
)

const (
	// RuleID identifies reflected XSS findings.
	RuleID = "xss-reflected"

	owaspCategory = "A03:2021 Injection"

	remediation = "Encode output for the context it is rendered in and validate input against an allowlist. Prefer templating engines with contextual auto-escaping."

	// marker is the inert token every payload carries. It is fixed so
	// scans are reproducible; nothing about detection depends on it
	// being secret.
	marker = "wsscan0x7f3"
)

// InjectionContext names where a payload attempts to break out.
type InjectionContext string

const (
	ContextHTMLTag      InjectionContext = "html-tag"
	ContextHTMLText     InjectionContext = "html-text"
	ContextAttrDouble   InjectionContext = "attr-double-quoted"
	ContextAttrSingle   InjectionContext = "attr-single-quoted"
	ContextAttrUnquoted InjectionContext = "attr-unquoted"
	ContextJSDouble     InjectionContext = "js-string-double"
	ContextJSSingle     InjectionContext = "js-string-single"
	ContextJSTemplate   InjectionContext = "js-template-literal"
	ContextURLScheme    InjectionContext = "url-scheme"
	ContextCSS          InjectionContext = "css"
	ContextHTMLComment  InjectionContext = "html-comment"
	ContextSVGEvent     InjectionContext = "svg-event"
)

// Payload pairs an injection context with its marker-carrying probe.
type Payload struct {
	Context     InjectionContext
	Value       string
	Description string
}

// Payloads returns the probe table, one payload per context, in fixed
// order.
func Payloads() []Payload {
	return []Payload{
		{ContextHTMLTag, `<` + marker + ` data-x>`, "new HTML tag"},
		{ContextHTMLText, marker, "plain text node"},
		{ContextAttrDouble, `" ` + marker + `="`, "double-quoted attribute breakout"},
		{ContextAttrSingle, `' ` + marker + `='`, "single-quoted attribute breakout"},
		{ContextAttrUnquoted, ` ` + marker + `=x`, "unquoted attribute breakout"},
		{ContextJSDouble, `";` + marker + `;//`, "double-quoted JS string breakout"},
		{ContextJSSingle, `';` + marker + `;//`, "single-quoted JS string breakout"},
		{ContextJSTemplate, `${` + marker + `}`, "template literal interpolation"},
		{ContextURLScheme, `javascript:` + marker, "javascript: URL scheme"},
		{ContextCSS, `</style><` + marker + `>`, "style block breakout"},
		{ContextHTMLComment, `--><` + marker + `>`, "comment breakout"},
		{ContextSVGEvent, `<svg onload=` + marker + `>`, "SVG event handler"},
	}
}

// Tester is the reflected-XSS runner.
type Tester struct {
	payloads []Payload
}

// NewTester creates a Tester with the full payload table.
func NewTester() *Tester {
	return &Tester{payloads: Payloads()}
}

// Name implements runner.Runner.
func (t *Tester) Name() string { return "xss" }

// Run probes every parameterized endpoint and every form. Iteration
// order follows the crawl result, which is already deterministic.
func (t *Tester) Run(ctx context.Context, in runner.Input) ([]finding.Finding, error) {
	var findings []finding.Finding

	for _, ep := range in.Endpoints {
		if ep.Method != http.MethodGet || len(ep.Params) == 0 {
			continue
		}
		for _, param := range ep.Params {
			fs, err := t.probeQueryParam(ctx, in, ep, param)
			findings = append(findings, fs...)
			if err != nil {
				return findings, err
			}
		}
	}

	for _, form := range in.Forms {
		fs, err := t.probeForm(ctx, in, form)
		findings = append(findings, fs...)
		if err != nil {
			return findings, err
		}
	}

	return findings, nil
}

func (t *Tester) probeQueryParam(ctx context.Context, in runner.Input, ep scan.DiscoveredEndpoint, param string) ([]finding.Finding, error) {
	var findings []finding.Finding

	for _, p := range t.payloads {
		probeURL, err := runner.InjectQueryParam(ep.URL, param, p.Value)
		if err != nil {
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
		if err != nil {
			continue
		}
		body, err := t.fetch(ctx, in, req)
		if err != nil {
			return findings, err
		}
		if f, ok := t.inspect(body, p, finding.Location{
			Method:    http.MethodGet,
			URL:       ep.URL,
			Parameter: param,
		}); ok {
			findings = append(findings, f)
			in.Emit(runner.FindingEvent(in.ScanID, f))
			in.Metrics.FindingReported(string(f.Severity))
			// One confirmed context per parameter is enough evidence;
			// further probes just spend budget re-proving it.
			break
		}
	}

	return findings, nil
}

func (t *Tester) probeForm(ctx context.Context, in runner.Input, form scan.Form) ([]finding.Finding, error) {
	var findings []finding.Finding
	names := form.FieldNames()
	if len(names) == 0 || form.Action == "" {
		return nil, nil
	}

	for _, field := range names {
		for _, p := range t.payloads {
			req, err := runner.FormRequest(ctx, form, field, p.Value)
			if err != nil {
				continue
			}
			body, err := t.fetch(ctx, in, req)
			if err != nil {
				return findings, err
			}
			if f, ok := t.inspect(body, p, finding.Location{
				Method:    form.Method,
				URL:       form.Action,
				Parameter: field,
			}); ok {
				findings = append(findings, f)
				in.Emit(runner.FindingEvent(in.ScanID, f))
				in.Metrics.FindingReported(string(f.Severity))
				break
			}
		}
	}

	return findings, nil
}

// fetch issues one probe. Non-abort request errors yield an empty body
// so a single unreachable endpoint skips quietly instead of ending the
// scan.
func (t *Tester) fetch(ctx context.Context, in runner.Input, req *http.Request) (string, error) {
	resp, err := in.Do(ctx, req)
	if err != nil {
		if runner.IsAbort(err) {
			return "", err
		}
		in.Emit(events.NewScanError(in.ScanID, "xss", req.URL.String(), err.Error(), false))
		return "", nil
	}
	defer iohelper.DrainAndClose(resp.Body)
	body, err := iohelper.ReadBodyDefault(resp.Body)
	if err != nil {
		return "", nil
	}
	return string(body), nil
}

// inspect classifies how the payload came back.
//
// Exact echo of the full payload is high confidence. An entity-encoded
// echo still proves the input reaches the response, but sanitization is
// working, so it drops to medium. Findings are downgraded one tier
// when the endpoint looks like a bundled third-party or minified
// asset, where reflections are usually static coincidences.
func (t *Tester) inspect(body string, p Payload, loc finding.Location) (finding.Finding, bool) {
	conf, evidence := classify(body, p.Value)
	if conf == "" {
		return finding.Finding{}, false
	}
	if thirdPartyAsset(loc.URL) {
		conf = conf.Downgrade()
	}

	title := "Reflected XSS (" + string(p.Context) + " context)"
	return finding.New(RuleID, owaspCategory, finding.SeverityHigh, conf, title, evidence, loc, remediation), true
}

func classify(body, payload string) (finding.Confidence, string) {
	if idx := strings.Index(body, payload); idx >= 0 {
		return finding.ConfidenceHigh, runner.Snippet(body, idx, len(payload))
	}
	encoded := html.EscapeString(payload)
	if encoded != payload {
		if idx := strings.Index(body, encoded); idx >= 0 {
			return finding.ConfidenceMedium, runner.Snippet(body, idx, len(encoded))
		}
	}
	return "", ""
}

// thirdPartyAsset reports whether the URL path looks like a vendored or
// minified resource rather than application code.
func thirdPartyAsset(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, ".min.js") || strings.HasSuffix(path, ".min.css") {
		return true
	}
	for _, dir := range []string{"/vendor/", "/node_modules/", "/dist/", "/third-party/", "/thirdparty/"} {
		if strings.Contains(path, dir) {
			return true
		}
	}
	return false
}
