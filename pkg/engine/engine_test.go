package engine_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/websecscan/websecscan/pkg/authsession"
	"github.com/websecscan/websecscan/pkg/engine"
	"github.com/websecscan/websecscan/pkg/events"
	"github.com/websecscan/websecscan/pkg/finding"
	"github.com/websecscan/websecscan/pkg/governor"
	"github.com/websecscan/websecscan/pkg/runner"
	"github.com/websecscan/websecscan/pkg/scan"
	"github.com/websecscan/websecscan/pkg/sqli"
	"github.com/websecscan/websecscan/pkg/testutil"
	"github.com/websecscan/websecscan/pkg/xss"
)

func runScan(t *testing.T, site testutil.Site) (*engine.Report, *events.Recorder) {
	t.Helper()

	srv := testutil.NewServer(t, site)
	opts := testutil.Options(t, srv.URL+"/")

	rec := &events.Recorder{}
	eng, err := engine.New(opts, engine.DefaultRegistry(), rec, nil)
	require.NoError(t, err)

	report, err := eng.Run(context.Background())
	require.NoError(t, err)
	return report, rec
}

func TestScan_VulnerableSite(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": testutil.HTMLPage(`<html><body>
			<a href="/search?q=start">search</a>
			<a href="/item?id=1">item</a>
		</body></html>`),
		"/search": testutil.ReflectingPage("q"),
		"/item":   testutil.SQLErrorPage("id"),
	}}

	report, rec := runScan(t, site)

	assert.Equal(t, scan.StatusCompleted, report.Status)
	assert.GreaterOrEqual(t, report.Pages, 3)

	rules := map[string]finding.Finding{}
	for _, f := range report.Findings {
		rules[f.RuleID] = f
	}
	assert.Contains(t, rules, xss.RuleID, "reflected XSS should be found")
	assert.Contains(t, rules, sqli.RuleID, "SQL error signature should be found")

	// Critical findings sort before high.
	require.NotEmpty(t, report.Findings)
	assert.Equal(t, finding.SeverityCritical, report.Findings[0].Severity)

	assert.NotEmpty(t, rec.ByType(events.TypeScanStarted))
	assert.NotEmpty(t, rec.ByType(events.TypePageCrawled))
	assert.NotEmpty(t, rec.ByType(events.TypeFindingReported))
	require.Len(t, rec.ByType(events.TypeScanCompleted), 1)
}

func TestScan_CleanSite(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/":       testutil.HTMLPage(`<html><body><a href="/search?q=x">s</a></body></html>`),
		"/search": testutil.EscapingPage("q"),
	}}

	report, _ := runScan(t, site)

	assert.Equal(t, scan.StatusCompleted, report.Status)
	for _, f := range report.Findings {
		// The escaping page still reflects, so a medium-confidence XSS
		// note is acceptable; anything high-confidence is not.
		assert.NotEqual(t, finding.ConfidenceHigh, f.Confidence,
			"clean site produced a high-confidence finding: %+v", f)
	}
}

func TestScan_RobotsDisallowHonored(t *testing.T) {
	hits := map[string]int{}
	site := testutil.Site{
		Robots: "User-agent: *\nDisallow: /private\n",
		Pages: map[string]http.HandlerFunc{
			"/": testutil.HTMLPage(`<a href="/private/x">p</a><a href="/open">o</a>`),
			"/private/x": func(w http.ResponseWriter, r *http.Request) {
				hits["/private/x"]++
			},
			"/open": testutil.HTMLPage("open"),
		},
	}

	report, _ := runScan(t, site)

	assert.Equal(t, scan.StatusCompleted, report.Status)
	assert.Zero(t, hits["/private/x"], "disallowed path must never be fetched")
}

func TestScan_RobotsDisallowCoversAdminSweep(t *testing.T) {
	// /admin is never linked from any page, so only the auth runner's
	// well-known-path sweep could reach it.
	openPanel := testutil.HTMLPage("<html><h1>Admin Panel</h1></html>")
	adminHits := 0
	site := testutil.Site{
		Robots: "User-agent: *\nDisallow: /admin\n",
		Pages: map[string]http.HandlerFunc{
			"/": testutil.HTMLPage("<html><body>home</body></html>"),
			"/admin": func(w http.ResponseWriter, r *http.Request) {
				adminHits++
				openPanel(w, r)
			},
			"/admin/": func(w http.ResponseWriter, r *http.Request) {
				adminHits++
				openPanel(w, r)
			},
		},
	}

	report, _ := runScan(t, site)

	assert.Equal(t, scan.StatusCompleted, report.Status)
	assert.Zero(t, adminHits, "disallowed admin paths must never be requested")
	for _, f := range report.Findings {
		assert.NotEqual(t, authsession.RuleOpenAdmin, f.RuleID,
			"no finding may come from a path the policy forbids probing")
	}
}

func TestScan_RobotsFetchFailureWarnsAndContinues(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": testutil.HTMLPage("<html><body>hello</body></html>"),
	}}

	report, rec := runScan(t, site)

	assert.Equal(t, scan.StatusCompleted, report.Status)
	assert.NotEmpty(t, report.Warnings, "missing robots.txt should be surfaced as a warning")
	assert.NotEmpty(t, rec.ByType(events.TypeWarning))
}

func TestScan_CancelledScanIsIncomplete(t *testing.T) {
	site := testutil.Site{Pages: testutil.LinkedPages("/a", "/b", "/c", "/d")}
	srv := testutil.NewServer(t, site)

	opts := testutil.Options(t, srv.URL+"/")
	rec := &events.Recorder{}
	eng, err := engine.New(opts, engine.DefaultRegistry(), rec, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := eng.Run(ctx)
	require.NoError(t, err, "a cancelled scan still returns its report")
	assert.Equal(t, scan.StatusIncomplete, report.Status,
		"abort must yield incomplete, never failed")
	require.Len(t, rec.ByType(events.TypeScanCompleted), 1)
}

func TestScan_BudgetTripYieldsPartialReport(t *testing.T) {
	// Crawling spends 2 requests, the vulnerable q parameter confirms on
	// request 3, and the r parameter burns the last 2 units. The next
	// acquisition trips the brake mid-runner.
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/":       testutil.HTMLPage(`<html><body><a href="/search?q=x&r=y">s</a></body></html>`),
		"/search": testutil.ReflectingPage("q"),
	}}
	srv := testutil.NewServer(t, site)

	reg := runner.NewRegistry()
	reg.MustRegister(xss.NewTester())

	rec := &events.Recorder{}
	eng, err := engine.New(testutil.Options(t, srv.URL+"/"), reg, rec, nil)
	require.NoError(t, err)
	engine.SetGovernorFactory(eng, func(interval time.Duration) *governor.Governor {
		return governor.NewWithBudget(interval, 5, time.Hour)
	})

	report, err := eng.Run(context.Background())
	require.NoError(t, err, "a budget-stopped scan still returns its report")

	assert.Equal(t, scan.StatusIncomplete, report.Status,
		"hitting the budget must yield incomplete, never failed")
	require.NotEmpty(t, report.Findings, "findings confirmed before the brake must survive")
	assert.Equal(t, xss.RuleID, report.Findings[0].RuleID)
	assert.LessOrEqual(t, report.Requests, int64(5))
	assert.NotEmpty(t, rec.ByType(events.TypeWarning), "the abort must be announced")
	require.Len(t, rec.ByType(events.TypeScanCompleted), 1)
}

func TestScan_Deterministic(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": testutil.HTMLPage(`<html><body>
			<a href="/search?q=x">s</a>
			<a href="/item?id=1">i</a>
		</body></html>`),
		"/search": testutil.ReflectingPage("q"),
		"/item":   testutil.SQLErrorPage("id"),
	}}

	first, _ := runScan(t, site)
	second, _ := runScan(t, site)

	require.Equal(t, len(first.Findings), len(second.Findings))
	for i := range first.Findings {
		assert.Equal(t, first.Findings[i].Fingerprint, second.Findings[i].Fingerprint,
			"finding order and identity must be reproducible")
		assert.Equal(t, first.Findings[i].Severity, second.Findings[i].Severity)
	}
}

func TestScan_DuplicateFindingsAggregated(t *testing.T) {
	// Both links hit the same vulnerable endpoint and parameter; the
	// report must carry it once.
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": testutil.HTMLPage(`<html><body>
			<a href="/search?q=a">one</a>
			<a href="/search?q=b">two</a>
		</body></html>`),
		"/search": testutil.ReflectingPage("q"),
	}}

	report, _ := runScan(t, site)

	count := 0
	for _, f := range report.Findings {
		if f.RuleID == xss.RuleID && f.Location.Parameter == "q" {
			count++
		}
	}
	assert.Equal(t, 1, count, "same rule at same injection point must deduplicate")
}

func TestScan_CookieFindings(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abcdef0123456789abcdef"})
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body>home</body></html>"))
		},
	}}

	report, _ := runScan(t, site)

	rules := map[string]bool{}
	for _, f := range report.Findings {
		rules[f.RuleID] = true
	}
	assert.True(t, rules[authsession.RuleCookieSecure])
	assert.True(t, rules[authsession.RuleCookieHTTPOnly])
	assert.True(t, rules[authsession.RuleCookieSameSite])
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	opts := testutil.Options(t, "https://a.test/")
	opts.MaxDepth = 99

	_, err := engine.New(opts, engine.DefaultRegistry(), nil, nil)
	require.Error(t, err)
}

func TestScan_RequestsAccounted(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": testutil.HTMLPage("<html><body>hello</body></html>"),
	}}

	report, _ := runScan(t, site)
	assert.Greater(t, report.Requests, int64(0))
	assert.Less(t, report.Elapsed, time.Minute)
}
