package crawler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/websecscan/websecscan/pkg/crawler"
	"github.com/websecscan/websecscan/pkg/robots"
	"github.com/websecscan/websecscan/pkg/scan"
	"github.com/websecscan/websecscan/pkg/testutil"
)

func crawl(t *testing.T, cfg crawler.Config, policy *robots.Policy, site testutil.Site) *crawler.Result {
	t.Helper()
	srv := testutil.NewServer(t, site)
	in := testutil.Input(t, srv.URL+"/")

	return crawler.New(cfg, policy, scan.NewState(), in).Crawl(context.Background())
}

func TestCrawl_FollowsLinksBreadthFirst(t *testing.T) {
	site := testutil.Site{Pages: testutil.LinkedPages("/a", "/b", "/c")}
	res := crawl(t, crawler.Config{MaxDepth: 2, MaxPages: 50}, nil, site)

	if len(res.Visited) != 4 {
		t.Fatalf("visited %v, want root plus 3 children", res.Visited)
	}
	if res.Truncated {
		t.Errorf("crawl should finish naturally, got truncation %q", res.TruncatedReason)
	}
}

func TestCrawl_DepthLimit(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/":   testutil.HTMLPage(`<a href="/l1">1</a>`),
		"/l1": testutil.HTMLPage(`<a href="/l2">2</a>`),
		"/l2": testutil.HTMLPage(`<a href="/l3">3</a>`),
		"/l3": testutil.HTMLPage(`deep`),
	}}
	res := crawl(t, crawler.Config{MaxDepth: 1, MaxPages: 50}, nil, site)

	// Depth 0 is the root, depth 1 is /l1; /l2 is never fetched.
	if len(res.Visited) != 2 {
		t.Fatalf("visited %v, want root and /l1 only", res.Visited)
	}
}

func TestCrawl_PageCap(t *testing.T) {
	site := testutil.Site{Pages: testutil.LinkedPages("/a", "/b", "/c", "/d", "/e")}
	res := crawl(t, crawler.Config{MaxDepth: 3, MaxPages: 2}, nil, site)

	if len(res.Visited) != 2 {
		t.Fatalf("visited %d pages, cap is 2: %v", len(res.Visited), res.Visited)
	}
	if !res.Truncated || res.TruncatedReason != "page limit reached" {
		t.Errorf("expected page-limit truncation, got %q", res.TruncatedReason)
	}
}

func TestCrawl_StaysSameOrigin(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/":   testutil.HTMLPage(`<a href="https://external.test/page">out</a><a href="/in">in</a>`),
		"/in": testutil.HTMLPage(`ok`),
	}}
	res := crawl(t, crawler.Config{MaxDepth: 2, MaxPages: 50}, nil, site)

	for _, u := range res.Visited {
		if u == "https://external.test/page" {
			t.Fatal("crawler left the origin")
		}
	}
	for _, ep := range res.Endpoints {
		if ep.URL == "https://external.test/page" {
			t.Fatal("cross-origin endpoint recorded without AllowExternalLinks")
		}
	}
}

func TestCrawl_HonorsRobotsPolicy(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/":            testutil.HTMLPage(`<a href="/admin/panel">a</a><a href="/public">p</a>`),
		"/admin/panel": testutil.HTMLPage(`hidden`),
		"/public":      testutil.HTMLPage(`open`),
	}}
	policy := robots.Parse("User-agent: *\nDisallow: /admin\n")
	res := crawl(t, crawler.Config{MaxDepth: 2, MaxPages: 50}, policy, site)

	for _, u := range res.Visited {
		if u != "" && len(u) >= 6 && u[len(u)-6:] == "/panel" {
			t.Fatal("disallowed path was fetched")
		}
	}
	if len(res.Visited) != 2 {
		t.Errorf("visited %v, want root and /public", res.Visited)
	}
}

func TestCrawl_CollectsFormsAndParams(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": testutil.HTMLPage(`
			<a href="/search?q=test&page=1">search</a>
			<form action="/login" method="post">
				<input name="user" type="text">
				<input name="pass" type="password">
				<input type="submit">
			</form>`),
		"/search": testutil.HTMLPage(`results`),
	}}
	res := crawl(t, crawler.Config{MaxDepth: 2, MaxPages: 50}, nil, site)

	var form *scan.Form
	for i := range res.Forms {
		if res.Forms[i].Method == http.MethodPost {
			form = &res.Forms[i]
		}
	}
	if form == nil {
		t.Fatal("POST form not collected")
	}
	names := form.FieldNames()
	if len(names) != 2 || names[0] != "user" || names[1] != "pass" {
		t.Errorf("form fields = %v", names)
	}

	foundSearch := false
	for _, ep := range res.Endpoints {
		if ep.Source == scan.SourceLink && len(ep.Params) == 2 {
			foundSearch = true
			if ep.Params[0] != "page" || ep.Params[1] != "q" {
				t.Errorf("params = %v, want sorted [page q]", ep.Params)
			}
		}
	}
	if !foundSearch {
		t.Error("parameterized search endpoint not discovered")
	}
}

func TestCrawl_ScriptEndpoints(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": testutil.HTMLPage(`
			<script>
			fetch('/api/users?limit=10');
			var x = new XMLHttpRequest();
			x.open('POST', '/api/orders');
			</script>`),
	}}
	res := crawl(t, crawler.Config{MaxDepth: 1, MaxPages: 50}, nil, site)

	users, orders := false, false
	for _, ep := range res.Endpoints {
		if ep.Source != scan.SourceScript {
			continue
		}
		if strings.HasSuffix(ep.URL, "/api/users?limit=10") {
			users = true
			if len(ep.Params) != 1 || ep.Params[0] != "limit" {
				t.Errorf("fetch endpoint params = %v, want [limit]", ep.Params)
			}
		}
		if strings.HasSuffix(ep.URL, "/api/orders") {
			orders = true
			if ep.Method != http.MethodPost {
				t.Errorf("xhr endpoint method = %s, want POST", ep.Method)
			}
		}
	}
	if !users || !orders {
		t.Fatalf("script endpoints missing: fetch=%v xhr=%v", users, orders)
	}
}

func TestCrawl_RedirectRecorded(t *testing.T) {
	site := testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/landing", http.StatusFound)
		},
		"/landing": testutil.HTMLPage(`landed`),
	}}
	res := crawl(t, crawler.Config{MaxDepth: 2, MaxPages: 50}, nil, site)

	found := false
	for _, ep := range res.Endpoints {
		if ep.Source == scan.SourceRedirect {
			found = true
		}
	}
	if !found {
		t.Fatal("redirect target not recorded as endpoint")
	}

	landed := false
	for _, u := range res.Visited {
		if len(u) >= 8 && u[len(u)-8:] == "/landing" {
			landed = true
		}
	}
	if !landed {
		t.Error("redirect target was not crawled")
	}
}

func TestCrawl_Deterministic(t *testing.T) {
	site := testutil.Site{Pages: testutil.LinkedPages("/a", "/b", "/c")}
	srv := testutil.NewServer(t, site)

	run := func() *crawler.Result {
		in := testutil.Input(t, srv.URL+"/")
		return crawler.New(crawler.Config{MaxDepth: 2, MaxPages: 50}, nil, scan.NewState(), in).Crawl(context.Background())
	}

	first, second := run(), run()
	if len(first.Endpoints) != len(second.Endpoints) {
		t.Fatalf("endpoint counts differ: %d vs %d", len(first.Endpoints), len(second.Endpoints))
	}
	for i := range first.Endpoints {
		if first.Endpoints[i].URL != second.Endpoints[i].URL {
			t.Errorf("endpoint order differs at %d: %q vs %q", i, first.Endpoints[i].URL, second.Endpoints[i].URL)
		}
	}
}
