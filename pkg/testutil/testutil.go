// Package testutil provides shared test fixtures: canned vulnerable
// HTTP servers and small option helpers used across the package tests.
package testutil

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/websecscan/websecscan/pkg/config"
)

// Options returns validated scan options pointed at the given server,
// tuned for fast tests: minimum legal rate limit and timeout.
func Options(t *testing.T, targetURL string) config.Options {
	t.Helper()
	opts := config.Default()
	opts.TargetURL = targetURL
	opts.RateLimit = 100 * time.Millisecond
	opts.Timeout = 5 * time.Second
	if err := opts.Validate(); err != nil {
		t.Fatalf("fixture options invalid: %v", err)
	}
	return opts
}

// Site describes the fixture server's behavior per path.
type Site struct {
	// Robots is served at /robots.txt when non-empty.
	Robots string

	// Pages maps paths to handlers. "/" should usually be present.
	Pages map[string]http.HandlerFunc
}

// NewServer starts an httptest server for the site and registers
// cleanup.
func NewServer(t *testing.T, site Site) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	// Register /robots.txt explicitly either way; the "/" page pattern
	// would otherwise swallow it and serve HTML with a 200.
	if site.Robots != "" {
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, site.Robots)
		})
	} else {
		mux.HandleFunc("/robots.txt", http.NotFound)
	}
	for path, handler := range site.Pages {
		mux.HandleFunc(path, handler)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// HTMLPage serves a static HTML body.
func HTMLPage(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}
}

// ReflectingPage echoes a query parameter unescaped into the page,
// the classic reflected XSS hole.
func ReflectingPage(param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<html><body><p>You searched for: %s</p></body></html>", r.URL.Query().Get(param))
	}
}

// EscapingPage echoes a query parameter with proper HTML escaping.
func EscapingPage(param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<html><body><p>You searched for: %s</p></body></html>", html.EscapeString(r.URL.Query().Get(param)))
	}
}

// SQLErrorPage leaks a MySQL syntax error whenever the parameter
// contains a quote character.
func SQLErrorPage(param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		v := r.URL.Query().Get(param)
		if strings.ContainsAny(v, `'"`) {
			fmt.Fprint(w, "<html><body>You have an error in your SQL syntax; check the manual that corresponds to your MySQL server version</body></html>")
			return
		}
		fmt.Fprintf(w, "<html><body>result for %s</body></html>", html.EscapeString(v))
	}
}

// TraversalPage serves fake /etc/passwd content whenever the parameter
// contains a dot-dot sequence.
func TraversalPage(param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := r.URL.Query().Get(param)
		if strings.Contains(v, "..") {
			fmt.Fprint(w, "root:x:0:0:root:/root:/bin/bash\ndaemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin\n")
			return
		}
		fmt.Fprintf(w, "file %s not found", html.EscapeString(v))
	}
}

// LinkedPages builds a small site: the root links to each child path,
// and each child serves a trivial page. Useful for crawl depth and
// page cap tests.
func LinkedPages(children ...string) map[string]http.HandlerFunc {
	var links strings.Builder
	for _, child := range children {
		fmt.Fprintf(&links, `<a href="%s">%s</a>`, child, child)
	}
	pages := map[string]http.HandlerFunc{
		"/": HTMLPage("<html><body>" + links.String() + "</body></html>"),
	}
	for _, child := range children {
		pages[child] = HTMLPage(fmt.Sprintf("<html><body>page %s</body></html>", child))
	}
	return pages
}
