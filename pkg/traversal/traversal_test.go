package traversal_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/websecscan/websecscan/pkg/finding"
	"github.com/websecscan/websecscan/pkg/scan"
	"github.com/websecscan/websecscan/pkg/testutil"
	"github.com/websecscan/websecscan/pkg/traversal"
)

func TestRun_PasswdDisclosure(t *testing.T) {
	srv := testutil.NewServer(t, testutil.Site{Pages: map[string]http.HandlerFunc{
		"/view": testutil.TraversalPage("file"),
	}})

	in := testutil.Input(t, srv.URL+"/")
	in.Endpoints = []scan.DiscoveredEndpoint{{
		URL:    srv.URL + "/view?file=readme.txt",
		Method: http.MethodGet,
		Params: []string{"file"},
	}}

	findings, err := traversal.NewTester().Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}

	f := findings[0]
	if f.RuleID != traversal.RuleID {
		t.Errorf("RuleID = %q", f.RuleID)
	}
	if f.Severity != finding.SeverityHigh {
		t.Errorf("Severity = %s, want high", f.Severity)
	}
	if f.Confidence != finding.ConfidenceHigh {
		t.Errorf("Confidence = %s, file sentinel is definitive", f.Confidence)
	}
	if len(f.Evidence) == 0 || !strings.Contains(f.Evidence[0], "root:") {
		t.Errorf("evidence should carry the passwd sentinel: %v", f.Evidence)
	}
}

func TestRun_WindowsSentinel(t *testing.T) {
	srv := testutil.NewServer(t, testutil.Site{Pages: map[string]http.HandlerFunc{
		"/view": func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Query().Get("file"), "win.ini") {
				fmt.Fprint(w, "; for 16-bit app support\n[fonts]\n[extensions]\n")
				return
			}
			fmt.Fprint(w, "not found")
		},
	}})

	in := testutil.Input(t, srv.URL+"/")
	in.Endpoints = []scan.DiscoveredEndpoint{{
		URL:    srv.URL + "/view?file=a.txt",
		Method: http.MethodGet,
		Params: []string{"file"},
	}}

	findings, err := traversal.NewTester().Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if !strings.Contains(findings[0].Title, "win.ini") {
		t.Errorf("Title = %q, want win.ini target named", findings[0].Title)
	}
}

func TestRun_ControlGate(t *testing.T) {
	// Page always prints passwd-like content regardless of input.
	srv := testutil.NewServer(t, testutil.Site{Pages: map[string]http.HandlerFunc{
		"/unix-help": testutil.HTMLPage("<html><body><pre>root:x:0:0:root:/root:/bin/bash</pre> is the usual first passwd line</body></html>"),
	}})

	in := testutil.Input(t, srv.URL+"/")
	in.Endpoints = []scan.DiscoveredEndpoint{{
		URL:    srv.URL + "/unix-help?file=x",
		Method: http.MethodGet,
		Params: []string{"file"},
	}}

	findings, err := traversal.NewTester().Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("control gate failed: %+v", findings)
	}
}

func TestRun_CleanEndpoint(t *testing.T) {
	srv := testutil.NewServer(t, testutil.Site{Pages: map[string]http.HandlerFunc{
		"/view": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "no such file")
		},
	}})

	in := testutil.Input(t, srv.URL+"/")
	in.Endpoints = []scan.DiscoveredEndpoint{{
		URL:    srv.URL + "/view?file=a.txt",
		Method: http.MethodGet,
		Params: []string{"file"},
	}}

	findings, err := traversal.NewTester().Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(findings) != 0 {
		t.Fatalf("clean endpoint produced findings: %+v", findings)
	}
}
