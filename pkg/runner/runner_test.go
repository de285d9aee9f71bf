package runner_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/websecscan/websecscan/pkg/finding"
	"github.com/websecscan/websecscan/pkg/governor"
	"github.com/websecscan/websecscan/pkg/runner"
	"github.com/websecscan/websecscan/pkg/safety"
	"github.com/websecscan/websecscan/pkg/scan"
	"github.com/websecscan/websecscan/pkg/testutil"
)

type fakeRunner struct{ name string }

func (f *fakeRunner) Name() string { return f.name }
func (f *fakeRunner) Run(ctx context.Context, in runner.Input) ([]finding.Finding, error) {
	return nil, nil
}

func TestRegistry_OrderAndDuplicates(t *testing.T) {
	reg := runner.NewRegistry()
	for _, name := range []string{"xss", "sqli", "traversal"} {
		if err := reg.Register(&fakeRunner{name}); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}

	if err := reg.Register(&fakeRunner{"xss"}); err == nil {
		t.Fatal("duplicate name must be rejected")
	}

	names := reg.Names()
	if strings.Join(names, ",") != "xss,sqli,traversal" {
		t.Errorf("Names() = %v, want registration order", names)
	}

	if _, ok := reg.Get("sqli"); !ok {
		t.Error("Get(sqli) should find the runner")
	}
	if _, ok := reg.Get("ghost"); ok {
		t.Error("Get(ghost) should miss")
	}
}

func TestInput_Do_StampsUserAgent(t *testing.T) {
	var gotUA string
	srv := testutil.NewServer(t, testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
		},
	}})

	in := testutil.Input(t, srv.URL+"/")
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	resp, err := in.Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if !strings.HasPrefix(gotUA, "websecscan/") {
		t.Errorf("User-Agent = %q, want scanner identity", gotUA)
	}
}

func TestInput_Do_PacesRequests(t *testing.T) {
	srv := testutil.NewServer(t, testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": func(w http.ResponseWriter, r *http.Request) {},
	}})

	in := testutil.Input(t, srv.URL+"/")
	in.Governor = governor.New(80 * time.Millisecond)
	in.Guard = safety.NewSupervisor(in.Governor)

	start := time.Now()
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
		resp, err := in.Do(context.Background(), req)
		if err != nil {
			t.Fatalf("Do %d: %v", i, err)
		}
		resp.Body.Close()
	}

	if elapsed := time.Since(start); elapsed < 140*time.Millisecond {
		t.Errorf("3 requests in %v, expected pacing of ~160ms", elapsed)
	}
}

func TestInput_Do_RefusesAfterAbort(t *testing.T) {
	srv := testutil.NewServer(t, testutil.Site{Pages: map[string]http.HandlerFunc{
		"/": func(w http.ResponseWriter, r *http.Request) {},
	}})

	in := testutil.Input(t, srv.URL+"/")
	in.Guard.Abort("test abort")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	if _, err := in.Do(context.Background(), req); !errors.Is(err, safety.ErrEmergencyAbort) {
		t.Fatalf("expected ErrEmergencyAbort, got %v", err)
	}
}

func TestIsAbort(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{safety.ErrEmergencyAbort, true},
		{context.Canceled, true},
		{context.DeadlineExceeded, true},
		{errors.New("connection refused"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := runner.IsAbort(tc.err); got != tc.want {
			t.Errorf("IsAbort(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestInjectQueryParam(t *testing.T) {
	got, err := runner.InjectQueryParam("https://a.test/s?q=old&page=2", "q", "probe value")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "q=probe+value") || !strings.Contains(got, "page=2") {
		t.Errorf("InjectQueryParam = %q", got)
	}
}

func TestFormRequest(t *testing.T) {
	form := scan.Form{
		Action: "https://a.test/submit",
		Method: http.MethodPost,
		Fields: []scan.FormField{{Name: "a", Type: "text"}, {Name: "b", Type: "text"}},
	}
	req, err := runner.FormRequest(context.Background(), form, "b", "probe")
	if err != nil {
		t.Fatal(err)
	}
	if req.Method != http.MethodPost {
		t.Errorf("Method = %s", req.Method)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", ct)
	}

	getForm := form
	getForm.Method = http.MethodGet
	req, err = runner.FormRequest(context.Background(), getForm, "b", "probe")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(req.URL.RawQuery, "b=probe") {
		t.Errorf("GET form query = %q", req.URL.RawQuery)
	}
}

func TestSnippet_Caps(t *testing.T) {
	body := strings.Repeat("x", 1000)
	s := runner.Snippet(body, 500, 300)
	if len(s) > 200 {
		t.Errorf("snippet length %d exceeds cap", len(s))
	}
}
