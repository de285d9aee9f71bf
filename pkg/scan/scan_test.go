package scan

import (
	"testing"
)

func TestNewTarget(t *testing.T) {
	target, err := NewTarget("https://app.test:8443/start?x=1")
	if err != nil {
		t.Fatalf("NewTarget: %v", err)
	}
	if target.Origin != "https://app.test:8443" {
		t.Errorf("Origin = %q", target.Origin)
	}

	if !target.SameOrigin("https://app.test:8443/other") {
		t.Error("same host and port should be same origin")
	}
	if target.SameOrigin("http://app.test:8443/other") {
		t.Error("scheme change breaks origin")
	}
	if target.SameOrigin("https://evil.test/") {
		t.Error("different host is cross-origin")
	}
}

func TestNewTarget_Rejections(t *testing.T) {
	for _, raw := range []string{"ftp://x.test/", "not a url at://all", "/relative", ""} {
		if _, err := NewTarget(raw); err == nil {
			t.Errorf("NewTarget(%q) should fail", raw)
		}
	}
}

func TestForm_StateChanging(t *testing.T) {
	if (Form{Method: "GET"}).StateChanging() {
		t.Error("GET form is not state-changing")
	}
	for _, m := range []string{"POST", "PUT", "DELETE", "PATCH"} {
		if !(Form{Method: m}).StateChanging() {
			t.Errorf("%s form is state-changing", m)
		}
	}
}

func TestLooksLikeSessionCookie(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"session_id", true},
		{"PHPSESSID", true},
		{"auth_token", true},
		{"JWT", true},
		{"remember_login", true},
		{"theme", false},
		{"locale", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := LooksLikeSessionCookie(tc.name); got != tc.want {
			t.Errorf("LooksLikeSessionCookie(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestState_MarkVisited(t *testing.T) {
	s := NewState()

	if !s.MarkVisited("https://a.test/") {
		t.Fatal("first visit should succeed")
	}
	if s.MarkVisited("https://a.test/") {
		t.Fatal("revisit must be rejected")
	}
	if s.Pages() != 1 {
		t.Errorf("Pages = %d, want 1", s.Pages())
	}
	if !s.Visited("https://a.test/") {
		t.Error("URL should be recorded as visited")
	}
}

func TestState_FrozenAfterFinish(t *testing.T) {
	s := NewState()
	s.MarkVisited("https://a.test/")
	s.Finish(StatusCompleted)

	if s.MarkVisited("https://a.test/more") {
		t.Error("finished state must reject new visits")
	}
	if s.Pages() != 1 {
		t.Errorf("Pages = %d, want 1 after freeze", s.Pages())
	}
}

func TestState_FirstTerminalStatusWins(t *testing.T) {
	s := NewState()
	if s.Status() != StatusRunning {
		t.Fatalf("fresh state should be running, got %s", s.Status())
	}

	s.Finish(StatusIncomplete)
	s.Finish(StatusCompleted)
	if s.Status() != StatusIncomplete {
		t.Errorf("Status = %s, first terminal status must stick", s.Status())
	}

	// Non-terminal values are ignored outright.
	s2 := NewState()
	s2.Finish(StatusRunning)
	if s2.Status() != StatusRunning {
		t.Errorf("Finish(running) should be a no-op")
	}
}

func TestState_VisitedURLsSorted(t *testing.T) {
	s := NewState()
	for _, u := range []string{"https://a.test/c", "https://a.test/a", "https://a.test/b"} {
		s.MarkVisited(u)
	}
	urls := s.VisitedURLs()
	if len(urls) != 3 || urls[0] != "https://a.test/a" || urls[2] != "https://a.test/c" {
		t.Errorf("VisitedURLs not sorted: %v", urls)
	}
}
