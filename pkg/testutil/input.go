package testutil

import (
	"testing"
	"time"

	"github.com/websecscan/websecscan/pkg/governor"
	"github.com/websecscan/websecscan/pkg/httpclient"
	"github.com/websecscan/websecscan/pkg/runner"
	"github.com/websecscan/websecscan/pkg/safety"
	"github.com/websecscan/websecscan/pkg/scan"
)

// Input builds a runner.Input against the given target URL with a fast
// governor, so runner tests exercise the real request path without
// waiting out production pacing.
func Input(t *testing.T, targetURL string) runner.Input {
	t.Helper()

	target, err := scan.NewTarget(targetURL)
	if err != nil {
		t.Fatalf("fixture target: %v", err)
	}

	gov := governor.New(time.Millisecond)
	return runner.Input{
		ScanID:   "test-scan",
		Target:   target,
		Client:   httpclient.New(httpclient.DefaultConfig()),
		Governor: gov,
		Guard:    safety.NewSupervisor(gov),
	}
}
