package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/websecscan/websecscan/pkg/engine"
	"github.com/websecscan/websecscan/pkg/events"
	"github.com/websecscan/websecscan/pkg/finding"
	"github.com/websecscan/websecscan/pkg/ui"
)

// ConsoleSink renders events as styled single-line progress output.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSink creates a ConsoleSink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Emit implements events.Sink.
func (c *ConsoleSink) Emit(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := e.(type) {
	case *events.ScanStarted:
		fmt.Fprintf(c.w, "%s %s (depth=%d pages=%d rate=%dms)\n",
			ui.StylePhase.Render("scan"), ev.Target, ev.MaxDepth, ev.MaxPages, ev.RateLimit)
	case *events.PageCrawled:
		fmt.Fprintf(c.w, "%s [%d] %s (%d links, %d forms)\n",
			ui.StyleInfo.Render("crawl"), ev.StatusCode, ev.URL, ev.Links, ev.Forms)
	case *events.RunnerStarted:
		fmt.Fprintf(c.w, "%s %s against %d endpoints\n",
			ui.StylePhase.Render("test"), ev.Runner, ev.Endpoints)
	case *events.FindingReported:
		fmt.Fprintf(c.w, "%s %s %s at %s\n",
			severityStyle(ev.Severity).Render(strings.ToUpper(ev.Severity)), ev.RuleID, ev.Title, ev.URL)
	case *events.Warning:
		fmt.Fprintf(c.w, "%s %s\n", ui.StyleWarning.Render("warn"), ev.Message)
	case *events.ScanError:
		fmt.Fprintf(c.w, "%s %s\n", ui.StyleError.Render("error"), ev.Message)
	case *events.ScanCompleted:
		style := ui.StyleSuccess
		if ev.Status != "completed" {
			style = ui.StyleWarning
		}
		fmt.Fprintf(c.w, "%s status=%s pages=%d requests=%d findings=%d in %s\n",
			style.Render("done"), ev.Status, ev.Pages, ev.Requests, ev.Findings,
			(time.Duration(ev.Elapsed) * time.Millisecond).Round(time.Millisecond))
	}
}

func severityStyle(severity string) lipglossStyle {
	switch finding.Severity(severity) {
	case finding.SeverityCritical:
		return ui.StyleCritical
	case finding.SeverityHigh:
		return ui.StyleHigh
	case finding.SeverityMedium:
		return ui.StyleMedium
	default:
		return ui.StyleLow
	}
}

// lipglossStyle narrows the style interface so severityStyle can return
// any of the ui styles.
type lipglossStyle interface {
	Render(...string) string
}

// printReport writes the final summary table.
func printReport(w io.Writer, report *engine.Report, elapsed time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", ui.StylePhase.Render("report"), report.ScanID)
	fmt.Fprintf(w, "  target:   %s\n", report.Target)
	fmt.Fprintf(w, "  status:   %s\n", report.Status)
	fmt.Fprintf(w, "  pages:    %d crawled, %d endpoints\n", report.Pages, report.Endpoints)
	fmt.Fprintf(w, "  requests: %d in %s\n", report.Requests, elapsed.Round(time.Millisecond))

	if len(report.Findings) == 0 {
		fmt.Fprintf(w, "  findings: %s\n", ui.StyleSuccess.Render("none"))
		return
	}

	fmt.Fprintf(w, "  findings: %d\n\n", len(report.Findings))
	for _, f := range report.Findings {
		fmt.Fprintf(w, "  %s %s\n", severityStyle(string(f.Severity)).Render(strings.ToUpper(string(f.Severity))), f.Title)
		fmt.Fprintf(w, "      %s %s", f.Location.Method, f.Location.URL)
		if f.Location.Parameter != "" {
			fmt.Fprintf(w, " (parameter %q)", f.Location.Parameter)
		}
		fmt.Fprintln(w)
		for _, ev := range f.Evidence {
			fmt.Fprintf(w, "      evidence: %s\n", ui.StyleInfo.Render(ev))
		}
	}
}
