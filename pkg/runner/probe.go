package runner

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/websecscan/websecscan/pkg/defaults"
	"github.com/websecscan/websecscan/pkg/events"
	"github.com/websecscan/websecscan/pkg/finding"
	"github.com/websecscan/websecscan/pkg/scan"
)

// InjectQueryParam returns endpoint URL with one query parameter set to
// the probe value, leaving every other parameter untouched.
func InjectQueryParam(rawURL, param, value string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(param, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FormRequest builds a request submitting the form with the probe value
// in one field and a benign filler in the rest. GET forms carry the
// values in the query string; everything else posts a urlencoded body.
func FormRequest(ctx context.Context, form scan.Form, field, value string) (*http.Request, error) {
	vals := url.Values{}
	for _, name := range form.FieldNames() {
		if name == field {
			vals.Set(name, value)
		} else {
			vals.Set(name, "test")
		}
	}

	if form.Method == http.MethodGet {
		u, err := url.Parse(form.Action)
		if err != nil {
			return nil, err
		}
		u.RawQuery = vals.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	}

	req, err := http.NewRequestWithContext(ctx, form.Method, form.Action, strings.NewReader(vals.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", defaults.ContentTypeForm)
	return req, nil
}

// Snippet extracts an evidence excerpt around a match, padded with
// surrounding context and capped so reports stay readable.
func Snippet(body string, idx, matchLen int) string {
	start := idx - defaults.EvidenceContext
	if start < 0 {
		start = 0
	}
	end := idx + matchLen + defaults.EvidenceContext
	if end > len(body) {
		end = len(body)
	}
	s := body[start:end]
	if len(s) > defaults.EvidenceMaxLen {
		s = s[:defaults.EvidenceMaxLen]
	}
	return strings.TrimSpace(s)
}

// FindingEvent converts a finding into its progress event.
func FindingEvent(scanID string, f finding.Finding) *events.FindingReported {
	return events.NewFindingReported(scanID, f.RuleID, string(f.Severity), f.Title, f.Location.URL)
}
