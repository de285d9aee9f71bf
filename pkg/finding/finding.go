package finding

import (
	"time"

	"github.com/google/uuid"
)

// Location pinpoints where a finding was observed.
type Location struct {
	Method    string `json:"method"`
	URL       string `json:"url"`
	Parameter string `json:"parameter,omitempty"`
}

// Finding is a single deduplicable security finding.
type Finding struct {
	ID            string     `json:"id"`
	RuleID        string     `json:"rule_id"`
	OWASPCategory string     `json:"owasp_category,omitempty"`
	Severity      Severity   `json:"severity"`
	Confidence    Confidence `json:"confidence"`
	Title         string     `json:"title"`
	Evidence      []string   `json:"evidence,omitempty"`
	Location      Location   `json:"location"`
	Remediation   string     `json:"remediation,omitempty"`
	Fingerprint   string     `json:"fingerprint"`
	DetectedAt    time.Time  `json:"detected_at"`
}

// New constructs a Finding with a fresh ID and a computed fingerprint.
// Runners should always build findings through New so identity stays
// consistent for aggregation.
func New(ruleID, owasp string, sev Severity, conf Confidence, title, evidence string, loc Location, remediation string) Finding {
	f := Finding{
		ID:            uuid.NewString(),
		RuleID:        ruleID,
		OWASPCategory: owasp,
		Severity:      sev,
		Confidence:    conf,
		Title:         title,
		Location:      loc,
		Remediation:   remediation,
		Fingerprint:   FingerprintOf(ruleID, loc),
		DetectedAt:    time.Now(),
	}
	if evidence != "" {
		f.Evidence = []string{evidence}
	}
	return f
}
