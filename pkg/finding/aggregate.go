package finding

import (
	"sort"

	"github.com/websecscan/websecscan/pkg/defaults"
)

// Aggregate deduplicates findings by fingerprint and returns a
// deterministic ordering.
//
// Findings sharing a fingerprint are merged into one record: the
// highest severity wins, confidence is the maximum observed, and
// evidence snippets are unioned up to a fixed cap. The first-seen ID
// and title are kept so repeated aggregation is idempotent.
//
// Output is ordered by severity (highest first), then normalized
// location, then rule ID, making scan output stable across runs.
func Aggregate(findings []Finding) []Finding {
	if len(findings) == 0 {
		return nil
	}

	merged := make(map[string]*Finding, len(findings))
	order := make([]string, 0, len(findings))

	for _, f := range findings {
		fp := f.Fingerprint
		if fp == "" {
			fp = FingerprintOf(f.RuleID, f.Location)
			f.Fingerprint = fp
		}

		existing, ok := merged[fp]
		if !ok {
			clone := f
			clone.Evidence = append([]string(nil), f.Evidence...)
			merged[fp] = &clone
			order = append(order, fp)
			continue
		}

		existing.Severity = Max(existing.Severity, f.Severity)
		existing.Confidence = MaxConfidence(existing.Confidence, f.Confidence)
		existing.Evidence = unionEvidence(existing.Evidence, f.Evidence)
	}

	out := make([]Finding, 0, len(order))
	for _, fp := range order {
		out = append(out, *merged[fp])
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity.Score() != out[j].Severity.Score() {
			return out[i].Severity.Score() > out[j].Severity.Score()
		}
		li, lj := NormalizeLocation(out[i].Location), NormalizeLocation(out[j].Location)
		if li != lj {
			return li < lj
		}
		return out[i].RuleID < out[j].RuleID
	})

	return out
}

// unionEvidence merges evidence lists, dropping duplicates and capping
// the total so one noisy endpoint cannot bloat a finding.
func unionEvidence(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := a
	for _, e := range a {
		seen[e] = true
	}
	for _, e := range b {
		if len(out) >= defaults.EvidenceMaxPerFinding {
			break
		}
		if e != "" && !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	if len(out) > defaults.EvidenceMaxPerFinding {
		out = out[:defaults.EvidenceMaxPerFinding]
	}
	return out
}
