package finding

// Confidence represents how certain a runner is about a finding.
// Follows the Burp Suite / OWASP ZAP triage convention.
type Confidence string

const (
	// ConfidenceHigh indicates definitive confirmation, e.g. an exact
	// un-encoded payload reflection or an engine-specific error string.
	ConfidenceHigh Confidence = "high"

	// ConfidenceMedium indicates a probable finding, e.g. a partially
	// encoded reflection.
	ConfidenceMedium Confidence = "medium"

	// ConfidenceLow indicates a possible finding requiring manual review.
	ConfidenceLow Confidence = "low"
)

// Score returns numeric priority for comparison (higher = more confident).
func (c Confidence) Score() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Downgrade returns the confidence one tier lower. Used when a signal
// is only observed inside a known third-party or minified resource.
func (c Confidence) Downgrade() Confidence {
	switch c {
	case ConfidenceHigh:
		return ConfidenceMedium
	case ConfidenceMedium:
		return ConfidenceLow
	default:
		return ConfidenceLow
	}
}

// MaxConfidence returns the higher of two confidence levels.
func MaxConfidence(a, b Confidence) Confidence {
	if a.Score() >= b.Score() {
		return a
	}
	return b
}
