package finding

// Severity represents the severity level of a security finding.
// All values are lowercase strings, the convention shared by every
// runner package.
type Severity string

const (
	// Critical represents immediate system compromise (SQLi with data access).
	SeverityCritical Severity = "critical"

	// High represents significant impact requiring prompt fix
	// (reflected XSS with exact echo, exposed system files).
	SeverityHigh Severity = "high"

	// Medium represents moderate impact (CSRF, weak cookie attributes).
	SeverityMedium Severity = "medium"

	// Low represents limited impact (verbose errors, minor info leak).
	SeverityLow Severity = "low"

	// Info represents informational findings with no direct impact.
	SeverityInfo Severity = "info"
)

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo:
		return true
	}
	return false
}

// Score returns a numeric score for sorting and comparison.
// Critical=5, High=4, Medium=3, Low=2, Info=1, Unknown=0.
func (s Severity) Score() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// Max returns the higher of two severities.
func Max(a, b Severity) Severity {
	if a.Score() >= b.Score() {
		return a
	}
	return b
}
