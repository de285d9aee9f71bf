// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all runtime configuration defaults.
//
// Usage:
//
//	opts.MaxPages = defaults.MaxPages
//	req.Header.Set("Content-Type", defaults.ContentTypeForm)
//
// DO NOT use hardcoded values like `MaxPages: 50` anywhere.
// Instead, reference the appropriate constant from this package.
package defaults

// Version is the current WebSecScan version
const Version = "1.2.0"

// ============================================================================
// CRAWL BOUNDS
// ============================================================================
//
// Hard limits on traversal. The Min/Max pairs bound what configuration
// validation accepts; the bare constants are the defaults.
// ============================================================================

const (
	// MaxDepth is the default breadth-first traversal depth (2)
	MaxDepth = 2

	// DepthMin and DepthMax bound the configurable depth (1-5)
	DepthMin = 1
	DepthMax = 5

	// MaxPages is the default page cap per scan (50)
	MaxPages = 50

	// PagesMin and PagesMax bound the configurable page cap (1-200)
	PagesMin = 1
	PagesMax = 200
)

// ============================================================================
// EMERGENCY BRAKE
// ============================================================================
//
// Configuration-independent ceilings. When either is crossed the engine
// stops issuing requests and returns partial results with status
// incomplete. These are NOT tunable through scan options.
// ============================================================================

const (
	// BudgetMaxRequests is the hard request ceiling per scan (500)
	BudgetMaxRequests = 500
)

// ============================================================================
// CONCURRENCY SETTINGS
// ============================================================================

const (
	// ConcurrencyMinimal is for single-owner loops like the crawler (1)
	ConcurrencyMinimal = 1

	// ConcurrencyRunners is the number of test runners executing in
	// parallel; throughput is still bounded by the shared governor (5)
	ConcurrencyRunners = 5
)

// ============================================================================
// BUFFER / EVIDENCE SIZES
// ============================================================================

const (
	// EvidenceContext is how many bytes of response context are kept
	// around a signal match (50)
	EvidenceContext = 50

	// EvidenceMaxLen caps a single evidence snippet (200)
	EvidenceMaxLen = 200

	// EvidenceMaxPerFinding caps merged evidence entries per finding (5)
	EvidenceMaxPerFinding = 5

	// ChannelSmall is for typical buffered channels (100)
	ChannelSmall = 100
)

// ============================================================================
// HTTP CONVENTIONS
// ============================================================================

const (
	// ContentTypeForm is the form-urlencoded content type
	ContentTypeForm = "application/x-www-form-urlencoded"

	// ContentTypeJSON is the JSON content type
	ContentTypeJSON = "application/json"

	// SessionTokenMinLen is the minimum acceptable session token length
	// in characters; shorter values are flagged as low-entropy (16)
	SessionTokenMinLen = 16
)
