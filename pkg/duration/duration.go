// Package duration provides canonical time constants for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for all time-based configuration.
//
// Usage:
//
//	ctx, cancel := context.WithTimeout(ctx, duration.ScanMax)
//	if opts.RateLimit < duration.RateLimitSoftFloor { ... }
//
// DO NOT use hardcoded time.Duration values like `30 * time.Second` anywhere.
// Instead, reference the appropriate constant from this package.
package duration

import "time"

// ============================================================================
// HTTP REQUEST TIMEOUTS
// ============================================================================

const (
	// RequestDefault is the default per-request timeout (10s)
	RequestDefault = 10 * time.Second

	// RequestMin and RequestMax bound the configurable timeout (5s-30s)
	RequestMin = 5 * time.Second
	RequestMax = 30 * time.Second

	// RobotsFetch is the short timeout for the single robots.txt fetch (5s)
	RobotsFetch = 5 * time.Second
)

// ============================================================================
// RATE GOVERNOR
// ============================================================================

const (
	// RateLimitDefault is the default inter-request spacing (1s)
	RateLimitDefault = 1 * time.Second

	// RateLimitMin and RateLimitMax bound the configurable spacing
	RateLimitMin = 100 * time.Millisecond
	RateLimitMax = 5 * time.Second

	// RateLimitSoftFloor triggers a warning event when configured below (500ms)
	RateLimitSoftFloor = 500 * time.Millisecond
)

// ============================================================================
// SCAN LIFETIME
// ============================================================================

const (
	// BudgetMaxElapsed is the emergency-brake wall-clock ceiling (30min).
	// Independent of any configured limit.
	BudgetMaxElapsed = 30 * time.Minute

	// ScanMax is the recommended outer context deadline for a full scan (30min)
	ScanMax = 30 * time.Minute
)

// ============================================================================
// CONNECTION TUNING
// ============================================================================

const (
	// DialTimeout is for establishing TCP connections (10s)
	DialTimeout = 10 * time.Second

	// TLSHandshake is for the TLS handshake (10s)
	TLSHandshake = 10 * time.Second

	// IdleConn is how long idle connections stay pooled (90s)
	IdleConn = 90 * time.Second
)
