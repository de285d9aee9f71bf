// Package config holds scan options, their validation rules, and YAML
// file loading. Validation runs before a scan starts; the engine never
// sees an invalid Options value.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/websecscan/websecscan/pkg/defaults"
	"github.com/websecscan/websecscan/pkg/duration"
)

// Options holds all engine configuration. File loading goes through
// fileConfig; Options itself is the in-memory form.
type Options struct {
	// TargetURL is the root URL the scan starts from.
	TargetURL string

	// MaxDepth bounds breadth-first traversal depth (1-5).
	MaxDepth int

	// MaxPages caps the number of pages fetched by the crawler (1-200).
	MaxPages int

	// RateLimit is the minimum spacing between any two outbound
	// requests, shared by the crawler and every test runner (100ms-5s).
	RateLimit time.Duration

	// Timeout is the per-request timeout (5s-30s).
	Timeout time.Duration

	// RespectRobotsTxt honors Disallow rules from the target's
	// robots.txt. Disabling it requires RobotsOverrideConsent.
	RespectRobotsTxt bool

	// RobotsOverrideConsent is the caller's explicit acknowledgement
	// that robots.txt rules may be ignored. Without it,
	// RespectRobotsTxt=false is a configuration error.
	RobotsOverrideConsent bool

	// AllowExternalLinks lets the crawler enqueue cross-origin URLs.
	AllowExternalLinks bool
}

// Default returns Options with production defaults applied.
// TargetURL is left empty; callers must set it.
func Default() Options {
	return Options{
		MaxDepth:         defaults.MaxDepth,
		MaxPages:         defaults.MaxPages,
		RateLimit:        duration.RateLimitDefault,
		Timeout:          duration.RequestDefault,
		RespectRobotsTxt: true,
	}
}

// Validate checks every option against its allowed range.
// All violations are reported as errors wrapping ErrInvalidConfig;
// a scan must not start if Validate returns non-nil.
func (o *Options) Validate() error {
	if o.TargetURL == "" {
		return fmt.Errorf("%w: target_url is required", ErrMissingRequired)
	}
	if o.MaxDepth < defaults.DepthMin || o.MaxDepth > defaults.DepthMax {
		return fmt.Errorf("%w: max_depth %d outside [%d,%d]",
			ErrInvalidConfig, o.MaxDepth, defaults.DepthMin, defaults.DepthMax)
	}
	if o.MaxPages < defaults.PagesMin || o.MaxPages > defaults.PagesMax {
		return fmt.Errorf("%w: max_pages %d outside [%d,%d]",
			ErrInvalidConfig, o.MaxPages, defaults.PagesMin, defaults.PagesMax)
	}
	if o.RateLimit < duration.RateLimitMin || o.RateLimit > duration.RateLimitMax {
		return fmt.Errorf("%w: rate_limit %v outside [%v,%v]",
			ErrInvalidConfig, o.RateLimit, duration.RateLimitMin, duration.RateLimitMax)
	}
	if o.Timeout < duration.RequestMin || o.Timeout > duration.RequestMax {
		return fmt.Errorf("%w: timeout %v outside [%v,%v]",
			ErrInvalidConfig, o.Timeout, duration.RequestMin, duration.RequestMax)
	}
	if !o.RespectRobotsTxt && !o.RobotsOverrideConsent {
		return fmt.Errorf("%w: disabling robots.txt requires robots_override_consent",
			ErrInvalidConfig)
	}
	return nil
}

// AggressiveRate reports whether the configured spacing is below the
// soft floor. The engine emits a warning event for such configs but
// still runs them.
func (o *Options) AggressiveRate() bool {
	return o.RateLimit < duration.RateLimitSoftFloor
}

// fileConfig is the YAML file schema. Durations are strings in Go
// syntax ("500ms", "10s"); pointer fields distinguish "absent" from
// zero so unset keys keep their defaults.
type fileConfig struct {
	TargetURL             *string `yaml:"target_url"`
	MaxDepth              *int    `yaml:"max_depth"`
	MaxPages              *int    `yaml:"max_pages"`
	RateLimit             *string `yaml:"rate_limit"`
	Timeout               *string `yaml:"timeout"`
	RespectRobotsTxt      *bool   `yaml:"respect_robots_txt"`
	RobotsOverrideConsent *bool   `yaml:"robots_override_consent"`
	AllowExternalLinks    *bool   `yaml:"allow_external_links"`
}

// LoadFile reads Options from a YAML file, filling unset fields with
// defaults before validating.
func LoadFile(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return opts, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if fc.TargetURL != nil {
		opts.TargetURL = *fc.TargetURL
	}
	if fc.MaxDepth != nil {
		opts.MaxDepth = *fc.MaxDepth
	}
	if fc.MaxPages != nil {
		opts.MaxPages = *fc.MaxPages
	}
	if fc.RateLimit != nil {
		d, err := time.ParseDuration(*fc.RateLimit)
		if err != nil {
			return opts, fmt.Errorf("%w: rate_limit: %v", ErrInvalidConfig, err)
		}
		opts.RateLimit = d
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return opts, fmt.Errorf("%w: timeout: %v", ErrInvalidConfig, err)
		}
		opts.Timeout = d
	}
	if fc.RespectRobotsTxt != nil {
		opts.RespectRobotsTxt = *fc.RespectRobotsTxt
	}
	if fc.RobotsOverrideConsent != nil {
		opts.RobotsOverrideConsent = *fc.RobotsOverrideConsent
	}
	if fc.AllowExternalLinks != nil {
		opts.AllowExternalLinks = *fc.AllowExternalLinks
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}
