// Package httpclient provides a shared, tuned HTTP client factory.
// The crawler and every test runner go through clients built here so
// connection pooling, redirect policy and timeouts stay consistent
// across the whole engine.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/websecscan/websecscan/pkg/duration"
)

// Config holds HTTP client configuration options.
type Config struct {
	// Timeout is the total per-request timeout (default: 10s)
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification.
	// Scanners routinely probe staging hosts with self-signed certs.
	InsecureSkipVerify bool

	// MaxIdleConns is the maximum number of idle connections (default: 100)
	MaxIdleConns int

	// MaxConnsPerHost caps connections per host (default: 2; the governor
	// serializes requests, so the pool stays tiny by design)
	MaxConnsPerHost int

	// FollowRedirects enables redirect following. Off by default: the
	// crawler records Location targets as discovered endpoints instead.
	FollowRedirects bool
}

// DefaultConfig returns defaults tuned for a rate-governed scan:
// one outstanding request at a time, bodies read with iohelper limits.
func DefaultConfig() Config {
	return Config{
		Timeout:            duration.RequestDefault,
		InsecureSkipVerify: true,
		MaxIdleConns:       100,
		MaxConnsPerHost:    2,
	}
}

// New creates a new HTTP client with the given configuration.
func New(cfg Config) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = duration.RequestDefault
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 2
	}

	dialer := &net.Dialer{
		Timeout:   duration.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     duration.IdleConn,

		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		TLSHandshakeTimeout:   duration.TLSHandshake,

		DialContext: dialer.DialContext,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}

	if !cfg.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			// The redirect response itself is the evidence; don't chase it.
			return http.ErrUseLastResponse
		}
	}

	return client
}

// WithTimeout returns a Config based on DefaultConfig with the given timeout.
func WithTimeout(timeout time.Duration) Config {
	cfg := DefaultConfig()
	cfg.Timeout = timeout
	return cfg
}
