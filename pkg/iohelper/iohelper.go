// Package iohelper provides helper functions for I/O operations,
// particularly for safely reading HTTP response bodies with limits.
package iohelper

import "io"

// Standard body size limits for different use cases
const (
	// SmallMaxBodySize is for robots.txt, headers, status pages (8KB)
	SmallMaxBodySize int64 = 8 * 1024

	// DefaultMaxBodySize is for general page responses (1MB)
	DefaultMaxBodySize int64 = 1024 * 1024
)

// ReadBody reads from an io.Reader with a size limit.
// If r is nil, returns an empty slice and no error.
// This prevents memory exhaustion from maliciously large responses.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadBodyDefault reads from an io.Reader with the default 1MB limit.
func ReadBodyDefault(r io.Reader) ([]byte, error) {
	return ReadBody(r, DefaultMaxBodySize)
}

// ReadBodySmall reads from an io.Reader with an 8KB limit.
func ReadBodySmall(r io.Reader) ([]byte, error) {
	return ReadBody(r, SmallMaxBodySize)
}

// DrainAndClose reads any remaining data from r and closes it if it's a
// ReadCloser. This keeps the connection reusable for HTTP keep-alive.
// Always returns nil error to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}

	// Drain limited to 64KB so a hostile body cannot pin the scan
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))

	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
