package iohelper

import (
	"io"
	"strings"
	"testing"
)

func TestReadBody_Limits(t *testing.T) {
	body := strings.Repeat("a", 100)

	got, err := ReadBody(io.NopCloser(strings.NewReader(body)), 40)
	if err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if len(got) != 40 {
		t.Errorf("read %d bytes, want the 40-byte cap", len(got))
	}

	got, err = ReadBody(io.NopCloser(strings.NewReader(body)), 1000)
	if err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if len(got) != 100 {
		t.Errorf("read %d bytes, want all 100", len(got))
	}
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestDrainAndClose(t *testing.T) {
	rc := &closeTracker{Reader: strings.NewReader(strings.Repeat("b", 10))}
	DrainAndClose(rc)
	if !rc.closed {
		t.Error("body not closed")
	}

	// Nil body must not panic.
	DrainAndClose(nil)
}
