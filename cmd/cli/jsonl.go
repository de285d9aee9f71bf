package main

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/websecscan/websecscan/pkg/events"
)

// JSONLSink appends every event as one JSON object per line, suitable
// for piping into jq or log shippers.
type JSONLSink struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// NewJSONLSink opens (or truncates) the given path for event output.
func NewJSONLSink(path string) (*JSONLSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{f: f, enc: json.NewEncoder(f)}, nil
}

// Emit implements events.Sink. Encoding errors are swallowed; event
// output must never interfere with the scan itself.
func (s *JSONLSink) Emit(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(e)
}

// Close flushes and closes the underlying file.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
