package events

import "sync"

// Sink receives events from the engine. Implementations decide delivery:
// console rendering, JSONL files, telemetry forwarding. Emit must be safe
// for concurrent use; the crawler and runners emit from separate
// goroutines.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// NopSink discards all events. Used when the caller supplies no sink.
type NopSink struct{}

// Emit discards the event.
func (NopSink) Emit(Event) {}

// MultiSink fans events out to several sinks in order.
type MultiSink struct {
	sinks []Sink
	mu    sync.RWMutex
}

// NewMultiSink creates a MultiSink over the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Add registers another sink.
func (m *MultiSink) Add(s Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

// Emit forwards the event to every registered sink.
func (m *MultiSink) Emit(e Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sinks {
		s.Emit(e)
	}
}

// Recorder is a Sink that stores events in memory, mainly for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends the event to the recorder.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// ByType returns recorded events of the given type.
func (r *Recorder) ByType(t Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
