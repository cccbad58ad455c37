package bus

import "sync"

// Recorder is a test emitter that accepts events without fan-out.
// Tracks emissions for test assertions.
type Recorder struct {
	mu sync.Mutex

	// Emitted stores every event in emission order.
	Emitted []*Event
}

// NewRecorder creates a new recorder for testing.
func NewRecorder() *Recorder {
	return &Recorder{Emitted: make([]*Event, 0)}
}

// Emit records the event.
func (r *Recorder) Emit(event *Event) {
	r.mu.Lock()
	r.Emitted = append(r.Emitted, event)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Event, len(r.Emitted))
	copy(out, r.Emitted)
	return out
}

// ByChannel returns the recorded events published on the given channel.
func (r *Recorder) ByChannel(channel string) []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Event
	for _, e := range r.Emitted {
		if e.Channel == channel {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the total number of recorded events.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Emitted)
}

// Verify Recorder implements Emitter.
var _ Emitter = (*Recorder)(nil)
