// Package metrics provides routing counters for the voxgate router.
//
// The Collector accumulates flat integer counters while messages are
// routed. It is a leaf package with no internal dependencies; callers
// increment through explicit methods and read through a detached Snapshot.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all routing counters.
// Returned by Collector.Snapshot(); safe to read concurrently after
// creation and detached from the live collector.
type Snapshot struct {
	// Pipeline intake
	MessagesProcessed int64
	MultipartMessages int64
	FrameErrors       int64
	ParseErrors       int64

	// Dedup and resolution
	DuplicatesSuppressed int64
	ResolveWarnings      int64

	// Per-category routed events
	TranslationsCompleted      int64
	TranslationErrors          int64
	TranslationsSkipped        int64
	AudioProcessCompleted      int64
	AudioProcessErrors         int64
	TranscriptionsCompleted    int64
	TranscriptionsReady        int64
	TranscriptionErrors        int64
	VoiceAPISuccesses          int64
	VoiceAPIErrors             int64
	VoiceJobProgressTicks      int64
	VoiceProfileResults        int64
	VoiceProfileErrors         int64
	VoiceTranslationsCompleted int64
	VoiceTranslationsFailed    int64
}

// Collector accumulates routing counters.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex
	s  Snapshot
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) inc(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// IncMessageProcessed records a message accepted into the pipeline.
// Incremented on successful envelope parse, before routing: it counts
// messages accepted, not messages successfully routed.
func (c *Collector) IncMessageProcessed() {
	if c == nil {
		return
	}
	c.inc(&c.s.MessagesProcessed)
}

// IncMultipartMessage records a message that arrived as a frame list.
func (c *Collector) IncMultipartMessage() {
	if c == nil {
		return
	}
	c.inc(&c.s.MultipartMessages)
}

// IncFrameError records a transport framing violation (dropped message).
func (c *Collector) IncFrameError() {
	if c == nil {
		return
	}
	c.inc(&c.s.FrameErrors)
}

// IncParseError records a malformed JSON metadata frame (dropped message).
func (c *Collector) IncParseError() {
	if c == nil {
		return
	}
	c.inc(&c.s.ParseErrors)
}

// IncDuplicateSuppressed records a terminal event short-circuited by the
// dedup ledger.
func (c *Collector) IncDuplicateSuppressed() {
	if c == nil {
		return
	}
	c.inc(&c.s.DuplicatesSuppressed)
}

// AddResolveWarnings records n binary frame entries that could not be
// materialized.
func (c *Collector) AddResolveWarnings(n int) {
	if c == nil || n == 0 {
		return
	}
	c.mu.Lock()
	c.s.ResolveWarnings += int64(n)
	c.mu.Unlock()
}

// --- Per-category routed events ---

// IncTranslationCompleted records a routed translation completion.
func (c *Collector) IncTranslationCompleted() {
	if c == nil {
		return
	}
	c.inc(&c.s.TranslationsCompleted)
}

// IncTranslationError records a routed translation error.
func (c *Collector) IncTranslationError() {
	if c == nil {
		return
	}
	c.inc(&c.s.TranslationErrors)
}

// IncTranslationSkipped records a routed translation-skipped advisory.
func (c *Collector) IncTranslationSkipped() {
	if c == nil {
		return
	}
	c.inc(&c.s.TranslationsSkipped)
}

// IncAudioProcessCompleted records a routed audio pipeline completion.
func (c *Collector) IncAudioProcessCompleted() {
	if c == nil {
		return
	}
	c.inc(&c.s.AudioProcessCompleted)
}

// IncAudioProcessError records a routed audio pipeline error.
func (c *Collector) IncAudioProcessError() {
	if c == nil {
		return
	}
	c.inc(&c.s.AudioProcessErrors)
}

// IncTranscriptionCompleted records a routed authoritative transcription.
func (c *Collector) IncTranscriptionCompleted() {
	if c == nil {
		return
	}
	c.inc(&c.s.TranscriptionsCompleted)
}

// IncTranscriptionReady records a routed provisional transcription.
func (c *Collector) IncTranscriptionReady() {
	if c == nil {
		return
	}
	c.inc(&c.s.TranscriptionsReady)
}

// IncTranscriptionError records a routed transcription error.
func (c *Collector) IncTranscriptionError() {
	if c == nil {
		return
	}
	c.inc(&c.s.TranscriptionErrors)
}

// IncVoiceAPISuccess records a routed voice API success response.
func (c *Collector) IncVoiceAPISuccess() {
	if c == nil {
		return
	}
	c.inc(&c.s.VoiceAPISuccesses)
}

// IncVoiceAPIError records a routed voice API error response.
func (c *Collector) IncVoiceAPIError() {
	if c == nil {
		return
	}
	c.inc(&c.s.VoiceAPIErrors)
}

// IncVoiceJobProgress records a routed job progress tick.
func (c *Collector) IncVoiceJobProgress() {
	if c == nil {
		return
	}
	c.inc(&c.s.VoiceJobProgressTicks)
}

// IncVoiceProfileResult records a routed voice-biometric outcome.
func (c *Collector) IncVoiceProfileResult() {
	if c == nil {
		return
	}
	c.inc(&c.s.VoiceProfileResults)
}

// IncVoiceProfileError records a routed voice profile error.
func (c *Collector) IncVoiceProfileError() {
	if c == nil {
		return
	}
	c.inc(&c.s.VoiceProfileErrors)
}

// IncVoiceTranslationCompleted records a completed batch voice job.
func (c *Collector) IncVoiceTranslationCompleted() {
	if c == nil {
		return
	}
	c.inc(&c.s.VoiceTranslationsCompleted)
}

// IncVoiceTranslationFailed records a failed batch voice job.
func (c *Collector) IncVoiceTranslationFailed() {
	if c == nil {
		return
	}
	c.inc(&c.s.VoiceTranslationsFailed)
}

// Snapshot returns a detached copy of all counters. Callers can never
// mutate collector state through the returned value.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}

// Reset zeroes every counter.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.s = Snapshot{}
	c.mu.Unlock()
}
