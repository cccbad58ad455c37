// Package router turns decoded transport messages into typed domain
// events and fans them out to internal subscribers.
//
// Processing is strictly sequential per inbound message: decode frames,
// resolve binary payloads, check the dedup ledger for terminal types,
// bump counters, emit. No failure while handling one message may escape
// to the caller or stall the next message.
package router

import (
	"github.com/lingomesh/voxgate/bus"
	"github.com/lingomesh/voxgate/log"
	"github.com/lingomesh/voxgate/metrics"
	"github.com/lingomesh/voxgate/types"
	"github.com/lingomesh/voxgate/wire"
)

// Config wires a Router's collaborators. Emitter is required; the rest
// default sensibly so tests can construct minimal instances.
type Config struct {
	// Emitter receives every routed, non-duplicate event.
	Emitter bus.Emitter
	// Collector accumulates routing counters. Nil disables counting.
	Collector *metrics.Collector
	// Logger receives drop/warning diagnostics. Nil disables logging.
	Logger *log.Logger
	// LedgerCapacity bounds the dedup ledger (default 1000).
	LedgerCapacity int
}

// Router is the multipart binary event router. It owns its dedup ledger
// and stats collector exclusively; external code reads them only through
// Stats/ResetStats/Clear.
type Router struct {
	emitter   bus.Emitter
	ledger    *Ledger
	collector *metrics.Collector
	logger    *log.Logger
}

// New creates a router from the given config.
func New(cfg Config) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewLogger("router")
	}
	collector := cfg.Collector
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Router{
		emitter:   cfg.Emitter,
		ledger:    NewLedger(cfg.LedgerCapacity),
		collector: collector,
		logger:    logger,
	}
}

// HandleMessage processes one inbound transport message end to end.
// Every failure mode is caught, logged, and swallowed: a malformed
// message must never take down the router or stall subsequent messages.
func (r *Router) HandleMessage(msg wire.Message) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic while handling message", map[string]any{
				"panic": p,
			})
		}
	}()

	meta, binary, err := msg.Split()
	if err != nil {
		r.collector.IncFrameError()
		r.logger.Error("dropping message with framing violation", map[string]any{
			"error": err.Error(),
		})
		return
	}

	if msg.IsMultipart() {
		r.collector.IncMultipartMessage()
	}

	envelope, err := wire.ParseEnvelope(meta)
	if err != nil {
		r.collector.IncParseError()
		r.logger.Error("dropping message with malformed envelope", map[string]any{
			"error": err.Error(),
		})
		return
	}

	// Counts messages accepted into the pipeline, before routing.
	r.collector.IncMessageProcessed()

	r.route(envelope, binary)
}

// route dispatches the envelope to the handler for its discriminant.
// Unknown types are logged and ignored; the wire contract is versioned
// independently of this component and new types must not crash it.
func (r *Router) route(envelope *types.Envelope, binary [][]byte) {
	switch envelope.Type {
	case types.EventTranslationCompleted:
		r.handleTranslationCompleted(envelope)
	case types.EventTranslationError:
		r.handleTranslationError(envelope)
	case types.EventTranslationSkipped:
		r.handleTranslationSkipped(envelope)
	case types.EventAudioProcessCompleted:
		r.handleAudioProcessCompleted(envelope, binary)
	case types.EventAudioProcessError:
		r.handleAudioProcessError(envelope)
	case types.EventVoiceAPISuccess:
		r.handleVoiceAPISuccess(envelope)
	case types.EventVoiceAPIError:
		r.handleVoiceAPIError(envelope)
	case types.EventVoiceJobProgress:
		r.handleVoiceJobProgress(envelope)
	case types.EventVoiceProfileAnalyzeResult,
		types.EventVoiceProfileVerifyResult,
		types.EventVoiceProfileCompareResult:
		r.handleVoiceProfileResult(envelope)
	case types.EventVoiceProfileError:
		r.handleVoiceProfileError(envelope)
	case types.EventTranscriptionCompleted:
		r.handleTranscriptionCompleted(envelope)
	case types.EventTranscriptionReady:
		r.handleTranscriptionReady(envelope)
	case types.EventTranscriptionError:
		r.handleTranscriptionError(envelope)
	case types.EventVoiceTranslationCompleted:
		r.handleVoiceTranslationCompleted(envelope)
	case types.EventVoiceTranslationFailed:
		r.handleVoiceTranslationFailed(envelope)
	case types.EventPong:
		// Liveness response to our own ping. Intentionally a no-op:
		// not an error, not counted.
		r.logger.Debug("pong received", nil)
	default:
		r.logger.Warn("unrecognized event type, ignoring", map[string]any{
			"type":    string(envelope.Type),
			"task_id": envelope.TaskID,
		})
	}
}

// decodePayload unmarshals the per-type payload, logging and dropping
// the event on failure.
func (r *Router) decodePayload(envelope *types.Envelope, v any) bool {
	if err := envelope.DecodePayload(v); err != nil {
		r.collector.IncParseError()
		r.logger.Error("dropping event with malformed payload", map[string]any{
			"type":  string(envelope.Type),
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (r *Router) emit(channel string, envelope *types.Envelope, taskID, jobID string, payload any) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(bus.NewEvent(channel, envelope.Type, taskID, jobID, payload))
}

func (r *Router) handleTranslationCompleted(envelope *types.Envelope) {
	var payload types.TranslationCompleted
	if !r.decodePayload(envelope, &payload) {
		return
	}

	// One task fans out one terminal completion per target language, so
	// the language is part of the identity.
	key := DedupKey(payload.TaskID, payload.TargetLanguage)
	if r.ledger.CheckAndMark(key) {
		r.collector.IncDuplicateSuppressed()
		r.logger.Debug("suppressed duplicate translation completion", map[string]any{
			"task_id":         payload.TaskID,
			"target_language": payload.TargetLanguage,
		})
		return
	}

	r.collector.IncTranslationCompleted()
	r.emit(bus.ChannelTranslationCompleted, envelope, payload.TaskID, "", &payload)
}

func (r *Router) handleTranslationError(envelope *types.Envelope) {
	var payload types.TranslationError
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncTranslationError()
	r.emit(bus.ChannelTranslationError, envelope, payload.TaskID, "", &payload)
}

func (r *Router) handleTranslationSkipped(envelope *types.Envelope) {
	var payload types.TranslationSkipped
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncTranslationSkipped()
	r.emit(bus.ChannelTranslationSkipped, envelope, envelope.TaskID, "", &payload)
}

func (r *Router) handleAudioProcessCompleted(envelope *types.Envelope, binary [][]byte) {
	var payload types.AudioProcessCompleted
	if !r.decodePayload(envelope, &payload) {
		return
	}

	// Splice declared binary frames into the typed payload before
	// emission. Unresolved entries degrade to empty fields, never abort.
	unresolved := wire.ResolveAudioFrames(&payload, envelope.BinaryFrames, binary)
	for _, u := range unresolved {
		r.logger.Warn("unresolvable binary frame reference", map[string]any{
			"task_id":  payload.TaskID,
			"name":     u.Name,
			"index":    u.Index,
			"position": u.Position,
			"reason":   u.Reason,
		})
	}
	r.collector.AddResolveWarnings(len(unresolved))

	r.collector.IncAudioProcessCompleted()
	r.emit(bus.ChannelAudioProcessCompleted, envelope, payload.TaskID, "", &payload)
}

func (r *Router) handleAudioProcessError(envelope *types.Envelope) {
	var payload types.ProcessingError
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncAudioProcessError()
	r.emit(bus.ChannelAudioProcessError, envelope, payload.TaskID, "", &payload)
}

func (r *Router) handleVoiceAPISuccess(envelope *types.Envelope) {
	var payload types.VoiceAPIResult
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncVoiceAPISuccess()
	r.emit(bus.ChannelVoiceAPISuccess, envelope, payload.TaskID, "", &payload)
}

func (r *Router) handleVoiceAPIError(envelope *types.Envelope) {
	var payload types.VoiceAPIResult
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncVoiceAPIError()
	r.emit(bus.ChannelVoiceAPIError, envelope, payload.TaskID, "", &payload)
}

func (r *Router) handleVoiceJobProgress(envelope *types.Envelope) {
	var payload types.VoiceJobProgress
	if !r.decodePayload(envelope, &payload) {
		return
	}
	// Progress ticks are non-terminal and never deduplicated.
	r.collector.IncVoiceJobProgress()
	r.emit(bus.ChannelVoiceJobProgress, envelope, "", payload.JobID, &payload)
}

func (r *Router) handleVoiceProfileResult(envelope *types.Envelope) {
	var payload types.VoiceProfileOutcome
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncVoiceProfileResult()
	r.emit(bus.ChannelVoiceProfileResult, envelope, envelope.TaskID, "", &payload)
}

func (r *Router) handleVoiceProfileError(envelope *types.Envelope) {
	var payload types.VoiceProfileOutcome
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncVoiceProfileError()
	r.emit(bus.ChannelVoiceProfileError, envelope, envelope.TaskID, "", &payload)
}

func (r *Router) handleTranscriptionCompleted(envelope *types.Envelope) {
	var payload types.TranscriptionResult
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncTranscriptionCompleted()
	r.emit(bus.ChannelTranscriptionCompleted, envelope, payload.TaskID, "", &payload)
}

// handleTranscriptionReady routes the provisional transcript emitted
// before the terminal completed/error event for the same operation.
// Ready and completed are additive, never mutually exclusive: the ready
// event has its own channel and never shares a dedup key with the
// terminal event.
func (r *Router) handleTranscriptionReady(envelope *types.Envelope) {
	var payload types.TranscriptionResult
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncTranscriptionReady()
	r.emit(bus.ChannelTranscriptionReady, envelope, payload.TaskID, "", &payload)
}

func (r *Router) handleTranscriptionError(envelope *types.Envelope) {
	var payload types.ProcessingError
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncTranscriptionError()
	r.emit(bus.ChannelTranscriptionError, envelope, payload.TaskID, "", &payload)
}

func (r *Router) handleVoiceTranslationCompleted(envelope *types.Envelope) {
	var payload types.VoiceTranslationResult
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncVoiceTranslationCompleted()
	r.emit(bus.ChannelVoiceTranslationCompleted, envelope, "", payload.JobID, &payload)
}

func (r *Router) handleVoiceTranslationFailed(envelope *types.Envelope) {
	var payload types.VoiceTranslationResult
	if !r.decodePayload(envelope, &payload) {
		return
	}
	r.collector.IncVoiceTranslationFailed()
	r.emit(bus.ChannelVoiceTranslationFailed, envelope, "", payload.JobID, &payload)
}

// Stats returns a detached snapshot of the routing counters.
func (r *Router) Stats() metrics.Snapshot {
	return r.collector.Snapshot()
}

// ResetStats zeroes the routing counters.
func (r *Router) ResetStats() {
	r.collector.Reset()
}

// Clear empties both the dedup ledger and the stats counters.
// Used between test runs and on service restart.
func (r *Router) Clear() {
	r.ledger.Clear()
	r.collector.Reset()
}

// LedgerLen returns the number of dedup keys currently held.
func (r *Router) LedgerLen() int {
	return r.ledger.Len()
}
