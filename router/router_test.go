package router

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/lingomesh/voxgate/bus"
	"github.com/lingomesh/voxgate/metrics"
	"github.com/lingomesh/voxgate/types"
	"github.com/lingomesh/voxgate/wire"
)

func newTestRouter(t *testing.T) (*Router, *bus.Recorder) {
	t.Helper()
	recorder := bus.NewRecorder()
	rt := New(Config{Emitter: recorder})
	return rt, recorder
}

func translationCompleted(taskID, lang string) wire.Message {
	meta := fmt.Sprintf(
		`{"type":"translation_completed","taskId":%q,"targetLanguage":%q,"result":{"messageId":"msg-1","translatedText":"bonjour","sourceLanguage":"en","targetLanguage":%q}}`,
		taskID, lang, lang,
	)
	return wire.Single([]byte(meta))
}

func TestHandleMessage_RoutesTranslationCompleted(t *testing.T) {
	rt, recorder := newTestRouter(t)

	rt.HandleMessage(translationCompleted("task-1", "fr"))

	events := recorder.ByChannel(bus.ChannelTranslationCompleted)
	if len(events) != 1 {
		t.Fatalf("emitted %d events, want 1", len(events))
	}
	if events[0].TaskID != "task-1" {
		t.Errorf("TaskID = %q, want task-1", events[0].TaskID)
	}

	payload, ok := events[0].Payload.(*types.TranslationCompleted)
	if !ok {
		t.Fatalf("payload type = %T, want *types.TranslationCompleted", events[0].Payload)
	}
	if payload.Result.TranslatedText != "bonjour" {
		t.Errorf("TranslatedText = %q, want bonjour", payload.Result.TranslatedText)
	}

	s := rt.Stats()
	if s.MessagesProcessed != 1 {
		t.Errorf("MessagesProcessed = %d, want 1", s.MessagesProcessed)
	}
	if s.TranslationsCompleted != 1 {
		t.Errorf("TranslationsCompleted = %d, want 1", s.TranslationsCompleted)
	}
}

// Redelivering a terminal completion for the same (task, language) pair
// produces exactly one emission.
func TestHandleMessage_DuplicateSuppressed(t *testing.T) {
	rt, recorder := newTestRouter(t)

	rt.HandleMessage(translationCompleted("task-1", "fr"))
	rt.HandleMessage(translationCompleted("task-1", "fr"))
	rt.HandleMessage(translationCompleted("task-1", "fr"))

	if n := len(recorder.ByChannel(bus.ChannelTranslationCompleted)); n != 1 {
		t.Errorf("emitted %d events, want 1", n)
	}

	s := rt.Stats()
	if s.DuplicatesSuppressed != 2 {
		t.Errorf("DuplicatesSuppressed = %d, want 2", s.DuplicatesSuppressed)
	}
	if s.TranslationsCompleted != 1 {
		t.Errorf("TranslationsCompleted = %d, want 1", s.TranslationsCompleted)
	}
}

// The target language is part of the dedup identity: one task fans out
// one completion per language.
func TestHandleMessage_LanguagesAreDistinct(t *testing.T) {
	rt, recorder := newTestRouter(t)

	rt.HandleMessage(translationCompleted("task-1", "fr"))
	rt.HandleMessage(translationCompleted("task-1", "es"))
	rt.HandleMessage(translationCompleted("task-1", "de"))

	if n := len(recorder.ByChannel(bus.ChannelTranslationCompleted)); n != 3 {
		t.Errorf("emitted %d events, want 3", n)
	}
	if s := rt.Stats(); s.DuplicatesSuppressed != 0 {
		t.Errorf("DuplicatesSuppressed = %d, want 0", s.DuplicatesSuppressed)
	}
}

func TestHandleMessage_MultipartAudioProcess(t *testing.T) {
	rt, recorder := newTestRouter(t)

	meta := []byte(`{
		"type": "audio_process_completed",
		"taskId": "task-9",
		"messageId": "msg-9",
		"attachmentId": "att-9",
		"transcription": {"text": "hello", "language": "en", "confidence": 0.97},
		"translatedAudios": [
			{"targetLanguage": "fr", "translatedText": "bonjour"},
			{"targetLanguage": "es", "translatedText": "hola"}
		],
		"newVoiceProfile": {"userId": "user-9", "profileId": "prof-9"},
		"binaryFrames": {
			"audio_fr":  {"index": 1, "size": 3},
			"audio_es":  {"index": 2, "size": 3},
			"embedding": {"index": 3, "size": 2}
		}
	}`)
	frames := [][]byte{meta, []byte("fr!"), []byte("es!"), {0xAB, 0xCD}}

	rt.HandleMessage(wire.Multipart(frames))

	events := recorder.ByChannel(bus.ChannelAudioProcessCompleted)
	if len(events) != 1 {
		t.Fatalf("emitted %d events, want 1", len(events))
	}

	payload := events[0].Payload.(*types.AudioProcessCompleted)
	if !bytes.Equal(payload.TranslatedAudios[0].RawAudio, []byte("fr!")) {
		t.Error("fr clip not spliced from frame 1")
	}
	if !bytes.Equal(payload.TranslatedAudios[1].RawAudio, []byte("es!")) {
		t.Error("es clip not spliced from frame 2")
	}
	if !bytes.Equal(payload.NewVoiceProfile.RawEmbedding, []byte{0xAB, 0xCD}) {
		t.Error("embedding not spliced from frame 3")
	}

	s := rt.Stats()
	if s.MultipartMessages != 1 {
		t.Errorf("MultipartMessages = %d, want 1", s.MultipartMessages)
	}
	if s.ResolveWarnings != 0 {
		t.Errorf("ResolveWarnings = %d, want 0", s.ResolveWarnings)
	}
}

// A frame table entry pointing past the frame list degrades that field to
// empty; the event is still routed.
func TestHandleMessage_PartialResolutionStillRoutes(t *testing.T) {
	rt, recorder := newTestRouter(t)

	meta := []byte(`{
		"type": "audio_process_completed",
		"taskId": "task-10",
		"transcription": {"text": "hi", "language": "en", "confidence": 0.9},
		"translatedAudios": [
			{"targetLanguage": "fr"},
			{"targetLanguage": "es"}
		],
		"binaryFrames": {
			"audio_fr": {"index": 1, "size": 3},
			"audio_es": {"index": 7, "size": 3}
		}
	}`)
	rt.HandleMessage(wire.Multipart([][]byte{meta, []byte("fr!")}))

	events := recorder.ByChannel(bus.ChannelAudioProcessCompleted)
	if len(events) != 1 {
		t.Fatalf("emitted %d events, want 1", len(events))
	}

	payload := events[0].Payload.(*types.AudioProcessCompleted)
	if !bytes.Equal(payload.TranslatedAudios[0].RawAudio, []byte("fr!")) {
		t.Error("resolvable frame not bound")
	}
	if payload.TranslatedAudios[1].RawAudio != nil {
		t.Error("out-of-range frame bound anyway")
	}
	if s := rt.Stats(); s.ResolveWarnings != 1 {
		t.Errorf("ResolveWarnings = %d, want 1", s.ResolveWarnings)
	}
}

// Progress ticks are non-terminal and never deduplicated, even when
// byte-identical.
func TestHandleMessage_ProgressNeverDeduped(t *testing.T) {
	rt, recorder := newTestRouter(t)

	meta := []byte(`{"type":"voice_job_progress","jobId":"job-1","progress":50,"currentStep":"cloning"}`)
	for i := 0; i < 3; i++ {
		rt.HandleMessage(wire.Single(meta))
	}

	if n := len(recorder.ByChannel(bus.ChannelVoiceJobProgress)); n != 3 {
		t.Errorf("emitted %d events, want 3", n)
	}
	if s := rt.Stats(); s.DuplicatesSuppressed != 0 {
		t.Errorf("DuplicatesSuppressed = %d, want 0", s.DuplicatesSuppressed)
	}
}

// An unknown discriminant produces zero emissions and no counter change
// beyond message intake; the stream keeps flowing.
func TestHandleMessage_UnknownType(t *testing.T) {
	rt, recorder := newTestRouter(t)

	rt.HandleMessage(wire.Single([]byte(`{"type":"totally_unknown_v99","taskId":"task-x"}`)))

	if recorder.Count() != 0 {
		t.Errorf("emitted %d events, want 0", recorder.Count())
	}
	s := rt.Stats()
	if s.MessagesProcessed != 1 {
		t.Errorf("MessagesProcessed = %d, want 1", s.MessagesProcessed)
	}
	if s != (metrics.Snapshot{MessagesProcessed: 1}) {
		t.Errorf("counters mutated beyond message intake: %+v", s)
	}

	// Next valid message still routes.
	rt.HandleMessage(translationCompleted("task-1", "fr"))
	if n := len(recorder.ByChannel(bus.ChannelTranslationCompleted)); n != 1 {
		t.Errorf("follow-up message not routed, emitted %d", n)
	}
}

func TestHandleMessage_MalformedEnvelope(t *testing.T) {
	rt, recorder := newTestRouter(t)

	rt.HandleMessage(wire.Single([]byte(`not json at all`)))
	rt.HandleMessage(wire.Single([]byte(`{"taskId":"no-type"}`)))

	if recorder.Count() != 0 {
		t.Errorf("emitted %d events, want 0", recorder.Count())
	}
	s := rt.Stats()
	if s.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", s.ParseErrors)
	}
	if s.MessagesProcessed != 0 {
		t.Errorf("MessagesProcessed = %d, want 0 for dropped messages", s.MessagesProcessed)
	}
}

func TestHandleMessage_EmptyMultipart(t *testing.T) {
	rt, recorder := newTestRouter(t)

	rt.HandleMessage(wire.Multipart(nil))

	if recorder.Count() != 0 {
		t.Errorf("emitted %d events, want 0", recorder.Count())
	}
	if s := rt.Stats(); s.FrameErrors != 1 {
		t.Errorf("FrameErrors = %d, want 1", s.FrameErrors)
	}
}

// panicEmitter panics on every emission to exercise message isolation.
type panicEmitter struct{}

func (panicEmitter) Emit(*bus.Event) { panic("emitter blew up") }

func TestHandleMessage_PanicIsolation(t *testing.T) {
	rt := New(Config{Emitter: panicEmitter{}})

	// Must not propagate.
	rt.HandleMessage(translationCompleted("task-1", "fr"))

	// The router survives and keeps handling messages.
	rt.HandleMessage(translationCompleted("task-2", "fr"))

	if s := rt.Stats(); s.MessagesProcessed != 2 {
		t.Errorf("MessagesProcessed = %d, want 2", s.MessagesProcessed)
	}
}

// Evicting a key past the ledger bound allows that terminal event to be
// delivered again.
func TestHandleMessage_LedgerEviction(t *testing.T) {
	recorder := bus.NewRecorder()
	rt := New(Config{Emitter: recorder, LedgerCapacity: 3})

	rt.HandleMessage(translationCompleted("task-1", "fr"))
	rt.HandleMessage(translationCompleted("task-2", "fr"))
	rt.HandleMessage(translationCompleted("task-3", "fr"))
	// Evicts task-1:fr.
	rt.HandleMessage(translationCompleted("task-4", "fr"))

	// task-1 re-delivery is no longer suppressed.
	rt.HandleMessage(translationCompleted("task-1", "fr"))

	if n := len(recorder.ByChannel(bus.ChannelTranslationCompleted)); n != 5 {
		t.Errorf("emitted %d events, want 5", n)
	}
	if got := rt.LedgerLen(); got != 3 {
		t.Errorf("LedgerLen = %d, want 3", got)
	}
}

// A plain buffer and a one-element frame list carrying the same buffer
// route identically; only the multipart counter tells them apart.
func TestHandleMessage_SingleVersusOneElementMultipart(t *testing.T) {
	meta := []byte(`{"type":"transcription_ready","taskId":"task-1","transcription":{"text":"hi","language":"en","confidence":0.8}}`)

	single, singleRec := newTestRouter(t)
	single.HandleMessage(wire.Single(meta))

	multi, multiRec := newTestRouter(t)
	multi.HandleMessage(wire.Multipart([][]byte{meta}))

	sEvents := singleRec.ByChannel(bus.ChannelTranscriptionReady)
	mEvents := multiRec.ByChannel(bus.ChannelTranscriptionReady)
	if len(sEvents) != 1 || len(mEvents) != 1 {
		t.Fatalf("emissions = %d/%d, want 1/1", len(sEvents), len(mEvents))
	}
	if sEvents[0].TaskID != mEvents[0].TaskID {
		t.Error("routing diverged between single and one-element multipart")
	}

	ss, ms := single.Stats(), multi.Stats()
	if ss.MultipartMessages != 0 {
		t.Errorf("single MultipartMessages = %d, want 0", ss.MultipartMessages)
	}
	if ms.MultipartMessages != 1 {
		t.Errorf("multipart MultipartMessages = %d, want 1", ms.MultipartMessages)
	}
	ms.MultipartMessages = 0
	if ss != ms {
		t.Errorf("stats diverged beyond the multipart counter: %+v vs %+v", ss, ms)
	}
}

func TestHandleMessage_PongIsNoOp(t *testing.T) {
	rt, recorder := newTestRouter(t)

	rt.HandleMessage(wire.Single([]byte(`{"type":"pong","timestamp":1700000000.5,"translator_status":"alive"}`)))

	if recorder.Count() != 0 {
		t.Errorf("emitted %d events, want 0", recorder.Count())
	}
	if s := rt.Stats(); s.MessagesProcessed != 1 {
		t.Errorf("MessagesProcessed = %d, want 1", s.MessagesProcessed)
	}
}

func TestHandleMessage_VoiceProfileVariants(t *testing.T) {
	tests := []struct {
		eventType string
		channel   string
	}{
		{"voice_profile_analyze_result", bus.ChannelVoiceProfileResult},
		{"voice_profile_verify_result", bus.ChannelVoiceProfileResult},
		{"voice_profile_compare_result", bus.ChannelVoiceProfileResult},
		{"voice_profile_error", bus.ChannelVoiceProfileError},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			rt, recorder := newTestRouter(t)
			meta := fmt.Sprintf(`{"type":%q,"success":true,"user_id":"user-1"}`, tt.eventType)

			rt.HandleMessage(wire.Single([]byte(meta)))

			events := recorder.ByChannel(tt.channel)
			if len(events) != 1 {
				t.Fatalf("emitted %d events on %s, want 1", len(events), tt.channel)
			}
			if events[0].Type != types.EventType(tt.eventType) {
				t.Errorf("event type = %q, want %q", events[0].Type, tt.eventType)
			}
		})
	}
}

func TestClear(t *testing.T) {
	rt, recorder := newTestRouter(t)

	rt.HandleMessage(translationCompleted("task-1", "fr"))
	rt.Clear()

	if s := rt.Stats(); s.MessagesProcessed != 0 {
		t.Errorf("MessagesProcessed = %d after Clear, want 0", s.MessagesProcessed)
	}
	if rt.LedgerLen() != 0 {
		t.Errorf("LedgerLen = %d after Clear, want 0", rt.LedgerLen())
	}

	// Cleared ledger means the same completion routes again.
	rt.HandleMessage(translationCompleted("task-1", "fr"))
	if n := len(recorder.ByChannel(bus.ChannelTranslationCompleted)); n != 2 {
		t.Errorf("emitted %d events, want 2", n)
	}
}

func TestResetStats_KeepsLedger(t *testing.T) {
	rt, recorder := newTestRouter(t)

	rt.HandleMessage(translationCompleted("task-1", "fr"))
	rt.ResetStats()

	if s := rt.Stats(); s.TranslationsCompleted != 0 {
		t.Errorf("TranslationsCompleted = %d after reset, want 0", s.TranslationsCompleted)
	}

	// Ledger untouched: the duplicate is still suppressed.
	rt.HandleMessage(translationCompleted("task-1", "fr"))
	if n := len(recorder.ByChannel(bus.ChannelTranslationCompleted)); n != 1 {
		t.Errorf("emitted %d events, want 1", n)
	}
}
