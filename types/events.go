package types

// EventType is the wire discriminant carried in the `type` field of every
// message published by the translator backend.
type EventType string

// Event type constants. This set is the wire contract with the backend:
// the router must handle exactly these discriminants and treat anything
// else as a forward-compatible unknown (logged, never fatal).
const (
	EventTranslationCompleted EventType = "translation_completed"
	EventTranslationError     EventType = "translation_error"
	EventTranslationSkipped   EventType = "translation_skipped"

	EventAudioProcessCompleted EventType = "audio_process_completed"
	EventAudioProcessError     EventType = "audio_process_error"

	EventVoiceAPISuccess  EventType = "voice_api_success"
	EventVoiceAPIError    EventType = "voice_api_error"
	EventVoiceJobProgress EventType = "voice_job_progress"

	EventVoiceProfileAnalyzeResult EventType = "voice_profile_analyze_result"
	EventVoiceProfileVerifyResult  EventType = "voice_profile_verify_result"
	EventVoiceProfileCompareResult EventType = "voice_profile_compare_result"
	EventVoiceProfileError         EventType = "voice_profile_error"

	EventTranscriptionCompleted EventType = "transcription_completed"
	EventTranscriptionReady     EventType = "transcription_ready"
	EventTranscriptionError     EventType = "transcription_error"

	EventVoiceTranslationCompleted EventType = "voice_translation_completed"
	EventVoiceTranslationFailed    EventType = "voice_translation_failed"

	EventPong EventType = "pong"
)

// IsTerminal returns true if this event type represents the final outcome
// of a task/job dimension. Only terminal types are candidates for
// deduplication; progress ticks and advisory events never are.
func (e EventType) IsTerminal() bool {
	switch e {
	case EventTranslationCompleted, EventTranslationError,
		EventAudioProcessCompleted, EventAudioProcessError,
		EventTranscriptionCompleted, EventTranscriptionError,
		EventVoiceTranslationCompleted, EventVoiceTranslationFailed:
		return true
	}
	return false
}

// IsMultipart returns true if this event type may carry binary payload
// frames referenced by the envelope's binaryFrames table.
func (e EventType) IsMultipart() bool {
	return e == EventAudioProcessCompleted
}
