package types

// Per-type payload structs. Field names follow the backend's JSON output;
// optional fields keep their zero value when the sender omits them.

// Segment is one timed slice of a transcription.
type Segment struct {
	Text       string  `json:"text"`
	StartMs    int64   `json:"startMs"`
	EndMs      int64   `json:"endMs"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Transcription is the speech-to-text block shared by transcription and
// audio-processing results.
type Transcription struct {
	Text       string    `json:"text"`
	Language   string    `json:"language"`
	Confidence float64   `json:"confidence"`
	DurationMs int64     `json:"durationMs,omitempty"`
	Source     string    `json:"source,omitempty"`
	Segments   []Segment `json:"segments,omitempty"`
}

// TranslationOutput is the enriched result object inside a
// translation_completed event.
type TranslationOutput struct {
	MessageID       string  `json:"messageId"`
	TranslatedText  string  `json:"translatedText"`
	SourceLanguage  string  `json:"sourceLanguage"`
	TargetLanguage  string  `json:"targetLanguage"`
	ConfidenceScore float64 `json:"confidenceScore"`
	ProcessingTime  float64 `json:"processingTime"`
	ModelType       string  `json:"modelType"`
	WorkerName      string  `json:"workerName"`
}

// TranslationCompleted is a terminal event for one (task, targetLanguage)
// pair. One task fans out to one completion per target language.
type TranslationCompleted struct {
	TaskID         string            `json:"taskId"`
	TargetLanguage string            `json:"targetLanguage"`
	Result         TranslationOutput `json:"result"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
	Timestamp      float64           `json:"timestamp,omitempty"`
}

// TranslationError reports a failed translation task.
type TranslationError struct {
	TaskID         string `json:"taskId"`
	MessageID      string `json:"messageId"`
	Error          string `json:"error"`
	ConversationID string `json:"conversationId,omitempty"`
}

// TranslationSkipped is an advisory event: the backend declined to
// translate a message (e.g. over the length limit). Never terminal.
type TranslationSkipped struct {
	MessageID      string `json:"messageId"`
	Reason         string `json:"reason"`
	Length         int    `json:"length,omitempty"`
	MaxLength      int    `json:"max_length,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
}

// TranslatedAudio is one per-language output of an audio pipeline run.
// RawAudio is populated by the binary frame resolver, not by JSON decode.
type TranslatedAudio struct {
	TargetLanguage string  `json:"targetLanguage"`
	TranslatedText string  `json:"translatedText"`
	AudioURL       string  `json:"audioUrl,omitempty"`
	AudioPath      string  `json:"audioPath,omitempty"`
	DurationMs     int64   `json:"durationMs,omitempty"`
	VoiceCloned    bool    `json:"voiceCloned,omitempty"`
	VoiceQuality   float64 `json:"voiceQuality,omitempty"`
	AudioMimeType  string  `json:"audioMimeType,omitempty"`

	// RawAudio is the translated audio clip spliced in from the multipart
	// binary frame named "audio_<targetLanguage>". Nil when unresolved.
	RawAudio []byte `json:"-"`
}

// NewVoiceProfile is the voice profile created as a side effect of an
// audio pipeline run. RawEmbedding is populated by the resolver from the
// binary frame named "embedding".
type NewVoiceProfile struct {
	UserID               string         `json:"userId"`
	ProfileID            string         `json:"profileId"`
	QualityScore         float64        `json:"qualityScore,omitempty"`
	AudioCount           int            `json:"audioCount,omitempty"`
	TotalDurationMs      int64          `json:"totalDurationMs,omitempty"`
	Version              int            `json:"version,omitempty"`
	Fingerprint          map[string]any `json:"fingerprint,omitempty"`
	VoiceCharacteristics map[string]any `json:"voiceCharacteristics,omitempty"`

	// RawEmbedding is the voice embedding vector bytes. Nil when unresolved.
	RawEmbedding []byte `json:"-"`
}

// AudioProcessCompleted is the terminal event for a full audio pipeline
// run: transcription, N translated-audio outputs, and optionally a new
// voice profile. Binary payloads arrive as multipart frames referenced by
// the envelope's binaryFrames table.
type AudioProcessCompleted struct {
	TaskID            string            `json:"taskId"`
	MessageID         string            `json:"messageId"`
	AttachmentID      string            `json:"attachmentId"`
	Transcription     Transcription     `json:"transcription"`
	TranslatedAudios  []TranslatedAudio `json:"translatedAudios"`
	NewVoiceProfile   *NewVoiceProfile  `json:"newVoiceProfile,omitempty"`
	VoiceModelUserID  string            `json:"voiceModelUserId,omitempty"`
	VoiceModelQuality float64           `json:"voiceModelQuality,omitempty"`
	ProcessingTimeMs  int64             `json:"processingTimeMs,omitempty"`
	Timestamp         float64           `json:"timestamp,omitempty"`
}

// ProcessingError is the common shape of audio_process_error and
// transcription_error events.
type ProcessingError struct {
	TaskID       string  `json:"taskId"`
	MessageID    string  `json:"messageId"`
	AttachmentID string  `json:"attachmentId,omitempty"`
	Error        string  `json:"error"`
	ErrorCode    string  `json:"errorCode,omitempty"`
	Timestamp    float64 `json:"timestamp,omitempty"`
}

// TranscriptionResult is shared by transcription_completed (authoritative)
// and transcription_ready (provisional). The two are additive: a consumer
// may receive both for the same task and must treat ready as provisional.
type TranscriptionResult struct {
	TaskID           string        `json:"taskId"`
	MessageID        string        `json:"messageId"`
	AttachmentID     string        `json:"attachmentId,omitempty"`
	Transcription    Transcription `json:"transcription"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	Timestamp        float64       `json:"timestamp,omitempty"`
}

// VoiceAPIResult is the generic request/response envelope for ad hoc voice
// analysis requests, distinguished by RequestType.
type VoiceAPIResult struct {
	TaskID           string         `json:"taskId"`
	RequestType      string         `json:"requestType"`
	Result           map[string]any `json:"result,omitempty"`
	Error            string         `json:"error,omitempty"`
	ErrorCode        string         `json:"errorCode,omitempty"`
	ProcessingTimeMs int64          `json:"processingTimeMs,omitempty"`
	Timestamp        float64        `json:"timestamp,omitempty"`
}

// VoiceJobProgress is a non-terminal progress tick for a long-running job.
// Never deduplicated.
type VoiceJobProgress struct {
	JobID       string `json:"jobId"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"currentStep,omitempty"`
}

// VoiceTranslationResult is the terminal event for a batch voice
// translation job, correlated by JobID rather than TaskID.
type VoiceTranslationResult struct {
	JobID     string         `json:"jobId"`
	Status    string         `json:"status"`
	UserID    string         `json:"userId,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"errorCode,omitempty"`
	Timestamp float64        `json:"timestamp,omitempty"`
}

// VoiceProfileOutcome is the outcome of a voice-biometric operation
// (analyze, verify, compare) or a voice_profile_error. Success is always
// present; the remaining fields depend on the operation.
type VoiceProfileOutcome struct {
	Success   bool   `json:"success"`
	UserID    string `json:"user_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error,omitempty"`

	// Analyze fields.
	ProfileID            string         `json:"profile_id,omitempty"`
	QualityScore         float64        `json:"quality_score,omitempty"`
	AudioDurationMs      int64          `json:"audio_duration_ms,omitempty"`
	VoiceCharacteristics map[string]any `json:"voice_characteristics,omitempty"`
	Fingerprint          map[string]any `json:"fingerprint,omitempty"`
	EmbeddingDimension   int            `json:"embedding_dimension,omitempty"`

	// Verify / compare fields.
	IsMatch         bool    `json:"is_match,omitempty"`
	SimilarityScore float64 `json:"similarity_score,omitempty"`
	Threshold       float64 `json:"threshold,omitempty"`
}
