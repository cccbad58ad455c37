// Package types defines the domain types for the voxgate event router.
package types

import "encoding/json"

// BinaryFrameInfo describes one entry in the envelope's binary frame table.
// Index is 1-based: frame 0 of the transport message is the JSON envelope
// itself, so index 1 names the first buffer of the binary frame list.
type BinaryFrameInfo struct {
	// Index is the 1-based position of the payload within the multipart
	// message, counted after the metadata frame.
	Index int `json:"index"`
	// Size is the payload size in bytes as declared by the sender.
	Size int `json:"size"`
	// MimeType is the payload content type, when the sender knows it.
	MimeType string `json:"mimeType,omitempty"`
}

// Envelope is the JSON control structure carried in the first frame of
// every transport message. Type discriminates the payload; the remaining
// fields are decoded lazily per type from Raw.
type Envelope struct {
	// Type is the event discriminant.
	Type EventType `json:"type"`
	// TaskID correlates a unit of backend work. Stable across retries.
	TaskID string `json:"taskId"`
	// JobID correlates a long-running background job, distinct from TaskID.
	JobID string `json:"jobId,omitempty"`
	// BinaryFrames maps logical payload names (e.g. "audio_fr",
	// "embedding") to positions in the binary frame list. Present only on
	// multipart events.
	BinaryFrames map[string]BinaryFrameInfo `json:"binaryFrames,omitempty"`

	// Raw is the full metadata frame, retained so per-type payload structs
	// can be decoded without re-reading the transport message.
	Raw json.RawMessage `json:"-"`
}

// DecodePayload unmarshals the envelope's raw metadata into the given
// per-type payload struct.
func (e *Envelope) DecodePayload(v any) error {
	return json.Unmarshal(e.Raw, v)
}
