package wire

import (
	"testing"

	"github.com/lingomesh/voxgate/types"
)

func TestParseEnvelope(t *testing.T) {
	meta := []byte(`{
		"type": "translation_completed",
		"taskId": "task-1",
		"binaryFrames": {
			"audio_fr": {"index": 1, "size": 2048, "mimeType": "audio/ogg"}
		}
	}`)

	envelope, err := ParseEnvelope(meta)
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}

	if envelope.Type != types.EventTranslationCompleted {
		t.Errorf("Type = %q, want translation_completed", envelope.Type)
	}
	if envelope.TaskID != "task-1" {
		t.Errorf("TaskID = %q, want task-1", envelope.TaskID)
	}

	info, ok := envelope.BinaryFrames["audio_fr"]
	if !ok {
		t.Fatal("binaryFrames entry audio_fr missing")
	}
	if info.Index != 1 {
		t.Errorf("Index = %d, want 1", info.Index)
	}
	if info.Size != 2048 {
		t.Errorf("Size = %d, want 2048", info.Size)
	}
	if info.MimeType != "audio/ogg" {
		t.Errorf("MimeType = %q, want audio/ogg", info.MimeType)
	}
}

func TestParseEnvelope_RetainsRaw(t *testing.T) {
	meta := []byte(`{"type":"translation_error","taskId":"task-2","error":"model unavailable"}`)

	envelope, err := ParseEnvelope(meta)
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}

	var payload types.TranslationError
	if err := envelope.DecodePayload(&payload); err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if payload.Error != "model unavailable" {
		t.Errorf("Error = %q, want model unavailable", payload.Error)
	}
}

func TestParseEnvelope_InvalidJSON(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"type": "translation_completed"`))
	if err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	if !IsFrameError(err, FrameErrorParse) {
		t.Errorf("error kind = %v, want FrameErrorParse", err)
	}
}

func TestParseEnvelope_MissingType(t *testing.T) {
	_, err := ParseEnvelope([]byte(`{"taskId": "task-3"}`))
	if err == nil {
		t.Fatal("expected error for missing type discriminant")
	}
	if !IsFrameError(err, FrameErrorParse) {
		t.Errorf("error kind = %v, want FrameErrorParse", err)
	}
}
