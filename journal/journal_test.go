package journal

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/lingomesh/voxgate/bus"
	"github.com/lingomesh/voxgate/types"
)

func TestWriterReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	events := []*bus.Event{
		bus.NewEvent(bus.ChannelTranslationCompleted, types.EventTranslationCompleted, "task-1", "", &types.TranslationCompleted{
			TaskID:         "task-1",
			TargetLanguage: "fr",
		}),
		bus.NewEvent(bus.ChannelVoiceJobProgress, types.EventVoiceJobProgress, "", "job-1", &types.VoiceJobProgress{
			JobID:    "job-1",
			Progress: 42,
		}),
	}
	for _, e := range events {
		if err := w.AppendEvent(e); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}
	if w.Count() != 2 {
		t.Errorf("Count = %d, want 2", w.Count())
	}

	r := NewReader(&buf)

	first, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if first.EventID != events[0].ID {
		t.Errorf("EventID = %q, want %q", first.EventID, events[0].ID)
	}
	if first.Channel != bus.ChannelTranslationCompleted {
		t.Errorf("Channel = %q", first.Channel)
	}
	if first.Type != "translation_completed" {
		t.Errorf("Type = %q", first.Type)
	}

	var payload types.TranslationCompleted
	if err := json.Unmarshal(first.Payload, &payload); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if payload.TargetLanguage != "fr" {
		t.Errorf("TargetLanguage = %q, want fr", payload.TargetLanguage)
	}

	second, err := r.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if second.JobID != "job-1" {
		t.Errorf("JobID = %q, want job-1", second.JobID)
	}

	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF at end of journal, got %v", err)
	}
}

// Binary payload bytes never reach the journal: RawAudio carries a
// json:"-" tag and is dropped at record construction.
func TestNewRecord_OmitsBinary(t *testing.T) {
	event := bus.NewEvent(bus.ChannelAudioProcessCompleted, types.EventAudioProcessCompleted, "task-1", "", &types.AudioProcessCompleted{
		TaskID: "task-1",
		TranslatedAudios: []types.TranslatedAudio{
			{TargetLanguage: "fr", RawAudio: bytes.Repeat([]byte{0xFF}, 1024)},
		},
	})

	record, err := NewRecord(event)
	if err != nil {
		t.Fatalf("NewRecord failed: %v", err)
	}
	if bytes.Contains(record.Payload, bytes.Repeat([]byte{0xFF}, 16)) {
		t.Error("binary audio bytes leaked into the journal payload")
	}
}

func TestReader_PartialFrame(t *testing.T) {
	var buf bytes.Buffer
	var prefix [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], 100)
	buf.Write(prefix[:])
	buf.WriteString("short")

	r := NewReader(&buf)
	_, err := r.Next()

	var jerr *Error
	if !errors.As(err, &jerr) || jerr.Kind != ErrorPartial {
		t.Errorf("error = %v, want ErrorPartial", err)
	}
}

func TestReader_FrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	var prefix [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], MaxPayloadSize+1)
	buf.Write(prefix[:])

	r := NewReader(&buf)
	_, err := r.Next()

	var jerr *Error
	if !errors.As(err, &jerr) || jerr.Kind != ErrorTooLarge {
		t.Errorf("error = %v, want ErrorTooLarge", err)
	}
}

func TestReader_DecodeError(t *testing.T) {
	var buf bytes.Buffer
	garbage := []byte{0xC1, 0xC1, 0xC1} // reserved msgpack bytes
	var prefix [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(garbage)))
	buf.Write(prefix[:])
	buf.Write(garbage)

	r := NewReader(&buf)
	_, err := r.Next()

	var jerr *Error
	if !errors.As(err, &jerr) || jerr.Kind != ErrorDecode {
		t.Errorf("error = %v, want ErrorDecode", err)
	}
}
