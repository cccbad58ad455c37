// Package journal persists routed events as length-prefixed msgpack
// frames, the gateway's local persistence boundary. A journal file can be
// replayed with Reader to rebuild downstream state after a restart.
//
// Frame layout: 4-byte big-endian payload length, then a msgpack-encoded
// Record. Binary payload bytes ride inside the record untouched.
package journal

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lingomesh/voxgate/bus"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (16 MiB), including prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
	// MaxPayloadSize is the maximum record size (MaxFrameSize - prefix).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
)

// ErrorKind classifies journal frame errors.
type ErrorKind int

const (
	// ErrorPartial indicates a truncated or incomplete frame.
	ErrorPartial ErrorKind = iota
	// ErrorTooLarge indicates a frame exceeding MaxFrameSize.
	ErrorTooLarge
	// ErrorDecode indicates a msgpack decoding error.
	ErrorDecode
)

// Error represents a journal framing error.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Record is the persisted form of one routed event.
type Record struct {
	// EventID is the emission id assigned by the bus.
	EventID string `msgpack:"event_id"`
	// Channel is the outbound channel name the event was published on.
	Channel string `msgpack:"channel"`
	// Type is the wire discriminant the event was routed from.
	Type string `msgpack:"type"`
	// TaskID and JobID carry the correlation ids.
	TaskID string `msgpack:"task_id,omitempty"`
	JobID  string `msgpack:"job_id,omitempty"`
	// EmittedAt is the emission timestamp, RFC 3339 UTC.
	EmittedAt string `msgpack:"emitted_at"`
	// Payload is the JSON-encoded typed payload.
	Payload []byte `msgpack:"payload"`
}

// NewRecord converts a bus event into its persisted form.
// Binary fields of the payload are not JSON-encoded (they carry `json:"-"`
// tags); the journal stores the control metadata, not the audio bytes.
func NewRecord(event *bus.Event) (*Record, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("journal: encode payload: %w", err)
	}
	return &Record{
		EventID:   event.ID,
		Channel:   event.Channel,
		Type:      string(event.Type),
		TaskID:    event.TaskID,
		JobID:     event.JobID,
		EmittedAt: event.EmittedAt.Format(time.RFC3339Nano),
		Payload:   payload,
	}, nil
}

// Writer appends records to an underlying stream.
// Thread-safe; each Append is one complete frame.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	count int64
}

// NewWriter creates a journal writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Append frames and writes one record.
func (jw *Writer) Append(record *Record) error {
	payload, err := msgpack.Marshal(record)
	if err != nil {
		return &Error{Kind: ErrorDecode, Msg: "failed to encode record", Err: err}
	}
	if len(payload) > MaxPayloadSize {
		return &Error{
			Kind: ErrorTooLarge,
			Msg:  fmt.Sprintf("record size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}

	var prefix [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if _, err := jw.w.Write(prefix[:]); err != nil {
		return fmt.Errorf("journal: write prefix: %w", err)
	}
	if _, err := jw.w.Write(payload); err != nil {
		return fmt.Errorf("journal: write payload: %w", err)
	}
	jw.count++
	return nil
}

// AppendEvent converts and appends a bus event in one step.
func (jw *Writer) AppendEvent(event *bus.Event) error {
	record, err := NewRecord(event)
	if err != nil {
		return err
	}
	return jw.Append(record)
}

// Count returns the number of records appended so far.
func (jw *Writer) Count() int64 {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.count
}

// Reader replays records from a journal stream.
type Reader struct {
	r io.Reader
}

// NewReader creates a journal reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next reads one record.
//
// Errors:
//   - io.EOF: stream ended cleanly (no more records)
//   - *Error with Kind=ErrorPartial: incomplete frame
//   - *Error with Kind=ErrorTooLarge: frame exceeds limit
//   - *Error with Kind=ErrorDecode: msgpack decoding failed
func (jr *Reader) Next() (*Record, error) {
	var prefix [LengthPrefixSize]byte
	if _, err := io.ReadFull(jr.r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &Error{Kind: ErrorPartial, Msg: "failed to read length prefix", Err: err}
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxPayloadSize {
		return nil, &Error{
			Kind: ErrorTooLarge,
			Msg:  fmt.Sprintf("record size %d exceeds maximum %d", size, MaxPayloadSize),
		}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(jr.r, payload); err != nil {
		return nil, &Error{Kind: ErrorPartial, Msg: "failed to read payload", Err: err}
	}

	var record Record
	if err := msgpack.Unmarshal(payload, &record); err != nil {
		return nil, &Error{Kind: ErrorDecode, Msg: "failed to decode record", Err: err}
	}
	return &record, nil
}
