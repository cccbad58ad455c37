// Package wire implements the inbound framing contract with the
// translator backend: a JSON metadata frame optionally followed by raw
// binary payload frames in transport order.
package wire

import (
	"errors"
	"fmt"
)

// FrameErrorKind classifies framing errors.
type FrameErrorKind int

const (
	// FrameErrorEmpty indicates a multipart message with no frames.
	FrameErrorEmpty FrameErrorKind = iota
	// FrameErrorParse indicates the metadata frame is not valid JSON.
	FrameErrorParse
)

// FrameError represents a framing violation. Framing errors are always
// drop-and-log conditions; they never propagate past the router's
// per-message boundary.
type FrameError struct {
	Kind FrameErrorKind
	Msg  string
	Err  error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsFrameError reports whether err is a *FrameError of the given kind.
func IsFrameError(err error, kind FrameErrorKind) bool {
	var frameErr *FrameError
	if errors.As(err, &frameErr) {
		return frameErr.Kind == kind
	}
	return false
}

// Message is one inbound transport message: either a single opaque buffer
// (simple JSON event) or an ordered list of buffers (multipart event).
type Message struct {
	frames    [][]byte
	multipart bool
}

// Single wraps a plain byte buffer as a single-frame message.
func Single(buf []byte) Message {
	return Message{frames: [][]byte{buf}}
}

// Multipart wraps an ordered frame list as a multipart message.
// The first frame is the metadata frame; the remainder is the binary
// frame list.
func Multipart(frames [][]byte) Message {
	return Message{frames: frames, multipart: true}
}

// IsMultipart reports whether the message arrived as a frame list.
func (m Message) IsMultipart() bool {
	return m.multipart
}

// Split separates the metadata frame from the binary frame list.
// For single-frame messages the binary list is empty. An empty multipart
// message is a protocol violation.
func (m Message) Split() (meta []byte, binary [][]byte, err error) {
	if len(m.frames) == 0 {
		return nil, nil, &FrameError{
			Kind: FrameErrorEmpty,
			Msg:  "empty multipart message",
		}
	}
	return m.frames[0], m.frames[1:], nil
}
