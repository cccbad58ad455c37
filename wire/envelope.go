package wire

import (
	"encoding/json"

	"github.com/lingomesh/voxgate/types"
)

// ParseEnvelope decodes the metadata frame into an envelope.
// The parse is strict: invalid JSON or a missing type discriminant is a
// FrameErrorParse. The raw metadata is retained on the envelope so the
// router can decode the per-type payload without a second copy of the
// transport message.
func ParseEnvelope(meta []byte) (*types.Envelope, error) {
	var envelope types.Envelope
	if err := json.Unmarshal(meta, &envelope); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorParse,
			Msg:  "failed to decode event envelope",
			Err:  err,
		}
	}

	if envelope.Type == "" {
		return nil, &FrameError{
			Kind: FrameErrorParse,
			Msg:  "envelope missing type discriminant",
		}
	}

	envelope.Raw = json.RawMessage(meta)
	return &envelope, nil
}
