package wire

import (
	"sort"
	"strings"

	"github.com/lingomesh/voxgate/types"
)

// audioFramePrefix is the well-known name prefix for per-language
// translated audio frames ("audio_fr" carries the French clip).
const audioFramePrefix = "audio_"

// embeddingFrameName is the well-known name of the voice embedding frame.
const embeddingFrameName = "embedding"

// Unresolved describes one binary frame table entry that could not be
// materialized. Unresolved entries are a recoverable partial-data
// condition, never fatal: the event is still routed with the field empty.
type Unresolved struct {
	// Name is the logical frame name from the table.
	Name string
	// Index is the declared 1-based index.
	Index int
	// Position is the computed 0-based position into the binary frame list.
	Position int
	// Reason names why binding failed.
	Reason string
}

// framePosition translates a declared 1-based frame index into a 0-based
// position in the binary frame list. The metadata frame is stripped before
// the list is indexed, hence the subtraction. This is the only place the
// off-by-one translation happens.
func framePosition(index int) int {
	return index - 1
}

// ResolveAudioFrames materializes the envelope's binary frame table into
// the audio processing result: each "audio_<lang>" entry binds to the
// matching translated-audio element's RawAudio, and "embedding" binds to
// the new voice profile's RawEmbedding.
//
// Resolution is total over the table: every declared name is attempted
// exactly once, and a failed binding never causes other names to be
// skipped. The returned slice lists the entries that could not be bound,
// in name order.
func ResolveAudioFrames(result *types.AudioProcessCompleted, table map[string]types.BinaryFrameInfo, binary [][]byte) []Unresolved {
	if len(table) == 0 {
		return nil
	}

	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	var unresolved []Unresolved
	for _, name := range names {
		info := table[name]
		position := framePosition(info.Index)

		if position < 0 || position >= len(binary) {
			unresolved = append(unresolved, Unresolved{
				Name:     name,
				Index:    info.Index,
				Position: position,
				Reason:   "index out of range",
			})
			continue
		}

		if !bindFrame(result, name, binary[position]) {
			unresolved = append(unresolved, Unresolved{
				Name:     name,
				Index:    info.Index,
				Position: position,
				Reason:   "no payload field for frame name",
			})
		}
	}

	return unresolved
}

// bindFrame attaches data to the payload field named by the logical frame
// name. Returns false if no field matches.
func bindFrame(result *types.AudioProcessCompleted, name string, data []byte) bool {
	if name == embeddingFrameName {
		if result.NewVoiceProfile == nil {
			return false
		}
		result.NewVoiceProfile.RawEmbedding = data
		return true
	}

	if lang, ok := strings.CutPrefix(name, audioFramePrefix); ok {
		for i := range result.TranslatedAudios {
			if result.TranslatedAudios[i].TargetLanguage == lang {
				result.TranslatedAudios[i].RawAudio = data
				return true
			}
		}
	}

	return false
}
