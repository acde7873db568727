package events

import "github.com/koscakluka/roundtable-core/core/participants"

const (
	// KindSynthesisStarted identifies the start of speech synthesis.
	KindSynthesisStarted Kind = "synthesis.start"
	// KindSynthesisChunk identifies one recorded synthesized audio chunk.
	KindSynthesisChunk Kind = "synthesis.chunk"
	// KindSynthesisCompleted identifies the end of speech synthesis.
	KindSynthesisCompleted Kind = "synthesis.complete"
)

// SynthesisStarted marks synthesis beginning for an agent's response.
type SynthesisStarted struct {
	Base
	Participant participants.Role
	Text        string
}

// NewSynthesisStarted creates a synthesis start event.
func NewSynthesisStarted(sessionID string, participant participants.Role, text string) SynthesisStarted {
	return SynthesisStarted{Base: NewBase(KindSynthesisStarted, sessionID), Participant: participant, Text: text}
}

// SynthesisChunk records that a synthesized audio chunk was written; the log
// keeps the size, the audio itself lives in the recording track.
type SynthesisChunk struct {
	Base
	Participant participants.Role
	Bytes       int
}

// NewSynthesisChunk creates a synthesis chunk event.
func NewSynthesisChunk(sessionID string, participant participants.Role, bytes int) SynthesisChunk {
	return SynthesisChunk{Base: NewBase(KindSynthesisChunk, sessionID), Participant: participant, Bytes: bytes}
}

// SynthesisCompleted marks synthesis finishing, whether naturally or stopped.
type SynthesisCompleted struct {
	Base
	Participant participants.Role
}

// NewSynthesisCompleted creates a synthesis completion event.
func NewSynthesisCompleted(sessionID string, participant participants.Role) SynthesisCompleted {
	return SynthesisCompleted{Base: NewBase(KindSynthesisCompleted, sessionID), Participant: participant}
}
