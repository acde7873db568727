package events

import "github.com/koscakluka/roundtable-core/core/participants"

const (
	// KindGenerationStarted identifies the start of an agent generation turn.
	KindGenerationStarted Kind = "generation.start"
	// KindGenerationChunk identifies one streamed response fragment.
	KindGenerationChunk Kind = "generation.chunk"
	// KindGenerationCompleted identifies a finished generation turn.
	KindGenerationCompleted Kind = "generation.complete"
)

// GenerationStarted marks an agent beginning to generate a response.
type GenerationStarted struct {
	Base
	Participant participants.Role
	Prompt      string
}

// NewGenerationStarted creates a generation start event.
func NewGenerationStarted(sessionID string, participant participants.Role, prompt string) GenerationStarted {
	return GenerationStarted{Base: NewBase(KindGenerationStarted, sessionID), Participant: participant, Prompt: prompt}
}

// GenerationChunk carries one streamed response fragment in arrival order.
type GenerationChunk struct {
	Base
	Participant participants.Role
	Fragment    string
}

// NewGenerationChunk creates a generation fragment event.
func NewGenerationChunk(sessionID string, participant participants.Role, fragment string) GenerationChunk {
	return GenerationChunk{Base: NewBase(KindGenerationChunk, sessionID), Participant: participant, Fragment: fragment}
}

// GenerationCompleted carries the full assembled response text.
type GenerationCompleted struct {
	Base
	Participant participants.Role
	CaptionID   string
	Response    string
}

// NewGenerationCompleted creates a generation completion event.
func NewGenerationCompleted(sessionID string, participant participants.Role, captionID, response string) GenerationCompleted {
	return GenerationCompleted{
		Base:        NewBase(KindGenerationCompleted, sessionID),
		Participant: participant,
		CaptionID:   captionID,
		Response:    response,
	}
}
