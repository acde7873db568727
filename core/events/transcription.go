package events

import "github.com/koscakluka/roundtable-core/core/participants"

const (
	// KindTranscriptPartial identifies interim, uncommitted recognition text.
	KindTranscriptPartial Kind = "stt.partial"
	// KindTranscriptFinal identifies finalized recognition text.
	KindTranscriptFinal Kind = "stt.final"
)

// TranscriptPartial carries interim recognition text for the live projection.
type TranscriptPartial struct {
	Base
	Participant participants.Role
	Transcript  string
}

// NewTranscriptPartial creates an interim transcription event.
func NewTranscriptPartial(sessionID string, participant participants.Role, transcript string) TranscriptPartial {
	return TranscriptPartial{Base: NewBase(KindTranscriptPartial, sessionID), Participant: participant, Transcript: transcript}
}

// TranscriptFinal carries a finalized transcript that was committed as a
// caption.
type TranscriptFinal struct {
	Base
	Participant participants.Role
	CaptionID   string
	Transcript  string
}

// NewTranscriptFinal creates a final transcription event.
func NewTranscriptFinal(sessionID string, participant participants.Role, captionID, transcript string) TranscriptFinal {
	return TranscriptFinal{
		Base:        NewBase(KindTranscriptFinal, sessionID),
		Participant: participant,
		CaptionID:   captionID,
		Transcript:  transcript,
	}
}
