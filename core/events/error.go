package events

import "github.com/koscakluka/roundtable-core/core/participants"

// KindError identifies a recovered adapter or resource failure.
const KindError Kind = "error"

// Error records a failure that was confined to its session: which service
// produced it, for which participant (empty when not participant-bound), and
// the failure text.
type Error struct {
	Base
	Service     string
	Participant participants.Role
	Message     string
}

// NewError creates an error event.
func NewError(sessionID, service string, participant participants.Role, message string) Error {
	return Error{Base: NewBase(KindError, sessionID), Service: service, Participant: participant, Message: message}
}
