package events

import "github.com/koscakluka/roundtable-core/core/participants"

const (
	// KindSessionStarted identifies a session becoming active.
	KindSessionStarted Kind = "session.start"
	// KindSessionEnded identifies a session reaching its closed state.
	KindSessionEnded Kind = "session.end"
)

// SessionStarted marks a session becoming active with its fixed participant
// set.
type SessionStarted struct {
	Base
	Participants []participants.Role
	Autopilot    bool
}

// NewSessionStarted creates a session start event.
func NewSessionStarted(sessionID string, roles []participants.Role, autopilot bool) SessionStarted {
	return SessionStarted{Base: NewBase(KindSessionStarted, sessionID), Participants: roles, Autopilot: autopilot}
}

// SessionEnded marks a session closing; the manifest lists every artifact the
// session produced and may be partial after a drain timeout.
type SessionEnded struct {
	Base
	Manifest []string
}

// NewSessionEnded creates a session end event.
func NewSessionEnded(sessionID string, manifest []string) SessionEnded {
	return SessionEnded{Base: NewBase(KindSessionEnded, sessionID), Manifest: manifest}
}
