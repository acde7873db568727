package events

import "time"

type Kind string

type Event interface {
	Kind() Kind
	Timestamp() time.Time
	SessionID() string
}

// Base carries the fields shared by every event: the kind tag, the moment the
// event was created, and the session it originated from. Session context is
// always explicit; no event is ever attributed by looking up shared state.
type Base struct {
	kind      Kind
	timestamp time.Time
	sessionID string
}

func NewBase(kind Kind, sessionID string) Base {
	return Base{kind: kind, timestamp: time.Now(), sessionID: sessionID}
}

// NewBaseAt builds a Base with an explicit timestamp, used when replaying
// recorded events.
func NewBaseAt(kind Kind, sessionID string, timestamp time.Time) Base {
	return Base{kind: kind, timestamp: timestamp, sessionID: sessionID}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}

func (b Base) SessionID() string {
	return b.sessionID
}
