package events

import "github.com/koscakluka/roundtable-core/core/participants"

const (
	// KindActivityChanged identifies a participant activity-state transition.
	KindActivityChanged Kind = "state.change"
	// KindThinkingEntered identifies an agent entering thinking mode.
	KindThinkingEntered Kind = "thinking.enter"
	// KindAutopilotToggled identifies the autopilot flag flipping.
	KindAutopilotToggled Kind = "autopilot.toggle"
	// KindInterrupted identifies one participant speaking over another.
	KindInterrupted Kind = "interruption"
)

// ActivityChanged records one participant activity-state transition.
type ActivityChanged struct {
	Base
	Participant participants.Role
	From        participants.ActivityState
	To          participants.ActivityState
}

// NewActivityChanged creates an activity-state transition event.
func NewActivityChanged(sessionID string, participant participants.Role, from, to participants.ActivityState) ActivityChanged {
	return ActivityChanged{Base: NewBase(KindActivityChanged, sessionID), Participant: participant, From: from, To: to}
}

// ThinkingEntered marks an agent entering thinking mode. DurationMs is the
// time in milliseconds since the triggering prompt was accepted, zero when
// unknown.
type ThinkingEntered struct {
	Base
	Participant participants.Role
	DurationMs  int64
}

// NewThinkingEntered creates a thinking-mode event.
func NewThinkingEntered(sessionID string, participant participants.Role, durationMs int64) ThinkingEntered {
	return ThinkingEntered{Base: NewBase(KindThinkingEntered, sessionID), Participant: participant, DurationMs: durationMs}
}

// AutopilotToggled records the autopilot flag flipping.
type AutopilotToggled struct {
	Base
	Enabled bool
}

// NewAutopilotToggled creates an autopilot toggle event.
func NewAutopilotToggled(sessionID string, enabled bool) AutopilotToggled {
	return AutopilotToggled{Base: NewBase(KindAutopilotToggled, sessionID), Enabled: enabled}
}

// Interrupted records a participant speaking while another was mid-response.
type Interrupted struct {
	Base
	Participant participants.Role
	Interrupted participants.Role
}

// NewInterrupted creates an interruption event.
func NewInterrupted(sessionID string, participant, interrupted participants.Role) Interrupted {
	return Interrupted{Base: NewBase(KindInterrupted, sessionID), Participant: participant, Interrupted: interrupted}
}
