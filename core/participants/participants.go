// Package participants defines the closed participant set of a roundtable
// session and the activity states a participant can move through.
package participants

// Role identifies one of the fixed conversational roles in a session.
type Role string

const (
	// RoleHuman is the human operator hosting the conversation.
	RoleHuman Role = "human"
	// RolePrimaryAgent is the main conversational agent.
	RolePrimaryAgent Role = "primary_agent"
	// RoleGuestAgent is the secondary, guest conversational agent.
	RoleGuestAgent Role = "guest_agent"
)

// Roles returns the full participant set in a stable order.
func Roles() []Role {
	return []Role{RoleHuman, RolePrimaryAgent, RoleGuestAgent}
}

// IsValid reports whether the role belongs to the closed participant set.
func (r Role) IsValid() bool {
	switch r {
	case RoleHuman, RolePrimaryAgent, RoleGuestAgent:
		return true
	}
	return false
}

// IsAgent reports whether the role is backed by a generation adapter rather
// than a human operator.
func (r Role) IsAgent() bool {
	return r == RolePrimaryAgent || r == RoleGuestAgent
}

func (r Role) String() string { return string(r) }

// ActivityState is a participant's currently recognized behavior.
type ActivityState string

const (
	StateIdle      ActivityState = "idle"
	StateListening ActivityState = "listening"
	StateThinking  ActivityState = "thinking"
	StateSpeaking  ActivityState = "speaking"
	StateMuted     ActivityState = "muted"
	StateErrored   ActivityState = "errored"
)

func (s ActivityState) String() string { return string(s) }
