package events

import (
	"testing"
	"time"

	"github.com/koscakluka/roundtable-core/core/participants"
)

// allKinds is the closed event set. Adding a kind means extending this list,
// the constructors below, and the event log serialization together.
var allKinds = []Kind{
	KindSessionStarted,
	KindSessionEnded,
	KindTranscriptPartial,
	KindTranscriptFinal,
	KindGenerationStarted,
	KindGenerationChunk,
	KindGenerationCompleted,
	KindSynthesisStarted,
	KindSynthesisChunk,
	KindSynthesisCompleted,
	KindActivityChanged,
	KindThinkingEntered,
	KindAutopilotToggled,
	KindInterrupted,
	KindError,
}

func TestKindsAreUnique(t *testing.T) {
	seen := map[Kind]struct{}{}
	for _, kind := range allKinds {
		if _, duplicate := seen[kind]; duplicate {
			t.Fatalf("duplicate event kind %q", kind)
		}
		seen[kind] = struct{}{}
	}
}

func TestConstructorsStampKindSessionAndTimestamp(t *testing.T) {
	before := time.Now()
	constructed := []Event{
		NewSessionStarted("ep-1", participants.Roles(), true),
		NewSessionEnded("ep-1", nil),
		NewTranscriptPartial("ep-1", participants.RoleHuman, "he"),
		NewTranscriptFinal("ep-1", participants.RoleHuman, "cap-1", "hello"),
		NewGenerationStarted("ep-1", participants.RolePrimaryAgent, "prompt"),
		NewGenerationChunk("ep-1", participants.RolePrimaryAgent, "frag"),
		NewGenerationCompleted("ep-1", participants.RolePrimaryAgent, "cap-2", "response"),
		NewSynthesisStarted("ep-1", participants.RolePrimaryAgent, "response"),
		NewSynthesisChunk("ep-1", participants.RolePrimaryAgent, 64),
		NewSynthesisCompleted("ep-1", participants.RolePrimaryAgent),
		NewActivityChanged("ep-1", participants.RoleHuman, participants.StateIdle, participants.StateSpeaking),
		NewThinkingEntered("ep-1", participants.RoleGuestAgent, 5),
		NewAutopilotToggled("ep-1", true),
		NewInterrupted("ep-1", participants.RoleHuman, participants.RoleGuestAgent),
		NewError("ep-1", "tts", participants.RoleGuestAgent, "boom"),
	}
	after := time.Now()

	if len(constructed) != len(allKinds) {
		t.Fatalf("expected one constructed event per kind, got %d events for %d kinds", len(constructed), len(allKinds))
	}

	for i, event := range constructed {
		if event.Kind() != allKinds[i] {
			t.Fatalf("event %d: expected kind %s, got %s", i, allKinds[i], event.Kind())
		}
		if event.SessionID() != "ep-1" {
			t.Fatalf("event %d: expected session id ep-1, got %q", i, event.SessionID())
		}
		if event.Timestamp().Before(before) || event.Timestamp().After(after) {
			t.Fatalf("event %d: timestamp outside construction window", i)
		}
	}
}

func TestRolesFormTheClosedParticipantSet(t *testing.T) {
	roles := participants.Roles()
	if len(roles) != 3 {
		t.Fatalf("expected 3 participant roles, got %d", len(roles))
	}
	for _, role := range roles {
		if !role.IsValid() {
			t.Fatalf("role %q reported invalid", role)
		}
	}
	if participants.Role("producer").IsValid() {
		t.Fatalf("expected unknown role to be invalid")
	}
}
