package orchestration

import (
	"github.com/koscakluka/roundtable-core/core/participants"
)

// Observer receives the outward-facing view of session activity. Unset
// callbacks are replaced with no-ops so callers only wire what they watch.
// Callbacks are invoked from session control paths and should return quickly.
type Observer struct {
	// OnAcknowledgement receives short human-readable confirmations and
	// non-fatal failure notices, naming the originating service.
	OnAcknowledgement func(sessionID string, message string)
	// OnStateChanged fires on every participant activity transition.
	OnStateChanged func(sessionID string, participant participants.Role, state participants.ActivityState)
	// OnCaptionAdded fires once per committed caption.
	OnCaptionAdded func(sessionID string, caption Caption)
	// OnPartialTranscript carries the live projection of in-progress speech or
	// generation. Partials are transient and never persisted.
	OnPartialTranscript func(sessionID string, participant participants.Role, text string)
	// OnThinkingEntered fires when an agent starts working on a prompt.
	OnThinkingEntered func(sessionID string, participant participants.Role, durationMs int64)
	// OnArtifactsReady fires once per session with the artifact manifest.
	OnArtifactsReady func(sessionID string, manifest []string)
}

func (o Observer) normalized() Observer {
	if o.OnAcknowledgement == nil {
		o.OnAcknowledgement = func(string, string) {}
	}
	if o.OnStateChanged == nil {
		o.OnStateChanged = func(string, participants.Role, participants.ActivityState) {}
	}
	if o.OnCaptionAdded == nil {
		o.OnCaptionAdded = func(string, Caption) {}
	}
	if o.OnPartialTranscript == nil {
		o.OnPartialTranscript = func(string, participants.Role, string) {}
	}
	if o.OnThinkingEntered == nil {
		o.OnThinkingEntered = func(string, participants.Role, int64) {}
	}
	if o.OnArtifactsReady == nil {
		o.OnArtifactsReady = func(string, []string) {}
	}
	return o
}
