package eventlog

import (
	"fmt"
	"time"

	"github.com/koscakluka/roundtable-core/core/events"
	"github.com/koscakluka/roundtable-core/core/participants"
)

// recordVersion is bumped only when a serialized field changes meaning; new
// event kinds are additive and do not bump it.
const recordVersion = 1

// record is the wire shape of one log line. Every line carries v, type,
// timestamp and sessionId; the remaining fields are kind-specific.
type record struct {
	Version   int       `json:"v"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`

	Participant  string   `json:"participant,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Transcript   string   `json:"transcript,omitempty"`
	CaptionID    string   `json:"captionId,omitempty"`
	Prompt       string   `json:"prompt,omitempty"`
	Fragment     string   `json:"fragment,omitempty"`
	Response     string   `json:"response,omitempty"`
	Text         string   `json:"text,omitempty"`
	Bytes        int      `json:"bytes,omitempty"`
	From         string   `json:"from,omitempty"`
	To           string   `json:"to,omitempty"`
	DurationMs   int64    `json:"durationMs,omitempty"`
	Enabled      *bool    `json:"enabled,omitempty"`
	Autopilot    *bool    `json:"autopilot,omitempty"`
	Interrupted  string   `json:"interrupted,omitempty"`
	Manifest     []string `json:"manifest,omitempty"`
	Service      string   `json:"service,omitempty"`
	Message      string   `json:"message,omitempty"`
}

func newRecord(event events.Event) record {
	return record{
		Version:   recordVersion,
		Type:      string(event.Kind()),
		Timestamp: event.Timestamp(),
		SessionID: event.SessionID(),
	}
}

// encode maps every event kind onto its wire record. The switch is the
// closed set: an event type without a case here cannot be recorded, which the
// contract test checks kind by kind.
func encode(event events.Event) (record, error) {
	rec := newRecord(event)

	switch typedEvent := event.(type) {
	case events.SessionStarted:
		for _, role := range typedEvent.Participants {
			rec.Participants = append(rec.Participants, string(role))
		}
		rec.Autopilot = &typedEvent.Autopilot
	case events.SessionEnded:
		rec.Manifest = typedEvent.Manifest
	case events.TranscriptPartial:
		rec.Participant = string(typedEvent.Participant)
		rec.Transcript = typedEvent.Transcript
	case events.TranscriptFinal:
		rec.Participant = string(typedEvent.Participant)
		rec.CaptionID = typedEvent.CaptionID
		rec.Transcript = typedEvent.Transcript
	case events.GenerationStarted:
		rec.Participant = string(typedEvent.Participant)
		rec.Prompt = typedEvent.Prompt
	case events.GenerationChunk:
		rec.Participant = string(typedEvent.Participant)
		rec.Fragment = typedEvent.Fragment
	case events.GenerationCompleted:
		rec.Participant = string(typedEvent.Participant)
		rec.CaptionID = typedEvent.CaptionID
		rec.Response = typedEvent.Response
	case events.SynthesisStarted:
		rec.Participant = string(typedEvent.Participant)
		rec.Text = typedEvent.Text
	case events.SynthesisChunk:
		rec.Participant = string(typedEvent.Participant)
		rec.Bytes = typedEvent.Bytes
	case events.SynthesisCompleted:
		rec.Participant = string(typedEvent.Participant)
	case events.ActivityChanged:
		rec.Participant = string(typedEvent.Participant)
		rec.From = string(typedEvent.From)
		rec.To = string(typedEvent.To)
	case events.ThinkingEntered:
		rec.Participant = string(typedEvent.Participant)
		rec.DurationMs = typedEvent.DurationMs
	case events.AutopilotToggled:
		rec.Enabled = &typedEvent.Enabled
	case events.Interrupted:
		rec.Participant = string(typedEvent.Participant)
		rec.Interrupted = string(typedEvent.Interrupted)
	case events.Error:
		rec.Participant = string(typedEvent.Participant)
		rec.Service = typedEvent.Service
		rec.Message = typedEvent.Message
	default:
		return record{}, fmt.Errorf("event kind %q is not part of the recorded set", event.Kind())
	}

	return rec, nil
}

// decode rebuilds the typed event from its wire record, rejecting kinds
// outside the closed set so replay fails loudly on logs written by a newer
// version.
func decode(rec record) (events.Event, error) {
	base := events.NewBaseAt(events.Kind(rec.Type), rec.SessionID, rec.Timestamp)

	switch events.Kind(rec.Type) {
	case events.KindSessionStarted:
		roles := make([]participants.Role, 0, len(rec.Participants))
		for _, role := range rec.Participants {
			roles = append(roles, participants.Role(role))
		}
		autopilot := rec.Autopilot != nil && *rec.Autopilot
		return events.SessionStarted{Base: base, Participants: roles, Autopilot: autopilot}, nil
	case events.KindSessionEnded:
		return events.SessionEnded{Base: base, Manifest: rec.Manifest}, nil
	case events.KindTranscriptPartial:
		return events.TranscriptPartial{Base: base, Participant: participants.Role(rec.Participant), Transcript: rec.Transcript}, nil
	case events.KindTranscriptFinal:
		return events.TranscriptFinal{Base: base, Participant: participants.Role(rec.Participant), CaptionID: rec.CaptionID, Transcript: rec.Transcript}, nil
	case events.KindGenerationStarted:
		return events.GenerationStarted{Base: base, Participant: participants.Role(rec.Participant), Prompt: rec.Prompt}, nil
	case events.KindGenerationChunk:
		return events.GenerationChunk{Base: base, Participant: participants.Role(rec.Participant), Fragment: rec.Fragment}, nil
	case events.KindGenerationCompleted:
		return events.GenerationCompleted{Base: base, Participant: participants.Role(rec.Participant), CaptionID: rec.CaptionID, Response: rec.Response}, nil
	case events.KindSynthesisStarted:
		return events.SynthesisStarted{Base: base, Participant: participants.Role(rec.Participant), Text: rec.Text}, nil
	case events.KindSynthesisChunk:
		return events.SynthesisChunk{Base: base, Participant: participants.Role(rec.Participant), Bytes: rec.Bytes}, nil
	case events.KindSynthesisCompleted:
		return events.SynthesisCompleted{Base: base, Participant: participants.Role(rec.Participant)}, nil
	case events.KindActivityChanged:
		return events.ActivityChanged{
			Base:        base,
			Participant: participants.Role(rec.Participant),
			From:        participants.ActivityState(rec.From),
			To:          participants.ActivityState(rec.To),
		}, nil
	case events.KindThinkingEntered:
		return events.ThinkingEntered{Base: base, Participant: participants.Role(rec.Participant), DurationMs: rec.DurationMs}, nil
	case events.KindAutopilotToggled:
		enabled := rec.Enabled != nil && *rec.Enabled
		return events.AutopilotToggled{Base: base, Enabled: enabled}, nil
	case events.KindInterrupted:
		return events.Interrupted{Base: base, Participant: participants.Role(rec.Participant), Interrupted: participants.Role(rec.Interrupted)}, nil
	case events.KindError:
		return events.Error{Base: base, Participant: participants.Role(rec.Participant), Service: rec.Service, Message: rec.Message}, nil
	}

	return nil, fmt.Errorf("unknown event kind %q", rec.Type)
}
