package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/roundtable-core/core/events"
	"github.com/koscakluka/roundtable-core/core/participants"
	"github.com/koscakluka/roundtable-core/core/textgeneration"
	"github.com/koscakluka/roundtable-core/core/texttospeech"
)

// PromptAgent drives one agent turn: the agent enters thinking while the
// response streams in, the completed response is committed as a caption, and
// the agent speaks it through the synthesizer into its own recording track.
// The call returns once the prompt is accepted; the turn runs asynchronously.
func (o *Orchestrator) PromptAgent(ctx context.Context, sessionID string, agent participants.Role, prompt string) error {
	if !agent.IsAgent() {
		return ProtocolError{SessionID: sessionID, Reason: fmt.Sprintf("participant %q cannot be prompted", agent)}
	}
	if o.generator == nil {
		return ProtocolError{SessionID: sessionID, Reason: "no text generator configured"}
	}

	s, err := o.session(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.isAcceptingInput() {
		s.mu.Unlock()
		return ProtocolError{SessionID: sessionID, Reason: "session is not accepting input"}
	}
	acceptedAt := time.Now()
	s.promptAcceptedAt[agent] = acceptedAt
	changed := s.setActivityLocked(agent, participants.StateThinking)
	_ = s.log.Record(events.NewGenerationStarted(sessionID, agent, prompt))
	instructions := s.instructions
	s.mu.Unlock()

	if changed {
		o.observer.OnStateChanged(sessionID, agent, participants.StateThinking)
	}

	go o.runAgentTurn(ctx, s, agent, prompt, instructions, acceptedAt)
	return nil
}

func (o *Orchestrator) runAgentTurn(ctx context.Context, s *session, agent participants.Role, prompt, instructions string, acceptedAt time.Time) {
	durationMs := time.Since(acceptedAt).Milliseconds()
	s.mu.Lock()
	_ = s.log.Record(events.NewThinkingEntered(s.id, agent, durationMs))
	s.mu.Unlock()
	o.observer.OnThinkingEntered(s.id, agent, durationMs)

	err := o.generator.Generate(ctx, prompt,
		textgeneration.WithSessionID(s.id),
		textgeneration.WithInstructions(instructions),
		textgeneration.WithFragmentCallback(func(sessionID, fragment string) {
			o.handleGenerationFragment(sessionID, agent, fragment)
		}),
		textgeneration.WithCompletedCallback(func(sessionID, response string) {
			o.handleGenerationCompleted(ctx, sessionID, agent, response)
		}),
		textgeneration.WithErrorCallback(func(sessionID string, err error) {
			o.failAgentTurn(sessionID, agent, "generation", err)
		}),
	)
	if err != nil {
		s.mu.Lock()
		alreadyFailed := s.activity[agent] == participants.StateErrored
		s.mu.Unlock()
		if !alreadyFailed {
			o.failAgentTurn(s.id, agent, "generation", err)
		}
	}
}

func (o *Orchestrator) handleGenerationFragment(sessionID string, agent participants.Role, fragment string) {
	s, err := o.session(sessionID)
	if err != nil {
		return
	}

	s.mu.Lock()
	if !s.isAcceptingInput() {
		s.mu.Unlock()
		return
	}
	s.livePartial[agent] += fragment
	accumulated := s.livePartial[agent]
	_ = s.log.Record(events.NewGenerationChunk(sessionID, agent, fragment))
	s.mu.Unlock()

	o.observer.OnPartialTranscript(sessionID, agent, accumulated)
}

func (o *Orchestrator) handleGenerationCompleted(ctx context.Context, sessionID string, agent participants.Role, response string) {
	s, err := o.session(sessionID)
	if err != nil {
		return
	}

	caption := Caption{
		ID:          uuid.NewString(),
		Participant: agent,
		Text:        response,
		Timestamp:   time.Now(),
	}

	s.mu.Lock()
	if !s.isAcceptingInput() {
		s.mu.Unlock()
		return
	}
	s.appendCaptionLocked(caption)
	delete(s.livePartial, agent)
	var resourceErr error
	if writeErr := s.writer.AppendCaption(agent, response, caption.Timestamp); writeErr != nil {
		resourceErr = ResourceError{SessionID: sessionID, Op: "caption write", Err: writeErr}
		_ = s.log.Record(events.NewError(sessionID, "captions", agent, resourceErr.Error()))
	}
	_ = s.log.Record(events.NewGenerationCompleted(sessionID, agent, caption.ID, response))
	s.mu.Unlock()

	if resourceErr != nil {
		o.observer.OnAcknowledgement(sessionID, resourceErr.Error())
	}
	captionsCommittedCounter.Add(context.Background(), 1)
	o.observer.OnCaptionAdded(sessionID, caption)
	o.observer.OnPartialTranscript(sessionID, agent, "")

	o.speakResponse(ctx, s, agent, response)
}

func (o *Orchestrator) speakResponse(ctx context.Context, s *session, agent participants.Role, response string) {
	if o.synthesizer == nil {
		o.settleAgent(s, agent, participants.StateIdle)
		return
	}

	s.mu.Lock()
	if !s.isAcceptingInput() {
		s.mu.Unlock()
		return
	}
	changed := s.setActivityLocked(agent, participants.StateSpeaking)
	_ = s.log.Record(events.NewSynthesisStarted(s.id, agent, response))
	encoding := s.encoding
	s.mu.Unlock()

	if changed {
		o.observer.OnStateChanged(s.id, agent, participants.StateSpeaking)
	}

	err := o.synthesizer.Synthesize(ctx, response,
		texttospeech.WithSessionID(s.id),
		texttospeech.WithEncodingInfo(encoding),
		texttospeech.WithSpeechAudioCallback(func(sessionID string, chunk []byte) {
			o.handleSynthesisAudio(sessionID, agent, chunk)
		}),
		texttospeech.WithSpeechEndedCallback(func(sessionID string) {
			o.handleSynthesisEnded(sessionID, agent)
		}),
		texttospeech.WithErrorCallback(func(sessionID string, err error) {
			o.failAgentTurn(sessionID, agent, "synthesis", err)
		}),
	)
	if err != nil {
		o.failAgentTurn(s.id, agent, "synthesis", err)
	}
}

func (o *Orchestrator) handleSynthesisAudio(sessionID string, agent participants.Role, chunk []byte) {
	s, err := o.session(sessionID)
	if err != nil {
		return
	}

	s.mu.Lock()
	// Audio arriving after an interruption is dropped, not recorded.
	if !s.isAcceptingInput() || s.activity[agent] != participants.StateSpeaking {
		s.mu.Unlock()
		return
	}
	writeErr := s.writer.WriteAudio(agent, chunk)
	_ = s.log.Record(events.NewSynthesisChunk(sessionID, agent, len(chunk)))
	if writeErr != nil {
		resourceErr := ResourceError{SessionID: sessionID, Op: "recording write", Err: writeErr}
		_ = s.log.Record(events.NewError(sessionID, "recording", agent, resourceErr.Error()))
		s.mu.Unlock()
		o.observer.OnAcknowledgement(sessionID, resourceErr.Error())
		return
	}
	s.mu.Unlock()
}

func (o *Orchestrator) handleSynthesisEnded(sessionID string, agent participants.Role) {
	s, err := o.session(sessionID)
	if err != nil {
		return
	}

	s.mu.Lock()
	if !s.isAcceptingInput() {
		s.mu.Unlock()
		return
	}
	_ = s.log.Record(events.NewSynthesisCompleted(sessionID, agent))
	changed := s.setActivityLocked(agent, participants.StateIdle)
	s.mu.Unlock()

	if changed {
		o.observer.OnStateChanged(sessionID, agent, participants.StateIdle)
	}
}

// failAgentTurn recovers an adapter failure mid-turn: the error is logged and
// acknowledged, and the agent lands in errored so the failure is visible in
// snapshots until the next prompt.
func (o *Orchestrator) failAgentTurn(sessionID string, agent participants.Role, service string, err error) {
	s, sessionErr := o.session(sessionID)
	if sessionErr != nil {
		return
	}

	o.reportAdapterError(context.Background(), sessionID, service, agent, err)
	o.settleAgent(s, agent, participants.StateErrored)
}

func (o *Orchestrator) settleAgent(s *session, agent participants.Role, state participants.ActivityState) {
	s.mu.Lock()
	if !s.isAcceptingInput() {
		s.mu.Unlock()
		return
	}
	changed := s.setActivityLocked(agent, state)
	s.mu.Unlock()

	if changed {
		o.observer.OnStateChanged(s.id, agent, state)
	}
}
