// Package orchestration is the single authority over live roundtable
// sessions: it owns each session's lifecycle and state, routes inbound audio
// and control events to the capability adapters, fans results out to
// observers, and drives the caption writer and event log.
package orchestration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/roundtable-core/core/audio"
	"github.com/koscakluka/roundtable-core/core/eventlog"
	"github.com/koscakluka/roundtable-core/core/events"
	"github.com/koscakluka/roundtable-core/core/participants"
	"github.com/koscakluka/roundtable-core/core/speechtotext"
	"github.com/koscakluka/roundtable-core/core/transcript"
	"go.opentelemetry.io/otel/codes"
)

type Orchestrator struct {
	config   Config
	observer Observer

	sttFactory  SpeechToTextFactory
	generator   TextGenerator
	synthesizer SpeechSynthesizer

	mu sync.Mutex
	// sessions retains closed sessions so their ids stay claimed and their
	// manifests stay answerable.
	sessions map[string]*session
}

func NewOrchestrator(config Config, opts ...OrchestratorOption) (*Orchestrator, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		config:   config,
		observer: Observer{}.normalized(),
		sessions: map[string]*session{},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

func (o *Orchestrator) session(sessionID string) (*session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	return s, nil
}

// OpenSession provisions a fresh session: a uniquely named output location,
// its writer and its event log. Resource acquisition is all-or-nothing; on
// failure everything acquired so far is rolled back and the id is released.
func (o *Orchestrator) OpenSession(ctx context.Context, sessionID string, opts ...SessionOption) error {
	ctx, span := tracer.Start(ctx, "open session")
	defer span.End()

	if sessionID == "" {
		return ProtocolError{SessionID: sessionID, Reason: "session id must not be empty"}
	}

	options := SessionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}

	s := newSession(sessionID, o.config.CaptionBufferSize, options.Autopilot)
	s.encoding = options.EncodingInfo
	s.instructions = options.Instructions

	o.mu.Lock()
	if _, exists := o.sessions[sessionID]; exists {
		o.mu.Unlock()
		return SessionInitError{SessionID: sessionID, Err: ErrDuplicateSession}
	}
	o.sessions[sessionID] = s
	o.mu.Unlock()

	dir := filepath.Join(o.config.OutputDir, sessionID)
	rollback := func() {
		o.mu.Lock()
		delete(o.sessions, sessionID)
		o.mu.Unlock()
		_ = os.RemoveAll(dir)
	}

	writer := transcript.NewWriter(dir, sessionID,
		transcript.WithEncodingInfo(options.EncodingInfo),
		transcript.WithProviders(options.Providers),
	)
	if err := writer.Open(); err != nil {
		rollback()
		initErr := SessionInitError{SessionID: sessionID, Err: err}
		span.RecordError(initErr)
		span.SetStatus(codes.Error, initErr.Error())
		return initErr
	}

	log := eventlog.NewLog(filepath.Join(dir, "events.jsonl"))
	if err := log.Open(); err != nil {
		_, _ = writer.Close()
		rollback()
		initErr := SessionInitError{SessionID: sessionID, Err: err}
		span.RecordError(initErr)
		span.SetStatus(codes.Error, initErr.Error())
		return initErr
	}

	s.mu.Lock()
	s.writer = writer
	s.log = log
	s.state = sessionStateActive
	_ = s.log.Record(events.NewSessionStarted(sessionID, participants.Roles(), options.Autopilot))
	s.mu.Unlock()

	sessionsOpenedCounter.Add(ctx, 1)
	logger.InfoContext(ctx, "session opened", "sessionId", sessionID, "autopilot", options.Autopilot)
	o.observer.OnAcknowledgement(sessionID, "session opened")
	return nil
}

// Announce registers a participant's presence, moving it to listening.
func (o *Orchestrator) Announce(sessionID string, participant participants.Role) error {
	if !participant.IsValid() {
		return ProtocolError{SessionID: sessionID, Reason: fmt.Sprintf("unknown participant %q", participant)}
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
	changed := s.setActivityLocked(participant, participants.StateListening)
	s.mu.Unlock()

	if changed {
		o.observer.OnStateChanged(sessionID, participant, participants.StateListening)
	}
	o.observer.OnAcknowledgement(sessionID, fmt.Sprintf("participant %s announced", participant))
	return nil
}

// SubmitAudio appends the chunk to the participant's recording track and
// forwards it to the participant's recognition client, created lazily on the
// first chunk. The recording write happens regardless of recognition
// outcome; recognition failures are recovered at this boundary.
//
// Human audio arriving while an agent is speaking interrupts that agent.
func (o *Orchestrator) SubmitAudio(ctx context.Context, sessionID string, participant participants.Role, chunk []byte) error {
	if !participant.IsValid() {
		return ProtocolError{SessionID: sessionID, Reason: fmt.Sprintf("unknown participant %q", participant)}
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

	var interrupted []participants.Role
	if participant == participants.RoleHuman {
		for _, role := range participants.Roles() {
			if role.IsAgent() && s.activity[role] == participants.StateSpeaking {
				interrupted = append(interrupted, role)
				_ = s.log.Record(events.NewInterrupted(sessionID, participant, role))
				s.setActivityLocked(role, participants.StateIdle)
			}
		}
	}

	writeErr := s.writer.WriteAudio(participant, chunk)

	recognizer, recErr := o.recognizerLocked(ctx, s, participant)
	if recErr == nil && recognizer != nil {
		recErr = recognizer.SendAudio(chunk)
	}
	s.mu.Unlock()

	for _, role := range interrupted {
		if o.synthesizer != nil {
			_ = o.synthesizer.Stop(sessionID)
		}
		if o.generator != nil {
			_ = o.generator.Stop(sessionID)
		}
		o.observer.OnStateChanged(sessionID, role, participants.StateIdle)
	}

	if recErr != nil {
		o.reportAdapterError(ctx, sessionID, "recognition", participant, recErr)
	}

	if writeErr != nil {
		resourceErr := ResourceError{SessionID: sessionID, Op: "recording write", Err: writeErr}
		s.mu.Lock()
		_ = s.log.Record(events.NewError(sessionID, "recording", participant, resourceErr.Error()))
		s.mu.Unlock()
		o.observer.OnAcknowledgement(sessionID, resourceErr.Error())
		return resourceErr
	}
	return nil
}

// recognizerLocked returns the participant's recognition client, creating
// and starting it on first use. Caller holds s.mu.
func (o *Orchestrator) recognizerLocked(ctx context.Context, s *session, participant participants.Role) (SpeechToText, error) {
	if recognizer, ok := s.recognizers[participant]; ok {
		return recognizer, nil
	}
	if o.sttFactory == nil {
		return nil, nil
	}

	recognizer, err := o.sttFactory(s.id, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to create recognition client: %w", err)
	}

	if err := recognizer.Transcribe(ctx,
		speechtotext.WithSessionID(s.id),
		speechtotext.WithEncodingInfo(s.encoding),
		speechtotext.WithSpeechStartedCallback(func(sessionID string) {
			o.handleSpeechStarted(sessionID, participant)
		}),
		speechtotext.WithPartialTranscriptCallback(func(sessionID, transcript string) {
			_ = o.OnRecognizedText(sessionID, participant, transcript, false)
		}),
		speechtotext.WithTranscriptCallback(func(sessionID, transcript string) {
			_ = o.OnRecognizedText(sessionID, participant, transcript, true)
		}),
		speechtotext.WithErrorCallback(func(sessionID string, err error) {
			o.reportAdapterError(context.Background(), sessionID, "recognition", participant, err)
		}),
	); err != nil {
		_ = recognizer.Close()
		return nil, fmt.Errorf("failed to start recognition: %w", err)
	}

	s.recognizers[participant] = recognizer
	return recognizer, nil
}

func (o *Orchestrator) handleSpeechStarted(sessionID string, participant participants.Role) {
	s, err := o.session(sessionID)
	if err != nil {
		return
	}

	s.mu.Lock()
	if !s.isAcceptingInput() {
		s.mu.Unlock()
		return
	}
	changed := s.setActivityLocked(participant, participants.StateSpeaking)
	s.mu.Unlock()

	if changed {
		o.observer.OnStateChanged(sessionID, participant, participants.StateSpeaking)
	}
}

// OnRecognizedText routes one recognition result. Only final results produce
// a Caption; partials update the transient live projection and are never
// persisted.
func (o *Orchestrator) OnRecognizedText(sessionID string, participant participants.Role, text string, isFinal bool) error {
	if !participant.IsValid() {
		return ProtocolError{SessionID: sessionID, Reason: fmt.Sprintf("unknown participant %q", participant)}
	}

	s, err := o.session(sessionID)
	if err != nil {
		return err
	}

	if !isFinal {
		s.mu.Lock()
		if !s.isAcceptingInput() {
			s.mu.Unlock()
			return ProtocolError{SessionID: sessionID, Reason: "session is not accepting input"}
		}
		s.livePartial[participant] = text
		_ = s.log.Record(events.NewTranscriptPartial(sessionID, participant, text))
		s.mu.Unlock()

		o.observer.OnPartialTranscript(sessionID, participant, text)
		return nil
	}

	caption := Caption{
		ID:          uuid.NewString(),
		Participant: participant,
		Text:        text,
		Timestamp:   time.Now(),
	}

	s.mu.Lock()
	if !s.isAcceptingInput() {
		s.mu.Unlock()
		return ProtocolError{SessionID: sessionID, Reason: "session is not accepting input"}
	}
	s.appendCaptionLocked(caption)
	delete(s.livePartial, participant)
	var resourceErr error
	if writeErr := s.writer.AppendCaption(participant, text, caption.Timestamp); writeErr != nil {
		resourceErr = ResourceError{SessionID: sessionID, Op: "caption write", Err: writeErr}
		_ = s.log.Record(events.NewError(sessionID, "captions", participant, resourceErr.Error()))
	}
	_ = s.log.Record(events.NewTranscriptFinal(sessionID, participant, caption.ID, text))
	changed := s.setActivityLocked(participant, participants.StateIdle)
	s.mu.Unlock()

	// The caption is committed either way; observers hear about it even when
	// the track write failed.
	captionsCommittedCounter.Add(context.Background(), 1)
	o.observer.OnCaptionAdded(sessionID, caption)
	o.observer.OnPartialTranscript(sessionID, participant, "")
	if changed {
		o.observer.OnStateChanged(sessionID, participant, participants.StateIdle)
	}
	if resourceErr != nil {
		o.observer.OnAcknowledgement(sessionID, resourceErr.Error())
		return resourceErr
	}
	return nil
}

// ToggleAutopilot flips the session's autopilot flag and broadcasts it. It
// does not itself drive generation.
func (o *Orchestrator) ToggleAutopilot(sessionID string, on bool) error {
	s, err := o.session(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.isAcceptingInput() {
		s.mu.Unlock()
		return ProtocolError{SessionID: sessionID, Reason: "session is not accepting input"}
	}
	s.autopilot = on
	_ = s.log.Record(events.NewAutopilotToggled(sessionID, on))
	s.mu.Unlock()

	o.observer.OnAcknowledgement(sessionID, fmt.Sprintf("autopilot set to %t", on))
	return nil
}

// RequestSnapshot returns a read-only view of the session, atomic with
// respect to concurrent mutation.
func (o *Orchestrator) RequestSnapshot(sessionID string) (Snapshot, error) {
	s, err := o.session(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

// SetMuted mutes or unmutes a participant. Muted is an activity state like
// any other: logged and broadcast.
func (o *Orchestrator) SetMuted(sessionID string, participant participants.Role, muted bool) error {
	if !participant.IsValid() {
		return ProtocolError{SessionID: sessionID, Reason: fmt.Sprintf("unknown participant %q", participant)}
	}

	s, err := o.session(sessionID)
	if err != nil {
		return err
	}

	targetState := participants.StateMuted
	if !muted {
		targetState = participants.StateIdle
	}

	s.mu.Lock()
	if !s.isAcceptingInput() {
		s.mu.Unlock()
		return ProtocolError{SessionID: sessionID, Reason: "session is not accepting input"}
	}
	if !muted && s.activity[participant] != participants.StateMuted {
		s.mu.Unlock()
		return nil
	}
	changed := s.setActivityLocked(participant, targetState)
	s.mu.Unlock()

	if changed {
		o.observer.OnStateChanged(sessionID, participant, targetState)
	}
	return nil
}

// AttachAudioSource streams a local capture source into the session as the
// given participant, so a locally-run host can feed audio without a gateway.
func (o *Orchestrator) AttachAudioSource(ctx context.Context, sessionID string, participant participants.Role, source AudioSource) error {
	if !participant.IsValid() {
		return ProtocolError{SessionID: sessionID, Reason: fmt.Sprintf("unknown participant %q", participant)}
	}

	if _, err := o.session(sessionID); err != nil {
		return err
	}

	if err := source.Stream(ctx, func(chunk []byte) {
		_ = o.SubmitAudio(ctx, sessionID, participant, chunk)
	}); err != nil {
		return fmt.Errorf("failed to start audio source: %w", err)
	}
	return nil
}

// CloseSession drives draining to closed: in-flight adapter operations are
// stopped, the writer and log flush within the drain timeout, and a manifest
// is always produced, partial if the flush did not finish in time. Repeated
// calls return the same manifest without re-flushing.
func (o *Orchestrator) CloseSession(ctx context.Context, sessionID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "close session")
	defer span.End()

	s, err := o.session(sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()

	if s.state == sessionStateClosed {
		manifest := append([]string(nil), s.manifest...)
		s.mu.Unlock()
		return manifest, nil
	}
	s.state = sessionStateDraining

	for participant, recognizer := range s.recognizers {
		if err := recognizer.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close recognition client",
				"sessionId", sessionID, "participant", participant, "error", err)
		}
	}
	if o.generator != nil {
		_ = o.generator.Stop(sessionID)
	}
	if o.synthesizer != nil {
		_ = o.synthesizer.Stop(sessionID)
	}

	type flushResult struct {
		files []string
		err   error
	}
	flushed := make(chan flushResult, 1)
	go func() {
		files, err := s.writer.Close()
		flushed <- flushResult{files: files, err: err}
	}()

	var manifest []string
	var flushErr error
	select {
	case result := <-flushed:
		manifest, flushErr = result.files, result.err
	case <-time.After(o.config.DrainTimeout):
		flushErr = ResourceError{SessionID: sessionID, Op: "drain", Err: context.DeadlineExceeded}
	case <-ctx.Done():
		flushErr = ResourceError{SessionID: sessionID, Op: "drain", Err: ctx.Err()}
	}

	if flushErr != nil {
		span.RecordError(flushErr)
		span.SetStatus(codes.Error, flushErr.Error())
		_ = s.log.Record(events.NewError(sessionID, "writer", "", flushErr.Error()))
	}
	_ = s.log.Record(events.NewSessionEnded(sessionID, manifest))
	if err := s.log.Close(); err != nil {
		logger.WarnContext(ctx, "failed to close event log", "sessionId", sessionID, "error", err)
	}

	s.manifest = manifest
	s.state = sessionStateClosed
	s.mu.Unlock()

	sessionsClosedCounter.Add(ctx, 1)
	logger.InfoContext(ctx, "session closed", "sessionId", sessionID, "artifacts", len(manifest))
	o.observer.OnArtifactsReady(sessionID, append([]string(nil), manifest...))
	return append([]string(nil), manifest...), nil
}

func (o *Orchestrator) reportAdapterError(ctx context.Context, sessionID, service string, participant participants.Role, err error) {
	adapterErr := AdapterError{SessionID: sessionID, Service: service, Err: err}

	if s, sessionErr := o.session(sessionID); sessionErr == nil {
		s.mu.Lock()
		_ = s.log.Record(events.NewError(sessionID, service, participant, adapterErr.Error()))
		s.mu.Unlock()
	}

	adapterErrorsCounter.Add(ctx, 1)
	logger.WarnContext(ctx, "adapter error recovered",
		"sessionId", sessionID, "service", service, "participant", participant, "error", err)
	o.observer.OnAcknowledgement(sessionID, adapterErr.Error())
}
