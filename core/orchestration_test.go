package orchestration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/roundtable-core/core/eventlog"
	"github.com/koscakluka/roundtable-core/core/events"
	"github.com/koscakluka/roundtable-core/core/participants"
	"github.com/koscakluka/roundtable-core/core/speechtotext"
	"github.com/koscakluka/roundtable-core/core/textgeneration"
	"github.com/koscakluka/roundtable-core/core/texttospeech"
)

type scriptedRecognizer struct {
	mu       sync.Mutex
	sendErr  error
	received [][]byte
	closed   bool
}

func (r *scriptedRecognizer) Transcribe(_ context.Context, opts ...speechtotext.TranscriptionOption) error {
	options := speechtotext.TranscriptionOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return nil
}

func (r *scriptedRecognizer) SendAudio(audio []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendErr != nil {
		return r.sendErr
	}
	r.received = append(r.received, append([]byte(nil), audio...))
	return nil
}

func (r *scriptedRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type scriptedGenerator struct {
	fragments []string
	response  string
	err       error

	mu      sync.Mutex
	stopped []string
}

func (g *scriptedGenerator) Generate(_ context.Context, _ string, opts ...textgeneration.GenerationOption) error {
	options := textgeneration.GenerationOptions{
		FragmentCallback:  func(string, string) {},
		CompletedCallback: func(string, string) {},
		ErrorCallback:     func(string, error) {},
	}
	for _, opt := range opts {
		opt(&options)
	}

	if g.err != nil {
		options.ErrorCallback(options.SessionID, g.err)
		return g.err
	}
	for _, fragment := range g.fragments {
		options.FragmentCallback(options.SessionID, fragment)
	}
	options.CompletedCallback(options.SessionID, g.response)
	return nil
}

func (g *scriptedGenerator) Stop(sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopped = append(g.stopped, sessionID)
	return nil
}

// scriptedSynthesizer delivers its chunks and ends immediately unless manual
// is set, in which case the render stays in flight until stopped.
type scriptedSynthesizer struct {
	chunks [][]byte
	manual bool

	mu      sync.Mutex
	stopped []string
}

func (s *scriptedSynthesizer) Synthesize(_ context.Context, _ string, opts ...texttospeech.SynthesisOption) error {
	options := texttospeech.SynthesisOptions{
		SpeechAudioCallback: func(string, []byte) {},
		SpeechEndedCallback: func(string) {},
		ErrorCallback:       func(string, error) {},
	}
	for _, opt := range opts {
		opt(&options)
	}

	for _, chunk := range s.chunks {
		options.SpeechAudioCallback(options.SessionID, chunk)
	}
	if !s.manual {
		options.SpeechEndedCallback(options.SessionID)
	}
	return nil
}

func (s *scriptedSynthesizer) Stop(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = append(s.stopped, sessionID)
	return nil
}

func (s *scriptedSynthesizer) stoppedSessions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.stopped...)
}

type stateChange struct {
	participant participants.Role
	state       participants.ActivityState
}

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

func TestOpenSessionRejectsDuplicateIDs(t *testing.T) {
	orchestrator, err := NewOrchestrator(Config{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}

	if err := orchestrator.OpenSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("expected duplicate session error, got %v", err)
	}

	if _, err := orchestrator.CloseSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to close session: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("expected closed session id to stay claimed, got %v", err)
	}
}

func TestOpenSessionRollsBackOnInitFailure(t *testing.T) {
	outputDir := t.TempDir()
	// A file squatting on the session's directory makes writer setup fail.
	if err := os.WriteFile(filepath.Join(outputDir, "ep-1"), []byte("squatter"), 0o644); err != nil {
		t.Fatalf("failed to plant blocking file: %v", err)
	}

	orchestrator, err := NewOrchestrator(Config{OutputDir: outputDir})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}

	var initErr SessionInitError
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); !errors.As(err, &initErr) {
		t.Fatalf("expected session init error, got %v", err)
	}

	if err := os.Remove(filepath.Join(outputDir, "ep-1")); err != nil && !os.IsNotExist(err) {
		t.Fatalf("failed to remove blocking file: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("expected rolled-back id to be reusable, got %v", err)
	}
}

func TestConfigurationIsValidatedAtConstruction(t *testing.T) {
	var confErr ConfigurationError
	if _, err := NewOrchestrator(Config{}); !errors.As(err, &confErr) {
		t.Fatalf("expected configuration error for missing output dir, got %v", err)
	}
	if _, err := NewOrchestrator(Config{OutputDir: "out", CaptionBufferSize: -1}); !errors.As(err, &confErr) {
		t.Fatalf("expected configuration error for negative buffer size, got %v", err)
	}
}

func TestCloseSessionIsIdempotent(t *testing.T) {
	orchestrator, err := NewOrchestrator(Config{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	if err := orchestrator.OnRecognizedText("ep-1", participants.RoleHuman, "hello", true); err != nil {
		t.Fatalf("failed to commit caption: %v", err)
	}

	first, err := orchestrator.CloseSession(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	second, err := orchestrator.CloseSession(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("expected identical manifests, got %v and %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected identical manifests, got %v and %v", first, second)
		}
	}

	if err := orchestrator.OnRecognizedText("ep-1", participants.RoleHuman, "late", true); err == nil {
		t.Fatalf("expected input after close to be rejected")
	}
}

func TestRecordingSurvivesRecognitionFailure(t *testing.T) {
	outputDir := t.TempDir()
	recognizer := &scriptedRecognizer{sendErr: errors.New("socket reset")}
	orchestrator, err := NewOrchestrator(Config{OutputDir: outputDir},
		WithSpeechToText(func(string, participants.Role) (SpeechToText, error) {
			return recognizer, nil
		}),
	)
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	chunk := []byte{1, 2, 3, 4}
	const chunks = 5
	for i := 0; i < chunks; i++ {
		if err := orchestrator.SubmitAudio(context.Background(), "ep-1", participants.RoleHuman, chunk); err != nil {
			t.Fatalf("chunk %d: expected recognition failure to be recovered, got %v", i, err)
		}
	}

	manifest, err := orchestrator.CloseSession(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("failed to close session: %v", err)
	}

	found := false
	for _, name := range manifest {
		if name == "human.wav" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected human.wav in manifest, got %v", manifest)
	}

	recording, err := os.ReadFile(filepath.Join(outputDir, "ep-1", "human.wav"))
	if err != nil {
		t.Fatalf("failed to read recording: %v", err)
	}
	if got := len(recording) - 44; got != chunks*len(chunk) {
		t.Fatalf("expected %d recorded bytes despite recognition failures, got %d", chunks*len(chunk), got)
	}
}

func TestSnapshotRespectsBufferBound(t *testing.T) {
	orchestrator, err := NewOrchestrator(Config{OutputDir: t.TempDir(), CaptionBufferSize: 3})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	for i := 0; i < 5; i++ {
		text := fmt.Sprintf("caption %d", i)
		if err := orchestrator.OnRecognizedText("ep-1", participants.RoleHuman, text, true); err != nil {
			t.Fatalf("failed to commit caption %d: %v", i, err)
		}
	}

	snapshot, err := orchestrator.RequestSnapshot("ep-1")
	if err != nil {
		t.Fatalf("failed to snapshot: %v", err)
	}
	if len(snapshot.RecentCaptions) != 3 {
		t.Fatalf("expected buffer bound of 3, got %d captions", len(snapshot.RecentCaptions))
	}
	if snapshot.RecentCaptions[0].Text != "caption 4" {
		t.Fatalf("expected most-recent-first ordering, got %q first", snapshot.RecentCaptions[0].Text)
	}
}

func TestPartialTranscriptsAreNeverPersisted(t *testing.T) {
	outputDir := t.TempDir()
	orchestrator, err := NewOrchestrator(Config{OutputDir: outputDir})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	if err := orchestrator.OnRecognizedText("ep-1", participants.RoleHuman, "hel", false); err != nil {
		t.Fatalf("failed to route partial: %v", err)
	}

	snapshot, err := orchestrator.RequestSnapshot("ep-1")
	if err != nil {
		t.Fatalf("failed to snapshot: %v", err)
	}
	if len(snapshot.RecentCaptions) != 0 {
		t.Fatalf("expected no captions from partials, got %d", len(snapshot.RecentCaptions))
	}

	manifest, err := orchestrator.CloseSession(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("failed to close session: %v", err)
	}
	for _, name := range manifest {
		if name == "human.vtt" {
			t.Fatalf("expected no caption track from partials, got %v", manifest)
		}
	}

	replayed, err := eventlog.Replay(filepath.Join(outputDir, "ep-1", "events.jsonl"))
	if err != nil {
		t.Fatalf("failed to replay log: %v", err)
	}
	foundPartial := false
	for _, event := range replayed {
		if event.Kind() == events.KindTranscriptPartial {
			foundPartial = true
		}
	}
	if !foundPartial {
		t.Fatalf("expected partial transcript to be logged")
	}
}

func TestAutopilotToggleLogPrecedesSnapshot(t *testing.T) {
	outputDir := t.TempDir()
	orchestrator, err := NewOrchestrator(Config{OutputDir: outputDir})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	if err := orchestrator.ToggleAutopilot("ep-1", true); err != nil {
		t.Fatalf("failed to toggle autopilot: %v", err)
	}
	snapshot, err := orchestrator.RequestSnapshot("ep-1")
	if err != nil {
		t.Fatalf("failed to snapshot: %v", err)
	}
	if !snapshot.Autopilot {
		t.Fatalf("expected snapshot to reflect autopilot")
	}

	if _, err := orchestrator.CloseSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to close session: %v", err)
	}

	replayed, err := eventlog.Replay(filepath.Join(outputDir, "ep-1", "events.jsonl"))
	if err != nil {
		t.Fatalf("failed to replay log: %v", err)
	}
	for _, event := range replayed {
		if toggled, ok := event.(events.AutopilotToggled); ok {
			if !toggled.Enabled {
				t.Fatalf("expected toggle event enabled")
			}
			if toggled.Timestamp().After(snapshot.TakenAt) {
				t.Fatalf("expected toggle log entry to precede the snapshot")
			}
			return
		}
	}
	t.Fatalf("expected autopilot toggle in event log")
}

func TestSessionsAreIndependent(t *testing.T) {
	outputDir := t.TempDir()
	orchestrator, err := NewOrchestrator(Config{OutputDir: outputDir})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	for _, id := range []string{"ep-1", "ep-2"} {
		if err := orchestrator.OpenSession(context.Background(), id); err != nil {
			t.Fatalf("failed to open %s: %v", id, err)
		}
	}

	if err := orchestrator.OnRecognizedText("ep-2", participants.RoleHuman, "still here", true); err != nil {
		t.Fatalf("failed to commit caption: %v", err)
	}
	if _, err := orchestrator.CloseSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to close ep-1: %v", err)
	}

	snapshot, err := orchestrator.RequestSnapshot("ep-2")
	if err != nil {
		t.Fatalf("expected ep-2 untouched, got %v", err)
	}
	if len(snapshot.RecentCaptions) != 1 || snapshot.RecentCaptions[0].Text != "still here" {
		t.Fatalf("expected ep-2 captions untouched, got %+v", snapshot.RecentCaptions)
	}
	if err := orchestrator.OnRecognizedText("ep-2", participants.RoleHuman, "and accepting input", true); err != nil {
		t.Fatalf("expected ep-2 to keep accepting input, got %v", err)
	}
}

func TestPromptAgentRunsFullTurn(t *testing.T) {
	outputDir := t.TempDir()
	generator := &scriptedGenerator{fragments: []string{"Good ", "evening."}, response: "Good evening."}
	synthesizer := &scriptedSynthesizer{chunks: [][]byte{make([]byte, 64), make([]byte, 64)}}

	stateChanges := make(chan stateChange, 16)
	captions := make(chan Caption, 4)
	thinking := make(chan int64, 4)
	orchestrator, err := NewOrchestrator(Config{OutputDir: outputDir},
		WithTextGenerator(generator),
		WithSpeechSynthesizer(synthesizer),
		WithObserver(Observer{
			OnStateChanged: func(_ string, participant participants.Role, state participants.ActivityState) {
				stateChanges <- stateChange{participant, state}
			},
			OnCaptionAdded: func(_ string, caption Caption) {
				captions <- caption
			},
			OnThinkingEntered: func(_ string, _ participants.Role, durationMs int64) {
				thinking <- durationMs
			},
		}),
	)
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	if err := orchestrator.PromptAgent(context.Background(), "ep-1", participants.RolePrimaryAgent, "greet the audience"); err != nil {
		t.Fatalf("failed to prompt agent: %v", err)
	}

	if change := waitFor(t, stateChanges, "thinking transition"); change.state != participants.StateThinking {
		t.Fatalf("expected thinking first, got %v", change)
	}
	if durationMs := waitFor(t, thinking, "thinking event"); durationMs < 0 {
		t.Fatalf("expected non-negative thinking duration, got %d", durationMs)
	}
	caption := waitFor(t, captions, "agent caption")
	if caption.Participant != participants.RolePrimaryAgent || caption.Text != "Good evening." {
		t.Fatalf("unexpected caption %+v", caption)
	}
	if change := waitFor(t, stateChanges, "speaking transition"); change.state != participants.StateSpeaking {
		t.Fatalf("expected speaking after completion, got %v", change)
	}
	if change := waitFor(t, stateChanges, "idle transition"); change.state != participants.StateIdle {
		t.Fatalf("expected idle after synthesis, got %v", change)
	}

	manifest, err := orchestrator.CloseSession(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("failed to close session: %v", err)
	}
	wantFiles := map[string]bool{"primary_agent.wav": false, "primary_agent.vtt": false}
	for _, name := range manifest {
		if _, ok := wantFiles[name]; ok {
			wantFiles[name] = true
		}
	}
	for name, seen := range wantFiles {
		if !seen {
			t.Fatalf("expected %s in manifest, got %v", name, manifest)
		}
	}

	replayed, err := eventlog.Replay(filepath.Join(outputDir, "ep-1", "events.jsonl"))
	if err != nil {
		t.Fatalf("failed to replay log: %v", err)
	}
	seen := map[events.Kind]bool{}
	for _, event := range replayed {
		seen[event.Kind()] = true
	}
	for _, kind := range []events.Kind{
		events.KindGenerationStarted, events.KindGenerationChunk, events.KindGenerationCompleted,
		events.KindSynthesisStarted, events.KindSynthesisChunk, events.KindSynthesisCompleted,
		events.KindThinkingEntered,
	} {
		if !seen[kind] {
			t.Fatalf("expected %s in event log", kind)
		}
	}
}

func TestHumanAudioInterruptsSpeakingAgent(t *testing.T) {
	outputDir := t.TempDir()
	generator := &scriptedGenerator{response: "A very long digression."}
	synthesizer := &scriptedSynthesizer{manual: true}

	stateChanges := make(chan stateChange, 16)
	orchestrator, err := NewOrchestrator(Config{OutputDir: outputDir},
		WithTextGenerator(generator),
		WithSpeechSynthesizer(synthesizer),
		WithObserver(Observer{
			OnStateChanged: func(_ string, participant participants.Role, state participants.ActivityState) {
				stateChanges <- stateChange{participant, state}
			},
		}),
	)
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	if err := orchestrator.PromptAgent(context.Background(), "ep-1", participants.RoleGuestAgent, "digress"); err != nil {
		t.Fatalf("failed to prompt agent: %v", err)
	}
	for {
		change := waitFor(t, stateChanges, "speaking transition")
		if change.participant == participants.RoleGuestAgent && change.state == participants.StateSpeaking {
			break
		}
	}

	if err := orchestrator.SubmitAudio(context.Background(), "ep-1", participants.RoleHuman, []byte{0, 0}); err != nil {
		t.Fatalf("failed to submit interrupting audio: %v", err)
	}

	for {
		change := waitFor(t, stateChanges, "interrupted agent idling")
		if change.participant == participants.RoleGuestAgent && change.state == participants.StateIdle {
			break
		}
	}

	stopped := synthesizer.stoppedSessions()
	if len(stopped) == 0 || stopped[0] != "ep-1" {
		t.Fatalf("expected synthesizer stopped for ep-1, got %v", stopped)
	}

	if _, err := orchestrator.CloseSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to close session: %v", err)
	}
	replayed, err := eventlog.Replay(filepath.Join(outputDir, "ep-1", "events.jsonl"))
	if err != nil {
		t.Fatalf("failed to replay log: %v", err)
	}
	for _, event := range replayed {
		if interrupted, ok := event.(events.Interrupted); ok {
			if interrupted.Interrupted != participants.RoleGuestAgent {
				t.Fatalf("expected guest agent interrupted, got %+v", interrupted)
			}
			return
		}
	}
	t.Fatalf("expected interruption in event log")
}

func TestCommittedCaptionIsBroadcastDespiteWriteFailure(t *testing.T) {
	captions := make(chan Caption, 1)
	orchestrator, err := NewOrchestrator(Config{OutputDir: t.TempDir()},
		WithObserver(Observer{
			OnCaptionAdded: func(_ string, caption Caption) {
				captions <- caption
			},
		}),
	)
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	// Flush the writer out from under the session so caption writes fail.
	s, err := orchestrator.session("ep-1")
	if err != nil {
		t.Fatalf("failed to look up session: %v", err)
	}
	if _, err := s.writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	var resourceErr ResourceError
	if err := orchestrator.OnRecognizedText("ep-1", participants.RoleHuman, "hello", true); !errors.As(err, &resourceErr) {
		t.Fatalf("expected resource error from failed caption write, got %v", err)
	}

	caption := waitFor(t, captions, "caption broadcast")
	if caption.Text != "hello" {
		t.Fatalf("expected committed caption broadcast, got %+v", caption)
	}

	snapshot, err := orchestrator.RequestSnapshot("ep-1")
	if err != nil {
		t.Fatalf("failed to snapshot: %v", err)
	}
	if len(snapshot.RecentCaptions) != 1 || snapshot.RecentCaptions[0].Text != "hello" {
		t.Fatalf("expected snapshot and broadcast to agree, got %+v", snapshot.RecentCaptions)
	}
}

func TestPromptAgentRejectsNonAgents(t *testing.T) {
	orchestrator, err := NewOrchestrator(Config{OutputDir: t.TempDir()},
		WithTextGenerator(&scriptedGenerator{response: "hi"}))
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	if err := orchestrator.OpenSession(context.Background(), "ep-1"); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	var protocolErr ProtocolError
	if err := orchestrator.PromptAgent(context.Background(), "ep-1", participants.RoleHuman, "speak"); !errors.As(err, &protocolErr) {
		t.Fatalf("expected protocol error for human prompt, got %v", err)
	}
}

func TestUnknownSessionIsReported(t *testing.T) {
	orchestrator, err := NewOrchestrator(Config{OutputDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}

	if _, err := orchestrator.RequestSnapshot("ghost"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected unknown session error, got %v", err)
	}
	if err := orchestrator.SubmitAudio(context.Background(), "ghost", participants.RoleHuman, []byte{0}); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected unknown session error, got %v", err)
	}
}
