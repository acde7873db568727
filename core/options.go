package orchestration

import (
	"context"
	"time"

	"github.com/koscakluka/roundtable-core/core/audio"
	"github.com/koscakluka/roundtable-core/core/participants"
	"github.com/koscakluka/roundtable-core/core/speechtotext"
	"github.com/koscakluka/roundtable-core/core/textgeneration"
	"github.com/koscakluka/roundtable-core/core/texttospeech"
)

const (
	defaultCaptionBufferSize = 32
	defaultDrainTimeout      = 5 * time.Second
)

// Config holds the orchestrator-wide settings, validated once at
// construction.
type Config struct {
	// OutputDir is the root under which each session gets its own uniquely
	// named directory.
	OutputDir string
	// CaptionBufferSize bounds the recent-caption buffer of every session.
	CaptionBufferSize int
	// DrainTimeout bounds how long a closing session waits for its writer and
	// log to flush before yielding a partial manifest.
	DrainTimeout time.Duration
}

func (c *Config) validate() error {
	if c.OutputDir == "" {
		return ConfigurationError{Field: "OutputDir", Reason: "must not be empty"}
	}
	if c.CaptionBufferSize < 0 {
		return ConfigurationError{Field: "CaptionBufferSize", Reason: "must not be negative"}
	}
	if c.CaptionBufferSize == 0 {
		c.CaptionBufferSize = defaultCaptionBufferSize
	}
	if c.DrainTimeout < 0 {
		return ConfigurationError{Field: "DrainTimeout", Reason: "must not be negative"}
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
	return nil
}

// SpeechToText is the recognition capability: one client per participant
// stream, created through a factory when the participant's first audio
// arrives.
type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	Close() error
}

// SpeechToTextFactory builds a recognition client for one participant of one
// session.
type SpeechToTextFactory func(sessionID string, participant participants.Role) (SpeechToText, error)

// TextGenerator is the generation capability, shared across sessions and
// keyed by explicit session id.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts ...textgeneration.GenerationOption) error
	Stop(sessionID string) error
}

// SpeechSynthesizer is the synthesis capability, shared across sessions and
// keyed by explicit session id.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) error
	Stop(sessionID string) error
}

// AudioSource feeds captured audio for a locally attached participant.
type AudioSource interface {
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	EncodingInfo() audio.EncodingInfo
}

type OrchestratorOption func(*Orchestrator)

func WithSpeechToText(factory SpeechToTextFactory) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sttFactory = factory
	}
}

func WithTextGenerator(generator TextGenerator) OrchestratorOption {
	return func(o *Orchestrator) {
		o.generator = generator
	}
}

func WithSpeechSynthesizer(synthesizer SpeechSynthesizer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.synthesizer = synthesizer
	}
}

func WithObserver(observer Observer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.observer = observer.normalized()
	}
}

// SessionOptions configure one session at open time.
type SessionOptions struct {
	// Autopilot marks the session as running without a human participant.
	Autopilot bool
	// EncodingInfo is the audio encoding of every participant stream.
	EncodingInfo audio.EncodingInfo
	// Providers names the adapters behind the session, recorded in the
	// session metadata file.
	Providers map[string]string
	// Instructions is priming text passed to the generation adapter on every
	// agent prompt, typically rendered from a briefing.
	Instructions string
}

type SessionOption func(*SessionOptions)

func WithAutopilot(autopilot bool) SessionOption {
	return func(o *SessionOptions) {
		o.Autopilot = autopilot
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SessionOption {
	return func(o *SessionOptions) {
		if !encodingInfo.IsZero() {
			o.EncodingInfo = encodingInfo
		}
	}
}

func WithProviders(providers map[string]string) SessionOption {
	return func(o *SessionOptions) {
		o.Providers = providers
	}
}

func WithInstructions(instructions string) SessionOption {
	return func(o *SessionOptions) {
		o.Instructions = instructions
	}
}
