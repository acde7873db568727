// Package speechtotext defines the recognition contract: a client streams
// session audio to a recognizer and reports transcripts back through
// callbacks. Every callback carries the session id it was configured for, so
// a shared client can never misroute a transcript.
package speechtotext

import "github.com/koscakluka/roundtable-core/core/audio"

type TranscriptionOptions struct {
	// SessionID is echoed into every callback invocation.
	SessionID string

	// PartialTranscriptCallback is called with interim hypotheses that may
	// still be revised.
	PartialTranscriptCallback func(sessionID string, transcript string)
	// TranscriptCallback is called once per finalized utterance.
	TranscriptCallback func(sessionID string, transcript string)
	// SpeechStartedCallback is called when the recognizer detects the start of
	// speech.
	SpeechStartedCallback func(sessionID string)
	// ErrorCallback is called when recognition fails mid-stream.
	ErrorCallback func(sessionID string, err error)

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithSessionID(sessionID string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SessionID = sessionID
	}
}

func WithTranscriptCallback(callback func(sessionID string, transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.TranscriptCallback = callback
	}
}

func WithPartialTranscriptCallback(callback func(sessionID string, transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.PartialTranscriptCallback = callback
	}
}

func WithSpeechStartedCallback(callback func(sessionID string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithErrorCallback(callback func(sessionID string, err error)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.ErrorCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if !encodingInfo.IsZero() {
			o.EncodingInfo = encodingInfo
		}
	}
}
