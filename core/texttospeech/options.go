// Package texttospeech defines the synthesis contract: a client renders text
// into audio chunks, delivered through session-keyed callbacks so concurrent
// sessions sharing a synthesizer implementation stay isolated.
package texttospeech

import "github.com/koscakluka/roundtable-core/core/audio"

type SynthesisOptions struct {
	// SessionID is echoed into every callback invocation.
	SessionID string

	// SpeechAudioCallback is called with each synthesized audio chunk, in
	// order.
	SpeechAudioCallback func(sessionID string, chunk []byte)
	// SpeechEndedCallback is called once all requested text has been rendered
	// or synthesis was stopped.
	SpeechEndedCallback func(sessionID string)
	// ErrorCallback is called when synthesis fails mid-stream.
	ErrorCallback func(sessionID string, err error)

	EncodingInfo audio.EncodingInfo
}

type SynthesisOption func(*SynthesisOptions)

func WithSessionID(sessionID string) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.SessionID = sessionID
	}
}

func WithSpeechAudioCallback(callback func(sessionID string, chunk []byte)) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.SpeechAudioCallback = callback
	}
}

func WithSpeechEndedCallback(callback func(sessionID string)) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.SpeechEndedCallback = callback
	}
}

func WithErrorCallback(callback func(sessionID string, err error)) SynthesisOption {
	return func(o *SynthesisOptions) {
		o.ErrorCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SynthesisOption {
	return func(o *SynthesisOptions) {
		if !encodingInfo.IsZero() {
			o.EncodingInfo = encodingInfo
		}
	}
}
