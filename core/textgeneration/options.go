// Package textgeneration defines the response-generation contract: a client
// turns a prompt into a streamed response, delivered fragment by fragment
// through session-keyed callbacks.
package textgeneration

type GenerationOptions struct {
	// SessionID is echoed into every callback invocation.
	SessionID string

	// Instructions is the priming text placed ahead of the prompt, typically
	// produced by the briefing preprocessor.
	Instructions string

	// FragmentCallback is called for each streamed response fragment, in
	// order.
	FragmentCallback func(sessionID string, fragment string)
	// CompletedCallback is called once with the full response after the last
	// fragment.
	CompletedCallback func(sessionID string, response string)
	// ErrorCallback is called when generation fails or is stopped before
	// completing.
	ErrorCallback func(sessionID string, err error)
}

type GenerationOption func(*GenerationOptions)

func WithSessionID(sessionID string) GenerationOption {
	return func(o *GenerationOptions) {
		o.SessionID = sessionID
	}
}

func WithInstructions(instructions string) GenerationOption {
	return func(o *GenerationOptions) {
		o.Instructions = instructions
	}
}

func WithFragmentCallback(callback func(sessionID string, fragment string)) GenerationOption {
	return func(o *GenerationOptions) {
		o.FragmentCallback = callback
	}
}

func WithCompletedCallback(callback func(sessionID string, response string)) GenerationOption {
	return func(o *GenerationOptions) {
		o.CompletedCallback = callback
	}
}

func WithErrorCallback(callback func(sessionID string, err error)) GenerationOption {
	return func(o *GenerationOptions) {
		o.ErrorCallback = callback
	}
}
