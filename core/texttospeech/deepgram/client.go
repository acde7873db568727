// Package deepgram renders text into speech through Deepgram's streaming
// speak API. Each Synthesize call runs over its own websocket, tracked by
// session id so an in-flight render can be stopped when its speaker is
// interrupted.
package deepgram

import (
	"fmt"
	"slices"
	"sync"
)

type deepgramVoice string

const (
	VoiceAuraAsteria deepgramVoice = "aura-asteria-en"
	VoiceAuraLuna    deepgramVoice = "aura-luna-en"
	VoiceAuraOrion   deepgramVoice = "aura-orion-en"
	VoiceAuraArcas   deepgramVoice = "aura-arcas-en"

	defaultVoice = VoiceAuraAsteria
)

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{VoiceAuraAsteria, VoiceAuraLuna, VoiceAuraOrion, VoiceAuraArcas}
}

type SynthesisClient struct {
	voice deepgramVoice

	mu sync.Mutex
	// active tracks the in-flight render per session.
	active map[string]*synthesisStream
}

func NewSynthesisClient(voice deepgramVoice) (*SynthesisClient, error) {
	client := &SynthesisClient{voice: defaultVoice, active: map[string]*synthesisStream{}}

	if !slices.Contains(GetAvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice")
	}

	client.voice = voice

	return client, nil
}

func (c *SynthesisClient) SetVoice(voice deepgramVoice) {
	c.voice = voice
}

// Stop cancels the session's in-flight render, if any. Stopping a session
// with nothing in flight is a no-op.
func (c *SynthesisClient) Stop(sessionID string) error {
	c.mu.Lock()
	stream := c.active[sessionID]
	delete(c.active, sessionID)
	c.mu.Unlock()

	if stream == nil {
		return nil
	}

	if err := stream.cancel(); err != nil {
		return fmt.Errorf("failed to stop synthesis for session %s: %w", sessionID, err)
	}
	return nil
}

func (c *SynthesisClient) Close() error {
	c.mu.Lock()
	streams := make([]*synthesisStream, 0, len(c.active))
	for _, stream := range c.active {
		streams = append(streams, stream)
	}
	c.active = map[string]*synthesisStream{}
	c.mu.Unlock()

	for _, stream := range streams {
		_ = stream.cancel()
	}
	return nil
}

func (c *SynthesisClient) track(sessionID string, stream *synthesisStream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active[sessionID] = stream
}

func (c *SynthesisClient) untrack(sessionID string, stream *synthesisStream) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active[sessionID] == stream {
		delete(c.active, sessionID)
	}
}
