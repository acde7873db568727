package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/roundtable-core/core/audio"
	"github.com/koscakluka/roundtable-core/core/texttospeech"
)

type synthesisStream struct {
	ws *websocket.Conn
	mu sync.Mutex

	cancelled bool
	closed    bool
}

// Synthesize renders the given text and streams the audio through the
// configured callbacks. The call returns once the render is queued; audio
// arrives asynchronously until the speech-ended callback fires.
func (c *SynthesisClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SynthesisOption) error {
	options := texttospeech.SynthesisOptions{
		SpeechAudioCallback: func(string, []byte) {},
		SpeechEndedCallback: func(string) {},
		ErrorCallback:       func(string, error) {},
		EncodingInfo:        audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	conn, err := connectWebsocket(c.voice, options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	stream := &synthesisStream{ws: conn}
	c.track(options.SessionID, stream)

	if err := stream.sendWebsocketMessage(speakMsg(text)); err != nil {
		c.untrack(options.SessionID, stream)
		_ = stream.close()
		return fmt.Errorf("failed to send text to deepgram: %w", err)
	}
	if err := stream.sendWebsocketMessage(flushMsg); err != nil {
		c.untrack(options.SessionID, stream)
		_ = stream.close()
		return fmt.Errorf("failed to flush deepgram buffer: %w", err)
	}

	go func() {
		defer c.untrack(options.SessionID, stream)
		stream.processIncomingMessages(ctx, options)
	}()

	return nil
}

func connectWebsocket(voice deepgramVoice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.Dial(
		(&url.URL{
			Scheme: "wss",
			Host:   "api.deepgram.com", Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (r *synthesisStream) processIncomingMessages(_ context.Context, options texttospeech.SynthesisOptions) {
	for {
		msgType, msg, err := r.ws.ReadMessage()
		if err != nil {
			if err.Error() != "websocket: close 1000 (normal)" {
				log.Printf("Websocket read error: %v", err)
				options.ErrorCallback(options.SessionID, err)
			}
			_ = r.close()
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if len(msg) > 0 && !r.isCancelled() {
				options.SpeechAudioCallback(options.SessionID, msg)
			}
		case websocket.TextMessage:
			var parsedMsg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				options.SpeechEndedCallback(options.SessionID)
				_ = r.close()
				return
			}
		}
	}
}

func (r *synthesisStream) cancel() error {
	r.mu.Lock()
	if r.closed || r.cancelled {
		r.mu.Unlock()
		return nil
	}
	r.cancelled = true
	r.mu.Unlock()

	if err := r.sendWebsocketMessage(clearMsg); err != nil {
		_ = r.close()
		return fmt.Errorf("failed to send websocket clear message: %w", err)
	}

	return r.close()
}

func (r *synthesisStream) close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	ws := r.ws
	r.mu.Unlock()

	if err := ws.WriteJSON(closeMsg); err != nil {
		if aggressiveCloseErr := ws.Close(); aggressiveCloseErr != nil {
			return fmt.Errorf("failed to close websocket: %w", errors.Join(err, aggressiveCloseErr))
		}
	}
	return nil
}

func (r *synthesisStream) isCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

type websocketMessage struct {
	Type string `json:"type"`
}

var (
	speakMsg = func(text string) struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} {
		return struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{Type: "Speak", Text: text}
	}
	flushMsg = websocketMessage{Type: "Flush"}
	clearMsg = websocketMessage{Type: "Clear"}
	closeMsg = websocketMessage{Type: "Close"}
)

func (r *synthesisStream) sendWebsocketMessage(msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("websocket connection closed")
	} else if r.ws == nil {
		return fmt.Errorf("websocket connection closed")
	}

	if err := r.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}
