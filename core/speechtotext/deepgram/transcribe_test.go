package deepgram

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/koscakluka/roundtable-core/core/speechtotext"
)

func TestFinalSegmentsAccumulateUntilSpeechEnds(t *testing.T) {
	client := NewRecognitionClient()

	var finals atomic.Int32
	var lastTranscript atomic.Value
	var lastSession atomic.Value
	options := speechtotext.TranscriptionOptions{
		SessionID: "ep-1",
		TranscriptCallback: func(sessionID, transcript string) {
			finals.Add(1)
			lastSession.Store(sessionID)
			lastTranscript.Store(transcript)
		},
	}

	client.processMessage(context.Background(), []byte(`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"hello"}]}}`), options)
	if got := finals.Load(); got != 0 {
		t.Fatalf("expected no final transcript before speech ends, got %d", got)
	}

	client.processMessage(context.Background(), []byte(`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"world"}]}}`), options)
	if got := finals.Load(); got != 1 {
		t.Fatalf("expected one final transcript, got %d", got)
	}
	if got := lastTranscript.Load(); got != "hello world" {
		t.Fatalf("expected accumulated transcript %q, got %q", "hello world", got)
	}
	if got := lastSession.Load(); got != "ep-1" {
		t.Fatalf("expected transcript keyed to ep-1, got %q", got)
	}
}

func TestUtteranceEndFlushesUnendedSegment(t *testing.T) {
	client := NewRecognitionClient()

	var finals atomic.Int32
	options := speechtotext.TranscriptionOptions{
		SessionID: "ep-1",
		TranscriptCallback: func(string, string) {
			finals.Add(1)
		},
	}

	client.processMessage(context.Background(), []byte(`{"type":"SpeechStarted"}`), options)
	client.processMessage(context.Background(), []byte(`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"trailing thought"}]}}`), options)
	client.processMessage(context.Background(), []byte(`{"type":"UtteranceEnd"}`), options)

	if got := finals.Load(); got != 1 {
		t.Fatalf("expected utterance end to flush the pending transcript, got %d finals", got)
	}

	client.processMessage(context.Background(), []byte(`{"type":"UtteranceEnd"}`), options)
	if got := finals.Load(); got != 1 {
		t.Fatalf("expected repeated utterance end to be ignored, got %d finals", got)
	}
}

func TestPartialResultsIncludeAccumulatedContext(t *testing.T) {
	client := NewRecognitionClient()

	var lastPartial atomic.Value
	options := speechtotext.TranscriptionOptions{
		SessionID: "ep-1",
		PartialTranscriptCallback: func(_, transcript string) {
			lastPartial.Store(transcript)
		},
	}

	client.processMessage(context.Background(), []byte(`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"hello"}]}}`), options)
	client.processMessage(context.Background(), []byte(`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"wor"}]}}`), options)

	if got := lastPartial.Load(); got != "hello wor" {
		t.Fatalf("expected partial with accumulated context, got %q", got)
	}
}

func TestSimultaneousResultsKeepEverySegment(t *testing.T) {
	client := NewRecognitionClient()

	var lastTranscript atomic.Value
	options := speechtotext.TranscriptionOptions{
		SessionID: "ep-1",
		TranscriptCallback: func(_, transcript string) {
			lastTranscript.Store(transcript)
		},
	}

	payloads := [][]byte{
		[]byte(`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"hello"}]}}`),
		[]byte(`{"type":"Results","is_final":true,"speech_final":false,"channel":{"alternatives":[{"transcript":"world"}]}}`),
	}

	var wg sync.WaitGroup
	for _, payload := range payloads {
		wg.Add(1)
		go func(payload []byte) {
			defer wg.Done()
			client.processMessage(context.Background(), payload, options)
		}(payload)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = client.timeSinceLastMsg()
		}
	}()
	wg.Wait()

	client.processMessage(context.Background(), []byte(`{"type":"Results","is_final":true,"speech_final":true,"channel":{"alternatives":[{"transcript":"again"}]}}`), options)

	transcript, _ := lastTranscript.Load().(string)
	for _, word := range []string{"hello", "world", "again"} {
		if !strings.Contains(transcript, word) {
			t.Fatalf("expected transcript to keep segment %q, got %q", word, transcript)
		}
	}
}

func TestSendAudioWithoutConnectionFails(t *testing.T) {
	client := NewRecognitionClient()

	if err := client.SendAudio([]byte{0, 0}); err == nil {
		t.Fatalf("expected audio send without a connection to fail")
	}
}
