// Package deepgram streams session audio to Deepgram's live listen API over a
// websocket and reports transcripts through the recognition contract.
package deepgram

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type RecognitionClient struct {
	conn      *websocket.Conn
	connMu    sync.Mutex
	lastMsgTs time.Time

	// stateMu guards the transcript accumulation across the message and
	// silence goroutines.
	stateMu               sync.Mutex
	accumulatedTranscript string
	unendedSegment        bool
}

func NewRecognitionClient() *RecognitionClient {
	return &RecognitionClient{}
}
