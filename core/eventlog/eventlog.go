// Package eventlog persists a session's typed events as an append-only,
// line-delimited JSON file, ordered by record time and sufficient to replay
// the session without the original adapters.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/koscakluka/roundtable-core/core/events"
)

// Log is one session's append-only event record. Records are written straight
// through to the file so a live session can be tailed; nothing is buffered
// beyond the sink's own buffering.
type Log struct {
	mu   sync.Mutex
	path string
	file *os.File

	closed bool
}

// NewLog creates a log that will append to the file at path once opened.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Open creates or opens the underlying file for appending.
func (l *Log) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return nil
	}
	if l.closed {
		return fmt.Errorf("event log already closed")
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	l.file = file
	return nil
}

// Record appends one event as a single JSON line. Recording against a log
// that was never opened is a warning, not a fault; recording an event kind
// outside the closed set is an error.
func (l *Log) Record(event events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		logger.Warn("event log not open, dropping event", "kind", string(event.Kind()), "session", event.SessionID())
		return nil
	}

	rec, err := encode(event)
	if err != nil {
		return err
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal event record: %w", err)
	}
	line = append(line, '\n')

	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("failed to append event record: %w", err)
	}
	return nil
}

// Close flushes and releases the underlying file. Repeated calls are no-ops.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if l.file == nil {
		return nil
	}

	file := l.file
	l.file = nil
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close event log: %w", err)
	}
	return nil
}
