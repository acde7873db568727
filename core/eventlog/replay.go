package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/koscakluka/roundtable-core/core/events"
)

// Replay reads a recorded log back into typed events, in file order. A log
// written by this package replays without loss; a malformed line or an
// unknown event kind aborts the replay with an error rather than silently
// skipping history.
func Replay(path string) ([]events.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log for replay: %w", err)
	}
	defer file.Close()

	var replayed []events.Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse event log line %d: %w", lineNo, err)
		}

		event, err := decode(rec)
		if err != nil {
			return nil, fmt.Errorf("failed to decode event log line %d: %w", lineNo, err)
		}
		replayed = append(replayed, event)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan event log: %w", err)
	}

	return replayed, nil
}
