package transcript

import (
	"bufio"
	"fmt"
	"os"
	"time"
)

// minStartStep is the smallest gap enforced between consecutive caption
// starts on one track. Clamping by a full step keeps every serialized range
// strictly ordered even when upstream timestamps arrive out of order.
const minStartStep = time.Millisecond

// CaptionSegment is one finalized utterance on a participant's caption track.
// End equals the next segment's start, or the segment's own start while it is
// still the last one.
type CaptionSegment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

type captionTrack struct {
	segments []CaptionSegment
}

// append places a segment at the given offset, clamping it forward past the
// previous segment when needed and backfilling the previous segment's end.
// Segments are never merged or dropped.
func (t *captionTrack) append(start time.Duration, text string) {
	if start < 0 {
		start = 0
	}

	if len(t.segments) > 0 {
		prev := &t.segments[len(t.segments)-1]
		if start < prev.Start+minStartStep {
			start = prev.Start + minStartStep
		}
		prev.End = start
	}

	t.segments = append(t.segments, CaptionSegment{Start: start, End: start, Text: text})
}

// writeCaptionTrack serializes a track as WebVTT: the fixed header, then one
// numbered cue per segment with millisecond-precision ranges.
func writeCaptionTrack(path string, track *captionTrack) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create caption file: %w", err)
	}

	buffered := bufio.NewWriter(file)
	fmt.Fprintf(buffered, "WEBVTT\n\n")
	for i, segment := range track.segments {
		fmt.Fprintf(buffered, "%d\n", i+1)
		fmt.Fprintf(buffered, "%s --> %s\n", formatCueTimestamp(segment.Start), formatCueTimestamp(segment.End))
		fmt.Fprintf(buffered, "%s\n\n", segment.Text)
	}

	if err := buffered.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush caption file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close caption file: %w", err)
	}
	return nil
}

// formatCueTimestamp renders an offset as HH:MM:SS.mmm, truncating below the
// millisecond.
func formatCueTimestamp(offset time.Duration) string {
	if offset < 0 {
		offset = 0
	}

	millis := offset.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		millis/3_600_000,
		millis/60_000%60,
		millis/1_000%60,
		millis%1_000,
	)
}
