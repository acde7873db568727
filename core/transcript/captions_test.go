package transcript

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestCueTimestampFormatting(t *testing.T) {
	cases := []struct {
		offset   time.Duration
		expected string
	}{
		{0, "00:00:00.000"},
		{time.Millisecond, "00:00:00.001"},
		{3 * time.Second, "00:00:03.000"},
		{61*time.Second + 500*time.Millisecond, "00:01:01.500"},
		{2*time.Hour + 3*time.Minute + 4*time.Second + 5*time.Millisecond, "02:03:04.005"},
		{-time.Second, "00:00:00.000"},
	}

	for _, c := range cases {
		if got := formatCueTimestamp(c.offset); got != c.expected {
			t.Fatalf("formatCueTimestamp(%v) = %q, expected %q", c.offset, got, c.expected)
		}
	}
}

// Whatever order timestamps arrive in, a track must keep strictly increasing
// starts, end offsets that meet the next start exactly, and one segment per
// appended caption.
func TestTrackOrderingHoldsUnderArbitraryTimestamps(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		offsets := rapid.SliceOfN(rapid.Int64Range(0, int64(time.Hour)), 1, 64).Draw(t, "offsets")

		track := &captionTrack{}
		for _, offset := range offsets {
			track.append(time.Duration(offset), "utterance")
		}

		if len(track.segments) != len(offsets) {
			t.Fatalf("expected %d segments, got %d", len(offsets), len(track.segments))
		}

		for i, segment := range track.segments {
			if i > 0 {
				prev := track.segments[i-1]
				if segment.Start <= prev.Start {
					t.Fatalf("segment %d start %v does not advance past %v", i, segment.Start, prev.Start)
				}
				if prev.End != segment.Start {
					t.Fatalf("segment %d start %v does not meet previous end %v", i, segment.Start, prev.End)
				}
			}
			if segment.End < segment.Start {
				t.Fatalf("segment %d end %v precedes its start %v", i, segment.End, segment.Start)
			}
		}

		last := track.segments[len(track.segments)-1]
		if last.End != last.Start {
			t.Fatalf("open-ended last segment should end at its own start, got %v != %v", last.End, last.Start)
		}
	})
}

// A caption placed in the past lands one step after its predecessor, never
// merged into it and never reordered.
func TestStaleCaptionsNeverMergeOrReorder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		anchor := time.Duration(rapid.Int64Range(int64(time.Second), int64(time.Minute)).Draw(t, "anchor"))
		stale := time.Duration(rapid.Int64Range(0, int64(anchor)).Draw(t, "stale"))

		track := &captionTrack{}
		track.append(anchor, "anchor")
		track.append(stale, "stale")

		if len(track.segments) != 2 {
			t.Fatalf("expected both captions retained, got %d segments", len(track.segments))
		}
		if track.segments[1].Start != anchor+minStartStep {
			t.Fatalf("expected stale caption clamped to %v, got %v", anchor+minStartStep, track.segments[1].Start)
		}
	})
}
