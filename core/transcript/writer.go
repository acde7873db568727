// Package transcript owns one session's persisted output: a continuous audio
// track and a parallel caption track per participant, both anchored to the
// same time base established when the writer opens.
package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/koscakluka/roundtable-core/core/audio"
	"github.com/koscakluka/roundtable-core/core/participants"
)

// Writer accumulates timestamped utterances and raw audio per participant.
// All offsets are relative to t0, fixed at Open, so audio and captions for a
// participant share one monotonically increasing time base.
type Writer struct {
	mu sync.Mutex

	dir       string
	sessionID string
	encoding  audio.EncodingInfo
	providers map[string]string

	t0     time.Time
	opened bool
	closed bool
	files  []string

	audioStreams  map[participants.Role]*wavStream
	captionTracks map[participants.Role]*captionTrack
}

type WriterOption func(*Writer)

// WithEncodingInfo sets the audio encoding of every participant stream.
func WithEncodingInfo(encodingInfo audio.EncodingInfo) WriterOption {
	return func(w *Writer) {
		if !encodingInfo.IsZero() {
			w.encoding = encodingInfo
		}
	}
}

// WithProviders records the adapter identifiers serialized into the session
// metadata file.
func WithProviders(providers map[string]string) WriterOption {
	return func(w *Writer) {
		for service, provider := range providers {
			w.providers[service] = provider
		}
	}
}

// WithStartTime pins t0 instead of sampling the clock at Open, used when
// reconstructing sessions from recorded timelines.
func WithStartTime(t0 time.Time) WriterOption {
	return func(w *Writer) { w.t0 = t0 }
}

func NewWriter(dir, sessionID string, opts ...WriterOption) *Writer {
	w := &Writer{
		dir:           dir,
		sessionID:     sessionID,
		encoding:      audio.GetDefaultEncodingInfo(),
		providers:     map[string]string{},
		audioStreams:  map[participants.Role]*wavStream{},
		captionTracks: map[participants.Role]*captionTrack{},
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Open establishes t0 and the output location. Repeated calls are no-ops;
// an unwritable location is reported immediately rather than at first write.
func (w *Writer) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.opened {
		return nil
	}
	if w.closed {
		return fmt.Errorf("transcript writer already closed")
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output location: %w", err)
	}

	if w.t0.IsZero() {
		w.t0 = time.Now()
	}
	w.opened = true
	return nil
}

// WriteAudio appends a chunk to the participant's recording stream, opening
// the stream lazily on the first chunk. Sink failures are returned to the
// caller, never swallowed.
func (w *Writer) WriteAudio(participant participants.Role, chunk []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.opened {
		return fmt.Errorf("transcript writer not open")
	}
	if w.closed {
		return fmt.Errorf("transcript writer already closed")
	}
	if len(chunk) == 0 {
		return nil
	}

	stream, ok := w.audioStreams[participant]
	if !ok {
		var err error
		stream, err = newWavStream(filepath.Join(w.dir, audioFileName(participant)), w.encoding)
		if err != nil {
			return fmt.Errorf("failed to open recording stream for %s: %w", participant, err)
		}
		w.audioStreams[participant] = stream
	}

	if err := stream.Write(chunk); err != nil {
		return fmt.Errorf("failed to append audio for %s: %w", participant, err)
	}
	return nil
}

// AppendCaption records one finalized utterance. The start offset is derived
// from the given timestamp (zero means now) relative to t0, clamped forward
// so offsets never regress, and the previous caption's end offset is
// backfilled to this start.
func (w *Writer) AppendCaption(participant participants.Role, text string, timestamp time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.opened {
		return fmt.Errorf("transcript writer not open")
	}
	if w.closed {
		return fmt.Errorf("transcript writer already closed")
	}

	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	track, ok := w.captionTracks[participant]
	if !ok {
		track = &captionTrack{}
		w.captionTracks[participant] = track
	}

	track.append(timestamp.Sub(w.t0), text)
	return nil
}

// Segments returns a copy of the participant's caption segments so far.
func (w *Writer) Segments(participant participants.Role) []CaptionSegment {
	w.mu.Lock()
	defer w.mu.Unlock()

	track, ok := w.captionTracks[participant]
	if !ok {
		return nil
	}

	segments := make([]CaptionSegment, len(track.segments))
	copy(segments, track.segments)
	return segments
}

// Close flushes every non-empty audio stream, serializes every non-empty
// caption track and the session metadata, and returns the produced file
// names. Participants without a single write produce no files. Repeated
// calls return the same list without re-flushing.
func (w *Writer) Close() ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return append([]string(nil), w.files...), nil
	}
	if !w.opened {
		w.closed = true
		return nil, fmt.Errorf("transcript writer was never opened")
	}
	w.closed = true

	endedAt := time.Now()
	var closeErr error

	for _, participant := range participants.Roles() {
		if stream, ok := w.audioStreams[participant]; ok {
			if err := stream.Close(); err != nil {
				closeErr = errors.Join(closeErr, fmt.Errorf("failed to finalize recording for %s: %w", participant, err))
				continue
			}
			w.files = append(w.files, audioFileName(participant))
		}
	}

	for _, participant := range participants.Roles() {
		track, ok := w.captionTracks[participant]
		if !ok || len(track.segments) == 0 {
			continue
		}
		name := captionFileName(participant)
		if err := writeCaptionTrack(filepath.Join(w.dir, name), track); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("failed to serialize captions for %s: %w", participant, err))
			continue
		}
		w.files = append(w.files, name)
	}

	if err := writeMetadata(filepath.Join(w.dir, metadataFileName), metadata{
		SessionID:  w.sessionID,
		StartedAt:  w.t0,
		EndedAt:    endedAt,
		DurationMs: endedAt.Sub(w.t0).Milliseconds(),
		Providers:  w.providers,
	}); err != nil {
		closeErr = errors.Join(closeErr, fmt.Errorf("failed to serialize session metadata: %w", err))
	} else {
		w.files = append(w.files, metadataFileName)
	}

	return append([]string(nil), w.files...), closeErr
}

func audioFileName(participant participants.Role) string {
	return string(participant) + ".wav"
}

func captionFileName(participant participants.Role) string {
	return string(participant) + ".vtt"
}

const metadataFileName = "metadata.yaml"
