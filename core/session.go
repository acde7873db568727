package orchestration

import (
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/roundtable-core/core/audio"
	"github.com/koscakluka/roundtable-core/core/eventlog"
	"github.com/koscakluka/roundtable-core/core/events"
	"github.com/koscakluka/roundtable-core/core/participants"
	"github.com/koscakluka/roundtable-core/core/transcript"
)

// Caption is a finalized, timestamped utterance attributed to one
// participant. Immutable once created.
type Caption struct {
	ID          string
	Participant participants.Role
	Text        string
	Timestamp   time.Time
}

// Snapshot is a point-in-time, read-only view of one session, atomic with
// respect to concurrent mutation.
type Snapshot struct {
	SessionID string
	TakenAt   time.Time

	ParticipantStates map[participants.Role]participants.ActivityState
	// RecentCaptions is most-recent-first and never exceeds the configured
	// buffer bound.
	RecentCaptions []Caption
	Autopilot      bool
}

type sessionState string

const (
	sessionStateCreated  sessionState = "created"
	sessionStateActive   sessionState = "active"
	sessionStateDraining sessionState = "draining"
	sessionStateClosed   sessionState = "closed"
)

// session is one conversation's entire mutable state. All mutation happens
// under mu, giving each session a single-writer discipline; nothing here is
// shared across sessions.
type session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	state     sessionState
	autopilot bool

	encoding     audio.EncodingInfo
	instructions string

	activity map[participants.Role]participants.ActivityState
	// captions is the bounded recent-caption buffer, most-recent-first.
	// Older entries drop silently from this buffer only; the writer keeps
	// the full list.
	captions     []Caption
	captionBound int
	// livePartial is the transient projection of in-progress speech or
	// generation per participant. Never persisted.
	livePartial map[participants.Role]string

	writer *transcript.Writer
	log    *eventlog.Log

	// recognizers holds the lazily created recognition client per
	// participant.
	recognizers map[participants.Role]SpeechToText

	// promptAcceptedAt remembers when each agent's current prompt was
	// accepted, anchoring the thinking duration.
	promptAcceptedAt map[participants.Role]time.Time

	// manifest is built once at close and returned verbatim afterwards.
	manifest []string
}

func newSession(id string, captionBound int, autopilot bool) *session {
	s := &session{
		id:               id,
		createdAt:        time.Now(),
		state:            sessionStateCreated,
		autopilot:        autopilot,
		activity:         map[participants.Role]participants.ActivityState{},
		captionBound:     captionBound,
		livePartial:      map[participants.Role]string{},
		recognizers:      map[participants.Role]SpeechToText{},
		promptAcceptedAt: map[participants.Role]time.Time{},
	}
	for _, role := range participants.Roles() {
		s.activity[role] = participants.StateIdle
	}
	return s
}

// setActivityLocked transitions a participant's activity state, logging the
// transition. Caller holds mu and notifies the observer after unlocking.
func (s *session) setActivityLocked(participant participants.Role, state participants.ActivityState) bool {
	from := s.activity[participant]
	if from == state {
		return false
	}
	s.activity[participant] = state
	_ = s.log.Record(events.NewActivityChanged(s.id, participant, from, state))
	return true
}

// appendCaptionLocked appends to the bounded buffer, trimming the oldest
// entries past the bound. Caller holds mu.
func (s *session) appendCaptionLocked(caption Caption) {
	s.captions = append([]Caption{caption}, s.captions...)
	if len(s.captions) > s.captionBound {
		s.captions = s.captions[:s.captionBound]
	}
}

// snapshotLocked builds a deep copy of the observable state. Caller holds mu.
func (s *session) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		SessionID:         s.id,
		TakenAt:           time.Now(),
		ParticipantStates: make(map[participants.Role]participants.ActivityState, len(s.activity)),
		Autopilot:         s.autopilot,
	}
	for role, state := range s.activity {
		snapshot.ParticipantStates[role] = state
	}
	_ = copier.Copy(&snapshot.RecentCaptions, s.captions)
	return snapshot
}

func (s *session) isAcceptingInput() bool {
	return s.state == sessionStateActive
}
