package orchestration

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateSession is returned when opening a session whose id was
	// already used, including ids of closed sessions.
	ErrDuplicateSession = errors.New("session id already in use")
	// ErrUnknownSession is returned when an operation names a session the
	// orchestrator does not hold.
	ErrUnknownSession = errors.New("unknown session")
)

// ConfigurationError reports invalid or missing settings. It is detected
// before any session opens and is the only error fatal beyond a single
// session.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// SessionInitError reports a failed acquisition of per-session resources.
// The open attempt is fully rolled back; other sessions are unaffected.
type SessionInitError struct {
	SessionID string
	Err       error
}

func (e SessionInitError) Error() string {
	return fmt.Sprintf("failed to initialize session %s: %v", e.SessionID, e.Err)
}

func (e SessionInitError) Unwrap() error { return e.Err }

// AdapterError reports a recognition, generation, or synthesis failure. It is
// recovered locally: logged, surfaced to the observer, and the session
// continues.
type AdapterError struct {
	SessionID string
	Service   string
	Err       error
}

func (e AdapterError) Error() string {
	return fmt.Sprintf("%s adapter failed for session %s: %v", e.Service, e.SessionID, e.Err)
}

func (e AdapterError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed or unexpected inbound event. The event is
// rejected with an explanation; the session continues.
type ProtocolError struct {
	SessionID string
	Reason    string
}

func (e ProtocolError) Error() string {
	return fmt.Sprintf("protocol error for session %s: %s", e.SessionID, e.Reason)
}

// ResourceError reports a storage failure during recording or logging. It is
// surfaced to the specific caller and reflected as a partial manifest rather
// than aborting the session.
type ResourceError struct {
	SessionID string
	Op        string
	Err       error
}

func (e ResourceError) Error() string {
	return fmt.Sprintf("resource failure during %s for session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e ResourceError) Unwrap() error { return e.Err }
