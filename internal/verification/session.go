package verification

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the position of an operator's verification form.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateValidating: "validating",
	StateSubmitting: "submitting",
	StateSucceeded:  "succeeded",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrSubmissionInFlight rejects a submission while another is pending.
	ErrSubmissionInFlight = errors.New("a verification is already in progress")
	// ErrInvalidTransition reports a state change the machine does not allow.
	ErrInvalidTransition = errors.New("invalid verification state transition")
)

// Snapshot is a consistent view of a session. Result is set only in
// StateSucceeded and Err only in StateFailed.
type Snapshot struct {
	State     State
	Result    *Result
	Err       error
	UpdatedAt time.Time
}

// Session is the state machine behind one operator's verification form:
// Idle -> Validating -> Submitting -> Succeeded|Failed -> Idle.
type Session struct {
	mu   sync.Mutex
	snap Snapshot
	now  func() time.Time
}

// NewSession returns an idle session.
func NewSession() *Session {
	s := &Session{now: time.Now}
	s.snap = Snapshot{State: StateIdle, UpdatedAt: s.now()}
	return s
}

// Begin starts a new submission, discarding any previous result.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.snap.State {
	case StateValidating, StateSubmitting:
		return ErrSubmissionInFlight
	}
	s.set(Snapshot{State: StateValidating})
	return nil
}

// Submitting records that validation passed and the request is on the wire.
func (s *Session) Submitting() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != StateValidating {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.snap.State, StateSubmitting)
	}
	s.set(Snapshot{State: StateSubmitting})
	return nil
}

// Succeed stores the result of a submission.
func (s *Session) Succeed(r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State != StateSubmitting {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.snap.State, StateSucceeded)
	}
	s.set(Snapshot{State: StateSucceeded, Result: &r})
	return nil
}

// Fail stores the error that ended a submission.
func (s *Session) Fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.snap.State {
	case StateValidating, StateSubmitting:
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.snap.State, StateFailed)
	}
	s.set(Snapshot{State: StateFailed, Err: err})
	return nil
}

// Reset closes the result view. It is refused while a submission is pending.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.snap.State {
	case StateValidating, StateSubmitting:
		return ErrSubmissionInFlight
	}
	s.set(Snapshot{State: StateIdle})
	return nil
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Session) set(next Snapshot) {
	next.UpdatedAt = s.now()
	s.snap = next
}

// Sessions holds one Session per operator.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions builds an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*Session)}
}

// For returns the session of operatorID, creating it on first use.
func (s *Sessions) For(operatorID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[operatorID]
	if !ok {
		sess = NewSession()
		s.sessions[operatorID] = sess
	}
	return sess
}
