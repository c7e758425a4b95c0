package state

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/apparelbot/concierge/agent/contract"
)

var (
	ErrStateNotFound   = errors.New("session state not found")
	ErrNilSessionState = errors.New("session state is nil")
	ErrInvalidSession  = errors.New("session id is empty")
)

// SessionState is the durable record of one conversation thread: the
// append-only message log plus the routing cursor of the last turn.
type SessionState struct {
	SessionID string                `json:"session_id"`
	Messages  []contractx.Message   `json:"messages,omitempty"`
	LastRoute contractx.Destination `json:"last_route,omitempty"`

	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSessionState(sessionID string, now time.Time) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		Version:   1,
		UpdatedAt: now.UTC(),
	}
}

// Append records messages at the end of the log. Existing entries are
// never touched.
func (s *SessionState) Append(msgs ...contractx.Message) {
	s.Messages = append(s.Messages, msgs...)
}

// Last returns the most recent message, if the log is non-empty.
func (s *SessionState) Last() (contractx.Message, bool) {
	if len(s.Messages) == 0 {
		return contractx.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *SessionState) Validate() error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	return nil
}

// Clone returns a deep copy. Stores hand out copies so callers cannot
// mutate persisted history in place.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	dup := *s
	dup.Messages = make([]contractx.Message, len(s.Messages))
	copy(dup.Messages, s.Messages)
	return &dup
}
