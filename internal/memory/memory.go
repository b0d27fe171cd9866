// Package memory holds bounded per-session conversation history in process
// memory. Unlike fbrzx-airplane-chat's filesystem-backed storage.Manager, history
// here never touches disk: a session's transcript is only ever needed for
// the lifetime of its chat, and there is a hard process-wide cap on how
// many sessions are retained at all, which an LRU eviction policy enforces
// directly. The per-session mutex-map pattern is grounded on
// storage.Manager.lockFor.
package memory

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Turn is one exchange recorded in a session's history.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

type session struct {
	mu       sync.Mutex
	language string // write-once pinned language code; "" until first turn
	turns    []Turn
}

// Store holds conversation history for up to capacity sessions, evicting the
// least recently used session once full.
type Store struct {
	mu            sync.Mutex
	sessions      *lru.Cache[string, *session]
	historyLength int
}

const (
	defaultCapacity      = 10000
	defaultHistoryLength = 20
)

// NewStore constructs a Store capped at capacity sessions, each retaining at
// most historyLength turns. Non-positive values fall back to defaults.
func NewStore(capacity, historyLength int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if historyLength <= 0 {
		historyLength = defaultHistoryLength
	}

	cache, err := lru.New[string, *session](capacity)
	if err != nil {
		panic(err)
	}
	return &Store{sessions: cache, historyLength: historyLength}
}

func (s *Store) sessionFor(sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions.Get(sessionID); ok {
		return sess
	}
	sess := &session{}
	s.sessions.Add(sessionID, sess)
	return sess
}

// History returns a copy of the session's turns, oldest first.
func (s *Store) History(sessionID string) []Turn {
	sess := s.sessionFor(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	out := make([]Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// Append records a turn, trimming the oldest turn if the session is at
// capacity.
func (s *Store) Append(sessionID string, turn Turn) {
	sess := s.sessionFor(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.turns = append(sess.turns, turn)
	if len(sess.turns) > s.historyLength {
		sess.turns = sess.turns[len(sess.turns)-s.historyLength:]
	}
}

// Language returns the session's pinned language code, and whether one has
// been set yet.
func (s *Store) Language(sessionID string) (string, bool) {
	sess := s.sessionFor(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return sess.language, sess.language != ""
}

// PinLanguage sets the session's language code if it is not already pinned.
// Returns the effective language: either the newly pinned code, or the one
// already on file if a pin already existed.
func (s *Store) PinLanguage(sessionID, code string) string {
	sess := s.sessionFor(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.language == "" {
		sess.language = code
	}
	return sess.language
}

// Reset clears a session's pinned language, letting the next turn re-detect
// it, without discarding conversation history.
func (s *Store) Reset(sessionID string) {
	sess := s.sessionFor(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.language = ""
}
