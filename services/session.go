package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = 12 * time.Hour

// Session is one user's estimate in progress.
type Session struct {
	ID string

	mu   sync.Mutex
	list EstimateList

	// guarded by the owning SessionStore's mutex
	lastSeen time.Time
}

// Update runs fn with exclusive access to the session's estimate list.
func (s *Session) Update(fn func(l *EstimateList) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.list)
}

// Items returns a copy of the line items.
func (s *Session) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Items()
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Summary()
}

// SessionStore holds the live sessions of this process, keyed by ID.
// Sessions not looked up for longer than the idle TTL are dropped; expired
// entries are swept whenever a session is created.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewSessionStore returns a store that expires sessions after idleTTL
// without a lookup. A zero or negative idleTTL keeps sessions until
// Destroy.
func NewSessionStore(idleTTL time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Create starts a new empty session.
func (st *SessionStore) Create() *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweepLocked(now)

	s := &Session{ID: uuid.NewString(), lastSeen: now}
	st.sessions[s.ID] = s
	return s
}

// Get returns a live session and marks it as seen.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	now := st.now()
	if st.expired(s, now) {
		delete(st.sessions, id)
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// Destroy removes the session. Unknown IDs are ignored.
func (st *SessionStore) Destroy(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Sweep drops every expired session and returns how many were removed.
func (st *SessionStore) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sweepLocked(st.now())
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *SessionStore) sweepLocked(now time.Time) int {
	if st.idleTTL <= 0 {
		return 0
	}
	removed := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *SessionStore) expired(s *Session, now time.Time) bool {
	return st.idleTTL > 0 && now.Sub(s.lastSeen) > st.idleTTL
}
