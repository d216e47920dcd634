package state

import (
	"sync"
	"time"
)

// Store is the session persistence contract used by the engine.
//
// The store performs no locking around GetOrCreate/Save themselves
// beyond map safety; callers must hold the per-sender lock from Acquire
// for the whole read-modify-write of one inbound message. The expiry
// sweeper follows the same discipline so a session is never deleted
// mid-transaction.
type Store interface {
	Acquire(senderID string) (release func())
	GetOrCreate(senderID string, now time.Time) *Session
	Save(senderID string, sess *Session)
	SweepExpired(now time.Time, idleThreshold time.Duration) int
}

// MemoryStore keeps sessions in process memory. Last write wins; no
// durability beyond the process lifetime.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Acquire locks the per-sender mutex and returns its release func.
// Lock entries are never removed: a waiter blocked on an old mutex must
// not race a freshly created one after a sweep.
func (s *MemoryStore) Acquire(senderID string) func() {
	l := s.lockFor(senderID)
	l.Lock()
	return l.Unlock
}

func (s *MemoryStore) lockFor(senderID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[senderID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[senderID] = l
	}
	return l
}

func (s *MemoryStore) GetOrCreate(senderID string, now time.Time) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[senderID]; ok {
		return sess
	}
	sess := NewSession(senderID, now)
	s.sessions[senderID] = sess
	return sess
}

func (s *MemoryStore) Save(senderID string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[senderID] = sess
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// SweepExpired removes every session idle longer than idleThreshold and
// returns how many were removed. Each candidate is checked under its
// per-sender lock, independent of in-flight quote state.
func (s *MemoryStore) SweepExpired(now time.Time, idleThreshold time.Duration) int {
	s.mu.Lock()
	candidates := make([]string, 0, len(s.sessions))
	for senderID := range s.sessions {
		candidates = append(candidates, senderID)
	}
	s.mu.Unlock()

	removed := 0
	for _, senderID := range candidates {
		release := s.Acquire(senderID)
		s.mu.Lock()
		if sess, ok := s.sessions[senderID]; ok && sess.ExpiredAt(now, idleThreshold) {
			delete(s.sessions, senderID)
			removed++
		}
		s.mu.Unlock()
		release()
	}
	return removed
}
