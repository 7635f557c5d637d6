// Package session provides a thread-safe in-memory map of search sessions,
// each holding an append-only result list, a progress cursor, and a
// one-way cancellation flag.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"catchup-feed/internal/domain/entity"
)

// Clock abstracts time.Now for deterministic tests, mirroring the pattern
// used for the per-domain rate limiter and the robots gate cache.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Store is a thread-safe in-memory map of sessions keyed by ID, plus a
// separate cancellation set so cancellation can be checked without holding
// the sessions lock for longer than a single map read.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*entity.Session
	cancelled  map[string]struct{}
	clock      Clock
}

// New builds an empty Store. clock may be nil to use SystemClock.
func New(clock Clock) *Store {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Store{
		sessions:  make(map[string]*entity.Session),
		cancelled: make(map[string]struct{}),
		clock:     clock,
	}
}

// Create starts a new session for query and returns its id.
func (s *Store) Create(query entity.SearchQuery) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &entity.Session{
		ID:        id,
		Query:     query,
		Status:    entity.SessionStatusPending,
		CreatedAt: s.clock.Now(),
		Results:   make([]entity.EventRecord, 0),
	}
	return id
}

// AppendResult appends event to the session's result list. Appending to a
// cancelled session is permitted: late arrivals are kept, per the
// cancellation semantics the caller is expected to honor (stop starting new
// work, not stop accepting in-flight results).
func (s *Store) AppendResult(id string, event entity.EventRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.Results = append(sess.Results, event)
	return true
}

// UpdateProgress sets the session's current/total counters and derives the
// percent and message fields.
func (s *Store) UpdateProgress(id string, current, total int, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	percent := 0.0
	if total > 0 {
		percent = float64(current) / float64(total) * 100
	}
	sess.Progress = entity.Progress{Current: current, Total: total, Percent: percent, Message: message}
	return true
}

// SetStatus transitions the session's status.
func (s *Store) SetStatus(id string, status entity.SessionStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.Status = status
	return true
}

// Cancel atomically marks id as cancelled and sets its status to
// SessionStatusCancelled. The cancellation flag never clears.
func (s *Store) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	s.cancelled[id] = struct{}{}
	sess.Status = entity.SessionStatusCancelled
	return true
}

// IsCancelled reports whether id has been cancelled. Safe to call from a
// hot suspension-point loop; it takes only a read lock.
func (s *Store) IsCancelled(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cancelled[id]
	return ok
}

// GetResults returns a copy of the session's accumulated results.
func (s *Store) GetResults(id string) ([]entity.EventRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	out := make([]entity.EventRecord, len(sess.Results))
	copy(out, sess.Results)
	return out, true
}

// GetSession returns a shallow copy of the session's metadata (status,
// progress, query, creation time) without its result list, cheap enough to
// call from a polling endpoint.
func (s *Store) GetSession(id string) (entity.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return entity.Session{}, false
	}
	snapshot := *sess
	snapshot.Results = nil
	return snapshot, true
}

// Delete removes a session and its cancellation entry.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.cancelled, id)
}

// CleanupOlderThan evicts every session whose CreatedAt is older than
// s.clock.Now().Add(-maxAge), returning how many were removed.
func (s *Store) CleanupOlderThan(maxAge time.Duration) int {
	cutoff := s.clock.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.CreatedAt.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.cancelled, id)
			removed++
		}
	}
	return removed
}

// Len returns the current number of live sessions, mainly for metrics.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
