package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/morphoslabs/morphos/internal/domain"
	"github.com/morphoslabs/morphos/internal/pose"
)

// SessionState tracks one client's exercise selection, rep counter, and
// frame bookkeeping. It outlives the connection so a reconnecting client
// resumes its count where it left off.
type SessionState struct {
	mu              sync.Mutex
	exerciseType    domain.ExerciseType
	counter         *pose.RepCounter
	processedFrames int
	lastActive      time.Time
}

func newSessionState(now time.Time) *SessionState {
	return &SessionState{
		exerciseType: domain.DefaultExerciseType,
		counter:      pose.NewRepCounter(),
		lastActive:   now,
	}
}

// ExerciseType returns the currently selected exercise.
func (s *SessionState) ExerciseType() domain.ExerciseType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exerciseType
}

// SetExerciseType switches the tracked exercise, discarding the rep
// counter and frame statistics.
func (s *SessionState) SetExerciseType(t domain.ExerciseType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exerciseType = t
	s.counter = pose.NewRepCounter()
	s.processedFrames = 0
	s.lastActive = time.Now()
}

// ResetCounter discards the rep counter but keeps the exercise selection.
func (s *SessionState) ResetCounter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter = pose.NewRepCounter()
	s.lastActive = time.Now()
}

// UpdateReps feeds one keypoint frame to the rep counter.
func (s *SessionState) UpdateReps(keypoints []domain.Keypoint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter.Update(keypoints)
}

// RepCount returns the current rep count without mutating anything.
func (s *SessionState) RepCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter.Count()
}

// RecordFrame notes a frame arrival and returns the running frame count
// plus the time since the previous frame.
func (s *SessionState) RecordFrame(now time.Time) (frames int, sincePrev time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sincePrev = now.Sub(s.lastActive)
	s.lastActive = now
	s.processedFrames++
	return s.processedFrames, sincePrev
}

// ProcessedFrames returns how many frames this session has handled.
func (s *SessionState) ProcessedFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processedFrames
}

func (s *SessionState) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SessionStore holds per-client session state, created lazily on first use
// and retained across disconnects. Retention is bounded by the sweeper.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*SessionState
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*SessionState)}
}

// Get returns the session for a client, creating it on first use.
func (st *SessionStore) Get(clientID string) *SessionState {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[clientID]
	if !ok {
		s = newSessionState(time.Now())
		st.sessions[clientID] = s
	}
	return s
}

// Len returns the number of retained sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Evict drops a client's session immediately.
func (st *SessionStore) Evict(clientID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, clientID)
}

// Sweep evicts sessions idle longer than ttl that have no live
// connection, returning how many were removed. connected reports live
// registry membership.
func (st *SessionStore) Sweep(ttl time.Duration, connected func(clientID string) bool) int {
	cutoff := time.Now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, s := range st.sessions {
		if connected(id) {
			continue
		}
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs a background goroutine that periodically evicts stale
// disconnected sessions. It stops when ctx is cancelled.
func (st *SessionStore) StartSweeper(ctx context.Context, every, ttl time.Duration, connected func(clientID string) bool) {
	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		slog.Info("session sweeper started", "interval", every, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if n := st.Sweep(ttl, connected); n > 0 {
					slog.Info("evicted stale sessions", "count", n)
				}
			case <-ctx.Done():
				slog.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
