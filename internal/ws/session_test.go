package ws

import (
	"testing"
	"time"

	"github.com/morphoslabs/morphos/internal/domain"
)

func TestSessionStoreCreatesLazily(t *testing.T) {
	st := NewSessionStore()

	if st.Len() != 0 {
		t.Fatalf("new store holds %d sessions", st.Len())
	}

	s1 := st.Get("c1")
	s2 := st.Get("c1")
	if s1 != s2 {
		t.Error("Get returned a different session for the same client")
	}
	if st.Len() != 1 {
		t.Errorf("store holds %d sessions, want 1", st.Len())
	}
	if s1.ExerciseType() != domain.DefaultExerciseType {
		t.Errorf("new session exercise type = %s, want %s", s1.ExerciseType(), domain.DefaultExerciseType)
	}
}

func TestSessionSurvivesReconnect(t *testing.T) {
	st := NewSessionStore()

	s := st.Get("c1")
	s.SetExerciseType(domain.ExerciseBicepCurl)
	s.RecordFrame(time.Now())

	// A reconnect looks up the same client id.
	again := st.Get("c1")
	if again.ExerciseType() != domain.ExerciseBicepCurl {
		t.Errorf("exercise type after reconnect = %s, want bicep_curl", again.ExerciseType())
	}
	if again.ProcessedFrames() != 1 {
		t.Errorf("processed frames after reconnect = %d, want 1", again.ProcessedFrames())
	}
}

func TestSetExerciseTypeResetsCounterState(t *testing.T) {
	st := NewSessionStore()
	s := st.Get("c1")
	s.RecordFrame(time.Now())
	s.RecordFrame(time.Now())

	s.SetExerciseType(domain.ExercisePlank)

	if s.ProcessedFrames() != 0 {
		t.Errorf("processed frames after exercise switch = %d, want 0", s.ProcessedFrames())
	}
	if s.RepCount() != 0 {
		t.Errorf("rep count after exercise switch = %d, want 0", s.RepCount())
	}
}

func TestSweepEvictsOnlyIdleDisconnectedSessions(t *testing.T) {
	st := NewSessionStore()

	stale := st.Get("stale")
	connectedButIdle := st.Get("connected")
	fresh := st.Get("fresh")

	old := time.Now().Add(-time.Hour)
	stale.mu.Lock()
	stale.lastActive = old
	stale.mu.Unlock()
	connectedButIdle.mu.Lock()
	connectedButIdle.lastActive = old
	connectedButIdle.mu.Unlock()
	_ = fresh

	live := map[string]bool{"connected": true}
	evicted := st.Sweep(30*time.Minute, func(id string) bool { return live[id] })

	if evicted != 1 {
		t.Fatalf("Sweep evicted %d sessions, want 1", evicted)
	}
	if st.Len() != 2 {
		t.Errorf("store holds %d sessions after sweep, want 2", st.Len())
	}

	// The evicted client starts over on its next connect.
	if st.Get("stale").ProcessedFrames() != 0 {
		t.Error("evicted session state was not discarded")
	}
}
