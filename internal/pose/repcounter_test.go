package pose

import (
	"testing"
	"time"

	"github.com/morphoslabs/morphos/internal/domain"
)

// fakeClock advances a fixed step on every reading.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0), step: step}
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

// frame builds a skeleton whose tracked keypoint sits at the given height.
func frame(y, confidence float64) []domain.Keypoint {
	kps := make([]domain.Keypoint, TrackedKeypoint+2)
	for i := range kps {
		kps[i] = domain.Keypoint{X: 0.5, Y: 0.5, Confidence: 0.9}
	}
	kps[TrackedKeypoint] = domain.Keypoint{X: 0.5, Y: y, Confidence: confidence}
	return kps
}

// oscillation produces n triangle cycles between lo and hi: downN samples of
// descent (y growing) followed by upN samples of ascent.
func oscillation(n, downN, upN int, lo, hi float64) []float64 {
	var seq []float64
	for c := 0; c < n; c++ {
		for i := 1; i <= downN; i++ {
			seq = append(seq, lo+(hi-lo)*float64(i)/float64(downN))
		}
		for i := 1; i <= upN; i++ {
			seq = append(seq, hi-(hi-lo)*float64(i)/float64(upN))
		}
	}
	return seq
}

func TestUpdateLowConfidenceIsNoOp(t *testing.T) {
	c := NewRepCounter()

	for i := 0; i < 20; i++ {
		y := 0.5
		if i%2 == 0 {
			y = 0.9
		}
		if got := c.Update(frame(y, 0.3)); got != 0 {
			t.Fatalf("rep count = %d after low-confidence frame, want 0", got)
		}
	}
}

func TestUpdateMissingTrackedKeypointIsNoOp(t *testing.T) {
	c := NewRepCounter()

	short := []domain.Keypoint{{X: 0.5, Y: 0.5, Confidence: 0.9}}
	if got := c.Update(short); got != 0 {
		t.Fatalf("rep count = %d for short keypoint set, want 0", got)
	}
	if got := c.Update(nil); got != 0 {
		t.Fatalf("rep count = %d for nil keypoints, want 0", got)
	}
}

func TestUpdateCountsOneRepPerOscillation(t *testing.T) {
	// Period 1.05s, amplitude 0.3: one rep per full cycle, not two.
	clock := newFakeClock(150 * time.Millisecond)
	c := NewRepCounterAt(TrackedKeypoint, clock.now)

	const samplesPerCycle = 7
	seq := oscillation(4, 4, 3, 0.5, 0.8)
	for i, y := range seq {
		count := c.Update(frame(y, 0.9))
		if (i+1)%samplesPerCycle == 0 {
			cycle := (i + 1) / samplesPerCycle
			if count != cycle {
				t.Fatalf("after oscillation %d: rep count = %d, want %d", cycle, count, cycle)
			}
		}
	}
}

func TestUpdateDebouncesRapidReversals(t *testing.T) {
	// Reversals 100ms apart: only the first may count.
	clock := newFakeClock(100 * time.Millisecond)
	c := NewRepCounterAt(TrackedKeypoint, clock.now)

	for _, y := range []float64{0.5, 0.6, 0.7, 0.4, 0.75, 0.45} {
		c.Update(frame(y, 0.9))
	}
	if got := c.Count(); got != 1 {
		t.Fatalf("rep count = %d with rapid reversals, want 1", got)
	}
}

func TestUpdateCountsSpacedReversals(t *testing.T) {
	// Same trajectory 600ms apart: every reversal clears the debounce.
	clock := newFakeClock(600 * time.Millisecond)
	c := NewRepCounterAt(TrackedKeypoint, clock.now)

	for _, y := range []float64{0.5, 0.6, 0.7, 0.4, 0.75, 0.45} {
		c.Update(frame(y, 0.9))
	}
	if got := c.Count(); got != 3 {
		t.Fatalf("rep count = %d with spaced reversals, want 3", got)
	}
}

func TestUpdateIgnoresSmallAmplitude(t *testing.T) {
	clock := newFakeClock(100 * time.Millisecond)
	c := NewRepCounterAt(TrackedKeypoint, clock.now)

	// Amplitude 0.1 sits below the minimum-movement threshold.
	for _, y := range oscillation(5, 6, 6, 0.5, 0.6) {
		c.Update(frame(y, 0.9))
	}
	if got := c.Count(); got != 0 {
		t.Fatalf("rep count = %d for amplitude 0.1, want 0", got)
	}
}

func TestCountIsMonotonic(t *testing.T) {
	clock := newFakeClock(150 * time.Millisecond)
	c := NewRepCounterAt(TrackedKeypoint, clock.now)

	prev := 0
	for _, y := range oscillation(6, 4, 3, 0.5, 0.8) {
		got := c.Update(frame(y, 0.9))
		if got < prev {
			t.Fatalf("rep count decreased from %d to %d", prev, got)
		}
		prev = got
	}
}
