// Package pose turns keypoint streams into rep counts and form assessments.
package pose

import (
	"time"

	"github.com/morphoslabs/morphos/internal/domain"
)

// TrackedKeypoint is the mid-hip landmark index in COCO ordering.
const TrackedKeypoint = 9

const (
	historyCapacity = 10
	minSamples      = 3
	confidenceFloor = 0.5
	minAmplitude    = 0.15
	debounceWindow  = 500 * time.Millisecond
)

type direction int

const (
	directionUnknown direction = iota
	directionRising
	directionFalling
)

// RepCounter detects completed repetitions from the vertical trajectory of a
// single tracked keypoint. A rep registers on a direction reversal, gated by
// a debounce window and a minimum peak-to-trough amplitude so keypoint jitter
// never double-counts. Not safe for concurrent use; each session owns one.
type RepCounter struct {
	keypointIdx int
	positions   []float64
	dir         direction
	repCount    int
	lastRepAt   time.Time
	now         func() time.Time
}

// NewRepCounter creates a counter tracking the default mid-hip keypoint.
func NewRepCounter() *RepCounter {
	return &RepCounter{keypointIdx: TrackedKeypoint, now: time.Now}
}

// NewRepCounterAt creates a counter for a specific keypoint index with an
// injectable clock. The clock must never return the zero time.
func NewRepCounterAt(keypointIdx int, now func() time.Time) *RepCounter {
	if now == nil {
		now = time.Now
	}
	return &RepCounter{keypointIdx: keypointIdx, now: now}
}

// Update consumes one keypoint frame and returns the running rep count.
// Frames missing the tracked keypoint, or where its confidence falls below
// the noise floor, leave all state untouched.
func (c *RepCounter) Update(keypoints []domain.Keypoint) int {
	if len(keypoints) <= c.keypointIdx {
		return c.repCount
	}

	kp := keypoints[c.keypointIdx]
	if kp.Confidence < confidenceFloor {
		return c.repCount
	}

	c.positions = append(c.positions, kp.Y)
	if len(c.positions) > historyCapacity {
		c.positions = c.positions[1:]
	}

	if len(c.positions) < minSamples {
		return c.repCount
	}

	// Rising means y shrinking: image-space y grows downward.
	var sum float64
	for _, y := range c.positions[:len(c.positions)-1] {
		sum += y
	}
	avg := sum / float64(len(c.positions)-1)
	dir := directionFalling
	if kp.Y < avg {
		dir = directionRising
	}

	if c.dir != directionUnknown && dir != c.dir {
		now := c.now()
		if now.Sub(c.lastRepAt) > debounceWindow && c.amplitude() > minAmplitude {
			c.repCount++
			c.lastRepAt = now
		}
	}

	c.dir = dir
	return c.repCount
}

// Count returns the reps counted so far.
func (c *RepCounter) Count() int {
	return c.repCount
}

func (c *RepCounter) amplitude() float64 {
	lo, hi := c.positions[0], c.positions[0]
	for _, y := range c.positions[1:] {
		if y < lo {
			lo = y
		}
		if y > hi {
			hi = y
		}
	}
	return hi - lo
}
