package domain

// ExerciseType identifies which movement a session is tracking.
type ExerciseType string

const (
	ExerciseSquat        ExerciseType = "squat"
	ExerciseBicepCurl    ExerciseType = "bicep_curl"
	ExerciseTPose        ExerciseType = "tpose"
	ExerciseLateralRaise ExerciseType = "lateral_raise"
	ExercisePlank        ExerciseType = "plank"
)

// DefaultExerciseType is assumed until a client selects otherwise.
const DefaultExerciseType = ExerciseSquat

// Valid reports whether t is one of the known exercise types.
func (t ExerciseType) Valid() bool {
	switch t {
	case ExerciseSquat, ExerciseBicepCurl, ExerciseTPose, ExerciseLateralRaise, ExercisePlank:
		return true
	}
	return false
}
