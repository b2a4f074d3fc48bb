package pose

import "github.com/morphoslabs/morphos/internal/domain"

// Form assessment labels.
const (
	FormUnknown    = "unknown"
	FormGood       = "good"
	FormCheckKnees = "check_knees"
	FormCheckBack  = "check_back"
	FormCheckDepth = "check_depth"
)

// minFormKeypoints is the smallest skeleton worth assessing at all.
const minFormKeypoints = 10

// AssessFunc scores a single frame of keypoints for one exercise.
type AssessFunc func(keypoints []domain.Keypoint) string

// FormAnalyzer maps exercise types to scoring strategies. Strategies are
// pure; the analyzer carries no per-session state and is safe to share.
type FormAnalyzer struct {
	strategies map[domain.ExerciseType]AssessFunc
}

// NewFormAnalyzer creates an analyzer with the default strategy per
// exercise type. The per-exercise joint-angle scoring is still a
// placeholder that reports good form whenever enough keypoints arrive.
func NewFormAnalyzer() *FormAnalyzer {
	return &FormAnalyzer{
		strategies: map[domain.ExerciseType]AssessFunc{
			domain.ExerciseSquat:        assessStub,
			domain.ExerciseBicepCurl:    assessStub,
			domain.ExerciseTPose:        assessStub,
			domain.ExerciseLateralRaise: assessStub,
			domain.ExercisePlank:        assessStub,
		},
	}
}

// Register installs a custom scoring strategy for an exercise type.
func (a *FormAnalyzer) Register(t domain.ExerciseType, fn AssessFunc) {
	a.strategies[t] = fn
}

// Assess labels one frame of keypoints for the given exercise. Returns
// FormUnknown when too few keypoints are present to say anything.
func (a *FormAnalyzer) Assess(keypoints []domain.Keypoint, t domain.ExerciseType) string {
	if len(keypoints) < minFormKeypoints {
		return FormUnknown
	}
	if fn, ok := a.strategies[t]; ok {
		return fn(keypoints)
	}
	return assessStub(keypoints)
}

func assessStub([]domain.Keypoint) string {
	return FormGood
}
