package domain

import "time"

// ExerciseSession is one recorded workout session for a user, with
// per-exercise rep counts, hold times, and form scores.
type ExerciseSession struct {
	ID        string `json:"id"`
	UserEmail string `json:"user_email"`

	Date            time.Time `json:"date"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`

	TPosePerformed       bool     `json:"tpose_performed"`
	TPoseHoldTimeSeconds *int     `json:"tpose_hold_time_seconds,omitempty"`
	TPoseFormScore       *float64 `json:"tpose_form_score,omitempty"`

	BicepCurlPerformed bool     `json:"bicep_curl_performed"`
	BicepCurlReps      *int     `json:"bicep_curl_reps,omitempty"`
	BicepCurlFormScore *float64 `json:"bicep_curl_form_score,omitempty"`

	SquatPerformed bool     `json:"squat_performed"`
	SquatReps      *int     `json:"squat_reps,omitempty"`
	SquatFormScore *float64 `json:"squat_form_score,omitempty"`

	LateralRaisePerformed bool     `json:"lateral_raise_performed"`
	LateralRaiseReps      *int     `json:"lateral_raise_reps,omitempty"`
	LateralRaiseFormScore *float64 `json:"lateral_raise_form_score,omitempty"`

	PlankPerformed       bool     `json:"plank_performed"`
	PlankHoldTimeSeconds *int     `json:"plank_hold_time_seconds,omitempty"`
	PlankFormScore       *float64 `json:"plank_form_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ExerciseStats aggregates a user's recorded sessions for the profile view.
type ExerciseStats struct {
	TotalSessions          int            `json:"total_sessions"`
	TotalDurationMinutes   int            `json:"total_duration_minutes"`
	AverageDurationMinutes float64        `json:"average_duration_minutes"`
	ExercisesPerformed     map[string]int `json:"exercises_performed"`
}
