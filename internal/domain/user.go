package domain

import "time"

// User is a profile record keyed by email. Identity itself (signup, token
// verification) lives in the external identity service; this record only
// carries the fitness profile the backend reports on.
type User struct {
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	FitnessLevel   string   `json:"fitness_level,omitempty"`
	HeightCm       *float64 `json:"height,omitempty"`
	WeightKg       *float64 `json:"weight,omitempty"`
	Age            *int     `json:"age,omitempty"`
	WorkoutStreak  int      `json:"workout_streak"`
	TotalWorkouts  int      `json:"total_workouts"`
	ActiveMinutes  int      `json:"active_minutes"`
	CaloriesBurned int      `json:"calories_burned"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
