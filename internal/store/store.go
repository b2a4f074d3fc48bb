// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/morphoslabs/morphos/internal/domain"
)

// Repository defines the interface for persisting user profiles and
// exercise sessions. Lookups return (nil, nil) when the record does not
// exist; missing records are never an error.
type Repository interface {
	// GetUser retrieves a user profile by email.
	GetUser(ctx context.Context, email string) (*domain.User, error)

	// UpsertUser creates or updates a user profile.
	UpsertUser(ctx context.Context, user *domain.User) error

	// GetLeaderboard returns the top users by workout streak.
	GetLeaderboard(ctx context.Context, limit int) ([]*domain.User, error)

	// CreateExerciseSession stores a new exercise session record.
	CreateExerciseSession(ctx context.Context, session *domain.ExerciseSession) error

	// GetExerciseSession retrieves an exercise session by id.
	GetExerciseSession(ctx context.Context, id string) (*domain.ExerciseSession, error)

	// ListExerciseSessions returns a user's sessions, newest first.
	ListExerciseSessions(ctx context.Context, email string, limit, offset int) ([]*domain.ExerciseSession, error)

	// UpdateExerciseSession replaces an existing session record.
	// Returns false when no record with that id exists.
	UpdateExerciseSession(ctx context.Context, session *domain.ExerciseSession) (bool, error)

	// DeleteExerciseSession removes a session record.
	// Returns false when no record with that id exists.
	DeleteExerciseSession(ctx context.Context, id string) (bool, error)

	// GetExerciseStats aggregates a user's recorded sessions.
	GetExerciseStats(ctx context.Context, email string) (*domain.ExerciseStats, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
