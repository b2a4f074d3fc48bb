package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/morphoslabs/morphos/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		email TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		fitness_level TEXT,
		height_cm REAL,
		weight_kg REAL,
		age INTEGER,
		workout_streak INTEGER NOT NULL DEFAULT 0,
		total_workouts INTEGER NOT NULL DEFAULT 0,
		active_minutes INTEGER NOT NULL DEFAULT 0,
		calories_burned INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_streak ON users(workout_streak);

	CREATE TABLE IF NOT EXISTS exercise_sessions (
		id TEXT PRIMARY KEY,
		user_email TEXT NOT NULL,
		date INTEGER NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL,
		duration_minutes INTEGER NOT NULL,
		tpose_performed INTEGER NOT NULL DEFAULT 0,
		tpose_hold_seconds INTEGER,
		tpose_form_score REAL,
		bicep_curl_performed INTEGER NOT NULL DEFAULT 0,
		bicep_curl_reps INTEGER,
		bicep_curl_form_score REAL,
		squat_performed INTEGER NOT NULL DEFAULT 0,
		squat_reps INTEGER,
		squat_form_score REAL,
		lateral_raise_performed INTEGER NOT NULL DEFAULT 0,
		lateral_raise_reps INTEGER,
		lateral_raise_form_score REAL,
		plank_performed INTEGER NOT NULL DEFAULT 0,
		plank_hold_seconds INTEGER,
		plank_form_score REAL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON exercise_sessions(user_email, date DESC);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetUser retrieves a user profile by email.
func (s *SQLiteStore) GetUser(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT email, name, fitness_level, height_cm, weight_kg, age,
		       workout_streak, total_workouts, active_minutes, calories_burned,
		       created_at, updated_at
		FROM users WHERE email = ?`

	row := s.db.QueryRowContext(ctx, query, email)

	var user domain.User
	var fitnessLevel sql.NullString
	var height, weight sql.NullFloat64
	var age sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&user.Email, &user.Name, &fitnessLevel, &height, &weight, &age,
		&user.WorkoutStreak, &user.TotalWorkouts, &user.ActiveMinutes, &user.CaloriesBurned,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.FitnessLevel = fitnessLevel.String
	if height.Valid {
		user.HeightCm = &height.Float64
	}
	if weight.Valid {
		user.WeightKg = &weight.Float64
	}
	if age.Valid {
		a := int(age.Int64)
		user.Age = &a
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user profile.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (email, name, fitness_level, height_cm, weight_kg, age,
		workout_streak, total_workouts, active_minutes, calories_burned,
		created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(email) DO UPDATE SET
		name = excluded.name,
		fitness_level = excluded.fitness_level,
		height_cm = excluded.height_cm,
		weight_kg = excluded.weight_kg,
		age = excluded.age,
		workout_streak = excluded.workout_streak,
		total_workouts = excluded.total_workouts,
		active_minutes = excluded.active_minutes,
		calories_burned = excluded.calories_burned,
		updated_at = excluded.updated_at`

	var fitnessLevel any
	if user.FitnessLevel != "" {
		fitnessLevel = user.FitnessLevel
	}

	_, err := s.db.ExecContext(ctx, query,
		user.Email, user.Name, fitnessLevel,
		nullableFloat(user.HeightCm), nullableFloat(user.WeightKg), nullableInt(user.Age),
		user.WorkoutStreak, user.TotalWorkouts, user.ActiveMinutes, user.CaloriesBurned,
		user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetLeaderboard returns the top users by workout streak.
func (s *SQLiteStore) GetLeaderboard(ctx context.Context, limit int) ([]*domain.User, error) {
	query := `
		SELECT email, name, workout_streak, total_workouts
		FROM users
		ORDER BY workout_streak DESC, total_workouts DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.Email, &user.Name, &user.WorkoutStreak, &user.TotalWorkouts); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard rows: %w", err)
	}
	return users, nil
}

const sessionColumns = `id, user_email, date, start_time, end_time, duration_minutes,
	tpose_performed, tpose_hold_seconds, tpose_form_score,
	bicep_curl_performed, bicep_curl_reps, bicep_curl_form_score,
	squat_performed, squat_reps, squat_form_score,
	lateral_raise_performed, lateral_raise_reps, lateral_raise_form_score,
	plank_performed, plank_hold_seconds, plank_form_score,
	created_at`

// CreateExerciseSession stores a new exercise session record.
func (s *SQLiteStore) CreateExerciseSession(ctx context.Context, session *domain.ExerciseSession) error {
	query := `INSERT INTO exercise_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, sessionArgs(session)...)
	if err != nil {
		return fmt.Errorf("insert exercise session: %w", err)
	}
	return nil
}

// GetExerciseSession retrieves an exercise session by id.
func (s *SQLiteStore) GetExerciseSession(ctx context.Context, id string) (*domain.ExerciseSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM exercise_sessions WHERE id = ?`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan exercise session: %w", err)
	}
	return session, nil
}

// ListExerciseSessions returns a user's sessions, newest first.
func (s *SQLiteStore) ListExerciseSessions(ctx context.Context, email string, limit, offset int) ([]*domain.ExerciseSession, error) {
	query := `SELECT ` + sessionColumns + `
		FROM exercise_sessions WHERE user_email = ?
		ORDER BY date DESC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, email, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query exercise sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*domain.ExerciseSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exercise session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exercise sessions: %w", err)
	}
	return sessions, nil
}

// UpdateExerciseSession replaces an existing session record.
func (s *SQLiteStore) UpdateExerciseSession(ctx context.Context, session *domain.ExerciseSession) (bool, error) {
	query := `
	UPDATE exercise_sessions SET
		user_email = ?, date = ?, start_time = ?, end_time = ?, duration_minutes = ?,
		tpose_performed = ?, tpose_hold_seconds = ?, tpose_form_score = ?,
		bicep_curl_performed = ?, bicep_curl_reps = ?, bicep_curl_form_score = ?,
		squat_performed = ?, squat_reps = ?, squat_form_score = ?,
		lateral_raise_performed = ?, lateral_raise_reps = ?, lateral_raise_form_score = ?,
		plank_performed = ?, plank_hold_seconds = ?, plank_form_score = ?
	WHERE id = ?`

	args := sessionArgs(session)
	// Reorder: drop leading id and trailing created_at, append id for WHERE.
	args = append(args[1:len(args)-1], session.ID)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update exercise session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update exercise session: rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteExerciseSession removes a session record.
func (s *SQLiteStore) DeleteExerciseSession(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exercise_sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete exercise session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete exercise session: rows affected: %w", err)
	}
	return n > 0, nil
}

// GetExerciseStats aggregates a user's recorded sessions.
func (s *SQLiteStore) GetExerciseStats(ctx context.Context, email string) (*domain.ExerciseStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(duration_minutes), 0),
		       COALESCE(AVG(duration_minutes), 0),
		       COALESCE(SUM(tpose_performed), 0),
		       COALESCE(SUM(bicep_curl_performed), 0),
		       COALESCE(SUM(squat_performed), 0),
		       COALESCE(SUM(lateral_raise_performed), 0),
		       COALESCE(SUM(plank_performed), 0)
		FROM exercise_sessions WHERE user_email = ?`

	var stats domain.ExerciseStats
	var tpose, bicep, squat, lateral, plank int

	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&stats.TotalSessions, &stats.TotalDurationMinutes, &stats.AverageDurationMinutes,
		&tpose, &bicep, &squat, &lateral, &plank,
	)
	if err != nil {
		return nil, fmt.Errorf("query exercise stats: %w", err)
	}

	stats.ExercisesPerformed = map[string]int{
		string(domain.ExerciseTPose):        tpose,
		string(domain.ExerciseBicepCurl):    bicep,
		string(domain.ExerciseSquat):        squat,
		string(domain.ExerciseLateralRaise): lateral,
		string(domain.ExercisePlank):        plank,
	}
	return &stats, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*domain.ExerciseSession, error) {
	var s domain.ExerciseSession
	var date, start, end, createdAt int64
	var tposeHold, bicepReps, squatReps, lateralReps, plankHold sql.NullInt64
	var tposeScore, bicepScore, squatScore, lateralScore, plankScore sql.NullFloat64

	err := row.Scan(
		&s.ID, &s.UserEmail, &date, &start, &end, &s.DurationMinutes,
		&s.TPosePerformed, &tposeHold, &tposeScore,
		&s.BicepCurlPerformed, &bicepReps, &bicepScore,
		&s.SquatPerformed, &squatReps, &squatScore,
		&s.LateralRaisePerformed, &lateralReps, &lateralScore,
		&s.PlankPerformed, &plankHold, &plankScore,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	s.Date = time.Unix(date, 0)
	s.StartTime = time.Unix(start, 0)
	s.EndTime = time.Unix(end, 0)
	s.CreatedAt = time.Unix(createdAt, 0)
	s.TPoseHoldTimeSeconds = intPtr(tposeHold)
	s.TPoseFormScore = floatPtr(tposeScore)
	s.BicepCurlReps = intPtr(bicepReps)
	s.BicepCurlFormScore = floatPtr(bicepScore)
	s.SquatReps = intPtr(squatReps)
	s.SquatFormScore = floatPtr(squatScore)
	s.LateralRaiseReps = intPtr(lateralReps)
	s.LateralRaiseFormScore = floatPtr(lateralScore)
	s.PlankHoldTimeSeconds = intPtr(plankHold)
	s.PlankFormScore = floatPtr(plankScore)

	return &s, nil
}

func sessionArgs(s *domain.ExerciseSession) []any {
	return []any{
		s.ID, s.UserEmail, s.Date.Unix(), s.StartTime.Unix(), s.EndTime.Unix(), s.DurationMinutes,
		s.TPosePerformed, nullableInt(s.TPoseHoldTimeSeconds), nullableFloat(s.TPoseFormScore),
		s.BicepCurlPerformed, nullableInt(s.BicepCurlReps), nullableFloat(s.BicepCurlFormScore),
		s.SquatPerformed, nullableInt(s.SquatReps), nullableFloat(s.SquatFormScore),
		s.LateralRaisePerformed, nullableInt(s.LateralRaiseReps), nullableFloat(s.LateralRaiseFormScore),
		s.PlankPerformed, nullableInt(s.PlankHoldTimeSeconds), nullableFloat(s.PlankFormScore),
		s.CreatedAt.Unix(),
	}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
