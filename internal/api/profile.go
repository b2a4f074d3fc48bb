package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/morphoslabs/morphos/internal/domain"
	"github.com/morphoslabs/morphos/internal/store"
)

const defaultLeaderboardLimit = 10

// ProfileHandler serves user profile and leaderboard endpoints.
type ProfileHandler struct {
	repo store.Repository
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(repo store.Repository) *ProfileHandler {
	return &ProfileHandler{repo: repo}
}

// RegisterRoutes registers profile routes.
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Get("/me", h.Me)
		r.Put("/me", h.UpdateMe)
		r.Get("/leaderboard", h.Leaderboard)
	})
}

// profileUpdate carries the mutable subset of a user profile. Pointer
// fields distinguish "not sent" from zero values.
type profileUpdate struct {
	Name           *string  `json:"name"`
	FitnessLevel   *string  `json:"fitness_level"`
	HeightCm       *float64 `json:"height"`
	WeightKg       *float64 `json:"weight"`
	Age            *int     `json:"age"`
	WorkoutStreak  *int     `json:"workout_streak"`
	TotalWorkouts  *int     `json:"total_workouts"`
	ActiveMinutes  *int     `json:"active_minutes"`
	CaloriesBurned *int     `json:"calories_burned"`
}

// Me returns the profile for the requested email.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		Error(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.repo.GetUser(r.Context(), email)
	if err != nil {
		slog.Error("failed to get user", "error", err, "email", email)
		Error(w, http.StatusInternalServerError, "failed to retrieve profile")
		return
	}
	if user == nil {
		Error(w, http.StatusNotFound, "profile not found")
		return
	}

	JSON(w, http.StatusOK, user)
}

// UpdateMe applies a partial profile update, creating the profile when
// it does not exist yet.
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		Error(w, http.StatusBadRequest, "email is required")
		return
	}

	var update profileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.repo.GetUser(r.Context(), email)
	if err != nil {
		slog.Error("failed to get user", "error", err, "email", email)
		Error(w, http.StatusInternalServerError, "failed to retrieve profile")
		return
	}
	if user == nil {
		user = &domain.User{Email: email, CreatedAt: time.Now()}
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.FitnessLevel != nil {
		user.FitnessLevel = *update.FitnessLevel
	}
	if update.HeightCm != nil {
		user.HeightCm = update.HeightCm
	}
	if update.WeightKg != nil {
		user.WeightKg = update.WeightKg
	}
	if update.Age != nil {
		user.Age = update.Age
	}
	if update.WorkoutStreak != nil {
		user.WorkoutStreak = *update.WorkoutStreak
	}
	if update.TotalWorkouts != nil {
		user.TotalWorkouts = *update.TotalWorkouts
	}
	if update.ActiveMinutes != nil {
		user.ActiveMinutes = *update.ActiveMinutes
	}
	if update.CaloriesBurned != nil {
		user.CaloriesBurned = *update.CaloriesBurned
	}
	user.UpdatedAt = time.Now()

	if err := h.repo.UpsertUser(r.Context(), user); err != nil {
		slog.Error("failed to upsert user", "error", err, "email", email)
		Error(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	JSON(w, http.StatusOK, user)
}

// Leaderboard returns the top users by workout streak.
func (h *ProfileHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultLeaderboardLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultLeaderboardLimit
	}

	users, err := h.repo.GetLeaderboard(r.Context(), limit)
	if err != nil {
		slog.Error("failed to get leaderboard", "error", err)
		Error(w, http.StatusInternalServerError, "failed to retrieve leaderboard")
		return
	}
	if users == nil {
		users = []*domain.User{}
	}

	JSON(w, http.StatusOK, users)
}
