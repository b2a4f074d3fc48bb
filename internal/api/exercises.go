package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/morphoslabs/morphos/internal/domain"
	"github.com/morphoslabs/morphos/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ExerciseHandler serves CRUD endpoints for recorded exercise sessions.
type ExerciseHandler struct {
	repo store.Repository
}

// NewExerciseHandler creates a new exercise session handler.
func NewExerciseHandler(repo store.Repository) *ExerciseHandler {
	return &ExerciseHandler{repo: repo}
}

// RegisterRoutes registers exercise session routes.
func (h *ExerciseHandler) RegisterRoutes(r chi.Router) {
	r.Route("/exercises", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Get("/{exerciseID}", h.Get)
		r.Put("/{exerciseID}", h.Update)
		r.Delete("/{exerciseID}", h.Delete)
	})
}

// Create stores a new exercise session record.
func (h *ExerciseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var session domain.ExerciseSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if session.UserEmail == "" {
		Error(w, http.StatusBadRequest, "user_email is required")
		return
	}
	if session.DurationMinutes < 0 {
		Error(w, http.StatusBadRequest, "duration_minutes must not be negative")
		return
	}

	session.ID = uuid.NewString()
	session.CreatedAt = time.Now()

	if err := h.repo.CreateExerciseSession(r.Context(), &session); err != nil {
		slog.Error("failed to create exercise session", "error", err, "email", session.UserEmail)
		Error(w, http.StatusInternalServerError, "failed to create exercise session")
		return
	}

	slog.Info("exercise session created", "id", session.ID, "email", session.UserEmail)
	JSON(w, http.StatusCreated, session)
}

// Get returns a single exercise session by id.
func (h *ExerciseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "exerciseID")

	session, err := h.repo.GetExerciseSession(r.Context(), id)
	if err != nil {
		slog.Error("failed to get exercise session", "error", err, "id", id)
		Error(w, http.StatusInternalServerError, "failed to retrieve exercise session")
		return
	}
	if session == nil {
		Error(w, http.StatusNotFound, "exercise session not found")
		return
	}

	JSON(w, http.StatusOK, session)
}

// List returns a user's exercise sessions, newest first.
func (h *ExerciseHandler) List(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		Error(w, http.StatusBadRequest, "email is required")
		return
	}

	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	skip := queryInt(r, "skip", 0)
	if skip < 0 {
		skip = 0
	}

	sessions, err := h.repo.ListExerciseSessions(r.Context(), email, limit, skip)
	if err != nil {
		slog.Error("failed to list exercise sessions", "error", err, "email", email)
		Error(w, http.StatusInternalServerError, "failed to retrieve exercise sessions")
		return
	}
	if sessions == nil {
		sessions = []*domain.ExerciseSession{}
	}

	JSON(w, http.StatusOK, sessions)
}

// Update replaces an existing exercise session record.
func (h *ExerciseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "exerciseID")

	var session domain.ExerciseSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session.ID = id

	ok, err := h.repo.UpdateExerciseSession(r.Context(), &session)
	if err != nil {
		slog.Error("failed to update exercise session", "error", err, "id", id)
		Error(w, http.StatusInternalServerError, "failed to update exercise session")
		return
	}
	if !ok {
		Error(w, http.StatusNotFound, "exercise session not found")
		return
	}

	updated, err := h.repo.GetExerciseSession(r.Context(), id)
	if err != nil || updated == nil {
		slog.Error("failed to reload exercise session", "error", err, "id", id)
		Error(w, http.StatusInternalServerError, "failed to retrieve exercise session")
		return
	}

	JSON(w, http.StatusOK, updated)
}

// Delete removes an exercise session record.
func (h *ExerciseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "exerciseID")

	ok, err := h.repo.DeleteExerciseSession(r.Context(), id)
	if err != nil {
		slog.Error("failed to delete exercise session", "error", err, "id", id)
		Error(w, http.StatusInternalServerError, "failed to delete exercise session")
		return
	}
	if !ok {
		Error(w, http.StatusNotFound, "exercise session not found")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// Stats returns aggregate exercise statistics for a user.
func (h *ExerciseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		Error(w, http.StatusBadRequest, "email is required")
		return
	}

	stats, err := h.repo.GetExerciseStats(r.Context(), email)
	if err != nil {
		slog.Error("failed to get exercise stats", "error", err, "email", email)
		Error(w, http.StatusInternalServerError, "failed to retrieve exercise statistics")
		return
	}

	JSON(w, http.StatusOK, stats)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
