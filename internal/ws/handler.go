package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/morphoslabs/morphos/internal/domain"
	"github.com/morphoslabs/morphos/internal/inference"
	"github.com/morphoslabs/morphos/internal/pose"
)

// throughputLogEvery controls how often per-session FPS is logged.
const throughputLogEvery = 100

// Handler upgrades websocket connections and drives the per-client
// coaching session: control messages adjust session state, everything
// else is treated as an encoded video frame and run through inference.
type Handler struct {
	registry          *Registry
	sessions          *SessionStore
	inference         *inference.Client
	analyzer          *pose.FormAnalyzer
	gate              *OriginGate
	heartbeatInterval time.Duration
}

// NewHandler creates a websocket session handler.
func NewHandler(registry *Registry, sessions *SessionStore, client *inference.Client, analyzer *pose.FormAnalyzer, gate *OriginGate, heartbeatInterval time.Duration) *Handler {
	return &Handler{
		registry:          registry,
		sessions:          sessions,
		inference:         client,
		analyzer:          analyzer,
		gate:              gate,
		heartbeatInterval: heartbeatInterval,
	}
}

// controlMessage is the structured command schema. Payloads that do not
// decode as JSON fall through and are treated as encoded frames; that
// fallback order is the only discriminator between the two shapes.
type controlMessage struct {
	ExerciseType string `json:"exercise_type"`
	Action       string `json:"action"`
}

// ServeHTTP implements http.Handler for the /ws/{clientID} endpoint.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	if clientID == "" {
		http.Error(w, "client id required", http.StatusBadRequest)
		return
	}

	origin := r.Header.Get("Origin")
	slog.Info("websocket connection attempt", "client_id", clientID, "origin", origin, "ip", r.RemoteAddr)

	if !h.gate.Approve(origin) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	// The gate above already decided; the library's own origin check is
	// left permissive so it cannot contradict it.
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err, "client_id", clientID)
		return
	}
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("websocket close failed", "error", closeErr, "client_id", clientID)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.registry.Register(clientID, conn, cancel)
	defer h.registry.Unregister(clientID, conn)

	go h.registry.RunHeartbeat(ctx, clientID, conn, h.heartbeatInterval)

	sess := h.sessions.Get(clientID)

	welcome := map[string]string{"status": "connected", "message": "Connection established"}
	if err := h.registry.Send(ctx, clientID, welcome); err != nil {
		slog.Warn("failed to send welcome", "error", err, "client_id", clientID)
		return
	}

	h.loop(ctx, conn, clientID, sess)
}

// loop processes inbound messages strictly in receipt order until the
// connection closes or fails.
func (h *Handler) loop(ctx context.Context, conn *websocket.Conn, clientID string, sess *SessionState) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Info("session closed", "client_id", clientID, "frames", sess.ProcessedFrames())
			} else {
				slog.Warn("session failed", "client_id", clientID, "error", err)
			}
			return
		}

		var ctl controlMessage
		if json.Unmarshal(data, &ctl) == nil {
			h.handleControl(ctx, clientID, sess, ctl)
			continue
		}

		h.handleFrame(ctx, clientID, sess, string(data))
	}
}

func (h *Handler) handleControl(ctx context.Context, clientID string, sess *SessionState, ctl controlMessage) {
	if ctl.ExerciseType != "" {
		t := domain.ExerciseType(ctl.ExerciseType)
		if t.Valid() {
			sess.SetExerciseType(t)
			slog.Info("exercise type changed", "client_id", clientID, "exercise_type", t)
		} else {
			slog.Warn("ignoring unknown exercise type", "client_id", clientID, "exercise_type", ctl.ExerciseType)
		}
	}

	if ctl.Action == "reset" {
		sess.ResetCounter()
		slog.Info("rep counter reset", "client_id", clientID)
	}

	// Unrecognized fields are tolerated; a parsed control message is
	// always acknowledged.
	if err := h.registry.Send(ctx, clientID, map[string]string{"status": "ok"}); err != nil {
		slog.Debug("failed to send control ack", "error", err, "client_id", clientID)
	}
}

func (h *Handler) handleFrame(ctx context.Context, clientID string, sess *SessionState, frame string) {
	frames, sincePrev := sess.RecordFrame(time.Now())
	if frames%throughputLogEvery == 0 && sincePrev > 0 {
		slog.Info("session throughput", "client_id", clientID, "frames", frames, "fps", 1/sincePrev.Seconds())
	}

	result, err := h.inference.Infer(ctx, frame)
	if err != nil {
		// Inference failures are relayed, never fatal to the session.
		if sendErr := h.registry.Send(ctx, clientID, map[string]string{"error": err.Error()}); sendErr != nil {
			slog.Debug("failed to relay inference error", "error", sendErr, "client_id", clientID)
		}
		return
	}

	reply := result.Raw
	if result.HasKeypoints() {
		reply["rep_count"] = sess.UpdateReps(result.Keypoints)
	}
	if len(result.Keypoints) > 0 {
		reply["form_quality"] = h.analyzer.Assess(result.Keypoints, sess.ExerciseType())
	}

	if err := h.registry.Send(ctx, clientID, reply); err != nil {
		slog.Debug("failed to send frame result", "error", err, "client_id", clientID)
	}
}
