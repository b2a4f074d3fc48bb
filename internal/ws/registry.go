// Package ws implements the real-time coaching channel: the connection
// registry, per-connection heartbeats, per-client session state, and the
// websocket message loop.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// entry owns one live connection and its bookkeeping. cancel stops the
// connection's heartbeat task when the entry is removed or replaced.
type entry struct {
	conn         *websocket.Conn
	lastActivity time.Time
	cancel       context.CancelFunc
}

// Registry tracks live client connections. It is the only resource shared
// across session tasks; all mutation goes through its methods.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register inserts or replaces the connection for a client. Replacing
// closes the previous connection and cancels its heartbeat; a client id
// maps to at most one live connection.
func (r *Registry) Register(clientID string, conn *websocket.Conn, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[clientID]; ok && old.conn != conn {
		_ = old.conn.Close(websocket.StatusNormalClosure, "connection replaced")
		if old.cancel != nil {
			old.cancel()
		}
	}

	r.entries[clientID] = &entry{conn: conn, lastActivity: time.Now(), cancel: cancel}
	slog.Info("client connected", "client_id", clientID, "connections", len(r.entries))
}

// Unregister removes the client's entry and cancels its heartbeat.
// Idempotent, and guarded by connection identity so a disconnect racing a
// reconnect never removes the replacement.
func (r *Registry) Unregister(clientID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[clientID]
	if !ok || e.conn != conn {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	delete(r.entries, clientID)
	slog.Info("client disconnected", "client_id", clientID, "connections", len(r.entries))
}

// Connected reports whether the client currently has a live connection.
func (r *Registry) Connected(clientID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[clientID]
	return ok
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Send delivers one JSON message to a client and refreshes its
// last-activity timestamp. Sending to a client that has since
// disconnected is a no-op, not an error.
func (r *Registry) Send(ctx context.Context, clientID string, v any) error {
	r.mu.Lock()
	e, ok := r.entries[clientID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	e.lastActivity = time.Now()
	conn := e.conn
	r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// Broadcast delivers one JSON message to every live connection. A stale
// connection failing mid-broadcast never aborts delivery to the rest.
func (r *Registry) Broadcast(ctx context.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("broadcast encode failed", "error", err)
		return
	}

	type target struct {
		clientID string
		conn     *websocket.Conn
	}

	r.mu.Lock()
	targets := make([]target, 0, len(r.entries))
	now := time.Now()
	for id, e := range r.entries {
		e.lastActivity = now
		targets = append(targets, target{clientID: id, conn: e.conn})
	}
	r.mu.Unlock()

	for _, t := range targets {
		if err := t.conn.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("broadcast skipped stale connection", "client_id", t.clientID, "error", err)
		}
	}
}
