package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

// RunHeartbeat sends a heartbeat marker to one client every interval for as
// long as it stays registered. It returns when ctx is cancelled or the
// client is gone; a failed send is treated as a disconnect and
// de-registers the client rather than surfacing an error.
func (r *Registry) RunHeartbeat(ctx context.Context, clientID string, conn *websocket.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.Connected(clientID) {
				return
			}
			if err := r.Send(ctx, clientID, map[string]string{"type": "heartbeat"}); err != nil {
				if ctx.Err() == nil {
					slog.Warn("heartbeat send failed, dropping client", "client_id", clientID, "error", err)
					r.Unregister(clientID, conn)
				}
				return
			}
			slog.Debug("heartbeat sent", "client_id", clientID)
		}
	}
}
