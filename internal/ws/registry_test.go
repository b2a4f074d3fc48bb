package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// wsPipe returns a connected server/client websocket pair backed by a
// real httptest server.
func wsPipe(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
		if err != nil {
			return
		}
		connCh <- c
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, _, err := websocket.Dial(ctx, srv.URL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.CloseNow() })

	server = <-connCh
	t.Cleanup(func() { _ = server.CloseNow() })
	return server, client
}

func readJSONMessage(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return data
}

func TestRegistrySendToAbsentClientIsNoOp(t *testing.T) {
	r := NewRegistry()

	if err := r.Send(context.Background(), "ghost", map[string]string{"status": "ok"}); err != nil {
		t.Fatalf("Send to unregistered client returned error: %v", err)
	}
}

func TestRegistryRegisterAndSend(t *testing.T) {
	r := NewRegistry()
	server, client := wsPipe(t)

	r.Register("c1", server, nil)
	if !r.Connected("c1") {
		t.Fatal("Connected(c1) = false after Register")
	}

	if err := r.Send(context.Background(), "c1", map[string]string{"hello": "world"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := string(readJSONMessage(t, client))
	if got != `{"hello":"world"}` {
		t.Errorf("client received %q", got)
	}
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	server, _ := wsPipe(t)

	r.Register("c1", server, nil)
	r.Unregister("c1", server)
	r.Unregister("c1", server)
	r.Unregister("never-registered", server)

	if r.Connected("c1") {
		t.Error("Connected(c1) = true after Unregister")
	}
}

func TestRegistryUnregisterGuardsConnectionIdentity(t *testing.T) {
	r := NewRegistry()
	first, _ := wsPipe(t)
	second, _ := wsPipe(t)

	r.Register("c1", first, nil)
	r.Register("c1", second, nil)

	// The stale connection's cleanup must not remove the replacement.
	r.Unregister("c1", first)
	if !r.Connected("c1") {
		t.Fatal("replacement connection was unregistered by stale cleanup")
	}

	r.Unregister("c1", second)
	if r.Connected("c1") {
		t.Fatal("Connected(c1) = true after unregistering replacement")
	}
}

func TestRegistryReplaceCancelsOldHeartbeat(t *testing.T) {
	r := NewRegistry()
	first, _ := wsPipe(t)
	second, _ := wsPipe(t)

	firstCtx, firstCancel := context.WithCancel(context.Background())
	r.Register("c1", first, firstCancel)
	r.Register("c1", second, nil)

	select {
	case <-firstCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("replacing a connection did not cancel its heartbeat context")
	}
}

func TestRegistryBroadcastSurvivesStaleConnection(t *testing.T) {
	r := NewRegistry()
	staleServer, staleClient := wsPipe(t)
	liveServer, liveClient := wsPipe(t)

	r.Register("stale", staleServer, nil)
	r.Register("live", liveServer, nil)

	// Kill the stale connection underneath the registry.
	_ = staleClient.CloseNow()
	_ = staleServer.CloseNow()

	r.Broadcast(context.Background(), map[string]string{"type": "announcement"})

	got := string(readJSONMessage(t, liveClient))
	if got != `{"type":"announcement"}` {
		t.Errorf("live client received %q", got)
	}
}

func TestHeartbeatDelivers(t *testing.T) {
	r := NewRegistry()
	server, client := wsPipe(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Register("c1", server, cancel)
	go r.RunHeartbeat(ctx, "c1", server, 20*time.Millisecond)

	got := string(readJSONMessage(t, client))
	if got != `{"type":"heartbeat"}` {
		t.Errorf("client received %q, want heartbeat", got)
	}
}

func TestHeartbeatFailureUnregisters(t *testing.T) {
	r := NewRegistry()
	server, client := wsPipe(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Register("c1", server, cancel)

	// Drop the transport so the next heartbeat write fails.
	_ = client.CloseNow()
	_ = server.CloseNow()

	done := make(chan struct{})
	go func() {
		r.RunHeartbeat(ctx, "c1", server, 20*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("heartbeat did not stop after send failure")
	}
	if r.Connected("c1") {
		t.Error("client still registered after heartbeat failure")
	}
}

func TestHeartbeatStopsWhenUnregistered(t *testing.T) {
	r := NewRegistry()
	server, _ := wsPipe(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Register("c1", server, cancel)
	r.Unregister("c1", server)

	done := make(chan struct{})
	go func() {
		r.RunHeartbeat(ctx, "c1", server, 20*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("heartbeat kept running for an unregistered client")
	}
}
