package ws

import "log/slog"

// OriginGate decides whether an inbound upgrade may proceed. The decision
// happens strictly before the websocket handshake: a rejected client never
// gets an accepted-then-closed connection.
type OriginGate struct {
	allowed  map[string]struct{}
	wildcard bool
	debug    bool
}

// NewOriginGate builds a gate from the configured allow-list. An entry of
// "*" admits any presented origin; debug mode admits everything.
func NewOriginGate(origins []string, debug bool) *OriginGate {
	g := &OriginGate{allowed: make(map[string]struct{}, len(origins)), debug: debug}
	for _, o := range origins {
		if o == "*" {
			g.wildcard = true
			continue
		}
		g.allowed[o] = struct{}{}
	}
	return g
}

// Approve reports whether a connection presenting the given Origin header
// may be accepted. An absent origin is rejected outside debug mode.
func (g *OriginGate) Approve(origin string) bool {
	if g.debug {
		return true
	}
	if origin == "" {
		slog.Warn("websocket origin missing, rejecting")
		return false
	}
	if g.wildcard {
		return true
	}
	if _, ok := g.allowed[origin]; ok {
		return true
	}
	slog.Warn("websocket origin rejected", "origin", origin)
	return false
}
