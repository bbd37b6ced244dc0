package engine

import (
	"sync"
	"time"

	"github.com/trumenapp/go-tileguard/pkg/history"
)

// Session owns the mutable per-session state: one location history and one
// tile-visit tracker. A session is created on login and discarded on logout;
// no state survives between sessions.
//
// All engine calls for one session are serialized on the session's mutex,
// because every check depends on a consistent snapshot of the buffers.
// Different sessions share nothing and evaluate fully in parallel.
type Session struct {
	// ID identifies the session in telemetry events.
	ID string

	mu      sync.Mutex
	history *history.History
	tiles   *history.TileTracker
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{
		ID:      id,
		history: history.New(history.DefaultCapacity),
		tiles:   history.NewTileTracker(history.DefaultRetention),
	}
}

// NewSessionWithBounds creates a session with explicit buffer bounds, mainly
// for tests and replay tooling.
func NewSessionWithBounds(id string, capacity int, retention time.Duration) *Session {
	return &Session{
		ID:      id,
		history: history.New(capacity),
		tiles:   history.NewTileTracker(retention),
	}
}
