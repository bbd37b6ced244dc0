// Package storage tracks live sessions for callers that key engine calls by
// an external session id (e.g. an HTTP API). The engine itself never touches
// the store; it only sees the session object.
package storage

import "github.com/trumenapp/go-tileguard/pkg/engine"

// SessionStore resolves session ids to session state.
//
// Implementations can use any backend that can host the in-memory buffers
// close to the evaluation path. The bundled MemoryStore suits single-process
// deployments; a sharded deployment would pin sessions to workers instead.
type SessionStore interface {
	// GetOrCreate returns the session for id, creating an empty one on
	// first use.
	GetOrCreate(id string) *engine.Session

	// Get returns the session for id if it exists.
	Get(id string) (*engine.Session, bool)

	// Delete discards the session and all its buffered state. Called on
	// logout.
	Delete(id string)
}
