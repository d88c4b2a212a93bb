// Package middleware wraps snapshot stores with cross-cutting behavior:
// at-rest encryption and value redaction.
package middleware

import "github.com/aretw0/bramble/pkg/ports"

// Middleware allows wrapping a SnapshotStore to add behavior.
type Middleware func(ports.SnapshotStore) ports.SnapshotStore

// Chain composes middlewares; the first one listed sees calls first.
func Chain(store ports.SnapshotStore, mws ...Middleware) ports.SnapshotStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
