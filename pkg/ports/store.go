package ports

import (
	"context"
	"errors"

	"github.com/aretw0/bramble/pkg/schema"
)

// ErrSessionNotFound is returned by stores when no snapshot exists for the
// session.
var ErrSessionNotFound = errors.New("session not found")

// SnapshotStore persists simulation session snapshots. This enables durable
// sessions: stop a simulation, restart the process, resume from the stored
// valuation.
type SnapshotStore interface {
	// Save persists the snapshot under its session ID.
	Save(ctx context.Context, sessionID string, sn *schema.Snapshot) error

	// Load retrieves the snapshot for a session ID.
	// Returns ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*schema.Snapshot, error)

	// Delete removes the snapshot for a session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
