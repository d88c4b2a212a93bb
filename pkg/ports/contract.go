package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/pkg/schema"
)

// RunSnapshotStoreContract verifies that a SnapshotStore implementation
// adheres to the interface contract. Adapters call it from their own tests.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		sn := schema.NewSnapshot(sessionID, "robot")
		sn.Values["robot_at(l0)"] = "true"
		sn.Steps = append(sn.Steps, schema.StepDoc{Action: "noop"})

		err := store.Save(ctx, sessionID, sn)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "robot", loaded.Problem)
		assert.Equal(t, "true", loaded.Values["robot_at(l0)"])
		require.Len(t, loaded.Steps, 1)
		assert.Equal(t, "noop", loaded.Steps[0].Action)
	})

	t.Run("Load is isolated", func(t *testing.T) {
		sn := schema.NewSnapshot(sessionID, "robot")
		sn.Values["x"] = "1"
		require.NoError(t, store.Save(ctx, sessionID, sn))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Values["x"] = "2"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "1", again.Values["x"], "mutating a loaded snapshot must not leak into the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, schema.NewSnapshot(sessionID, "robot")))
		require.NoError(t, store.Delete(ctx, sessionID))
		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, schema.NewSnapshot(id1, "robot")))
		require.NoError(t, store.Save(ctx, id2, schema.NewSnapshot(id2, "robot")))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
