package middleware_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bramble/pkg/adapters/memory"
	"github.com/aretw0/bramble/pkg/persistence/middleware"
	"github.com/aretw0/bramble/pkg/ports"
	"github.com/aretw0/bramble/pkg/schema"
)

func testSnapshot() *schema.Snapshot {
	sn := schema.NewSnapshot("s1", "logistics")
	sn.Values["robot_at(l0)"] = "true"
	sn.Values["battery"] = "90"
	sn.Steps = append(sn.Steps, schema.StepDoc{Action: "move", Params: []string{"l0", "l1"}})
	return sn
}

func key(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestEncryption_RoundTrip(t *testing.T) {
	backing := memory.NewStore()
	store := middleware.Chain(backing,
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key(1)}))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", testSnapshot()))

	// The backing store must only see the envelope.
	raw, err := backing.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, raw.Values, "battery")
	assert.Contains(t, raw.Values, "__encrypted__")
	assert.Empty(t, raw.Steps)
	assert.Equal(t, "logistics", raw.Problem)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "90", loaded.Values["battery"])
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, "move", loaded.Steps[0].Action)
}

func TestEncryption_KeyRotation(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key(1)})(backing)
	require.NoError(t, oldStore.Save(ctx, "s1", testSnapshot()))

	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    key(2),
		FallbackKeys: [][]byte{key(1)},
	})(backing)

	loaded, err := rotated.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "90", loaded.Values["battery"])

	// Without the fallback the old record is unreadable.
	strict := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key(2)})(backing)
	_, err = strict.Load(ctx, "s1")
	assert.Error(t, err)
}

func TestEncryption_RejectsPlainRecords(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, backing.Save(ctx, "s1", testSnapshot()))

	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key(1)})(backing)
	_, err := store.Load(ctx, "s1")
	assert.Error(t, err)
}

func TestEncryption_Contract(t *testing.T) {
	store := middleware.Chain(memory.NewStore(),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key(7)}))
	ports.RunSnapshotStoreContract(t, store)
}

func TestEncryption_BadKeyPanics(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}
