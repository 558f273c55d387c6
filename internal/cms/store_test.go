package cms

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDefaultIsRepeatable(t *testing.T) {
	t.Parallel()

	env := setupEnv(t)
	ctx := context.Background()

	require.NoError(t, env.registry.EnsureDefault(ctx))

	store, err := env.registry.Resolve(ctx, DefaultStoreID)
	require.NoError(t, err)
	assert.Equal(t, "admin", store.Code)
	assert.True(t, store.IsActive)
	assert.Equal(t, int64(7), countRows(t, env, &Store{}))
}

func TestRegisterRejectsReservedAndDuplicateStores(t *testing.T) {
	t.Parallel()

	env := setupEnv(t)
	ctx := context.Background()

	err := env.registry.Register(ctx, &Store{ID: DefaultStoreID, Code: "other", Name: "Other"})
	require.Error(t, err)

	err = env.registry.Register(ctx, &Store{ID: 9, Code: "  ", Name: "Blank"})
	require.Error(t, err)

	err = env.registry.Register(ctx, &Store{ID: 9, Code: "french", Name: "French again"})
	require.Error(t, err)
	assert.True(t, IsIntegrityError(err))

	require.NoError(t, env.registry.Register(ctx, &Store{ID: 9, Code: " dutch ", Name: "Dutch"}))

	store, err := env.registry.ResolveCode(ctx, "dutch")
	require.NoError(t, err)
	assert.Equal(t, uint(9), store.ID)
	assert.False(t, store.IsActive)
}

func TestResolveUnknownStore(t *testing.T) {
	t.Parallel()

	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.registry.Resolve(ctx, 42)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))

	_, err = env.registry.ResolveCode(ctx, "nowhere")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestMissingStores(t *testing.T) {
	t.Parallel()

	env := setupEnv(t)
	ctx := context.Background()

	missing, err := env.registry.Missing(ctx, []uint{8, 0, 2, 8, 6})
	require.NoError(t, err)
	assert.Equal(t, []uint{6, 8}, missing)

	missing, err = env.registry.Missing(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, missing)
}
