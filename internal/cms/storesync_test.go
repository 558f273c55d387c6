package cms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffStores(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		previous   []uint
		desired    []uint
		wantInsert []uint
		wantDelete []uint
	}{
		{name: "unchanged", previous: []uint{1, 2}, desired: []uint{2, 1}},
		{name: "mixed", previous: []uint{1, 2, 3}, desired: []uint{2, 4}, wantInsert: []uint{4}, wantDelete: []uint{1, 3}},
		{name: "fresh page", previous: nil, desired: []uint{0}, wantInsert: []uint{0}},
		{name: "duplicates collapse", previous: []uint{3, 3}, desired: []uint{5, 5, 3}, wantInsert: []uint{5}},
		{name: "clear", previous: []uint{7}, desired: nil, wantDelete: []uint{7}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			diff := DiffStores(tc.previous, tc.desired)
			assert.Equal(t, tc.wantInsert, diff.Insert)
			assert.Equal(t, tc.wantDelete, diff.Delete)
			assert.Equal(t, len(tc.wantInsert) == 0 && len(tc.wantDelete) == 0, diff.Empty())
		})
	}
}

func TestSyncStoresIsIdempotent(t *testing.T) {
	t.Parallel()

	env := setupEnv(t)
	ctx := context.Background()

	page := &Page{Identifier: "shipping", Title: "Shipping", IsActive: true, StoreIDs: []uint{1, 2}}
	require.NoError(t, env.repo.Save(ctx, page))

	writes := countJoinWrites(t, env)

	diff, err := syncStores(env.db.WithContext(ctx), page.ID, []uint{2, 1})
	require.NoError(t, err)
	assert.True(t, diff.Empty())
	assert.Zero(t, writes.total())
}

func TestSyncStoresReconcilesJoinRows(t *testing.T) {
	t.Parallel()

	env := setupEnv(t)
	ctx := context.Background()

	page := &Page{Identifier: "returns", Title: "Returns", IsActive: true, StoreIDs: []uint{1, 2, 3}}
	require.NoError(t, env.repo.Save(ctx, page))

	writes := countJoinWrites(t, env)

	diff, err := syncStores(env.db.WithContext(ctx), page.ID, []uint{2, 4})
	require.NoError(t, err)
	assert.Equal(t, []uint{4}, diff.Insert)
	assert.Equal(t, []uint{1, 3}, diff.Delete)
	assert.Equal(t, 1, writes.creates)
	assert.Equal(t, 1, writes.deletes)

	stores, err := env.repo.LookupStoreIDs(ctx, page.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 4}, stores)
}
