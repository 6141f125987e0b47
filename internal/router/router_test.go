package router

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsake-ai/keepsake/internal/storage"
	memstore "github.com/keepsake-ai/keepsake/internal/storage/memory"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

func newTestRouter(t *testing.T) (*Router, storage.ShortTermStore, storage.LongTermStore) {
	t.Helper()
	short := memstore.NewShortTermStore(50, time.Hour)
	long := memstore.NewLongTermStore()
	r, err := New(short, long, zerolog.Nop())
	require.NoError(t, err)
	return r, short, long
}

func inTier(t *testing.T, s interface {
	Get(ctx context.Context, userID, id string) (*types.MemoryItem, error)
}, userID, id string) bool {
	t.Helper()
	_, err := s.Get(context.Background(), userID, id)
	return err == nil
}

func TestCommitPlacesShortTermOnly(t *testing.T) {
	r, short, long := newTestRouter(t)
	item := types.NewMemoryItem("u1", "passing thought", "user_message", nil)

	require.NoError(t, r.Commit(context.Background(), item))

	assert.True(t, inTier(t, short, "u1", item.ID))
	assert.False(t, inTier(t, long, "u1", item.ID), "commit must never write long-term on its own")
}

func TestCommitLongTermAfterCommit(t *testing.T) {
	r, short, long := newTestRouter(t)
	item := types.NewMemoryItem("u1", "a defining moment", "user_message", nil)

	require.NoError(t, r.Commit(context.Background(), item))
	require.NoError(t, r.CommitLongTerm(context.Background(), item))

	assert.True(t, inTier(t, short, "u1", item.ID))
	assert.True(t, inTier(t, long, "u1", item.ID))
}

func TestUpdateTouchesOnlyHoldingTiers(t *testing.T) {
	r, short, long := newTestRouter(t)
	ctx := context.Background()

	item := types.NewMemoryItem("u1", "short only", "user_message", nil)
	require.NoError(t, r.Commit(ctx, item))

	item.Content = "rewritten"
	require.NoError(t, r.Update(ctx, item))

	got, err := short.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", got.Content)
	assert.False(t, inTier(t, long, "u1", item.ID), "update must not widen placement")
}

func TestUpdateBothTiers(t *testing.T) {
	r, short, long := newTestRouter(t)
	ctx := context.Background()

	item := types.NewMemoryItem("u1", "everywhere", "user_message", nil)
	require.NoError(t, r.Commit(ctx, item))
	require.NoError(t, r.CommitLongTerm(ctx, item))

	item.Content = "everywhere, redacted"
	require.NoError(t, r.Update(ctx, item))

	s, err := short.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	l, err := long.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Content, l.Content, "tiers must agree after update")
}

func TestUpdateMissingEverywhere(t *testing.T) {
	r, _, _ := newTestRouter(t)
	item := types.NewMemoryItem("u1", "ghost", "user_message", nil)
	err := r.Update(context.Background(), item)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteRemovesFromBothTiers(t *testing.T) {
	r, short, long := newTestRouter(t)
	ctx := context.Background()

	item := types.NewMemoryItem("u1", "to be forgotten", "user_message", nil)
	require.NoError(t, r.Commit(ctx, item))
	require.NoError(t, r.CommitLongTerm(ctx, item))

	removed, err := r.Delete(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, inTier(t, short, "u1", item.ID))
	assert.False(t, inTier(t, long, "u1", item.ID))

	removed, err = r.Delete(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.False(t, removed, "second delete reports nothing existed")
}

func TestClearScopedToUser(t *testing.T) {
	r, short, long := newTestRouter(t)
	ctx := context.Background()

	mine := types.NewMemoryItem("u1", "mine", "user_message", nil)
	theirs := types.NewMemoryItem("u2", "theirs", "user_message", nil)
	for _, item := range []*types.MemoryItem{mine, theirs} {
		require.NoError(t, r.Commit(ctx, item))
		require.NoError(t, r.CommitLongTerm(ctx, item))
	}

	require.NoError(t, r.Clear(ctx, "u1"))

	assert.False(t, inTier(t, short, "u1", mine.ID))
	assert.False(t, inTier(t, long, "u1", mine.ID))
	assert.True(t, inTier(t, short, "u2", theirs.ID))
	assert.True(t, inTier(t, long, "u2", theirs.ID))
}
