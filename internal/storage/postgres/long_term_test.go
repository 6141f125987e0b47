package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsake-ai/keepsake/internal/storage"
	"github.com/keepsake-ai/keepsake/internal/storage/postgres"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

// postgresTestDSN returns the DSN for the test database.
// If POSTGRES_TEST_DSN is not set, tests are skipped.
func postgresTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping PostgreSQL integration tests")
	}
	return dsn
}

func newTestStore(t *testing.T) *postgres.LongTermStore {
	t.Helper()
	store, err := postgres.NewLongTermStore(postgresTestDSN(t), nil, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.TruncateForTest(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item := types.NewMemoryItem("u1", "a formative memory", "user_message", types.Metadata{
		types.MetaHasPII: false,
	})
	require.NoError(t, store.Put(ctx, item))

	got, err := store.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Content, got.Content)
	assert.False(t, got.Metadata.Bool(types.MetaHasPII))
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "u1", "absent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpsertReplacesContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item := types.NewMemoryItem("u1", "original", "user_message", nil)
	require.NoError(t, store.Put(ctx, item))

	item.Content = "anonymized rewrite"
	require.NoError(t, store.Put(ctx, item))

	got, err := store.Get(ctx, "u1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, "anonymized rewrite", got.Content)

	items, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestKeywordQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, types.NewMemoryItem("u1", "the summer we spent in Kyoto", "user_message", nil)))
	require.NoError(t, store.Put(ctx, types.NewMemoryItem("u1", "learning to sail", "user_message", nil)))

	items, err := store.Query(ctx, "u1", "kyoto", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].Content, "Kyoto")
}

func TestQueryEmptyReturnsRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(ctx, types.NewMemoryItem("u1", "entry", "user_message", nil)))
	}

	items, err := store.Query(ctx, "u1", "", 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDeleteAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mine := types.NewMemoryItem("u1", "mine", "user_message", nil)
	theirs := types.NewMemoryItem("u2", "theirs", "user_message", nil)
	require.NoError(t, store.Put(ctx, mine))
	require.NoError(t, store.Put(ctx, theirs))

	removed, err := store.Delete(ctx, "u1", mine.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, "u1", mine.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, store.ClearByUser(ctx, "u2"))
	items, err := store.ListByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, items)
}
