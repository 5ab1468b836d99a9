package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func TestSQLiteStoreFirstContact(t *testing.T) {
	store := newTestSQLiteStore(t)

	commCtx, err := store.ResolveContext(context.Background(), "a@x.example", "b@y.example")

	require.NoError(t, err)
	assert.False(t, commCtx.HistoryExists)
	assert.Equal(t, 0, commCtx.PriorCount)
}

func TestSQLiteStoreRecordThenResolve(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordCommunication(ctx, record("a@x.example", "b@y.example", "<m1>")))
	require.NoError(t, store.RecordCommunication(ctx, record("a@x.example", "b@y.example", "<m2>")))
	require.NoError(t, store.RecordCommunication(ctx, record("a@x.example", "c@z.example", "<m3>")))

	commCtx, err := store.ResolveContext(ctx, "a@x.example", "b@y.example")
	require.NoError(t, err)
	assert.True(t, commCtx.HistoryExists)
	assert.Equal(t, 2, commCtx.PriorCount, "other recipients do not count")
}

func TestSQLiteStoreDeduplicatesOnMessageID(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordCommunication(ctx, record("a@x.example", "b@y.example", "<same>")))
	}

	commCtx, err := store.ResolveContext(ctx, "a@x.example", "b@y.example")
	require.NoError(t, err)
	assert.Equal(t, 1, commCtx.PriorCount)
}

func TestSQLiteStoreResolveAfterClose(t *testing.T) {
	store := newTestSQLiteStore(t)
	require.NoError(t, store.Close(context.Background()))

	commCtx, err := store.ResolveContext(context.Background(), "a@x.example", "b@y.example")

	assert.Error(t, err)
	assert.True(t, commCtx.Unavailable, "a failed query flags the context as unavailable")
}
