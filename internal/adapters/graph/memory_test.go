package graph

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-phish-filter/internal/core"
)

func record(sender, recipient, messageID string) core.CommunicationRecord {
	return core.CommunicationRecord{
		Sender:    sender,
		Recipient: recipient,
		MessageID: messageID,
		SentAt:    time.Now(),
		RiskLevel: core.RiskLow,
	}
}

func TestMemoryStoreFirstContact(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())

	commCtx, err := store.ResolveContext(context.Background(), "a@x.example", "b@y.example")

	require.NoError(t, err)
	assert.False(t, commCtx.HistoryExists)
	assert.Equal(t, 0, commCtx.PriorCount)
}

func TestMemoryStoreRecordThenResolve(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.RecordCommunication(ctx, record("a@x.example", "b@y.example", "<m1>")))
	require.NoError(t, store.RecordCommunication(ctx, record("a@x.example", "b@y.example", "<m2>")))

	commCtx, err := store.ResolveContext(ctx, "a@x.example", "b@y.example")
	require.NoError(t, err)
	assert.True(t, commCtx.HistoryExists)
	assert.Equal(t, 2, commCtx.PriorCount)
}

func TestMemoryStoreEdgesAreDirectional(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.RecordCommunication(ctx, record("a@x.example", "b@y.example", "<m1>")))

	reverse, err := store.ResolveContext(ctx, "b@y.example", "a@x.example")
	require.NoError(t, err)
	assert.False(t, reverse.HistoryExists, "history is sender to recipient, not symmetric")
}

func TestMemoryStoreDeduplicatesOnMessageID(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordCommunication(ctx, record("a@x.example", "b@y.example", "<same>")))
	}

	commCtx, err := store.ResolveContext(ctx, "a@x.example", "b@y.example")
	require.NoError(t, err)
	assert.Equal(t, 1, commCtx.PriorCount, "redelivered message counts once")
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.RecordCommunication(ctx, record("a@x.example", "b@y.example", fmt.Sprintf("<m%d>", i)))
			_, _ = store.ResolveContext(ctx, "a@x.example", "b@y.example")
		}(i)
	}
	wg.Wait()

	commCtx, err := store.ResolveContext(ctx, "a@x.example", "b@y.example")
	require.NoError(t, err)
	assert.Equal(t, 20, commCtx.PriorCount)
}
