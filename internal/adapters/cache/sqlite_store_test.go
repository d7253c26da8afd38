package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/awb-scanner/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mail_cache.db")
	store, err := NewSQLiteStore(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(store.Stop)
	return store
}

func TestSQLiteSaveLoadRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	record := sampleRecord()
	require.NoError(t, store.Save(ctx, record, 1000))

	loaded := store.Load(ctx)

	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, record.Messages[0].Subject, loaded.Messages[0].Subject)
	assert.Equal(t, record.Messages[0].Body, loaded.Messages[0].Body)
	assert.Equal(t, record.Messages[0].Sender, loaded.Messages[0].Sender)
	assert.Equal(t, record.Messages[0].To, loaded.Messages[0].To)
	assert.True(t, loaded.Messages[0].Date.Equal(record.Messages[0].Date))
	assert.True(t, loaded.Messages[0].HasAttachments)
	assert.Equal(t, record.Messages[1].Body, loaded.Messages[1].Body)
	assert.Empty(t, loaded.Messages[1].To)
	require.NotNil(t, loaded.LastRefresh)
}

func TestSQLiteSavePreservesInsertionOrder(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	record := &core.CacheRecord{Messages: []core.Message{
		{Subject: "first", Body: "a"},
		{Subject: "second", Body: "b"},
		{Subject: "third", Body: "c"},
	}}
	require.NoError(t, store.Save(ctx, record, 1000))

	loaded := store.Load(ctx)

	require.Len(t, loaded.Messages, 3)
	assert.Equal(t, "first", loaded.Messages[0].Subject)
	assert.Equal(t, "second", loaded.Messages[1].Subject)
	assert.Equal(t, "third", loaded.Messages[2].Subject)
}

func TestSQLiteSaveTruncatesToMaxMessages(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	record := &core.CacheRecord{}
	for i := 0; i < 10; i++ {
		record.Messages = append(record.Messages, core.Message{Subject: "msg", Body: "body"})
	}

	require.NoError(t, store.Save(ctx, record, 3))

	loaded := store.Load(ctx)
	assert.Len(t, loaded.Messages, 3)
}

func TestSQLiteSaveReplacesPreviousCorpus(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRecord(), 1000))
	require.NoError(t, store.Save(ctx, &core.CacheRecord{Messages: []core.Message{
		{Subject: "only survivor", Body: "x"},
	}}, 1000))

	loaded := store.Load(ctx)

	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "only survivor", loaded.Messages[0].Subject)
}

func TestSQLiteSaveStampsLastRefresh(t *testing.T) {
	store := newTestSQLiteStore(t)

	record := sampleRecord()
	require.Nil(t, record.LastRefresh)

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.Save(context.Background(), record, 1000))

	require.NotNil(t, record.LastRefresh)

	loaded := store.Load(context.Background())
	require.NotNil(t, loaded.LastRefresh)
	assert.True(t, loaded.LastRefresh.After(before))
}

func TestSQLiteLoadEmptyDatabase(t *testing.T) {
	store := newTestSQLiteStore(t)

	record := store.Load(context.Background())

	require.NotNil(t, record)
	assert.Empty(t, record.Messages)
	assert.Nil(t, record.LastRefresh)
}
