package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveStore_SaveAndList(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	archive := store.FeedArchiveStore()

	require.NoError(t, archive.SaveFeed(ctx, "docs", "<gsafeed>1</gsafeed>"))
	require.NoError(t, archive.SaveFailedFeed(ctx, "docs", "<gsafeed>2</gsafeed>"))
	require.NoError(t, archive.SaveFeed(ctx, "groups", "<xmlgroups/>"))

	feeds, err := archive.ListFeeds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, feeds, 3)

	// Newest first.
	assert.Equal(t, "groups", feeds[0].Name)
	assert.Equal(t, "<xmlgroups/>", feeds[0].XML)
	assert.False(t, feeds[0].Failed)

	assert.Equal(t, "<gsafeed>2</gsafeed>", feeds[1].XML)
	assert.True(t, feeds[1].Failed)

	assert.Equal(t, "<gsafeed>1</gsafeed>", feeds[2].XML)
	assert.False(t, feeds[2].Failed)

	for _, f := range feeds {
		_, err := uuid.Parse(f.ID)
		assert.NoError(t, err, "ID should be a UUID")
		assert.WithinDuration(t, time.Now(), f.CreatedAt, time.Minute)
	}
}

func TestArchiveStore_ListLimit(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	archive := store.FeedArchiveStore()

	for i := 0; i < 5; i++ {
		require.NoError(t, archive.SaveFeed(ctx, "docs", fmt.Sprintf("<feed>%d</feed>", i)))
	}

	feeds, err := archive.ListFeeds(ctx, 2)
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "<feed>4</feed>", feeds[0].XML)
	assert.Equal(t, "<feed>3</feed>", feeds[1].XML)

	all, err := archive.ListFeeds(ctx, -1)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestArchiveStore_ListEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	feeds, err := store.FeedArchiveStore().ListFeeds(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, feeds)
}

func TestArchiveStore_CancelledContext(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.FeedArchiveStore().SaveFeed(ctx, "docs", "<gsafeed/>")
	assert.Error(t, err)
}

func TestArchiveStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.FeedArchiveStore().SaveFeed(ctx, "docs", "<gsafeed/>"))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	feeds, err := second.FeedArchiveStore().ListFeeds(ctx, 0)
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "docs", feeds[0].Name)
}
