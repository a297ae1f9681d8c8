package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryGroupsByStartTimeAndPrunes(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	repo, err := Open(filepath.Join(t.TempDir(), "history.db"), 0, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	ctx := context.Background()
	first := now.Add(-time.Minute)
	second := now
	stale := now.AddDate(0, 0, -32)

	require.NoError(t, repo.Insert(ctx, first, "call id 1"))
	require.NoError(t, repo.Insert(ctx, first, "call id 2"))
	require.NoError(t, repo.Insert(ctx, second, "call id 1"))
	require.NoError(t, repo.Insert(ctx, stale, "call id 2"))

	records, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, records[0].CallStartedOn.Equal(first))
	assert.Equal(t, []string{"call id 1", "call id 2"}, records[0].CallIDs)
	assert.True(t, records[1].CallStartedOn.Equal(second))
	assert.Equal(t, []string{"call id 1"}, records[1].CallIDs)
}

func TestRepositoryEmpty(t *testing.T) {
	repo, err := Open(":memory:", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	records, err := repo.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRepositoryPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	startedOn := time.Now().Add(-time.Hour)

	repo, err := Open(path, 0)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), startedOn, "c-1"))
	require.NoError(t, repo.Close())

	reopened, err := Open(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	records, err := reopened.All(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, startedOn.UnixNano(), records[0].CallStartedOn.UnixNano())
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("", 0)
	require.Error(t, err)
}
