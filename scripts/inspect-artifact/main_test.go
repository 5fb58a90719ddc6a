package main

import (
	"path/filepath"
	"testing"
	"time"

	"flight-delay/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectRuns(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "model.db"))
	require.NoError(t, err)
	defer store.Close()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, run := range []storage.TrainingRun{
		{ID: "old", StartedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "yesterday", StartedAt: now.Add(-24 * time.Hour)},
		{ID: "today", StartedAt: now.Add(-time.Hour)},
	} {
		require.NoError(t, store.StoreRun(run))
	}

	runs, title, err := selectRuns(store, 2, 0, now)
	require.NoError(t, err)
	assert.Equal(t, "Recent training runs", title)
	require.Len(t, runs, 2)
	assert.Equal(t, "today", runs[0].ID)
	assert.Equal(t, "yesterday", runs[1].ID)

	runs, title, err = selectRuns(store, 2, 48*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, "Training runs in the last 48h0m0s", title)
	require.Len(t, runs, 2)
	assert.Equal(t, "yesterday", runs[0].ID)
	assert.Equal(t, "today", runs[1].ID)
}
