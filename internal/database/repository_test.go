package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focuspulse/focuspulse/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state", "focuspulse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestConnectEmptyPath(t *testing.T) {
	_, err := Connect("")
	assert.Error(t, err)
}

func TestLabelCache(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetLabel("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	entry := &models.LabelCacheEntry{
		Key:        "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Text:       "Google Chrome: Docs",
		Category:   models.CategoryFocus,
		Confidence: 0.8,
		Tags:       "docs,writing",
		Model:      "simulated",
	}
	require.NoError(t, repo.PutLabel(entry))

	got, err = repo.GetLabel(entry.Key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.CategoryFocus, got.Category)
	assert.Equal(t, "docs,writing", got.Tags)

	// Upsert replaces the answer.
	entry.Category = models.CategoryDistraction
	require.NoError(t, repo.PutLabel(entry))
	got, err = repo.GetLabel(entry.Key)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryDistraction, got.Category)

	n, err := repo.CountLabels()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	removed, err := repo.ClearLabels()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	got, err = repo.GetLabel(entry.Key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestErrorLogs(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, msg := range []string{"disk full", "permission denied", "disk full again"} {
		require.NoError(t, repo.CreateErrorLog(&models.ErrorLog{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Source:    "tracker",
			ErrorMsg:  msg,
		}))
	}

	logs, err := repo.ListErrors(2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "disk full again", logs[0].ErrorMsg)
	assert.Equal(t, "permission denied", logs[1].ErrorMsg)

	deleted, err := repo.DeleteOldErrors(base.Add(30 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	require.NoError(t, repo.ClearErrors())
	logs, err = repo.ListErrors(0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestCreateErrorLogDefaultsTimestamp(t *testing.T) {
	repo := newTestRepo(t)

	entry := &models.ErrorLog{ErrorMsg: "boom", Source: "tracker"}
	require.NoError(t, repo.CreateErrorLog(entry))
	assert.False(t, entry.Timestamp.IsZero())
}
