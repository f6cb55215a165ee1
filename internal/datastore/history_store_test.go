package datastore

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *HistoryStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "db", "history.db")
	store, err := NewHistoryStore(dbPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestHistoryStoreRecordRun(t *testing.T) {
	store := newTestStore(t)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id, err := store.RecordRunStart("https://example.com/hosts", start)
	require.NoError(t, err)
	assert.Positive(t, id)

	completion := RunCompletion{
		EndTime:      start.Add(2 * time.Second),
		Status:       "UPDATED",
		BackupPath:   "/var/backups/hosts_20250601-120000.bak",
		LinesAdded:   12,
		LinesRemoved: 3,
		LogSummary:   "1 log entries, worst severity INFORMATION",
	}
	require.NoError(t, store.UpdateRunCompletion(id, completion))

	var status, backupPath string
	var linesAdded, linesRemoved int
	row := store.db.QueryRow(`SELECT status, backup_path, lines_added, lines_removed FROM run_history WHERE id = ?`, id)
	require.NoError(t, row.Scan(&status, &backupPath, &linesAdded, &linesRemoved))
	assert.Equal(t, "UPDATED", status)
	assert.Equal(t, completion.BackupPath, backupPath)
	assert.Equal(t, 12, linesAdded)
	assert.Equal(t, 3, linesRemoved)
}

func TestHistoryStoreGetLastSuccessfulRunTime(t *testing.T) {
	store := newTestStore(t)

	t.Run("reports no rows on empty history", func(t *testing.T) {
		_, err := store.GetLastSuccessfulRunTime()
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("ignores failed runs", func(t *testing.T) {
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		okID, err := store.RecordRunStart("https://example.com/hosts", base)
		require.NoError(t, err)
		require.NoError(t, store.UpdateRunCompletion(okID, RunCompletion{EndTime: base.Add(time.Second), Status: "NO_CHANGE_NEEDED"}))

		failedID, err := store.RecordRunStart("https://example.com/hosts", base.Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, store.UpdateRunCompletion(failedID, RunCompletion{EndTime: base.Add(time.Hour), Status: "FAILED", LogSummary: "fetch failed"}))

		last, err := store.GetLastSuccessfulRunTime()
		require.NoError(t, err)
		assert.True(t, last.Equal(base), "most recent successful run is the earlier one")
	})
}

func TestHistoryStoreSchemaIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.InitSchema())
	assert.NoError(t, store.InitSchema())
}
