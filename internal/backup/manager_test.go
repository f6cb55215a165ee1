package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"hostpatch/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()

	backupDir := filepath.Join(t.TempDir(), "backups")
	cfg := config.BackupConfig{
		BackupDir:      backupDir,
		RetentionCount: 3,
	}
	return NewManager(cfg, zerolog.Nop()), backupDir
}

func writeTarget(t *testing.T, content string) string {
	t.Helper()
	targetPath := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(targetPath, []byte(content), 0644))
	return targetPath
}

func TestManagerSnapshot(t *testing.T) {
	t.Run("copies target verbatim under timestamped name", func(t *testing.T) {
		manager, backupDir := newTestManager(t)
		targetPath := writeTarget(t, "127.0.0.1 localhost\n")

		record, err := manager.Snapshot(targetPath)
		require.NoError(t, err)
		assert.Equal(t, int64(len("127.0.0.1 localhost\n")), record.SizeBytes)
		assert.Contains(t, record.Path, backupDir)

		copied, err := os.ReadFile(record.Path)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1 localhost\n", string(copied))
	})

	t.Run("creates the backup directory if absent", func(t *testing.T) {
		manager, backupDir := newTestManager(t)
		targetPath := writeTarget(t, "content\n")

		_, statErr := os.Stat(backupDir)
		require.True(t, os.IsNotExist(statErr))

		_, err := manager.Snapshot(targetPath)
		require.NoError(t, err)

		info, err := os.Stat(backupDir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("fails on missing target", func(t *testing.T) {
		manager, _ := newTestManager(t)
		_, err := manager.Snapshot(filepath.Join(t.TempDir(), "absent"))

		var backupErr *BackupError
		require.ErrorAs(t, err, &backupErr)
	})

	t.Run("treats a name collision as an error not an overwrite", func(t *testing.T) {
		manager, _ := newTestManager(t)
		targetPath := writeTarget(t, "original\n")

		pinned := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		manager.now = func() time.Time { return pinned }

		first, err := manager.Snapshot(targetPath)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(targetPath, []byte("changed\n"), 0644))
		_, err = manager.Snapshot(targetPath)

		var backupErr *BackupError
		require.ErrorAs(t, err, &backupErr)
		assert.Equal(t, "backup name collision", backupErr.Reason)

		// The colliding snapshot must not have clobbered the first copy.
		kept, readErr := os.ReadFile(first.Path)
		require.NoError(t, readErr)
		assert.Equal(t, "original\n", string(kept))
	})
}

func TestManagerRotate(t *testing.T) {
	t.Run("keeps only the most recent snapshots", func(t *testing.T) {
		manager, backupDir := newTestManager(t)
		targetPath := writeTarget(t, "content\n")

		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		var created []string
		for i := 0; i < 6; i++ {
			offset := i
			manager.now = func() time.Time { return base.Add(time.Duration(offset) * time.Second) }
			record, err := manager.Snapshot(targetPath)
			require.NoError(t, err)
			created = append(created, filepath.Base(record.Path))
		}

		require.NoError(t, manager.Rotate())

		entries, err := os.ReadDir(backupDir)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		var remaining []string
		for _, entry := range entries {
			remaining = append(remaining, entry.Name())
		}
		sort.Strings(remaining)
		assert.Equal(t, created[3:], remaining, "survivors must be the most recently captured")
	})

	t.Run("is a no-op below the retention bound", func(t *testing.T) {
		manager, backupDir := newTestManager(t)
		targetPath := writeTarget(t, "content\n")

		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 2; i++ {
			offset := i
			manager.now = func() time.Time { return base.Add(time.Duration(offset) * time.Second) }
			_, err := manager.Snapshot(targetPath)
			require.NoError(t, err)
		}

		require.NoError(t, manager.Rotate())

		entries, err := os.ReadDir(backupDir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("ignores unrelated files in the backup directory", func(t *testing.T) {
		manager, backupDir := newTestManager(t)
		targetPath := writeTarget(t, "content\n")

		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 4; i++ {
			offset := i
			manager.now = func() time.Time { return base.Add(time.Duration(offset) * time.Second) }
			_, err := manager.Snapshot(targetPath)
			require.NoError(t, err)
		}
		strayPath := filepath.Join(backupDir, "notes.txt")
		require.NoError(t, os.WriteFile(strayPath, []byte("keep me\n"), 0644))

		require.NoError(t, manager.Rotate())

		_, err := os.Stat(strayPath)
		assert.NoError(t, err, "non-backup files must survive rotation")

		entries, err := os.ReadDir(backupDir)
		require.NoError(t, err)
		assert.Len(t, entries, 4) // 3 backups + stray file
	})

	t.Run("fails when the backup directory is missing", func(t *testing.T) {
		manager, _ := newTestManager(t)
		err := manager.Rotate()
		assert.Error(t, err)
	})
}

func TestBackupErrorMessage(t *testing.T) {
	err := &BackupError{Path: "/tmp/hosts", Reason: "copy failed", Wrapped: fmt.Errorf("disk full")}
	assert.Contains(t, err.Error(), "/tmp/hosts")
	assert.Contains(t, err.Error(), "copy failed")
	assert.ErrorContains(t, err, "disk full")
}
