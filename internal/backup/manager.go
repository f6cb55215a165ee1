package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"hostpatch/internal/common"
	"hostpatch/internal/config"
	"hostpatch/internal/models"

	"github.com/rs/zerolog"
)

const (
	// backupTimestampLayout encodes capture time at second granularity.
	// Lexical order of the generated names equals capture order.
	backupTimestampLayout = "20060102-150405"
	backupSuffix          = ".bak"
)

// BackupError indicates the pre-mutation snapshot could not be taken.
// Snapshot failure is fatal to the run; eviction failure is not.
type BackupError struct {
	Path    string
	Reason  string
	Wrapped error
}

func (e *BackupError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("backup failed for '%s': %s: %v", e.Path, e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("backup failed for '%s': %s", e.Path, e.Reason)
}

func (e *BackupError) Unwrap() error {
	return e.Wrapped
}

// Manager snapshots the target file into a retention-bounded backup set
type Manager struct {
	backupDir      string
	retentionCount int
	fileManager    *common.FileManager
	logger         zerolog.Logger

	// replaced in tests to pin the capture timestamp
	now func() time.Time
}

// NewManager creates a new backup Manager from the backup configuration
func NewManager(cfg config.BackupConfig, logger zerolog.Logger) *Manager {
	retention := cfg.RetentionCount
	if retention <= 0 {
		retention = config.DefaultRetentionCount
	}

	componentLogger := logger.With().Str("component", "BackupManager").Logger()
	return &Manager{
		backupDir:      cfg.BackupDir,
		retentionCount: retention,
		fileManager:    common.NewFileManager(componentLogger),
		logger:         componentLogger,
		now:            time.Now,
	}
}

// Snapshot copies targetPath verbatim into the backup directory under a
// timestamped name. The directory is created if absent. A name collision
// (sub-second rerun) is an explicit error, never a silent overwrite.
func (m *Manager) Snapshot(targetPath string) (models.BackupRecord, error) {
	if err := m.fileManager.EnsureDirectory(m.backupDir, 0755); err != nil {
		return models.BackupRecord{}, &BackupError{Path: m.backupDir, Reason: "failed to create backup directory", Wrapped: err}
	}

	capturedAt := m.now()
	backupName := fmt.Sprintf("%s_%s%s", filepath.Base(targetPath), capturedAt.Format(backupTimestampLayout), backupSuffix)
	backupPath := filepath.Join(m.backupDir, backupName)

	written, err := m.copyFile(targetPath, backupPath)
	if err != nil {
		return models.BackupRecord{}, err
	}

	m.logger.Info().Str("backup", backupPath).Int64("bytes", written).Msg("Target snapshot captured")
	return models.BackupRecord{
		Path:       backupPath,
		CapturedAt: capturedAt,
		SizeBytes:  written,
	}, nil
}

// Rotate removes every backup beyond the retention count, oldest first.
// Eviction is best-effort: the caller logs a returned error at Warning
// severity and continues the run.
func (m *Manager) Rotate() error {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return common.WrapError(err, "failed to list backup directory: "+m.backupDir)
	}

	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), backupSuffix) {
			backups = append(backups, entry.Name())
		}
	}

	// Newest first; the timestamp encoding makes lexical order capture order.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	if len(backups) <= m.retentionCount {
		return nil
	}

	var failures []string
	for _, name := range backups[m.retentionCount:] {
		path := filepath.Join(m.backupDir, name)
		if err := os.Remove(path); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		m.logger.Debug().Str("backup", path).Msg("Evicted excess backup")
	}

	if len(failures) > 0 {
		return common.NewError("failed to evict %d excess backup(s): %s", len(failures), strings.Join(failures, "; "))
	}

	m.logger.Info().Int("evicted", len(backups)-m.retentionCount).Int("retained", m.retentionCount).Msg("Backup retention enforced")
	return nil
}

// copyFile copies src to dst verbatim, failing if dst already exists
func (m *Manager) copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, &BackupError{Path: src, Reason: "failed to open target for snapshot", Wrapped: err}
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return 0, &BackupError{Path: dst, Reason: "backup name collision", Wrapped: err}
		}
		return 0, &BackupError{Path: dst, Reason: "failed to create backup file", Wrapped: err}
	}

	written, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return 0, &BackupError{Path: dst, Reason: "failed to copy target content", Wrapped: err}
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return 0, &BackupError{Path: dst, Reason: "failed to finalize backup file", Wrapped: err}
	}

	return written, nil
}
