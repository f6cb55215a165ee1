package datastore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// HistoryStore wraps the SQL database connection and records one row per
// update run. History is optional context for operators; every failure here
// is reported to the caller, who logs it at Warning severity and keeps the
// run going.
type HistoryStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// RunHistoryEntry represents a record in the run_history table.
type RunHistoryEntry struct {
	ID           int64
	RunStartTime time.Time
	RunEndTime   sql.NullTime
	Status       string
	SourceURL    string
	BackupPath   sql.NullString
	LinesAdded   int
	LinesRemoved int
	LogSummary   sql.NullString
}

// NewHistoryStore initializes a new HistoryStore and ensures the schema is set up.
func NewHistoryStore(dataSourceName string, logger zerolog.Logger) (*HistoryStore, error) {
	componentLogger := logger.With().Str("component", "HistoryStore").Logger()
	componentLogger.Info().Str("db_path", dataSourceName).Msg("Initializing run history database connection")

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		componentLogger.Error().Err(err).Str("directory", dbDir).Msg("Failed to create history database directory")
		return nil, fmt.Errorf("failed to create history database directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		componentLogger.Error().Err(err).Str("db_path", dataSourceName).Msg("Failed to open history database")
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}

	store := &HistoryStore{
		db:     dbInstance,
		logger: componentLogger,
	}

	if err := store.InitSchema(); err != nil {
		store.Close()
		componentLogger.Error().Err(err).Msg("Failed to initialize history schema")
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the run_history table if it doesn't already exist.
func (s *HistoryStore) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS run_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_start_time DATETIME NOT NULL,
		run_end_time DATETIME,
		status TEXT NOT NULL,
		source_url TEXT NOT NULL,
		backup_path TEXT,
		lines_added INTEGER DEFAULT 0,
		lines_removed INTEGER DEFAULT 0,
		log_summary TEXT
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize run_history schema")
		return err
	}
	return nil
}

// RecordRunStart inserts a new record with status "STARTED" and returns the
// ID of the newly inserted row.
func (s *HistoryStore) RecordRunStart(sourceURL string, startTime time.Time) (int64, error) {
	query := `INSERT INTO run_history (run_start_time, status, source_url) VALUES (?, ?, ?)`
	result, err := s.db.Exec(query, startTime, "STARTED", sourceURL)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to record run start")
		return 0, fmt.Errorf("failed to insert run start record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	s.logger.Debug().Int64("db_id", id).Msg("Recorded run start")
	return id, nil
}

// RunCompletion carries the terminal details written back to a run record.
type RunCompletion struct {
	EndTime      time.Time
	Status       string
	BackupPath   string
	LinesAdded   int
	LinesRemoved int
	LogSummary   string
}

// UpdateRunCompletion updates an existing run_history record with completion details.
func (s *HistoryStore) UpdateRunCompletion(runID int64, completion RunCompletion) error {
	query := `UPDATE run_history SET run_end_time = ?, status = ?, backup_path = ?, lines_added = ?, lines_removed = ?, log_summary = ? WHERE id = ?`
	_, err := s.db.Exec(query,
		completion.EndTime,
		completion.Status,
		sql.NullString{String: completion.BackupPath, Valid: completion.BackupPath != ""},
		completion.LinesAdded,
		completion.LinesRemoved,
		sql.NullString{String: completion.LogSummary, Valid: completion.LogSummary != ""},
		runID,
	)
	if err != nil {
		s.logger.Error().Err(err).Int64("db_id", runID).Msg("Failed to update run completion")
		return fmt.Errorf("failed to update run completion for ID %d: %w", runID, err)
	}
	s.logger.Debug().Int64("db_id", runID).Str("status", completion.Status).Msg("Updated run completion")
	return nil
}

// GetLastSuccessfulRunTime retrieves the start time of the most recent run
// that finished without failing, or sql.ErrNoRows when none exists.
func (s *HistoryStore) GetLastSuccessfulRunTime() (*time.Time, error) {
	query := `SELECT run_start_time FROM run_history WHERE status IN (?, ?) ORDER BY run_start_time DESC LIMIT 1`
	var startTime time.Time
	err := s.db.QueryRow(query, "UPDATED", "NO_CHANGE_NEEDED").Scan(&startTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query last successful run time: %w", err)
	}
	return &startTime, nil
}
