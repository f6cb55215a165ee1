package models

import "time"

// BackupRecord describes one full-copy snapshot of the target file
type BackupRecord struct {
	Path       string
	CapturedAt time.Time
	SizeBytes  int64
}
