package config

const (
	// Source Defaults. The raw data fragment contains only comments and
	// 0.0.0.0 entries; the amalgamated top-level hosts file carries a
	// localhost header that the entry grammar rejects.
	DefaultSourceURL         = "https://raw.githubusercontent.com/StevenBlack/hosts/master/data/StevenBlack/hosts"
	DefaultSourceTimeoutSecs = 30
	DefaultSourceUserAgent   = "hostpatch/1.0"

	// Hosts Patch Defaults
	DefaultTargetPath  = "/etc/hosts"
	DefaultStartMarker = "# BEGIN HOSTPATCH MANAGED BLOCK"
	DefaultEndMarker   = "# END HOSTPATCH MANAGED BLOCK"

	// Backup Defaults
	DefaultBackupDir      = "backups"
	DefaultRetentionCount = 5

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Notification Defaults
	DefaultNotificationSourceName  = "hostpatch"
	DefaultNotificationTimeoutSecs = 20
	DefaultFallbackLogFile         = "logs/hostpatch_fallback.log"

	// History Defaults
	DefaultHistorySQLiteDBPath = "database/hostpatch_history.db"
)
