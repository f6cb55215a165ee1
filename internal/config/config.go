package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"hostpatch/internal/common"

	"gopkg.in/yaml.v3"
)

// GlobalConfig contains all configuration sections for the application
type GlobalConfig struct {
	SourceConfig       SourceConfig       `json:"source_config,omitempty" yaml:"source_config,omitempty"`
	HostsPatchConfig   HostsPatchConfig   `json:"hosts_patch_config,omitempty" yaml:"hosts_patch_config,omitempty"`
	BackupConfig       BackupConfig       `json:"backup_config,omitempty" yaml:"backup_config,omitempty"`
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	HistoryConfig      HistoryConfig      `json:"history_config,omitempty" yaml:"history_config,omitempty"`
}

// NewDefaultGlobalConfig creates a new GlobalConfig with default values
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		SourceConfig:       NewDefaultSourceConfig(),
		HostsPatchConfig:   NewDefaultHostsPatchConfig(),
		BackupConfig:       NewDefaultBackupConfig(),
		LogConfig:          NewDefaultLogConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
		HistoryConfig:      NewDefaultHistoryConfig(),
	}
}

// SourceConfig defines where the authoritative blocklist is fetched from
type SourceConfig struct {
	URL         string `json:"url,omitempty" yaml:"url,omitempty" validate:"required,url"`
	TimeoutSecs int    `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"omitempty,min=1"`
	UserAgent   string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// NewDefaultSourceConfig creates default source configuration
func NewDefaultSourceConfig() SourceConfig {
	return SourceConfig{
		URL:         DefaultSourceURL,
		TimeoutSecs: DefaultSourceTimeoutSecs,
		UserAgent:   DefaultSourceUserAgent,
	}
}

// HostsPatchConfig defines the target file and the managed block delimiters
type HostsPatchConfig struct {
	TargetPath  string `json:"target_path,omitempty" yaml:"target_path,omitempty" validate:"required"`
	StartMarker string `json:"start_marker,omitempty" yaml:"start_marker,omitempty" validate:"required,marker"`
	EndMarker   string `json:"end_marker,omitempty" yaml:"end_marker,omitempty" validate:"required,marker"`
}

// NewDefaultHostsPatchConfig creates default hosts patch configuration
func NewDefaultHostsPatchConfig() HostsPatchConfig {
	return HostsPatchConfig{
		TargetPath:  DefaultTargetPath,
		StartMarker: DefaultStartMarker,
		EndMarker:   DefaultEndMarker,
	}
}

// BackupConfig defines the snapshot directory and the retention bound
type BackupConfig struct {
	BackupDir      string `json:"backup_dir,omitempty" yaml:"backup_dir,omitempty" validate:"required"`
	RetentionCount int    `json:"retention_count,omitempty" yaml:"retention_count,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultBackupConfig creates default backup configuration
func NewDefaultBackupConfig() BackupConfig {
	return BackupConfig{
		BackupDir:      DefaultBackupDir,
		RetentionCount: DefaultRetentionCount,
	}
}

// LogConfig defines configuration for logging
type LogConfig struct {
	LogFile       string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	LogFormat     string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,logformat"`
	LogLevel      string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups int    `json:"max_log_backups,omitempty" yaml:"max_log_backups,omitempty"`
	MaxLogSizeMB  int    `json:"max_log_size_mb,omitempty" yaml:"max_log_size_mb,omitempty"`
}

// NewDefaultLogConfig creates default log configuration
func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		LogFile:       DefaultLogFile,
		LogFormat:     DefaultLogFormat,
		LogLevel:      DefaultLogLevel,
		MaxLogBackups: DefaultMaxLogBackups,
		MaxLogSizeMB:  DefaultMaxLogSizeMB,
	}
}

// NotificationConfig defines the structured sink and the fallback log file
type NotificationConfig struct {
	WebhookURL      string `json:"webhook_url,omitempty" yaml:"webhook_url,omitempty" validate:"omitempty,url"`
	SourceName      string `json:"source_name,omitempty" yaml:"source_name,omitempty"`
	TimeoutSecs     int    `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"omitempty,min=1"`
	FallbackLogFile string `json:"fallback_log_file,omitempty" yaml:"fallback_log_file,omitempty" validate:"required"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		WebhookURL:      "",
		SourceName:      DefaultNotificationSourceName,
		TimeoutSecs:     DefaultNotificationTimeoutSecs,
		FallbackLogFile: DefaultFallbackLogFile,
	}
}

// HistoryConfig defines the optional run-history store
type HistoryConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	SQLiteDBPath string `json:"sqlite_db_path,omitempty" yaml:"sqlite_db_path,omitempty"`
}

// NewDefaultHistoryConfig creates default history configuration
func NewDefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Enabled:      false,
		SQLiteDBPath: DefaultHistorySQLiteDBPath,
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath, supports both JSON
// and YAML formats. YAML is preferred if the file extension is .yaml or .yml.
// No config file in the default locations is not an error, defaults apply;
// an explicitly provided path that cannot be read is.
func LoadGlobalConfig(providedPath string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	return cfg, nil
}

// parseConfigContent parses the config content based on file extension
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if isYAMLFile(ext) {
		return parseYAMLConfig(data, filePath, cfg)
	}
	return parseJSONConfig(data, filePath, cfg)
}

// isYAMLFile checks if the file extension indicates a YAML file
func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}

// parseYAMLConfig parses YAML configuration
func parseYAMLConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
	}
	return nil
}

// parseJSONConfig parses JSON configuration
func parseJSONConfig(data []byte, filePath string, cfg *GlobalConfig) error {
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}
