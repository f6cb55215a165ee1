package runlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hostpatch/internal/config"
	"hostpatch/internal/models"
	"hostpatch/internal/notifier"

	"github.com/rs/zerolog"
)

const entryTimestampLayout = "2006-01-02 15:04:05"

// Aggregator accumulates timestamped, leveled log lines for one run and
// flushes them as a single batch at the end. Every entry is mirrored to the
// console logger immediately; the batch flush goes to the structured sink,
// or to the fallback log file when the sink is unavailable.
//
// The aggregator is an explicit value threaded through the pipeline stages,
// not ambient global state.
type Aggregator struct {
	sourceName   string
	fallbackPath string
	entries      []models.LogEntry
	logger       zerolog.Logger
	flushed      bool

	// replaced in tests to pin entry timestamps
	now func() time.Time
}

// NewAggregator creates a new run log aggregator
func NewAggregator(cfg config.NotificationConfig, logger zerolog.Logger) *Aggregator {
	sourceName := cfg.SourceName
	if sourceName == "" {
		sourceName = config.DefaultNotificationSourceName
	}

	return &Aggregator{
		sourceName:   sourceName,
		fallbackPath: cfg.FallbackLogFile,
		logger:       logger.With().Str("component", "RunLog").Logger(),
		now:          time.Now,
	}
}

// Record appends an entry and mirrors it to the console logger immediately
func (a *Aggregator) Record(severity models.Severity, message string) {
	a.entries = append(a.entries, models.LogEntry{
		Timestamp: a.now(),
		Severity:  severity,
		Message:   message,
	})

	switch severity {
	case models.SeverityError:
		a.logger.Error().Msg(message)
	case models.SeverityWarning:
		a.logger.Warn().Msg(message)
	default:
		a.logger.Info().Msg(message)
	}
}

// Info records an Information entry
func (a *Aggregator) Info(format string, args ...interface{}) {
	a.Record(models.SeverityInformation, fmt.Sprintf(format, args...))
}

// Warn records a Warning entry
func (a *Aggregator) Warn(format string, args ...interface{}) {
	a.Record(models.SeverityWarning, fmt.Sprintf(format, args...))
}

// Error records an Error entry
func (a *Aggregator) Error(format string, args ...interface{}) {
	a.Record(models.SeverityError, fmt.Sprintf(format, args...))
}

// Entries returns the accumulated entries in insertion order
func (a *Aggregator) Entries() []models.LogEntry {
	return a.entries
}

// WorstSeverity returns the maximum severity observed across the run.
// Any Error entry anywhere escalates the whole batch to Error.
func (a *Aggregator) WorstSeverity() models.Severity {
	worst := models.SeverityInformation
	for _, entry := range a.entries {
		if entry.Severity > worst {
			worst = entry.Severity
		}
	}
	return worst
}

// Flush joins all entries into one ordered multi-line message and delivers
// it to the sink as a single event classified by the worst severity. If sink
// delivery fails, the raw entries are appended to the fallback log file.
// Flush never returns an error: nothing here may mask the run's real outcome.
// It is a no-op after the first call.
func (a *Aggregator) Flush(ctx context.Context, sink notifier.EventSink) {
	if a.flushed || len(a.entries) == 0 {
		return
	}
	a.flushed = true

	worst := a.WorstSeverity()
	event := models.SinkEvent{
		Source:   a.sourceName,
		Severity: worst,
		Code:     worst.EventCode(),
		Message:  a.formatBatch(),
	}

	if sink == nil {
		a.writeFallback()
		return
	}

	if err := sink.Deliver(ctx, event); err != nil {
		a.logger.Warn().Err(err).Msg("Structured sink delivery failed, falling back to local log file")
		a.writeFallback()
		return
	}

	a.logger.Debug().Int("entries", len(a.entries)).Str("severity", worst.String()).Msg("Run log flushed to structured sink")
}

// formatBatch renders all entries in the mirror format, one line per entry
func (a *Aggregator) formatBatch() string {
	lines := make([]string, 0, len(a.entries))
	for _, entry := range a.entries {
		lines = append(lines, formatEntry(entry))
	}
	return strings.Join(lines, "\n")
}

// writeFallback appends the raw entries to the fallback log file.
// Fallback errors are swallowed by design requirement: the fallback path
// must never raise further errors.
func (a *Aggregator) writeFallback() {
	if a.fallbackPath == "" {
		return
	}

	if err := os.MkdirAll(filepath.Dir(a.fallbackPath), 0755); err != nil {
		a.logger.Debug().Err(err).Msg("Could not create fallback log directory")
		return
	}

	f, err := os.OpenFile(a.fallbackPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Could not open fallback log file")
		return
	}
	defer f.Close()

	for _, entry := range a.entries {
		if _, err := fmt.Fprintln(f, formatEntry(entry)); err != nil {
			a.logger.Debug().Err(err).Msg("Could not append to fallback log file")
			return
		}
	}

	a.logger.Info().Str("path", a.fallbackPath).Int("entries", len(a.entries)).Msg("Run log written to fallback file")
}

// formatEntry renders one entry as "timestamp - severity - message"
func formatEntry(entry models.LogEntry) string {
	return fmt.Sprintf("%s - %s - %s", entry.Timestamp.Format(entryTimestampLayout), entry.Severity.String(), entry.Message)
}
