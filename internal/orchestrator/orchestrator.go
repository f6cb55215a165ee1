package orchestrator

import (
	"context"
	"fmt"
	"time"

	"hostpatch/internal/backup"
	"hostpatch/internal/blocklist"
	"hostpatch/internal/config"
	"hostpatch/internal/datastore"
	"hostpatch/internal/fetcher"
	"hostpatch/internal/hostsfile"
	"hostpatch/internal/models"
	"hostpatch/internal/notifier"
	"hostpatch/internal/runlog"

	"github.com/rs/zerolog"
)

// UpdateOrchestrator drives one hosts update run through its stages:
// fetch, validate, idempotency check, backup with rotation, atomic patch.
// Each run is strictly sequential; any stage failure is terminal and the
// run log is flushed on every exit path.
type UpdateOrchestrator struct {
	sourceURL     string
	fetcher       *fetcher.Fetcher
	validator     *blocklist.Validator
	patcher       *hostsfile.Patcher
	backupManager *backup.Manager
	sink          notifier.EventSink
	history       *datastore.HistoryStore
	logger        zerolog.Logger
}

// NewUpdateOrchestrator assembles the pipeline components from the global
// configuration. The sink receives the flushed run log; pass nil to always
// use the fallback log file.
func NewUpdateOrchestrator(cfg *config.GlobalConfig, sink notifier.EventSink, logger zerolog.Logger) *UpdateOrchestrator {
	return &UpdateOrchestrator{
		sourceURL:     cfg.SourceConfig.URL,
		fetcher:       fetcher.NewFetcher(cfg.SourceConfig, logger),
		validator:     blocklist.NewValidator(cfg.HostsPatchConfig, logger),
		patcher:       hostsfile.NewPatcher(cfg.HostsPatchConfig, logger),
		backupManager: backup.NewManager(cfg.BackupConfig, logger),
		sink:          sink,
		logger:        logger.With().Str("component", "UpdateOrchestrator").Logger(),
	}
}

// WithHistoryStore attaches an optional run-history store. History failures
// never affect the run outcome.
func (o *UpdateOrchestrator) WithHistoryStore(store *datastore.HistoryStore) *UpdateOrchestrator {
	o.history = store
	return o
}

// Run executes one full update run and returns its terminal outcome.
// The run log is flushed exactly once, as the last action on every path.
func (o *UpdateOrchestrator) Run(ctx context.Context, runLog *runlog.Aggregator) models.RunOutcome {
	startTime := time.Now()
	var historyID int64
	if o.history != nil {
		if last, lastErr := o.history.GetLastSuccessfulRunTime(); lastErr == nil {
			o.logger.Info().Time("last_success", *last).Dur("since", startTime.Sub(*last)).Msg("Previous successful run found in history")
		}

		id, err := o.history.RecordRunStart(o.sourceURL, startTime)
		if err != nil {
			runLog.Warn("Could not record run start in history store: %v", err)
		} else {
			historyID = id
		}
	}

	outcome, stats, backupPath := o.runPipeline(ctx, runLog)

	o.recordCompletion(historyID, runLog, outcome, stats, backupPath)
	runLog.Flush(ctx, o.sink)
	return outcome
}

// runPipeline walks the stages in order and classifies the terminal state
func (o *UpdateOrchestrator) runPipeline(ctx context.Context, runLog *runlog.Aggregator) (models.RunOutcome, hostsfile.BlockChangeStats, string) {
	var stats hostsfile.BlockChangeStats

	o.logger.Info().Str("url", o.sourceURL).Str("target", o.patcher.TargetPath()).Msg("Starting hosts update run")

	content, err := o.fetcher.Fetch(ctx, o.sourceURL)
	if err != nil {
		runLog.Error("Failed to fetch blocklist: %v", err)
		return models.NewFailedOutcome(err.Error()), stats, ""
	}

	if err := o.validator.Validate(content); err != nil {
		runLog.Error("Fetched blocklist is malformed: %v", err)
		return models.NewFailedOutcome(err.Error()), stats, ""
	}

	targetContent, err := o.patcher.ReadTarget()
	if err != nil {
		runLog.Error("Cannot read target file: %v", err)
		return models.NewFailedOutcome(err.Error()), stats, ""
	}

	needsUpdate, err := o.patcher.NeedsUpdate(targetContent, content)
	if err != nil {
		runLog.Error("Cannot inspect installed managed block in '%s': %v", o.patcher.TargetPath(), err)
		return models.NewFailedOutcome(err.Error()), stats, ""
	}
	if !needsUpdate {
		runLog.Info("Hosts file '%s' is already up to date, no change needed", o.patcher.TargetPath())
		return models.RunOutcome{Status: models.RunStatusNoChangeNeeded}, stats, ""
	}

	if installed, found, blockErr := o.patcher.InstalledBlock(targetContent); blockErr == nil && found {
		stats = hostsfile.CalculateBlockChange(installed, content)
	}

	record, err := o.backupManager.Snapshot(o.patcher.TargetPath())
	if err != nil {
		runLog.Error("Failed to back up target file before patching: %v", err)
		return models.NewFailedOutcome(err.Error()), stats, ""
	}

	// Eviction is best-effort and never blocks the patch.
	if err := o.backupManager.Rotate(); err != nil {
		runLog.Warn("Could not evict excess backups: %v", err)
	}

	if err := o.patcher.Apply(targetContent, content); err != nil {
		runLog.Error("Failed to apply managed block to '%s': %v", o.patcher.TargetPath(), err)
		return models.NewFailedOutcome(err.Error()), stats, record.Path
	}

	runLog.Info("Hosts file '%s' updated successfully, backup at '%s'", o.patcher.TargetPath(), record.Path)
	return models.RunOutcome{Status: models.RunStatusUpdated}, stats, record.Path
}

// recordCompletion writes the terminal state back to the history store
func (o *UpdateOrchestrator) recordCompletion(historyID int64, runLog *runlog.Aggregator, outcome models.RunOutcome, stats hostsfile.BlockChangeStats, backupPath string) {
	if o.history == nil || historyID == 0 {
		return
	}

	summary := fmt.Sprintf("%d log entries, worst severity %s", len(runLog.Entries()), runLog.WorstSeverity().String())
	if outcome.FailureReason != "" {
		summary = outcome.FailureReason
	}

	completion := datastore.RunCompletion{
		EndTime:      time.Now(),
		Status:       string(outcome.Status),
		BackupPath:   backupPath,
		LinesAdded:   stats.LinesAdded,
		LinesRemoved: stats.LinesRemoved,
		LogSummary:   summary,
	}
	if err := o.history.UpdateRunCompletion(historyID, completion); err != nil {
		runLog.Warn("Could not record run completion in history store: %v", err)
	}
}
