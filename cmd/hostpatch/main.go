package main

import (
	"context"
	"flag"
	"log"
	"os"

	"hostpatch/internal/config"
	"hostpatch/internal/datastore"
	"hostpatch/internal/logger"
	"hostpatch/internal/notifier"
	"hostpatch/internal/orchestrator"
	"hostpatch/internal/runlog"
)

func main() {
	os.Exit(run())
}

// run executes one update run and returns the process exit code.
// Separated from main so deferred cleanup runs before os.Exit.
func run() int {
	configFile := flag.String("config", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	configFileAlias := flag.String("c", "", "Alias for --config")
	flag.Parse()

	if *configFile == "" && *configFileAlias != "" {
		*configFile = *configFileAlias
	}

	gCfg, err := config.LoadGlobalConfig(*configFile)
	if err != nil {
		log.Printf("[FATAL] Could not load config using path '%s': %v", *configFile, err)
		return 1
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Printf("[FATAL] Could not initialize logger: %v", err)
		return 1
	}

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Error().Err(err).Msg("Configuration validation failed")
		return 1
	}

	ctx := context.Background()
	runLog := runlog.NewAggregator(gCfg.NotificationConfig, zLogger)

	// Registration is idempotent and runs every invocation.
	sink := notifier.NewWebhookSink(gCfg.NotificationConfig, nil, zLogger)
	if err := sink.Register(ctx); err != nil {
		zLogger.Error().Err(err).Msg("Structured sink registration failed")
		return 1
	}

	updateOrchestrator := orchestrator.NewUpdateOrchestrator(gCfg, sink, zLogger)

	if gCfg.HistoryConfig.Enabled {
		historyStore, err := datastore.NewHistoryStore(gCfg.HistoryConfig.SQLiteDBPath, zLogger)
		if err != nil {
			// History is optional context; the run proceeds without it.
			runLog.Warn("Could not open run history store: %v", err)
		} else {
			defer historyStore.Close()
			updateOrchestrator.WithHistoryStore(historyStore)
		}
	}

	outcome := updateOrchestrator.Run(ctx, runLog)
	zLogger.Info().Str("status", string(outcome.Status)).Msg("Run finished")
	return outcome.ExitCode()
}
