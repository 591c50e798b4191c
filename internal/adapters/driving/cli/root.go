// Package cli implements the sailtap command line interface.
//
// Records go to stdout as JSONL messages; logs and progress go to
// stderr so the record stream stays parseable.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/windward-data/sailtap/internal/adapters/driven/config/file"
	"github.com/windward-data/sailtap/internal/adapters/driven/emit/singer"
	"github.com/windward-data/sailtap/internal/adapters/driven/storage/sqlite"
	"github.com/windward-data/sailtap/internal/connectors/sailthru"
	"github.com/windward-data/sailtap/internal/core/domain"
	"github.com/windward-data/sailtap/internal/core/ports/driven"
	"github.com/windward-data/sailtap/internal/core/ports/driving"
	"github.com/windward-data/sailtap/internal/core/services"
	"github.com/windward-data/sailtap/internal/logger"
)

var (
	version = "dev"
	cfgFile string
	verbose bool

	// Services wired by initServices. Tests replace these directly.
	appSettings     domain.Settings
	streamCatalog   driven.Catalog
	checkpointStore driven.CheckpointStore
	syncRunner      driving.SyncRunner
)

var rootCmd = &cobra.Command{
	Use:   "sailtap",
	Short: "Extract marketing data from the Sailthru API",
	Long: `sailtap is an incremental extractor for Sailthru marketing data.

It syncs campaign, list and subscriber streams through the platform's
REST endpoints and asynchronous export jobs, emitting records as JSONL
messages on stdout and checkpointing progress so interrupted runs
resume where they left off.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default ~/.sailtap/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose logging")

	// Stdout carries the record stream.
	logger.SetOutput(os.Stderr)
}

// Execute runs the CLI.
func Execute(ctx context.Context, v string) error {
	version = v
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// initServices wires the real implementations behind the package
// service variables: config file, checkpoint database, platform
// connector, sync engine and message writer.
func initServices() error {
	if syncRunner != nil {
		return nil
	}

	loader, err := file.NewLoader(cfgFile)
	if err != nil {
		return err
	}
	settings, err := loader.Load()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w (run 'sailtap config init' to create a config file)", err)
	}

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}

	catalog := sailthru.NewCatalog(sailthru.NewConnector(settings))
	writer := singer.NewWriter(os.Stdout)

	appSettings = settings
	checkpointStore = store
	streamCatalog = catalog
	syncRunner = services.NewSyncEngine(catalog, writer, store, settings)

	logger.Debug("Run %s using config %s", store.RunID(), loader.Path())
	return nil
}

// initCatalog wires just the stream catalog, for commands that only
// inspect stream definitions and need no credentials.
func initCatalog() error {
	if streamCatalog != nil {
		return nil
	}
	loader, err := file.NewLoader(cfgFile)
	if err != nil {
		return err
	}
	settings, err := loader.Load()
	if err != nil {
		return err
	}
	appSettings = settings
	streamCatalog = sailthru.NewCatalog(sailthru.NewConnector(settings))
	return nil
}

func closeServices() {
	if checkpointStore != nil {
		if err := checkpointStore.Close(); err != nil {
			logger.Warn("Closing checkpoint store: %v", err)
		}
	}
}
