// Package cli implements the satexam command-line interface.
//
// Commands hold no business logic: they parse flags into the run
// configuration, call the factories injected by main, and render results.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skyvense/SatExam/internal/core/domain"
	"github.com/skyvense/SatExam/internal/core/ports/driven"
	"github.com/skyvense/SatExam/internal/core/ports/driving"
	"github.com/skyvense/SatExam/internal/core/services"
	"github.com/skyvense/SatExam/internal/logger"
)

// version is injected at build time via -ldflags.
var version = "dev"

// baseConfig is the file+environment configuration loaded by main.
// Command flags override it per invocation.
var baseConfig = domain.DefaultConfig()

// Factories injected by main. Commands build their collaborators lazily so
// that, for example, `satexam version` never opens a database.
var (
	// buildProcessor assembles a full pipeline for the given run
	// configuration. The returned cleanup closes the store and remote
	// clients.
	buildProcessor func(cfg domain.Config) (driving.BatchProcessor, func(), error)

	// openStore opens the result store read-only consumers use.
	openStore func(dbPath string) (driven.ResultStore, error)

	// buildEngine assembles the classification engine for the classify
	// command.
	buildEngine func(cfg domain.Config) (*services.Engine, func(), error)
)

var rootCmd = &cobra.Command{
	Use:   "satexam",
	Short: "Batch OCR and classification for SAT exam pages",
	Long: `satexam walks a directory tree of per-page exam images, extracts each
page's text through a vision model, classifies every question into the
SAT taxonomy, and stores the deduplicated results in SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	version = v
}

// SetBaseConfig installs the configuration loaded from file and environment.
func SetBaseConfig(cfg domain.Config) {
	baseConfig = cfg
}

// SetProcessorFactory installs the pipeline factory used by process.
func SetProcessorFactory(f func(cfg domain.Config) (driving.BatchProcessor, func(), error)) {
	buildProcessor = f
}

// SetStoreFactory installs the store opener used by query and serve.
func SetStoreFactory(f func(dbPath string) (driven.ResultStore, error)) {
	openStore = f
}

// SetEngineFactory installs the classification engine factory used by classify.
func SetEngineFactory(f func(cfg domain.Config) (*services.Engine, func(), error)) {
	buildEngine = f
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
