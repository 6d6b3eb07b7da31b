// =============================================================================
// Patron to CueBox Migrator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'process', 'validate') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (migrator)
//   ├── processCmd (migrator process)
//   ├── validateCmd (migrator validate)
//   └── versionCmd (migrator version)
//
// The root command owns the global flags (--config, --verbose) and the
// logger lifecycle: the zap logger is built before any subcommand runs and
// flushed after it finishes.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// logger is the process-wide structured logger, built in PersistentPreRunE.
var logger *zap.Logger

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "migrator",
	Short: "Patron to CueBox Migrator - Transform raw patron exports into CueBox import files",

	Long: `Patron to CueBox Migrator is a one-shot batch CLI that converts three raw
tabular exports from a legacy patron record system (constituents, emails,
donation history) into the two normalized files CueBox imports: a constituent
table and a tag count table.

Key Features:
  - Multi-format date parsing with a created-at fallback chain
  - Email normalization, typo correction, deduplication, and selection
  - Tag canonicalization via an external mapping service with identity fallback
  - Donation aggregation with refund exclusion and orphan reporting
  - Independent post-run validation of the produced output

Example Usage:
  migrator process                     # Run the full migration
  migrator process --dry-run           # Run the transform without writing output
  migrator validate                    # Check the produced output files`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// init sets up the global flags.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (default is config.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
