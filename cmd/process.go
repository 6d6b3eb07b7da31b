// =============================================================================
// Patron to CueBox Migrator - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the full migration.
//
// COMMAND USAGE:
//   migrator process [flags]
//
// FLAGS:
//   --dry-run     : Run the whole transformation without writing output files
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Load the three raw export tables
//   3. Build the donation index and the valid patron identifier set
//   4. Fetch the tag mapping (once, best-effort)
//   5. Transform every constituent row
//   6. Write both output tables
//   7. Archive input files and write the run summary
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/transform"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/pkg/utils"
)

// dryRun runs the transformation without writing output files.
var dryRun bool

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Transform the raw patron exports into CueBox import files",
	Long: `The process command loads the three raw export tables named in the
configuration, transforms every constituent record, and writes the CueBox
constituent and tag count files.

The run is a single batch: nothing is written until every record has
transformed cleanly. Recoverable problems (unparseable dates or amounts,
orphaned donations, an unreachable tag mapping service) are reported as
warnings and the run continues; structural problems (a missing input table,
a constituent without an identifier) abort the run before any output exists.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

// init registers the process command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run the transformation without writing output files",
	)
}

// runProcess executes the migration and the post-run housekeeping.
func runProcess() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fm := utils.NewFileManager(cfg.InputArchiveDir, cfg.LogDir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	runner := transform.NewRunner(cfg, logger)
	result, err := runner.Run(dryRun)
	if err != nil {
		return err
	}

	logger.Info("migration complete",
		zap.String("run_id", result.RunID),
		zap.Int("constituents", result.Stats.ConstituentsWritten),
		zap.Int("tags", result.Stats.TagsWritten),
		zap.Int("warnings", len(result.Diagnostics)),
		zap.Duration("duration", result.Duration))

	if dryRun {
		return nil
	}

	// Housekeeping happens only after a fully successful run.
	for _, input := range []string{cfg.Input.Constituents, cfg.Input.Emails, cfg.Input.Donations} {
		archived, err := fm.ArchiveInputFile(input)
		if err != nil {
			// The output is already written and correct; a failed archive
			// move is worth a warning, not a failed run.
			logger.Warn("failed to archive input file", zap.String("file", input), zap.Error(err))
			continue
		}
		if archived != input {
			logger.Info("archived input file", zap.String("from", input), zap.String("to", archived))
		}
	}

	summary := utils.RunSummary{
		RunID:               result.RunID,
		StartTime:           result.StartedAt,
		Duration:            result.Duration,
		ConstituentsRead:    result.Stats.ConstituentsRead,
		EmailRowsRead:       result.Stats.EmailRowsRead,
		DonationsRead:       result.Stats.DonationsRead,
		OrphanedDonations:   result.Stats.OrphanedDonations,
		ConstituentsWritten: result.Stats.ConstituentsWritten,
		TagsWritten:         result.Stats.TagsWritten,
		ConstituentsFile:    result.ConstituentsPath,
		TagsFile:            result.TagsPath,
	}
	for _, d := range result.Diagnostics {
		summary.Warnings = append(summary.Warnings, d.Message)
	}

	summaryPath, err := fm.WriteSummaryLog(summary)
	if err != nil {
		logger.Warn("failed to write run summary", zap.Error(err))
		return nil
	}
	logger.Info("wrote run summary", zap.String("file", summaryPath))

	return nil
}
