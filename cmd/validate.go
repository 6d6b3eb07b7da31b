// =============================================================================
// Patron to CueBox Migrator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which re-derives a subset of the
// migration's aggregates directly from the input and output files on disk
// and reports any disagreement. It is meant to run after 'process' as an
// independent check before the output is handed to CueBox.
//
// COMMAND USAGE:
//   migrator validate
//
// EXIT STATUS:
//   0 when every check passes, 1 otherwise.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/validation"
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Re-derive and check the produced CueBox output files",
	Long: `The validate command independently recomputes row counts, identifier
uniqueness, lifetime donation sums, most-recent donation facts, email syntax,
type classification, and tag counts from the raw inputs, and compares them
against the files 'process' produced.

Note that the inputs must still be in place: if 'process' archived them,
point the configuration at the archived copies before validating.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

// init registers the validate command with the root command.
func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate executes all checks and prints the report.
func runValidate() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	validator := validation.New(cfg, logger)
	results, allPassed, err := validator.RunAll()
	if err != nil {
		return err
	}

	fmt.Print(validation.FormatReport(results))

	if !allPassed {
		return fmt.Errorf("validation failed")
	}

	fmt.Println("All validation checks passed.")
	return nil
}
