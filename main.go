// =============================================================================
// Patron to CueBox Migrator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the patron migration CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   migrator process        - Transform the raw patron exports into CueBox files
//   migrator validate       - Re-derive and check the produced output files
//   migrator version        - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
