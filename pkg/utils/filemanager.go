// =============================================================================
// Patron to CueBox Migrator - File Manager
// =============================================================================
//
// This module handles the housekeeping around a migration run: making sure
// directories exist, archiving the raw input files after a successful run,
// and writing the per-run processing summary log.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileManager handles directory management and input archival.
type FileManager struct {
	// InputArchiveDir is where processed input files are moved.
	// Archival is disabled when this is empty.
	InputArchiveDir string

	// LogDir is where processing summary logs are written.
	LogDir string
}

// NewFileManager creates a file manager.
func NewFileManager(inputArchiveDir, logDir string) *FileManager {
	return &FileManager{
		InputArchiveDir: inputArchiveDir,
		LogDir:          logDir,
	}
}

// EnsureDirectories creates the managed directories if they do not exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.LogDir}
	if fm.InputArchiveDir != "" {
		dirs = append(dirs, fm.InputArchiveDir)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ArchiveInputFile moves a processed input file into the archive directory,
// under a date-based subdirectory so repeated migrations do not collide.
// A no-op when archival is disabled.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.InputArchiveDir == "" {
		return filePath, nil
	}

	now := time.Now()
	archiveDir := filepath.Join(
		fm.InputArchiveDir,
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
	)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(archiveDir, filepath.Base(filePath))

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// RunSummary contains summary information about one migration run.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	Duration  time.Duration

	ConstituentsRead    int
	EmailRowsRead       int
	DonationsRead       int
	OrphanedDonations   int
	ConstituentsWritten int
	TagsWritten         int

	ConstituentsFile string
	TagsFile         string

	Warnings []string
}

// WriteSummaryLog writes a run summary to a timestamped log file named with
// the run ID, and returns the path.
func (fm *FileManager) WriteSummaryLog(summary RunSummary) (string, error) {
	fileName := fmt.Sprintf("migration_%s_%s.txt",
		summary.StartTime.Format("20060102_150405"), summary.RunID)
	summaryPath := filepath.Join(fm.LogDir, fileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Patron to CueBox Migrator - Run Summary\n")
	fmt.Fprintf(writer, "================================================================================\n\n")
	fmt.Fprintf(writer, "Run Information:\n")
	fmt.Fprintf(writer, "  Run ID:     %s\n", summary.RunID)
	fmt.Fprintf(writer, "  Start Time: %s\n", summary.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "  Duration:   %s\n\n", summary.Duration.String())
	fmt.Fprintf(writer, "Statistics:\n")
	fmt.Fprintf(writer, "  Constituents Read:    %d\n", summary.ConstituentsRead)
	fmt.Fprintf(writer, "  Email Rows Read:      %d\n", summary.EmailRowsRead)
	fmt.Fprintf(writer, "  Donations Read:       %d\n", summary.DonationsRead)
	fmt.Fprintf(writer, "  Orphaned Donations:   %d\n", summary.OrphanedDonations)
	fmt.Fprintf(writer, "  Constituents Written: %d\n", summary.ConstituentsWritten)
	fmt.Fprintf(writer, "  Tags Written:         %d\n\n", summary.TagsWritten)

	if summary.ConstituentsFile != "" {
		fmt.Fprintf(writer, "Output Files:\n")
		fmt.Fprintf(writer, "  Constituents: %s\n", summary.ConstituentsFile)
		fmt.Fprintf(writer, "  Tags:         %s\n\n", summary.TagsFile)
	}

	if len(summary.Warnings) > 0 {
		fmt.Fprintf(writer, "Warnings:\n")
		fmt.Fprintf(writer, "--------------------------------------------------------------------------------\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
	}

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return out.Sync()
}

// FileExists checks whether a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
