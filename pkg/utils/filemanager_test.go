package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManager(filepath.Join(dir, "archive"), filepath.Join(dir, "logs"))

	require.NoError(t, fm.EnsureDirectories())

	assert.DirExists(t, fm.InputArchiveDir)
	assert.DirExists(t, fm.LogDir)
}

func TestArchiveInputFileMovesIntoDatedSubdir(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManager(filepath.Join(dir, "archive"), filepath.Join(dir, "logs"))
	require.NoError(t, fm.EnsureDirectories())

	src := filepath.Join(dir, "InputConstituents.csv")
	require.NoError(t, os.WriteFile(src, []byte("Patron ID\n1\n"), 0644))

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)

	assert.NoFileExists(t, src)
	assert.FileExists(t, archived)
	assert.Equal(t, "InputConstituents.csv", filepath.Base(archived))

	// The dated subdirectory sits under the archive root.
	now := time.Now()
	rel, err := filepath.Rel(fm.InputArchiveDir, archived)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(
		fmt.Sprintf("%d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()),
		"InputConstituents.csv"), rel)
}

func TestArchiveInputFileDisabled(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManager("", filepath.Join(dir, "logs"))

	src := filepath.Join(dir, "InputEmails.csv")
	require.NoError(t, os.WriteFile(src, []byte("Email\n"), 0644))

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)

	assert.Equal(t, src, archived)
	assert.FileExists(t, src)
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	fm := NewFileManager("", dir)

	summary := RunSummary{
		RunID:               "run-1234",
		StartTime:           time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
		Duration:            2 * time.Second,
		ConstituentsRead:    3,
		EmailRowsRead:       2,
		DonationsRead:       5,
		OrphanedDonations:   1,
		ConstituentsWritten: 3,
		TagsWritten:         4,
		ConstituentsFile:    "/out/CueBoxConstituents.csv",
		TagsFile:            "/out/CueBoxTags.csv",
		Warnings:            []string{"1 donation(s) reference patrons missing from the constituent table"},
	}

	path, err := fm.WriteSummaryLog(summary)
	require.NoError(t, err)
	assert.Equal(t, "migration_20240601_093000_run-1234.txt", filepath.Base(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "Run ID:     run-1234")
	assert.Contains(t, text, "Constituents Written: 3")
	assert.Contains(t, text, "Orphaned Donations:   1")
	assert.Contains(t, text, "/out/CueBoxConstituents.csv")
	assert.Contains(t, text, "missing from the constituent table")
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	assert.True(t, FileExists(path))
	assert.False(t, FileExists(filepath.Join(dir, "absent.txt")))
}
