// =============================================================================
// Patron to CueBox Migrator - Run Orchestration
// =============================================================================
//
// The Runner drives one complete migration: load the three raw exports,
// build the per-run indices, resolve the tag mapping once, transform every
// constituent, and write both output tables. Non-fatal conditions are
// collected as diagnostics on the Result instead of being raised as errors,
// so a caller can distinguish a degraded-but-complete run from a failed one.
//
// BATCH ATOMICITY:
//   Nothing is written until every constituent row has transformed cleanly.
//   A structural failure (missing input table, empty patron identifier)
//   aborts the run before any output file exists.
//
// =============================================================================

package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/donations"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/tabular"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/tags"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Diagnostic is one non-fatal condition observed during a run.
type Diagnostic struct {
	// Level is "warning" for every diagnostic today; the field exists so
	// the summary log stays stable if informational entries are added.
	Level string

	// Message describes the condition with enough detail for follow-up.
	Message string
}

// Stats summarizes one run.
type Stats struct {
	ConstituentsRead    int
	EmailRowsRead       int
	DonationsRead       int
	OrphanedDonations   int
	ConstituentsWritten int
	TagsWritten         int
}

// Result carries everything a run produced.
type Result struct {
	// RunID uniquely identifies this run in logs and summaries.
	RunID string

	Stats       Stats
	Diagnostics []Diagnostic

	// ConstituentsPath and TagsPath are the written output files.
	// Both are empty after a dry run.
	ConstituentsPath string
	TagsPath         string

	StartedAt time.Time
	Duration  time.Duration
}

// warn records a diagnostic and mirrors it to the logger.
func (r *Result) warn(logger *zap.Logger, message string) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Level: "warning", Message: message})
	logger.Warn(message)
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes one migration run.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger

	// FetchMapping performs the one-shot tag mapping lookup. Tests replace
	// it; NewRunner wires it to the HTTP client.
	FetchMapping func() (tags.Mapping, error)

	// Now anchors the created-at fallback and run timing.
	Now func() time.Time
}

// NewRunner creates a runner bound to the given configuration.
func NewRunner(cfg *config.Config, logger *zap.Logger) *Runner {
	client := tags.NewClient(cfg.TagAPI.URL, time.Duration(cfg.TagAPI.TimeoutSeconds)*time.Second)
	return &Runner{
		cfg:          cfg,
		logger:       logger,
		FetchMapping: client.FetchMapping,
		Now:          time.Now,
	}
}

// Run executes the full pipeline. When dryRun is true the transformation
// runs end to end but no output file is written.
func (r *Runner) Run(dryRun bool) (*Result, error) {
	start := r.Now()
	result := &Result{
		RunID:     uuid.New().String(),
		StartedAt: start,
	}

	// =========================================================================
	// STEP 1: LOAD INPUT TABLES
	// =========================================================================

	r.logger.Info("loading input tables",
		zap.String("constituents", r.cfg.Input.Constituents),
		zap.String("emails", r.cfg.Input.Emails),
		zap.String("donations", r.cfg.Input.Donations))

	constituentTable, err := tabular.Read(r.cfg.Input.Constituents)
	if err != nil {
		return nil, fmt.Errorf("failed to load constituent table: %w", err)
	}
	emailTable, err := tabular.Read(r.cfg.Input.Emails)
	if err != nil {
		return nil, fmt.Errorf("failed to load email table: %w", err)
	}
	donationTable, err := tabular.Read(r.cfg.Input.Donations)
	if err != nil {
		return nil, fmt.Errorf("failed to load donation table: %w", err)
	}

	result.Stats.ConstituentsRead = constituentTable.RowCount()
	result.Stats.EmailRowsRead = emailTable.RowCount()
	result.Stats.DonationsRead = donationTable.RowCount()

	// =========================================================================
	// STEP 2: BUILD PER-RUN INDICES
	// =========================================================================

	// The valid identifier set doubles as the structural check: a
	// constituent without an identifier cannot be keyed, so abort before
	// any downstream work.
	validIDs := make(map[string]bool, constituentTable.RowCount())
	for i, row := range constituentTable.Rows {
		id := strings.TrimSpace(row[ColPatronID])
		if id == "" {
			return nil, fmt.Errorf("constituent row %d has an empty %s", i+2, ColPatronID)
		}
		validIDs[id] = true
	}

	emailsByPatron := groupEmails(emailTable.Rows)

	donationIndex := donations.BuildIndex(donationTable.Rows, validIDs)
	for _, w := range donationIndex.Warnings() {
		result.warn(r.logger, w)
	}
	if orphans := donationIndex.OrphanIDs(); len(orphans) > 0 {
		result.Stats.OrphanedDonations = donationIndex.OrphanCount()
		result.warn(r.logger, fmt.Sprintf(
			"%d donation(s) reference %d patron(s) missing from the constituent table, excluded from aggregates: %s",
			donationIndex.OrphanCount(), len(orphans), strings.Join(orphans, ", ")))
	}

	// =========================================================================
	// STEP 3: RESOLVE THE TAG MAPPING (ONCE)
	// =========================================================================

	resolver := tags.IdentityResolver()
	mapping, err := r.FetchMapping()
	if err != nil {
		result.warn(r.logger, fmt.Sprintf("tag mapping lookup failed, tags pass through unchanged: %v", err))
	} else {
		r.logger.Info("fetched tag mapping", zap.Int("entries", len(mapping)))
		resolver = tags.NewResolver(mapping)
	}

	// =========================================================================
	// STEP 4: TRANSFORM CONSTITUENTS
	// =========================================================================

	counter := tags.NewCounter()
	transformer := NewTransformer(
		r.cfg.InvalidCompanyValues,
		resolver,
		counter,
		donationIndex,
		emailsByPatron,
		start,
	)

	outputRows := make([]map[string]string, 0, constituentTable.RowCount())
	for i, row := range constituentTable.Rows {
		outputRow, err := transformer.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("constituent row %d: %w", i+2, err)
		}
		outputRows = append(outputRows, outputRow)
	}

	tagRows := counter.Rows()

	result.Stats.ConstituentsWritten = len(outputRows)
	result.Stats.TagsWritten = len(tagRows)

	// =========================================================================
	// STEP 5: WRITE OUTPUT TABLES
	// =========================================================================

	if dryRun {
		r.logger.Info("dry run, skipping output",
			zap.Int("constituents", len(outputRows)),
			zap.Int("tags", len(tagRows)))
	} else {
		constituentsPath := r.cfg.ConstituentsOutputPath()
		if err := tabular.Write(constituentsPath, ConstituentColumns, outputRows); err != nil {
			return nil, fmt.Errorf("failed to write constituent output: %w", err)
		}
		result.ConstituentsPath = constituentsPath

		tagsPath := r.cfg.TagsOutputPath()
		if err := tabular.Write(tagsPath, tags.TagColumns, tagRows); err != nil {
			return nil, fmt.Errorf("failed to write tag output: %w", err)
		}
		result.TagsPath = tagsPath

		r.logger.Info("wrote output tables",
			zap.String("constituents", constituentsPath),
			zap.Int("constituent_rows", len(outputRows)),
			zap.String("tags", tagsPath),
			zap.Int("tag_rows", len(tagRows)))
	}

	result.Duration = time.Since(start)
	return result, nil
}

// groupEmails indexes the secondary-email export by patron, preserving file
// order within each patron. Rows without a patron identifier are skipped;
// the email table is a satellite of the constituent table and cannot be
// keyed without one.
func groupEmails(rows []map[string]string) map[string][]string {
	byPatron := make(map[string][]string)
	for _, row := range rows {
		id := strings.TrimSpace(row[ColPatronID])
		if id == "" {
			continue
		}
		byPatron[id] = append(byPatron[id], row[ColEmail])
	}
	return byPatron
}
