// =============================================================================
// Patron to CueBox Migrator - Output Validation Module
// =============================================================================
//
// This module independently re-derives a subset of the migration's
// aggregates from the raw inputs and compares them against the produced
// output files. It runs after `migrator process`, against files on disk,
// and shares the core rule modules so the recomputation cannot drift from
// the transformation itself.
//
// CHECKS:
//   - Output row count equals input constituent row count
//   - Constituent identifiers are non-empty and unique, and match input order
//   - Lifetime donation amounts re-sum correctly (refunds excluded)
//   - Most recent donation date/amount match the recomputation
//   - Every non-empty output email is syntactically valid
//   - Person/Company classification matches the company-field rule
//   - Tag table counts match the tags actually carried by output rows
//
// =============================================================================

package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/config"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/donations"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/emails"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/tabular"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/tags"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/transform"
)

// maxDetails caps how many individual mismatches a check reports.
const maxDetails = 10

// CheckResult is the outcome of one validation check.
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	Details []string
}

// Validator re-derives aggregates from the input and output files.
type Validator struct {
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a validator bound to the given configuration.
func New(cfg *config.Config, logger *zap.Logger) *Validator {
	return &Validator{cfg: cfg, logger: logger}
}

// RunAll executes every check. The returned bool is true only when all
// checks passed. An error means the files themselves could not be read,
// which makes validation impossible rather than failed.
func (v *Validator) RunAll() ([]CheckResult, bool, error) {
	input, err := tabular.Read(v.cfg.Input.Constituents)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read input constituents: %w", err)
	}
	donationTable, err := tabular.Read(v.cfg.Input.Donations)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read input donations: %w", err)
	}
	output, err := tabular.Read(v.cfg.ConstituentsOutputPath())
	if err != nil {
		return nil, false, fmt.Errorf("failed to read constituent output: %w", err)
	}
	tagOutput, err := tabular.Read(v.cfg.TagsOutputPath())
	if err != nil {
		return nil, false, fmt.Errorf("failed to read tag output: %w", err)
	}

	// Re-group donations exactly as the transformation does: keyed by the
	// output identifiers so orphans fall away.
	validIDs := make(map[string]bool, len(output.Rows))
	for _, row := range output.Rows {
		validIDs[row[transform.OutID]] = true
	}
	donationIndex := donations.BuildIndex(donationTable.Rows, validIDs)

	results := []CheckResult{
		v.checkRowCount(input, output),
		v.checkIdentifiers(input, output),
		v.checkLifetimeAmounts(output, donationIndex),
		v.checkMostRecent(output, donationIndex),
		v.checkEmailFormats(output),
		v.checkTypes(input, output),
		v.checkTagCounts(output, tagOutput),
	}

	allPassed := true
	for _, res := range results {
		if !res.Passed {
			allPassed = false
			v.logger.Warn("validation check failed",
				zap.String("check", res.Name),
				zap.String("message", res.Message))
		}
	}
	return results, allPassed, nil
}

// =============================================================================
// INDIVIDUAL CHECKS
// =============================================================================

func (v *Validator) checkRowCount(input, output *tabular.Table) CheckResult {
	res := CheckResult{Name: "row count"}
	if input.RowCount() == output.RowCount() {
		res.Passed = true
		res.Message = fmt.Sprintf("row count matches: %d constituents", input.RowCount())
	} else {
		res.Message = fmt.Sprintf("row count mismatch: %d input vs %d output", input.RowCount(), output.RowCount())
	}
	return res
}

func (v *Validator) checkIdentifiers(input, output *tabular.Table) CheckResult {
	res := CheckResult{Name: "constituent identifiers", Passed: true}

	seen := make(map[string]bool, len(output.Rows))
	for i, row := range output.Rows {
		id := row[transform.OutID]
		if id == "" {
			res.Passed = false
			res.Details = appendDetail(res.Details, fmt.Sprintf("output row %d has an empty identifier", i+2))
			continue
		}
		if seen[id] {
			res.Passed = false
			res.Details = appendDetail(res.Details, fmt.Sprintf("duplicate identifier %s", id))
		}
		seen[id] = true

		if i < len(input.Rows) {
			inputID := strings.TrimSpace(input.Rows[i][transform.ColPatronID])
			if id != inputID {
				res.Passed = false
				res.Details = appendDetail(res.Details,
					fmt.Sprintf("row %d identifier %s does not match input %s", i+2, id, inputID))
			}
		}
	}

	if res.Passed {
		res.Message = fmt.Sprintf("%d identifiers unique and aligned with input", len(output.Rows))
	} else {
		res.Message = "identifier problems found"
	}
	return res
}

func (v *Validator) checkLifetimeAmounts(output *tabular.Table, ix *donations.Index) CheckResult {
	res := CheckResult{Name: "lifetime donation amounts", Passed: true}

	for _, row := range output.Rows {
		id := row[transform.OutID]
		expected := donations.Lifetime(ix.ForPatron(id))

		actual, ok := donations.ParseAmount(row[transform.OutLifetimeAmount])
		if !ok && row[transform.OutLifetimeAmount] != "" {
			res.Passed = false
			res.Details = appendDetail(res.Details,
				fmt.Sprintf("patron %s: unparseable lifetime amount %q", id, row[transform.OutLifetimeAmount]))
			continue
		}

		if math.Abs(expected-actual) > 0.005 {
			res.Passed = false
			res.Details = appendDetail(res.Details,
				fmt.Sprintf("patron %s: expected %s, found %s", id, donations.FormatAmount(expected), row[transform.OutLifetimeAmount]))
		}
	}

	if res.Passed {
		res.Message = "lifetime amounts re-sum correctly"
	} else {
		res.Message = "lifetime amount mismatches found"
	}
	return res
}

func (v *Validator) checkMostRecent(output *tabular.Table, ix *donations.Index) CheckResult {
	res := CheckResult{Name: "most recent donations", Passed: true}

	for _, row := range output.Rows {
		id := row[transform.OutID]
		recent, ok := donations.MostRecent(ix.ForPatron(id))

		gotDate := row[transform.OutRecentDate]
		gotAmount := row[transform.OutRecentAmount]

		if !ok {
			if gotDate != "" || gotAmount != "" {
				res.Passed = false
				res.Details = appendDetail(res.Details,
					fmt.Sprintf("patron %s: no qualifying donation but output has %q / %q", id, gotDate, gotAmount))
			}
			continue
		}

		if gotDate != strings.TrimSpace(recent.RawDate) || gotAmount != donations.FormatAmount(recent.Amount) {
			res.Passed = false
			res.Details = appendDetail(res.Details,
				fmt.Sprintf("patron %s: expected %s / %s, found %s / %s",
					id, strings.TrimSpace(recent.RawDate), donations.FormatAmount(recent.Amount), gotDate, gotAmount))
		}
	}

	if res.Passed {
		res.Message = "most recent donation facts match recomputation"
	} else {
		res.Message = "most recent donation mismatches found"
	}
	return res
}

func (v *Validator) checkEmailFormats(output *tabular.Table) CheckResult {
	res := CheckResult{Name: "email formats", Passed: true}

	for _, row := range output.Rows {
		for _, col := range []string{transform.OutEmail1, transform.OutEmail2} {
			email := row[col]
			if email != "" && !emails.IsValid(email) {
				res.Passed = false
				res.Details = appendDetail(res.Details,
					fmt.Sprintf("patron %s: invalid %s value %q", row[transform.OutID], col, email))
			}
		}
	}

	if res.Passed {
		res.Message = "all output emails are syntactically valid"
	} else {
		res.Message = "invalid output emails found"
	}
	return res
}

func (v *Validator) checkTypes(input, output *tabular.Table) CheckResult {
	res := CheckResult{Name: "constituent types", Passed: true}

	invalid := make(map[string]bool, len(v.cfg.InvalidCompanyValues))
	for _, val := range v.cfg.InvalidCompanyValues {
		invalid[strings.ToLower(strings.TrimSpace(val))] = true
	}

	for i, row := range output.Rows {
		if i >= len(input.Rows) {
			break
		}
		company := strings.TrimSpace(input.Rows[i][transform.ColCompany])

		expected := transform.TypeCompany
		if company == "" || invalid[strings.ToLower(company)] {
			expected = transform.TypePerson
		}

		if row[transform.OutType] != expected {
			res.Passed = false
			res.Details = appendDetail(res.Details,
				fmt.Sprintf("patron %s: company %q should classify as %s, found %s",
					row[transform.OutID], company, expected, row[transform.OutType]))
		}
	}

	if res.Passed {
		res.Message = "classification matches the company-field rule"
	} else {
		res.Message = "classification mismatches found"
	}
	return res
}

func (v *Validator) checkTagCounts(output, tagOutput *tabular.Table) CheckResult {
	res := CheckResult{Name: "tag counts", Passed: true}

	// Recount from the constituent output itself.
	expected := make(map[string]int)
	for _, row := range output.Rows {
		for _, tag := range splitOutputTags(row[transform.OutTags]) {
			expected[tag]++
		}
	}

	reported := make(map[string]int, len(tagOutput.Rows))
	for _, row := range tagOutput.Rows {
		name := row[tags.ColTagName]
		if _, dup := reported[name]; dup {
			res.Passed = false
			res.Details = appendDetail(res.Details, fmt.Sprintf("tag %q appears more than once in the tag table", name))
		}
		count, err := strconv.Atoi(row[tags.ColTagCount])
		if err != nil {
			res.Passed = false
			res.Details = appendDetail(res.Details, fmt.Sprintf("tag %q has non-numeric count %q", name, row[tags.ColTagCount]))
			continue
		}
		reported[name] = count
	}

	for name, count := range expected {
		if reported[name] != count {
			res.Passed = false
			res.Details = appendDetail(res.Details,
				fmt.Sprintf("tag %q: %d constituents carry it, tag table says %d", name, count, reported[name]))
		}
	}
	for name := range reported {
		if _, ok := expected[name]; !ok {
			res.Passed = false
			res.Details = appendDetail(res.Details, fmt.Sprintf("tag %q is in the tag table but no constituent carries it", name))
		}
	}

	if res.Passed {
		res.Message = fmt.Sprintf("%d tag counts correct", len(reported))
	} else {
		res.Message = "tag count mismatches found"
	}
	return res
}

// splitOutputTags splits the comma-joined tag cell back into tag names.
func splitOutputTags(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	var out []string
	for _, piece := range strings.Split(joined, ",") {
		if piece = strings.TrimSpace(piece); piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// appendDetail appends up to maxDetails entries, then a truncation marker.
func appendDetail(details []string, detail string) []string {
	if len(details) == maxDetails {
		return append(details, "further mismatches omitted")
	}
	if len(details) > maxDetails {
		return details
	}
	return append(details, detail)
}

// FormatReport renders the check results as a human-readable report.
func FormatReport(results []CheckResult) string {
	var b strings.Builder
	for _, res := range results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", status, res.Name, res.Message)
		for _, detail := range res.Details {
			fmt.Fprintf(&b, "       - %s\n", detail)
		}
	}
	return b.String()
}
