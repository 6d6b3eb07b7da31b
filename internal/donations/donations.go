// =============================================================================
// Patron to CueBox Migrator - Donation Aggregation Module
// =============================================================================
//
// This module indexes the donation history export by patron and computes
// the per-patron aggregates CueBox imports: lifetime donation amount and
// the most recent donation. Refunded donations never count toward any
// aggregate, and donations referencing a patron that is missing from the
// constituent export are set aside as orphans and reported.
//
// PARSE FAILURES:
//   - An unparseable amount contributes zero to the lifetime sum
//   - An unparseable date excludes the record from date ordering only
//   Both are recorded as warnings on the index, never fatal.
//
// =============================================================================

package donations

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/dates"
)

// Input column names in the donation history export.
const (
	ColPatronID = "Patron ID"
	ColAmount   = "Donation Amount"
	ColDate     = "Donation Date"
	ColStatus   = "Status"
)

// StatusRefunded marks a donation that was returned to the donor.
// Refunded donations are excluded from every aggregate.
const StatusRefunded = "Refunded"

// Donation is one donation history record with its parsed fields.
type Donation struct {
	PatronID  string
	RawAmount string
	RawDate   string
	Status    string

	// Amount is the parsed amount; zero when AmountOK is false.
	Amount   float64
	AmountOK bool

	// Date is the parsed donation date; zero when DateOK is false.
	Date   time.Time
	DateOK bool
}

// Refunded reports whether this donation is excluded from aggregates.
func (d Donation) Refunded() bool {
	return d.Status == StatusRefunded
}

// =============================================================================
// AMOUNT PARSING AND FORMATTING
// =============================================================================

// ParseAmount parses a donation amount string, stripping currency
// formatting first. The second return value is false when the remainder is
// not numeric; callers treat that record's amount as zero.
func ParseAmount(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}

	cleaned := strings.NewReplacer("$", "", ",", "").Replace(s)
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.Trim(cleaned, `"'`)
	if cleaned == "" {
		return 0, false
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// FormatAmount renders an amount in the output currency form.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// =============================================================================
// DONATION INDEX
// =============================================================================

// Index holds the donation history grouped by patron, with orphaned
// records set aside and parse problems collected as warnings.
type Index struct {
	byPatron map[string][]Donation
	orphans  map[string][]Donation
	warnings []string
}

// BuildIndex groups donation rows by patron identifier. Rows whose patron
// is absent from validIDs are indexed separately as orphans. Amounts and
// dates are parsed once here; failures become warnings on the index.
func BuildIndex(rows []map[string]string, validIDs map[string]bool) *Index {
	ix := &Index{
		byPatron: make(map[string][]Donation),
		orphans:  make(map[string][]Donation),
	}

	for i, row := range rows {
		d := Donation{
			PatronID:  strings.TrimSpace(row[ColPatronID]),
			RawAmount: row[ColAmount],
			RawDate:   row[ColDate],
			Status:    strings.TrimSpace(row[ColStatus]),
		}
		if d.PatronID == "" {
			ix.warnings = append(ix.warnings, fmt.Sprintf("donation row %d has no patron identifier", i+1))
			continue
		}

		d.Amount, d.AmountOK = ParseAmount(d.RawAmount)
		if !d.AmountOK && d.RawAmount != "" {
			ix.warnings = append(ix.warnings,
				fmt.Sprintf("unparseable amount %q for patron %s, treated as zero", d.RawAmount, d.PatronID))
		}

		d.Date, d.DateOK = dates.Parse(d.RawDate)
		if !d.DateOK && strings.TrimSpace(d.RawDate) != "" {
			ix.warnings = append(ix.warnings,
				fmt.Sprintf("unparseable date %q for patron %s, excluded from date ordering", d.RawDate, d.PatronID))
		}

		if validIDs[d.PatronID] {
			ix.byPatron[d.PatronID] = append(ix.byPatron[d.PatronID], d)
		} else {
			ix.orphans[d.PatronID] = append(ix.orphans[d.PatronID], d)
		}
	}

	return ix
}

// ForPatron returns the donation records for one patron, in input order.
func (ix *Index) ForPatron(id string) []Donation {
	return ix.byPatron[id]
}

// OrphanIDs returns the patron identifiers that appear in the donation
// history but not in the constituent export, sorted for stable reporting.
func (ix *Index) OrphanIDs() []string {
	ids := make([]string, 0, len(ix.orphans))
	for id := range ix.orphans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OrphanCount returns the number of orphaned donation records.
func (ix *Index) OrphanCount() int {
	n := 0
	for _, ds := range ix.orphans {
		n += len(ds)
	}
	return n
}

// Warnings returns parse and structure warnings collected while indexing.
func (ix *Index) Warnings() []string {
	return ix.warnings
}

// =============================================================================
// AGGREGATES
// =============================================================================

// Qualifying filters out refunded donations.
func Qualifying(ds []Donation) []Donation {
	var out []Donation
	for _, d := range ds {
		if !d.Refunded() {
			out = append(out, d)
		}
	}
	return out
}

// Lifetime sums the qualifying donation amounts for one patron. Records
// with unparseable amounts contribute zero.
func Lifetime(ds []Donation) float64 {
	total := 0.0
	for _, d := range Qualifying(ds) {
		total += d.Amount
	}
	return total
}

// MostRecent returns the qualifying donation with the latest parsed date.
// Ties break to the first occurrence in input order, since the source data
// carries no secondary ordering key. Records with unparseable dates do not
// participate. The second return value is false when no record qualifies.
func MostRecent(ds []Donation) (Donation, bool) {
	var best Donation
	found := false
	for _, d := range Qualifying(ds) {
		if !d.DateOK {
			continue
		}
		if !found || d.Date.After(best.Date) {
			best = d
			found = true
		}
	}
	return best, found
}

// EarliestDate returns the minimum parsed date among one patron's
// qualifying donations. It feeds the created-at fallback chain and is the
// only consumer of the earliest date.
func EarliestDate(ds []Donation) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, d := range Qualifying(ds) {
		if !d.DateOK {
			continue
		}
		if !found || d.Date.Before(earliest) {
			earliest = d.Date
			found = true
		}
	}
	return earliest, found
}
