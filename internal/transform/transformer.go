// =============================================================================
// Patron to CueBox Migrator - Constituent Transformation Module
// =============================================================================
//
// This module turns one raw constituent row into one CueBox output row.
// It owns the per-record rules: Person vs Company classification, name
// standardization, salutation-to-title mapping, background information
// composition, and the created-at fallback chain. Emails, tags, and
// donation aggregates are delegated to their own modules and assembled
// here.
//
// The transformation is strictly 1:1 - every input row produces exactly
// one output row, and the patron identifier is reused verbatim as the
// CueBox constituent identifier.
//
// KNOWN SOURCE MISLABELS:
//   The legacy export writes job-title text under a column named "Title"
//   and marital-status text under a column named "Gender". Both are read
//   under their literal header names and relabeled into the composed
//   Background Information string.
//
// =============================================================================

package transform

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/dates"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/donations"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/emails"
	"github.com/ginjaninja78/CSV-to-CueBox-conversion/internal/tags"
)

// =============================================================================
// COLUMN NAMES
// =============================================================================

// Input column names in the constituent export.
const (
	ColPatronID     = "Patron ID"
	ColFirstName    = "First Name"
	ColLastName     = "Last Name"
	ColDateEntered  = "Date Entered"
	ColPrimaryEmail = "Primary Email"
	ColCompany      = "Company"
	ColSalutation   = "Salutation"
	ColJobTitle     = "Title"  // mislabeled: holds job-title text
	ColMarital      = "Gender" // mislabeled: holds marital-status text
	ColTags         = "Tags"
)

// ColEmail is the address column in the secondary-email export.
const ColEmail = "Email"

// Output column names in the CueBox constituent file.
const (
	OutID             = "CB Constituent ID"
	OutType           = "CB Constituent Type"
	OutFirstName      = "CB First Name"
	OutLastName       = "CB Last Name"
	OutCompanyName    = "CB Company Name"
	OutCreatedAt      = "CB Created At"
	OutEmail1         = "CB Email 1 (Standardized)"
	OutEmail2         = "CB Email 2 (Standardized)"
	OutTitle          = "CB Title"
	OutTags           = "CB Tags"
	OutBackground     = "CB Background Information"
	OutLifetimeAmount = "CB Lifetime Donation Amount"
	OutRecentDate     = "CB Most Recent Donation Date"
	OutRecentAmount   = "CB Most Recent Donation Amount"
)

// ConstituentColumns is the output column order for the constituent file.
var ConstituentColumns = []string{
	OutID,
	OutType,
	OutFirstName,
	OutLastName,
	OutCompanyName,
	OutCreatedAt,
	OutEmail1,
	OutEmail2,
	OutTitle,
	OutTags,
	OutBackground,
	OutLifetimeAmount,
	OutRecentDate,
	OutRecentAmount,
}

// Constituent type values.
const (
	TypePerson  = "Person"
	TypeCompany = "Company"
)

// titleMapping is the closed salutation-to-title table. CueBox accepts only
// these four titles; every other salutation maps to the empty string and is
// never invented.
var titleMapping = map[string]string{
	"mr":  "Mr.",
	"mrs": "Mrs.",
	"ms":  "Ms.",
	"dr":  "Dr.",
}

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer assembles CueBox output rows from raw constituent rows and
// the pre-built per-run indices.
type Transformer struct {
	invalidCompany map[string]bool
	resolver       tags.Resolver
	counter        *tags.Counter
	donationIndex  *donations.Index
	emailsByPatron map[string][]string

	// now anchors the final created-at fallback so every record produced in
	// one run that reaches it gets the same timestamp.
	now time.Time
}

// NewTransformer creates a transformer for one run.
func NewTransformer(
	invalidCompanyValues []string,
	resolver tags.Resolver,
	counter *tags.Counter,
	donationIndex *donations.Index,
	emailsByPatron map[string][]string,
	now time.Time,
) *Transformer {
	invalid := make(map[string]bool, len(invalidCompanyValues))
	for _, v := range invalidCompanyValues {
		invalid[strings.ToLower(strings.TrimSpace(v))] = true
	}

	return &Transformer{
		invalidCompany: invalid,
		resolver:       resolver,
		counter:        counter,
		donationIndex:  donationIndex,
		emailsByPatron: emailsByPatron,
		now:            now,
	}
}

// Transform converts one constituent row into one output row. An empty
// patron identifier is a structural failure: the row cannot be keyed, so
// the whole run must abort rather than silently reindex.
func (t *Transformer) Transform(row map[string]string) (map[string]string, error) {
	patronID := strings.TrimSpace(row[ColPatronID])
	if patronID == "" {
		return nil, fmt.Errorf("constituent record has an empty %s", ColPatronID)
	}

	cbType, companyName := t.classify(row[ColCompany])

	firstName, lastName := "", ""
	if cbType == TypePerson {
		firstName = StandardizeName(row[ColFirstName])
		lastName = StandardizeName(row[ColLastName])
	}

	patronDonations := t.donationIndex.ForPatron(patronID)

	createdAt := t.createdAt(row[ColDateEntered], patronDonations)

	email1, email2 := emails.Select(row[ColPrimaryEmail], t.emailsByPatron[patronID])

	canonicalTags := tags.Process(row[ColTags], t.resolver)
	t.counter.Add(canonicalTags)

	out := map[string]string{
		OutID:             patronID,
		OutType:           cbType,
		OutFirstName:      firstName,
		OutLastName:       lastName,
		OutCompanyName:    companyName,
		OutCreatedAt:      createdAt,
		OutEmail1:         email1,
		OutEmail2:         email2,
		OutTitle:          MapTitle(row[ColSalutation]),
		OutTags:           tags.Join(canonicalTags),
		OutBackground:     BackgroundInformation(row[ColJobTitle], row[ColMarital]),
		OutLifetimeAmount: donations.FormatAmount(donations.Lifetime(patronDonations)),
		OutRecentDate:     "",
		OutRecentAmount:   "",
	}

	if recent, ok := donations.MostRecent(patronDonations); ok {
		out[OutRecentDate] = strings.TrimSpace(recent.RawDate)
		out[OutRecentAmount] = donations.FormatAmount(recent.Amount)
	}

	return out, nil
}

// classify determines Person vs Company from the raw company field. The
// trimmed value is compared case-insensitively against the configured
// invalid set; a match (or an empty value) means Person.
func (t *Transformer) classify(company string) (string, string) {
	company = strings.TrimSpace(company)
	if company == "" || t.invalidCompany[strings.ToLower(company)] {
		return TypePerson, ""
	}
	return TypeCompany, company
}

// createdAt applies the created-at fallback chain: the parsed Date Entered
// value, else the earliest qualifying donation date, else the run start
// time. The result is always rendered in ISO 8601.
func (t *Transformer) createdAt(dateEntered string, ds []donations.Donation) string {
	if parsed, ok := dates.Parse(dateEntered); ok {
		return dates.FormatISO(parsed)
	}
	if earliest, ok := donations.EarliestDate(ds); ok {
		return dates.FormatISO(earliest)
	}
	return dates.FormatISO(t.now)
}

// =============================================================================
// FIELD-LEVEL RULES
// =============================================================================

// StandardizeName capitalizes each whitespace-delimited token: first letter
// upper-cased, the rest lower-cased. Empty input passes through as empty.
func StandardizeName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}

	for i, word := range fields {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}

	return strings.Join(fields, " ")
}

// MapTitle maps a raw salutation to an allowed CueBox title. The salutation
// is trimmed, lowercased, and stripped of trailing periods before lookup;
// anything outside the closed table (including multi-token salutations like
// "Mr. and Mrs.") maps to the empty string.
func MapTitle(salutation string) string {
	key := strings.ToLower(strings.TrimSpace(salutation))
	key = strings.TrimRight(key, ".")
	return titleMapping[key]
}

// BackgroundInformation composes the background string from the relabeled
// job-title and marital-status columns. Only present values contribute a
// clause, so a single value produces no dangling separator.
func BackgroundInformation(jobTitle, maritalStatus string) string {
	var parts []string

	if v := strings.TrimSpace(jobTitle); v != "" {
		parts = append(parts, "Job Title: "+v)
	}
	if v := strings.TrimSpace(maritalStatus); v != "" {
		parts = append(parts, "Marital Status: "+v)
	}

	return strings.Join(parts, "; ")
}
