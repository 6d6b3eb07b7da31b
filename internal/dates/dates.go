// =============================================================================
// Patron to CueBox Migrator - Date Resolution Module
// =============================================================================
//
// The source system writes dates in several formats depending on which
// screen the record was entered through. This module parses those strings
// against a fixed preference list and renders the canonical ISO 8601 form
// CueBox expects.
//
// =============================================================================

package dates

import (
	"strings"
	"time"
)

// inputFormats is the ordered list of accepted source date layouts.
// Formats are tried in this exact order and the first successful parse wins.
var inputFormats = []string{
	"Jan 2, 2006",      // "Jan 19, 2020"
	"01/02/2006",       // "04/19/2022"
	"01/02/2006 15:04", // "12/07/2017 12:34"
	"2006-01-02",       // ISO format
}

// ISOLayout is the output timestamp layout. Midnight is assumed when the
// source value carried no time component.
const ISOLayout = "2006-01-02T15:04:05"

// Parse attempts to parse a source date string against the known formats in
// preference order. The second return value is false when the string is
// empty or matches none of the formats.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range inputFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// FormatISO renders a time in the canonical output form.
func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}
