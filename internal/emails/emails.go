// =============================================================================
// Patron to CueBox Migrator - Email Standardization Module
// =============================================================================
//
// This module cleans up the email addresses attached to a patron and picks
// the two that CueBox imports. Each raw address is trimmed, lowercased, and
// run through a fixed domain-typo correction table before validation.
// Addresses that still fail validation are discarded, never errored on:
// a patron with zero usable emails simply imports with both slots empty.
//
// SELECTION RULES:
//   - Email 1 is the standardized primary when it is valid, otherwise the
//     first valid address in file order
//   - Email 2 is the next distinct valid address, if any
//
// =============================================================================

package emails

import (
	"regexp"
	"strings"
)

// domainCorrections fixes domain typos we see repeatedly in the source
// exports. Exact-match substitution only; anything else passes through.
var domainCorrections = map[string]string{
	"gmaill.com": "gmail.com",
	"hotmal.com": "hotmail.com",
	"yaho.com":   "yahoo.com",
	"gmal.com":   "gmail.com",
	"outlok.com": "outlook.com",
}

// emailPattern is the syntax check applied after standardization.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Standardize trims and lowercases an email address and applies the domain
// correction table. The local part and domain are split on the last "@".
func Standardize(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}

	if at := strings.LastIndex(email, "@"); at >= 0 {
		local, domain := email[:at], email[at+1:]
		if corrected, ok := domainCorrections[domain]; ok {
			email = local + "@" + corrected
		}
	}

	return email
}

// IsValid reports whether an email address is syntactically valid.
func IsValid(email string) bool {
	if email == "" {
		return false
	}
	return emailPattern.MatchString(email)
}

// ValidList standardizes a list of raw emails and returns the valid ones,
// deduplicated in first-seen order. Standardization lowercases every
// candidate, so the dedupe is effectively case-insensitive.
func ValidList(raw []string) []string {
	var valid []string
	seen := make(map[string]bool)

	for _, email := range raw {
		if email == "" {
			continue
		}

		standardized := Standardize(email)
		if standardized == "" || seen[standardized] {
			continue
		}
		if IsValid(standardized) {
			valid = append(valid, standardized)
			seen[standardized] = true
		}
	}

	return valid
}

// Select picks Email 1 and Email 2 for a patron from the primary address
// and the secondary-email export rows, in that order. Empty strings are
// returned for slots that cannot be filled.
func Select(primary string, secondaries []string) (string, string) {
	candidates := make([]string, 0, len(secondaries)+1)
	if primary != "" {
		candidates = append(candidates, primary)
	}
	candidates = append(candidates, secondaries...)

	valid := ValidList(candidates)
	if len(valid) == 0 {
		return "", ""
	}

	email1 := valid[0]
	if primary != "" {
		standardizedPrimary := Standardize(primary)
		for _, e := range valid {
			if e == standardizedPrimary {
				email1 = standardizedPrimary
				break
			}
		}
	}

	for _, e := range valid {
		if e != email1 {
			return email1, e
		}
	}

	return email1, ""
}
