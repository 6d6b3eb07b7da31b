// =============================================================================
// Patron to CueBox Migrator - Tag Resolution Module
// =============================================================================
//
// Raw source tags arrive as one comma-delimited string per patron. This
// module splits and deduplicates them, resolves each through the mapping
// table, and counts how many patrons carry each canonical tag across the
// whole run.
//
// The resolver is a small capability interface with two implementations:
// one backed by the fetched mapping table and an identity variant used when
// the lookup fails. Callers never know which one is active.
//
// =============================================================================

package tags

import (
	"sort"
	"strconv"
	"strings"
)

// Mapping is the raw-name to canonical-name table from the mapping service.
// A missing key means no canonical mapping is known and the original name
// passes through unchanged.
type Mapping map[string]string

// Resolver resolves a raw tag name to its canonical form.
type Resolver interface {
	Resolve(name string) string
}

// mappedResolver resolves through a fetched mapping table.
type mappedResolver struct {
	mapping Mapping
}

func (r *mappedResolver) Resolve(name string) string {
	if mapped, ok := r.mapping[name]; ok {
		return mapped
	}
	return name
}

// identityResolver passes every tag through unchanged. It is selected when
// the mapping service cannot be reached.
type identityResolver struct{}

func (identityResolver) Resolve(name string) string { return name }

// NewResolver returns a resolver backed by a mapping table.
func NewResolver(m Mapping) Resolver {
	return &mappedResolver{mapping: m}
}

// IdentityResolver returns the pass-through resolver.
func IdentityResolver() Resolver {
	return identityResolver{}
}

// =============================================================================
// TAG PROCESSING
// =============================================================================

// Process splits a raw tag string on commas, trims each piece, drops empty
// pieces, deduplicates in first-seen order, resolves each tag, and
// deduplicates again since distinct raw tags can map to the same canonical
// name. The result preserves first-seen order.
func Process(raw string, resolver Resolver) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var split []string
	seen := make(map[string]bool)
	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" || seen[piece] {
			continue
		}
		seen[piece] = true
		split = append(split, piece)
	}

	var canonical []string
	seenCanonical := make(map[string]bool)
	for _, tag := range split {
		resolved := resolver.Resolve(tag)
		if seenCanonical[resolved] {
			continue
		}
		seenCanonical[resolved] = true
		canonical = append(canonical, resolved)
	}

	return canonical
}

// Join renders a canonical tag list in the output form.
func Join(tags []string) string {
	return strings.Join(tags, ", ")
}

// =============================================================================
// TAG COUNTING
// =============================================================================

// Output column names for the tag table.
const (
	ColTagName  = "CB Tag Name"
	ColTagCount = "CB Tag Count"
)

// TagColumns is the output column order for the tag table.
var TagColumns = []string{ColTagName, ColTagCount}

// Counter accumulates, across one run, how many constituents carry each
// canonical tag. It is fed once per constituent with that constituent's
// already-deduplicated tag list, so a tag can count at most once per
// constituent.
type Counter struct {
	counts map[string]int
}

// NewCounter creates an empty accumulator.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Add records one constituent's canonical tags.
func (c *Counter) Add(canonical []string) {
	for _, tag := range canonical {
		c.counts[tag]++
	}
}

// Count returns the accumulated count for a tag.
func (c *Counter) Count(tag string) int {
	return c.counts[tag]
}

// Len returns the number of distinct canonical tags observed.
func (c *Counter) Len() int {
	return len(c.counts)
}

// Rows renders the accumulator as output rows, sorted by tag name so the
// tag table is deterministic run to run.
func (c *Counter) Rows() []map[string]string {
	names := make([]string, 0, len(c.counts))
	for name := range c.counts {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]map[string]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, map[string]string{
			ColTagName:  name,
			ColTagCount: strconv.Itoa(c.counts[name]),
		})
	}
	return rows
}
