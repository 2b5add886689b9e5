// Package sector maps free-text sector labels onto a fixed bucket taxonomy.
package sector

import (
	"maps"
	"slices"
	"strings"
)

// Canonical bucket names.
const (
	Financials            = "Financials"
	Materials             = "Materials"
	Industrials           = "Industrials"
	ConsumerDiscretionary = "Consumer Discretionary"
	ConsumerStaples       = "Consumer Staples"
	Energy                = "Energy"
	Healthcare            = "Healthcare"
	Technology            = "Technology"
	RealEstate            = "Real Estate"
	Telecommunications    = "Telecommunications"
	Utilities             = "Utilities"

	// Unknown is the single sentinel for unrecognised or blank labels.
	Unknown = "Unknown"
)

// Buckets lists the canonical buckets in display order.
var Buckets = []string{
	Financials, Materials, Industrials, ConsumerDiscretionary, ConsumerStaples,
	Energy, Healthcare, Technology, RealEstate, Telecommunications, Utilities,
}

// defaultSynonyms keys are already in normalized form (see Key).
var defaultSynonyms = map[string]string{
	"banking":              Financials,
	"financials":           Financials,
	"financial services":   Financials,
	"investment":           Financials,
	"jordan securities":    Financials,
	"pakistani securities": Financials,
	"kenian securities":    Financials,

	"basic materials": Materials,
	"materials":       Materials,

	"industrial":  Industrials,
	"industrials": Industrials,
	"industries":  Industrials,
	"services":    Industrials,
	"others":      Industrials,

	"consumer discretionary": ConsumerDiscretionary,
	"consumer services":      ConsumerDiscretionary,
	"tourism":                ConsumerDiscretionary,
	"trade":                  ConsumerDiscretionary,

	"consumer staples": ConsumerStaples,
	"food":             ConsumerStaples,

	"energy": Energy,

	"health care": Healthcare,
	"healthcare":  Healthcare,

	"technology":             Technology,
	"information technology": Technology,

	"real estate": RealEstate,
	"realestate":  RealEstate,

	"telecommunication services": Telecommunications,
	"telecommunications":         Telecommunications,

	"utilities": Utilities,
	"utility":   Utilities,
}

// DefaultTable returns a copy of the built-in synonym table.
func DefaultTable() map[string]string {
	return maps.Clone(defaultSynonyms)
}

// Normalizer resolves labels against an immutable synonym table. It is safe
// for concurrent use.
type Normalizer struct {
	table    map[string]string
	fallback string
}

// New builds a normalizer from a synonym table. Keys are normalized with Key
// so callers may pass display-form labels. An empty fallback means Unknown.
func New(table map[string]string, fallback string) *Normalizer {
	if fallback == "" {
		fallback = Unknown
	}
	t := make(map[string]string, len(table))
	for k, v := range table {
		t[Key(k)] = v
	}
	return &Normalizer{table: t, fallback: fallback}
}

var defaultNormalizer = New(defaultSynonyms, Unknown)

// Default returns the shared normalizer over the built-in table.
func Default() *Normalizer {
	return defaultNormalizer
}

// WithOverrides returns a new normalizer whose table is this one's plus
// extra, with extra winning on conflicts.
func (n *Normalizer) WithOverrides(extra map[string]string) *Normalizer {
	merged := maps.Clone(n.table)
	for k, v := range extra {
		merged[Key(k)] = v
	}
	return &Normalizer{table: merged, fallback: n.fallback}
}

// Key lower-cases, trims, rewrites "&" as "and" and collapses whitespace.
func Key(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.ReplaceAll(s, "&", "and")
	return strings.Join(strings.Fields(s), " ")
}

// Normalize maps a label to its bucket, or the fallback when unrecognised.
func (n *Normalizer) Normalize(label string) string {
	if b, ok := n.table[Key(label)]; ok {
		return b
	}
	return n.fallback
}

// Fallback returns the sentinel used for unrecognised labels.
func (n *Normalizer) Fallback() string {
	return n.fallback
}

// Synonyms returns the table's keys sorted, for listing.
func (n *Normalizer) Synonyms() []string {
	return slices.Sorted(maps.Keys(n.table))
}

// IsKnown reports whether bucket is a resolved bucket rather than a sentinel
// or placeholder.
func IsKnown(bucket string) bool {
	switch strings.ToLower(strings.TrimSpace(bucket)) {
	case "", "na", "n/a", "nan", "none", "null", "unknown", "others":
		return false
	}
	return true
}
