package engine

import (
	"cmp"
	"slices"

	"github.com/bobmcallan/advisor/internal/models"
)

// ApplyFreshness applies the freshness policy to recommendations built from
// stale market data. It returns new values and leaves recs untouched.
func ApplyFreshness(recs []models.Recommendation, policy models.FreshnessPolicy) []models.Recommendation {
	out := make([]models.Recommendation, len(recs))
	for i, r := range recs {
		switch policy {
		case models.FreshnessDegrade:
			out[i] = r.WithFreshness(DegradeFactor)
		case models.FreshnessWarn:
			out[i] = r.WithFreshness(1)
		default:
			out[i] = r
		}
	}
	return out
}

// SortByPriority returns recs ordered by priority, highest first. Equal
// priorities keep their input order.
func SortByPriority(recs []models.Recommendation) []models.Recommendation {
	out := slices.Clone(recs)
	slices.SortStableFunc(out, func(a, b models.Recommendation) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return out
}

// Dedupe keeps the first recommendation for each security key. Items without
// a key are always kept.
func Dedupe(recs []models.Recommendation) []models.Recommendation {
	seen := make(map[string]struct{}, len(recs))
	out := make([]models.Recommendation, 0, len(recs))
	for _, r := range recs {
		key := r.SecurityKey()
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

// Truncate keeps the first maxItems recommendations; maxItems <= 0 keeps all.
func Truncate(recs []models.Recommendation, maxItems int) []models.Recommendation {
	if maxItems > 0 && len(recs) > maxItems {
		return recs[:maxItems]
	}
	return recs
}
