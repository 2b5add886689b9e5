package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/bobmcallan/advisor/internal/models"
	"github.com/bobmcallan/advisor/internal/sector"
)

// Generator priorities.
const (
	PrioritySectorConcentration    = 0.90
	PriorityDiversification        = 0.75
	PriorityWithinProfitableSector = 0.70
	PriorityWithinPrimarySector    = 0.70
	PriorityTopMoverUp             = 0.65
	PriorityWatchlistDrop          = 0.50
)

// generator produces zero or more recommendations from the prepared input.
// Generators are independent and never see each other's output.
type generator func(in *input, th Thresholds) []models.Recommendation

// generators run in this order; the order only matters for ties in the
// priority sort.
var generators = []generator{
	sectorConcentration,
	diversification,
	withinProfitableSector,
	withinPrimarySector,
	moversSplit,
}

// quote is a market row that generators may consider: it has a name and a
// numeric day change.
type quote struct {
	name      string
	change    float64
	sectorStd string
}

// input is the per-call working copy shared by the generators.
type input struct {
	portfolio  *models.Portfolio
	quotes     []quote
	mentioned  string // user's sector label as they wrote it
	primary    string // bucket of most-traded, falling back to most-profitable
	profitable string // bucket of the pre-normalized most-profitable sector
}

func (e *Engine) prepare(p *models.Portfolio, m *models.MarketTable) *input {
	in := &input{
		portfolio:  p,
		mentioned:  p.MentionedSector(),
		primary:    e.primarySector(p),
		profitable: sector.Unknown,
	}
	if sector.IsKnown(p.MostProfitableSectorStd) {
		in.profitable = e.normalizer.Normalize(p.MostProfitableSectorStd)
	}

	if m == nil {
		return in
	}
	in.quotes = make([]quote, 0, len(m.Quotes))
	for _, q := range m.Quotes {
		name := strings.TrimSpace(q.Name)
		if models.IsMissingLabel(name) || q.ChangePct == nil {
			continue
		}
		std := sector.Unknown
		switch {
		case q.Sector != "":
			std = e.normalizer.Normalize(q.Sector)
		case q.SectorStd != "":
			std = e.normalizer.Normalize(q.SectorStd)
		}
		in.quotes = append(in.quotes, quote{name: name, change: *q.ChangePct, sectorStd: std})
	}
	return in
}

// primarySector prefers a pre-normalized most-traded sector, then the
// pre-normalized most-profitable one, then normalizes the mentioned label.
func (e *Engine) primarySector(p *models.Portfolio) string {
	for _, std := range []string{p.MostTradedSectorStd, p.MostProfitableSectorStd} {
		if sector.IsKnown(std) {
			return e.normalizer.Normalize(std)
		}
	}
	return e.normalizer.Normalize(p.MentionedSector())
}

// sectorConcentration warns when one sector dominates the client's volume.
func sectorConcentration(in *input, th Thresholds) []models.Recommendation {
	p := in.portfolio
	mentioned := p.MostTradedSector
	if models.IsMissingLabel(mentioned) {
		return nil
	}
	total := p.TotalVolume()
	if total <= 0 {
		return nil
	}
	share := p.SectorVolume() / total
	if share < th.Concentration {
		return nil
	}

	return []models.Recommendation{{
		Type:     models.RecommendationSectorConcentration,
		Priority: PrioritySectorConcentration,
		Message: fmt.Sprintf("%s accounts for %s of your 2024 trading volume; consider diversifying.",
			mentioned, formatPercent(share, 0)),
		Evidence: models.Evidence{
			"sector_mentioned": mentioned,
			"sector_share":     round(share, 4),
		},
	}}
}

// diversification suggests the strongest positive mover outside the client's
// primary sector.
func diversification(in *input, _ Thresholds) []models.Recommendation {
	candidates := filterQuotes(in.quotes, func(q quote) bool {
		if q.change <= 0 {
			return false
		}
		return !sector.IsKnown(in.primary) || q.sectorStd != in.primary
	})
	best, ok := topByChange(candidates)
	if !ok {
		return nil
	}

	prefix := ""
	if !models.IsMissingLabel(in.mentioned) {
		prefix = " outside " + in.mentioned
	}

	return []models.Recommendation{{
		Type:     models.RecommendationDiversification,
		Priority: PriorityDiversification,
		Message: fmt.Sprintf("Consider diversifying%s. Example: %s (+%s today).",
			prefix, best.name, formatPercent(best.change, 2)),
		Evidence: models.Evidence{
			models.EvidenceAltStock: best.name,
			"alt_sector_std":        best.sectorStd,
			"user_sector_mentioned": in.mentioned,
			"user_sector_std":       in.primary,
			"change_pct":            best.change,
		},
	}}
}

// withinProfitableSector surfaces the top mover in the client's most
// profitable sector. The top row is reported even when it is down on the day.
func withinProfitableSector(in *input, _ Thresholds) []models.Recommendation {
	if !sector.IsKnown(in.profitable) {
		return nil
	}
	best, ok := topByChange(filterQuotes(in.quotes, func(q quote) bool {
		return q.sectorStd == in.profitable
	}))
	if !ok {
		return nil
	}

	return []models.Recommendation{{
		Type:     models.RecommendationWithinProfitableSector,
		Priority: PriorityWithinProfitableSector,
		Message: fmt.Sprintf("In your profitable sector (%s), %s is %s today.",
			in.profitable, best.name, describeMove(best.change)),
		Evidence: models.Evidence{
			models.EvidenceStock: best.name,
			"sector_std":         in.profitable,
			"change_pct":         best.change,
		},
	}}
}

// withinPrimarySector surfaces the strongest positive mover in the client's
// primary sector.
func withinPrimarySector(in *input, _ Thresholds) []models.Recommendation {
	if !sector.IsKnown(in.primary) {
		return nil
	}
	best, ok := topByChange(filterQuotes(in.quotes, func(q quote) bool {
		return q.sectorStd == in.primary && q.change > 0
	}))
	if !ok {
		return nil
	}

	return []models.Recommendation{{
		Type:     models.RecommendationWithinPrimarySector,
		Priority: PriorityWithinPrimarySector,
		Message: fmt.Sprintf("Within your main sector (%s), %s is up %s today.",
			in.primary, best.name, formatPercent(best.change, 2)),
		Evidence: models.Evidence{
			models.EvidenceStock: best.name,
			"sector_std":         in.primary,
			"change_pct":         best.change,
		},
	}}
}

// moversSplit lists strong risers and sharp fallers across the whole market,
// skipping securities the client already trades heavily.
func moversSplit(in *input, th Thresholds) []models.Recommendation {
	exclude := make(map[string]struct{})
	for _, name := range in.portfolio.HeldSecurities() {
		exclude[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	eligible := filterQuotes(in.quotes, func(q quote) bool {
		_, held := exclude[strings.ToLower(q.name)]
		return !held
	})

	ups := filterQuotes(eligible, func(q quote) bool { return q.change >= th.MoverUp })
	slices.SortStableFunc(ups, func(a, b quote) int { return cmp.Compare(b.change, a.change) })
	ups = capQuotes(ups, th.MoverLimit)

	downs := filterQuotes(eligible, func(q quote) bool { return q.change <= -th.MoverDown })
	slices.SortStableFunc(downs, func(a, b quote) int { return cmp.Compare(a.change, b.change) })
	downs = capQuotes(downs, th.MoverLimit)

	recs := make([]models.Recommendation, 0, len(ups)+len(downs))
	for _, q := range ups {
		recs = append(recs, models.Recommendation{
			Type:     models.RecommendationTopMoverUp,
			Priority: PriorityTopMoverUp,
			Message:  fmt.Sprintf("%s up %s today.", q.name, formatPercent(q.change, 2)),
			Evidence: models.Evidence{models.EvidenceStock: q.name, "change_pct": q.change},
		})
	}
	for _, q := range downs {
		recs = append(recs, models.Recommendation{
			Type:     models.RecommendationWatchlistDrop,
			Priority: PriorityWatchlistDrop,
			Message:  fmt.Sprintf("%s down %s today; monitor risk.", q.name, formatPercent(-q.change, 2)),
			Evidence: models.Evidence{models.EvidenceStock: q.name, "change_pct": q.change},
		})
	}
	return recs
}

func filterQuotes(quotes []quote, keep func(quote) bool) []quote {
	var out []quote
	for _, q := range quotes {
		if keep(q) {
			out = append(out, q)
		}
	}
	return out
}

// topByChange returns the row with the largest change; the earliest row wins
// ties.
func topByChange(quotes []quote) (quote, bool) {
	if len(quotes) == 0 {
		return quote{}, false
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.change > best.change {
			best = q
		}
	}
	return best, true
}

func capQuotes(quotes []quote, limit int) []quote {
	if limit > 0 && len(quotes) > limit {
		return quotes[:limit]
	}
	return quotes
}

func describeMove(change float64) string {
	if change < 0 {
		return "down " + formatPercent(-change, 2)
	}
	return "up " + formatPercent(change, 2)
}
