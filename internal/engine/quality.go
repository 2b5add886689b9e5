package engine

import "github.com/bobmcallan/advisor/internal/models"

// PriorityDataQuality is the fixed priority of the data quality advisory.
const PriorityDataQuality = 0.30

const (
	issueIntervalOrder = "interval_start occurs after interval_end"
	issueUnknownSector = "mosttradedsector is 'Unknown' while sector volume/trades exist"
	dataQualityMessage = "Some portfolio fields look inconsistent; verify sector/date mapping before acting."
)

// CheckDataQuality looks for internal inconsistencies in the record and
// returns at most one low-priority advisory. An interval-order problem on its
// own is not reported.
func CheckDataQuality(p *models.Portfolio) []models.Recommendation {
	var issues []string

	if p.IntervalStart != nil && p.IntervalEnd != nil && p.IntervalStart.After(*p.IntervalEnd) {
		issues = append(issues, issueIntervalOrder)
	}

	if models.IsMissingLabel(p.MostTradedSector) && (p.SectorVolume() > 0 || p.SectorTrades() > 0) {
		issues = append(issues, issueUnknownSector)
	}

	if len(issues) == 0 || (len(issues) == 1 && issues[0] == issueIntervalOrder) {
		return nil
	}

	return []models.Recommendation{{
		Type:     models.RecommendationDataQuality,
		Priority: PriorityDataQuality,
		Message:  dataQualityMessage,
		Evidence: models.Evidence{"issues": issues},
	}}
}
