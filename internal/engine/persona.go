package engine

import "github.com/bobmcallan/advisor/internal/models"

// Fixed confidence reported for each persona bucket.
const (
	ConfidenceAggressive   = 0.75
	ConfidenceConservative = 0.70
	ConfidenceBalanced     = 0.65
)

// InferPersona scores trading activity, holding period and tenure into a
// risk persona. Missing inputs read as 0; note a zero holding period scores
// as short-term trading.
func InferPersona(p *models.Portfolio) (models.Persona, float64) {
	tenureDays := p.TenureDays()
	trades := p.TradesIn24()
	avgHold := p.AvgHoldDays()

	months := max(1.0, float64(tenureDays)/30.0)
	tradesPerMonth := float64(trades) / months

	score := 0
	switch {
	case tradesPerMonth >= 4:
		score += 2
	case tradesPerMonth >= 2:
		score++
	}

	switch {
	case avgHold <= 45:
		score += 2
	case avgHold <= 90:
		score++
	}

	switch {
	case tenureDays >= 1000:
		score -= 2
	case tenureDays >= 365:
		score--
	}

	switch {
	case score >= 2:
		return models.PersonaAggressive, ConfidenceAggressive
	case score <= -1:
		return models.PersonaConservative, ConfidenceConservative
	default:
		return models.PersonaBalanced, ConfidenceBalanced
	}
}
