package engine

import (
	"time"

	"github.com/bobmcallan/advisor/internal/models"
)

var testNow = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

func f64(v float64) *float64 { return &v }

func i64(v int64) *int64 { return &v }

func quoteRow(name string, change float64, sectorLabel string) models.EquityQuote {
	return models.EquityQuote{Name: name, ChangePct: f64(change), Sector: sectorLabel}
}

func marketOf(rows ...models.EquityQuote) *models.MarketTable {
	return &models.MarketTable{Quotes: rows}
}

func newTestEngine() *Engine {
	return New(WithClock(func() time.Time { return testNow }))
}

func typesOf(recs []models.Recommendation) []models.RecommendationType {
	out := make([]models.RecommendationType, len(recs))
	for i, r := range recs {
		out[i] = r.Type
	}
	return out
}

func prepared(p *models.Portfolio, m *models.MarketTable) *input {
	return newTestEngine().prepare(p, m)
}
