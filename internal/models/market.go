package models

import (
	"encoding/json"
	"fmt"
)

// EquityQuote is one row of the market snapshot.
type EquityQuote struct {
	Name      string   `json:"name"`
	ChangePct *float64 `json:"change_pct,omitempty"` // fractional: 0.025 = +2.5%
	Sector    string   `json:"sector,omitempty"`
	SectorStd string   `json:"sector_std,omitempty"`
	Last      *float64 `json:"last,omitempty"`
	High      *float64 `json:"high,omitempty"`
	Low       *float64 `json:"low,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	Time      string   `json:"time,omitempty"`
}

// Market column keys after loader normalisation.
const (
	ColumnName      = "name"
	ColumnChangePct = "change_pct"
	ColumnSector    = "sector"
	ColumnSectorStd = "sector_std"
	ColumnLast      = "last"
	ColumnHigh      = "high"
	ColumnLow       = "low"
	ColumnVolume    = "volume"
	ColumnTime      = "time"
)

// QuoteFromMap builds a quote from a loosely typed row keyed by normalized
// column names.
func QuoteFromMap(row map[string]any) EquityQuote {
	return EquityQuote{
		Name:      coerceString(row[ColumnName]),
		ChangePct: ParseChangePct(row[ColumnChangePct]),
		Sector:    coerceString(row[ColumnSector]),
		SectorStd: coerceString(row[ColumnSectorStd]),
		Last:      coerceFloat(row[ColumnLast]),
		High:      coerceFloat(row[ColumnHigh]),
		Low:       coerceFloat(row[ColumnLow]),
		Volume:    coerceFloat(row[ColumnVolume]),
		Time:      coerceString(row[ColumnTime]),
	}
}

// UnmarshalJSON decodes a quote leniently; change_pct may be a fraction or a
// percent string.
func (q *EquityQuote) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: market row must be a JSON object: %v", ErrInvalidInput, err)
	}
	row := make(map[string]any, len(raw))
	for k, v := range raw {
		row[NormalizeFieldName(k)] = v
	}
	*q = QuoteFromMap(row)
	return nil
}

// MarketTable is a read-only snapshot of equity quotes, one per security.
// A nil table means the market snapshot is missing.
type MarketTable struct {
	Quotes []EquityQuote `json:"quotes"`
}

// Len returns the number of rows, tolerating a nil table.
func (m *MarketTable) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Quotes)
}

// ParseMarketJSON decodes a market table from a JSON array of rows. A JSON
// null yields a nil table; any other non-array payload is invalid input.
func ParseMarketJSON(data []byte) (*MarketTable, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: market must be a JSON array: %v", ErrInvalidInput, err)
	}
	if rows == nil {
		return nil, nil
	}
	table := &MarketTable{Quotes: make([]EquityQuote, 0, len(rows))}
	for i, raw := range rows {
		var q EquityQuote
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("market row %d: %w", i, err)
		}
		table.Quotes = append(table.Quotes, q)
	}
	return table, nil
}
