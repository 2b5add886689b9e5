package loader

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/advisor/internal/models"
)

// marketColumns maps the display headers of quote exports to column keys.
// Keys are lower-cased.
var marketColumns = map[string]string{
	"name":     models.ColumnName,
	"last":     models.ColumnLast,
	"high":     models.ColumnHigh,
	"low":      models.ColumnLow,
	"chg. %":   models.ColumnChangePct,
	"change %": models.ColumnChangePct,
	"vol.":     models.ColumnVolume,
	"volume":   models.ColumnVolume,
	"time":     models.ColumnTime,
}

// marketColumn renames a market header. Spreadsheet index columns
// ("Unnamed: 0") are dropped.
func marketColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	if strings.HasPrefix(h, "unnamed") {
		return ""
	}
	if c, ok := marketColumns[h]; ok {
		return c
	}
	return models.NormalizeFieldName(h)
}

// Snapshot is a loaded market table together with when it was produced.
type Snapshot struct {
	Source string
	AsOf   time.Time // file modification time
	Table  *models.MarketTable
}

// LoadMarket reads a market snapshot. A missing file or a file without a name
// column is an error.
func (l *Loader) LoadMarket(path string) (*Snapshot, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, info, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := l.ReadMarket(f, format)
	if err != nil {
		return nil, fmt.Errorf("market file %s: %w", path, err)
	}

	l.logger.Info().
		Str("path", path).
		Int("quotes", table.Len()).
		Time("asof", info.ModTime()).
		Msg("Loaded market snapshot")

	return &Snapshot{Source: path, AsOf: info.ModTime().UTC(), Table: table}, nil
}

// ReadMarket decodes and cleans quote rows. Numeric cells may carry thousands
// separators or placeholder dashes; change_pct given as a percent string is
// converted to a fraction. Floats are rounded to four places and sector_std is
// derived from the sector label.
func (l *Loader) ReadMarket(r io.Reader, format Format) (*models.MarketTable, error) {
	t, err := readTable(r, format, marketColumn)
	if err != nil {
		return nil, err
	}
	if len(t.rows) > 0 && !t.has(models.ColumnName) {
		return nil, fmt.Errorf("%w: market data has no name column", models.ErrInvalidInput)
	}

	out := &models.MarketTable{Quotes: make([]models.EquityQuote, 0, len(t.rows))}
	for _, row := range t.rows {
		q := models.QuoteFromMap(row)
		if q.Sector == "" || models.IsMissingLabel(q.Sector) {
			if label, ok := l.marketSectors[nameKey(q.Name)]; ok {
				q.Sector = label
			}
		}
		if q.Sector != "" || q.SectorStd == "" {
			q.SectorStd = l.normalizer.Normalize(q.Sector)
		} else {
			q.SectorStd = l.normalizer.Normalize(q.SectorStd)
		}
		for _, v := range []*float64{q.ChangePct, q.Last, q.High, q.Low, q.Volume} {
			round4(v)
		}
		out.Quotes = append(out.Quotes, q)
	}
	return out, nil
}

func round4(v *float64) {
	if v == nil {
		return
	}
	*v = decimal.NewFromFloat(*v).Round(4).InexactFloat64()
}
