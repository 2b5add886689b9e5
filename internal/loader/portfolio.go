package loader

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/models"
	"github.com/bobmcallan/advisor/internal/sector"
)

// PortfolioSet is the cleaned content of one portfolio export, in file order.
type PortfolioSet struct {
	Source  string
	ModTime time.Time
	Records []*models.Portfolio
}

// Len returns the number of client records.
func (s *PortfolioSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// IDs returns the client ids in file order.
func (s *PortfolioSet) IDs() []string {
	ids := make([]string, 0, s.Len())
	if s == nil {
		return ids
	}
	for _, p := range s.Records {
		ids = append(ids, p.ClientID)
	}
	return ids
}

// Find returns the first record for clientID. An empty id selects the first
// record in the file.
func (s *PortfolioSet) Find(clientID string) (*models.Portfolio, error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("%w: portfolio set is empty", models.ErrClientNotFound)
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return s.Records[0], nil
	}
	for _, p := range s.Records {
		if p.ClientID == clientID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", models.ErrClientNotFound, clientID)
}

// LoadPortfolios reads and cleans a portfolio export. The format follows the
// file extension.
func (l *Loader) LoadPortfolios(path string) (*PortfolioSet, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, info, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := l.ReadPortfolios(f, format)
	if err != nil {
		return nil, fmt.Errorf("portfolio file %s: %w", path, err)
	}

	if !common.IsFresh(info.ModTime(), common.FreshnessPortfolioFile) {
		l.logger.Warn().
			Str("path", path).
			Time("modified", info.ModTime()).
			Msg("Portfolio file is older than a day")
	}

	l.logger.Info().
		Str("path", path).
		Int("clients", len(records)).
		Msg("Loaded portfolios")

	return &PortfolioSet{Source: path, ModTime: info.ModTime(), Records: records}, nil
}

// ReadPortfolios decodes and cleans portfolio rows:
//   - header names are lower-cased with spaces and dashes as underscores
//   - rows without a clientid (or clientaccprofileid, when that column
//     exists) are dropped
//   - when hastrades2024 exists only rows where it is true are kept
//   - duplicate (clientid, clientaccprofileid) pairs keep the first row
//   - blank sector labels read as Unknown and *_std fields are derived when
//     the export does not carry them
func (l *Loader) ReadPortfolios(r io.Reader, format Format) ([]*models.Portfolio, error) {
	t, err := readTable(r, format, models.NormalizeFieldName)
	if err != nil {
		return nil, err
	}

	hasProfileID := t.has(models.FieldClientAccProfileID)
	hasActivity := t.has(models.FieldHasTrades2024)

	seen := make(map[string]struct{}, len(t.rows))
	records := make([]*models.Portfolio, 0, len(t.rows))
	dropped := 0
	for _, row := range t.rows {
		p := models.PortfolioFromMap(row)

		if models.IsMissingLabel(p.ClientID) || (hasProfileID && models.IsMissingLabel(p.ClientAccProfileID)) {
			dropped++
			continue
		}
		if hasActivity && (p.HasTrades2024 == nil || !*p.HasTrades2024) {
			dropped++
			continue
		}
		key := p.ClientID + "\x00" + p.ClientAccProfileID
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}

		l.fillSectors(p)
		records = append(records, p)
	}

	if dropped > 0 {
		l.logger.Debug().
			Int("kept", len(records)).
			Int("dropped", dropped).
			Msg("Dropped unusable portfolio rows")
	}
	return records, nil
}

func (l *Loader) fillSectors(p *models.Portfolio) {
	if models.IsMissingLabel(p.MostTradedSector) {
		p.MostTradedSector = sector.Unknown
	}
	if models.IsMissingLabel(p.MostProfitableSector) {
		p.MostProfitableSector = sector.Unknown
	}
	if p.MostTradedSectorStd == "" {
		p.MostTradedSectorStd = l.normalizer.Normalize(p.MostTradedSector)
	}
	if p.MostProfitableSectorStd == "" {
		p.MostProfitableSectorStd = l.normalizer.Normalize(p.MostProfitableSector)
	}
}
