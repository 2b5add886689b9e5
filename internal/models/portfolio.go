// Package models defines data structures for the advisor
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Portfolio is one client's denormalized portfolio snapshot.
// Every field except ClientID is optional; pointer fields are nil when the
// source value was missing or could not be coerced.
type Portfolio struct {
	ClientID           string `json:"clientid"`
	ClientAccProfileID string `json:"clientaccprofileid,omitempty"`
	ClientName         string `json:"clientnamee,omitempty"`

	MostTradedSector        string `json:"mosttradedsector,omitempty"`
	MostProfitableSector    string `json:"mostprofitablesector,omitempty"`
	MostTradedSectorStd     string `json:"mosttradedsector_std,omitempty"`
	MostProfitableSectorStd string `json:"mostprofitablesector_std,omitempty"`

	MostTradedSecurity         string `json:"mosttradedsecurity,omitempty"`
	MostProfitableSecurityName string `json:"mostprofitablesecurityname,omitempty"`

	TradesVolumeOfMostTradedSector   *float64 `json:"tradesvolumeofmosttradedsector,omitempty"`
	TotalTradesVolumeIn24            *float64 `json:"totaltradesvolumein24,omitempty"`
	NumberOfTradesInMostTradedSector *int64   `json:"numberoftradesinmosttradedsector,omitempty"`

	DaysAsClient    *int64 `json:"daysasclient,omitempty"`
	TotalTradesIn24 *int64 `json:"totaltradesin24,omitempty"`
	DurationHeld    *int64 `json:"durationheld,omitempty"`

	IntervalStart *time.Time `json:"interval_start,omitempty"`
	IntervalEnd   *time.Time `json:"interval_end,omitempty"`

	Age           *int64   `json:"age,omitempty"`
	NetROI        *float64 `json:"netroi,omitempty"`
	HasTrades2024 *bool    `json:"hastrades2024,omitempty"`
}

// Portfolio field keys, in the lower-case snake_case form produced by the
// portfolio loader.
const (
	FieldClientID                         = "clientid"
	FieldClientAccProfileID               = "clientaccprofileid"
	FieldClientName                       = "clientnamee"
	FieldMostTradedSector                 = "mosttradedsector"
	FieldMostProfitableSector             = "mostprofitablesector"
	FieldMostTradedSectorStd              = "mosttradedsector_std"
	FieldMostProfitableSectorStd          = "mostprofitablesector_std"
	FieldMostTradedSecurity               = "mosttradedsecurity"
	FieldMostProfitableSecurityName       = "mostprofitablesecurityname"
	FieldTradesVolumeOfMostTradedSector   = "tradesvolumeofmosttradedsector"
	FieldTotalTradesVolumeIn24            = "totaltradesvolumein24"
	FieldNumberOfTradesInMostTradedSector = "numberoftradesinmosttradedsector"
	FieldDaysAsClient                     = "daysasclient"
	FieldTotalTradesIn24                  = "totaltradesin24"
	FieldDurationHeld                     = "durationheld"
	FieldIntervalStart                    = "interval_start"
	FieldIntervalEnd                      = "interval_end"
	FieldAge                              = "age"
	FieldNetROI                           = "netroi"
	FieldHasTrades2024                    = "hastrades2024"
)

// NormalizeFieldName lower-cases a column or key name and replaces spaces and
// dashes with underscores.
func NormalizeFieldName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}

// PortfolioFromMap builds a Portfolio from a loosely typed record. Keys are
// normalized with NormalizeFieldName; values that cannot be coerced to the
// field's type are treated as absent.
func PortfolioFromMap(raw map[string]any) *Portfolio {
	m := make(map[string]any, len(raw))
	for k, v := range raw {
		m[NormalizeFieldName(k)] = v
	}

	p := &Portfolio{
		ClientID:                         coerceString(m[FieldClientID]),
		ClientAccProfileID:               coerceString(m[FieldClientAccProfileID]),
		ClientName:                       coerceString(m[FieldClientName]),
		MostTradedSector:                 coerceString(m[FieldMostTradedSector]),
		MostProfitableSector:             coerceString(m[FieldMostProfitableSector]),
		MostTradedSectorStd:              coerceString(m[FieldMostTradedSectorStd]),
		MostProfitableSectorStd:          coerceString(m[FieldMostProfitableSectorStd]),
		MostTradedSecurity:               coerceString(m[FieldMostTradedSecurity]),
		MostProfitableSecurityName:       coerceString(m[FieldMostProfitableSecurityName]),
		TradesVolumeOfMostTradedSector:   coerceFloat(m[FieldTradesVolumeOfMostTradedSector]),
		TotalTradesVolumeIn24:            coerceFloat(m[FieldTotalTradesVolumeIn24]),
		NumberOfTradesInMostTradedSector: coerceInt(m[FieldNumberOfTradesInMostTradedSector]),
		DaysAsClient:                     coerceInt(m[FieldDaysAsClient]),
		TotalTradesIn24:                  coerceInt(m[FieldTotalTradesIn24]),
		DurationHeld:                     coerceInt(m[FieldDurationHeld]),
		IntervalStart:                    coerceTime(m[FieldIntervalStart]),
		IntervalEnd:                      coerceTime(m[FieldIntervalEnd]),
		Age:                              coerceInt(m[FieldAge]),
		NetROI:                           coerceFloat(m[FieldNetROI]),
		HasTrades2024:                    coerceBool(m[FieldHasTrades2024]),
	}
	return p
}

// UnmarshalJSON decodes a portfolio leniently: the payload must be a JSON
// object, but individual values may be strings, numbers or null.
func (p *Portfolio) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: portfolio must be a JSON object: %v", ErrInvalidInput, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: portfolio must be a JSON object", ErrInvalidInput)
	}
	*p = *PortfolioFromMap(raw)
	return nil
}

// ParsePortfolioJSON decodes a single portfolio object.
func ParsePortfolioJSON(data []byte) (*Portfolio, error) {
	var p Portfolio
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return &p, nil
}

// --- Coalescing accessors. Each documents the default used when the field is absent. ---

// TenureDays returns daysasclient, defaulting to 0.
func (p *Portfolio) TenureDays() int64 { return intOr(p.DaysAsClient, 0) }

// TradesIn24 returns totaltradesin24, defaulting to 0.
func (p *Portfolio) TradesIn24() int64 { return intOr(p.TotalTradesIn24, 0) }

// AvgHoldDays returns durationheld, defaulting to 0.
func (p *Portfolio) AvgHoldDays() int64 { return intOr(p.DurationHeld, 0) }

// SectorVolume returns tradesvolumeofmosttradedsector, defaulting to 0.
func (p *Portfolio) SectorVolume() float64 { return floatOr(p.TradesVolumeOfMostTradedSector, 0) }

// TotalVolume returns totaltradesvolumein24, defaulting to 0.
func (p *Portfolio) TotalVolume() float64 { return floatOr(p.TotalTradesVolumeIn24, 0) }

// SectorTrades returns numberoftradesinmosttradedsector, defaulting to 0.
func (p *Portfolio) SectorTrades() int64 { return intOr(p.NumberOfTradesInMostTradedSector, 0) }

// MentionedSector returns the sector label shown to the user: most-traded,
// falling back to most-profitable, else empty.
func (p *Portfolio) MentionedSector() string {
	if p.MostTradedSector != "" {
		return p.MostTradedSector
	}
	return p.MostProfitableSector
}

// HeldSecurities returns the security names the client already trades heavily.
func (p *Portfolio) HeldSecurities() []string {
	var out []string
	for _, name := range []string{p.MostTradedSecurity, p.MostProfitableSecurityName} {
		if !IsMissingLabel(name) {
			out = append(out, name)
		}
	}
	return out
}

func intOr(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// IsMissingLabel reports whether a free-text label carries no information:
// blank or one of the placeholder spellings used by upstream exports.
func IsMissingLabel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "na", "n/a", "nan", "none", "null", "unknown":
		return true
	}
	return false
}
