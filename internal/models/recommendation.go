package models

import (
	"fmt"
	"maps"
	"strings"
)

// RecommendationType identifies the generator that produced a recommendation.
type RecommendationType string

const (
	RecommendationDataQuality            RecommendationType = "data_quality"
	RecommendationSectorConcentration    RecommendationType = "sector_concentration"
	RecommendationDiversification        RecommendationType = "diversification"
	RecommendationWithinProfitableSector RecommendationType = "within_profitable_sector"
	RecommendationWithinPrimarySector    RecommendationType = "within_primary_sector"
	RecommendationTopMoverUp             RecommendationType = "top_mover_up"
	RecommendationWatchlistDrop          RecommendationType = "watchlist_drop"
)

// Evidence keys shared between generators and the dedup step.
const (
	EvidenceStock    = "stock"
	EvidenceAltStock = "alt_stock"
)

// Evidence holds generator-specific supporting facts. Treat it as read-only
// once the recommendation is built.
type Evidence map[string]any

// String returns the value under key when it is a string.
func (e Evidence) String(key string) (string, bool) {
	v, ok := e[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Recommendation is a single advisory item. It is a value: transformations
// such as the freshness policy return modified copies.
type Recommendation struct {
	Type     RecommendationType `json:"type"`
	Priority float64            `json:"priority"`
	Message  string             `json:"message"`
	Evidence Evidence           `json:"evidence"`
	Stale    bool               `json:"stale"`
}

// SecurityKey is the dedup key: the lower-cased, trimmed alt_stock, else
// stock, else empty. Items with an empty key never collide.
func (r Recommendation) SecurityKey() string {
	for _, key := range []string{EvidenceAltStock, EvidenceStock} {
		if s, ok := r.Evidence.String(key); ok {
			if k := strings.ToLower(strings.TrimSpace(s)); k != "" {
				return k
			}
		}
	}
	return ""
}

// WithFreshness returns a copy marked stale with its priority scaled by factor.
func (r Recommendation) WithFreshness(factor float64) Recommendation {
	out := r
	out.Evidence = maps.Clone(r.Evidence)
	out.Priority = r.Priority * factor
	out.Stale = true
	return out
}

// Persona is the inferred risk classification of a client.
type Persona string

const (
	PersonaConservative Persona = "Conservative"
	PersonaBalanced     Persona = "Balanced"
	PersonaAggressive   Persona = "Aggressive"
)

// FreshnessPolicy controls how stale market data affects recommendations.
type FreshnessPolicy string

const (
	FreshnessDegrade FreshnessPolicy = "degrade"
	FreshnessWarn    FreshnessPolicy = "warn"
	FreshnessOff     FreshnessPolicy = "off"
)

// ParseFreshnessPolicy accepts degrade, warn or off in any case.
func ParseFreshnessPolicy(s string) (FreshnessPolicy, error) {
	switch p := FreshnessPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FreshnessDegrade, FreshnessWarn, FreshnessOff:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown freshness policy %q (want degrade, warn or off)", ErrInvalidInput, s)
}

// EngineMeta records how a result was produced.
type EngineMeta struct {
	FreshnessPolicy   FreshnessPolicy `json:"freshness_policy"`
	StaleAfterMinutes int             `json:"stale_after_minutes"`
	DataTimestamp     string          `json:"data_timestamp"`
	MaxItems          *int            `json:"max_items"`
	IsStale           bool            `json:"is_stale"`
}

// EngineOutput is the envelope returned by the recommendation engine.
type EngineOutput struct {
	ClientID          string           `json:"client_id"`
	RiskPersona       Persona          `json:"risk_persona"`
	PersonaConfidence float64          `json:"persona_confidence"`
	Meta              EngineMeta       `json:"meta"`
	Recommendations   []Recommendation `json:"recommendations"`
}

// Advice pairs the engine output with its rendered prose.
type Advice struct {
	ClientID     string        `json:"client_id"`
	AdviceText   string        `json:"advice_text"`
	Renderer     string        `json:"renderer"`
	EngineOutput *EngineOutput `json:"engine_output"`
}
