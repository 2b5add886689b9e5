package models

import (
	"strings"
	"time"
)

// Renderer names accepted in RecommendRequest.Renderer.
const (
	RendererTemplate = "template"
	RendererLLM      = "llm"
)

// RecommendRequest is the input to the recommendation service, shared by the
// REST API, the MCP tools and the CLI.
//
// Portfolio, when set, is used as-is; otherwise the record for ClientID (or
// the first record) is read from the configured portfolio file. A nil Market
// means the configured market file; an empty, non-nil Market is an empty
// snapshot. Nil numeric options fall back to configuration.
type RecommendRequest struct {
	ClientID          string        `json:"client_id,omitempty" validate:"max=128"`
	Portfolio         *Portfolio    `json:"portfolio,omitempty"`
	Market            []EquityQuote `json:"market,omitempty" validate:"max=10000"`
	MaxItems          *int          `json:"max_items,omitempty" validate:"omitempty,min=0,max=1000"`
	FreshnessPolicy   string        `json:"freshness_policy,omitempty" validate:"omitempty,oneof=degrade warn off"`
	StaleAfterMinutes *int          `json:"stale_after_minutes,omitempty" validate:"omitempty,min=1"`
	MarketAsOf        *time.Time    `json:"market_asof,omitempty"`
	Renderer          string        `json:"renderer,omitempty" validate:"omitempty,oneof=template llm"`
}

// Normalize trims and lower-cases the enumerated string fields in place.
func (r *RecommendRequest) Normalize() {
	r.ClientID = strings.TrimSpace(r.ClientID)
	r.FreshnessPolicy = strings.ToLower(strings.TrimSpace(r.FreshnessPolicy))
	r.Renderer = strings.ToLower(strings.TrimSpace(r.Renderer))
}
