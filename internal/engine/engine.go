// Package engine turns a client portfolio snapshot and a market snapshot into
// a ranked, deduplicated list of recommendations plus a risk persona.
//
// The engine is a pure function of its inputs: it performs no I/O, keeps no
// state between calls and never mutates the market table it is given, so a
// single Engine may serve concurrent callers.
package engine

import (
	"fmt"
	"time"

	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/models"
	"github.com/bobmcallan/advisor/internal/sector"
)

// DegradeFactor scales priorities under the degrade freshness policy.
const DegradeFactor = 0.7

// DefaultStaleAfterMinutes is the staleness window used when none is configured.
const DefaultStaleAfterMinutes = 120

// Thresholds tunes the generators. Zero values are replaced by defaults.
type Thresholds struct {
	Concentration float64 `toml:"concentration" json:"concentration"` // sector share that triggers a concentration warning
	MoverUp       float64 `toml:"mover_up" json:"mover_up"`           // minimum day change for top_mover_up
	MoverDown     float64 `toml:"mover_down" json:"mover_down"`       // magnitude of the day drop for watchlist_drop
	MoverLimit    int     `toml:"mover_limit" json:"mover_limit"`     // cap per mover kind; negative disables the cap
}

// DefaultThresholds returns the standard generator thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Concentration: 0.60,
		MoverUp:       0.02,
		MoverDown:     0.03,
		MoverLimit:    5,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.Concentration <= 0 {
		t.Concentration = d.Concentration
	}
	if t.MoverUp <= 0 {
		t.MoverUp = d.MoverUp
	}
	if t.MoverDown <= 0 {
		t.MoverDown = d.MoverDown
	}
	if t.MoverLimit == 0 {
		t.MoverLimit = d.MoverLimit
	}
	return t
}

// Options are the per-call settings of Generate.
type Options struct {
	MaxItems          int                    // <= 0 means unbounded
	FreshnessPolicy   models.FreshnessPolicy // empty means degrade
	StaleAfterMinutes int                    // must be positive
	MarketAsOf        *time.Time             // nil means the evaluation instant
}

// DefaultOptions returns unbounded output, the degrade policy and a two hour
// staleness window.
func DefaultOptions() Options {
	return Options{
		FreshnessPolicy:   models.FreshnessDegrade,
		StaleAfterMinutes: DefaultStaleAfterMinutes,
	}
}

// Engine produces recommendations. Construct it with New.
type Engine struct {
	normalizer *sector.Normalizer
	thresholds Thresholds
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNormalizer replaces the default sector normalizer.
func WithNormalizer(n *sector.Normalizer) Option {
	return func(e *Engine) {
		if n != nil {
			e.normalizer = n
		}
	}
}

// WithThresholds overrides generator thresholds; zero fields keep defaults.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t.withDefaults()
	}
}

// WithClock sets the source of the evaluation instant.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an engine with the default normalizer, thresholds and clock.
func New(opts ...Option) *Engine {
	e := &Engine{
		normalizer: sector.Default(),
		thresholds: DefaultThresholds(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Normalizer returns the sector normalizer the engine compares with.
func (e *Engine) Normalizer() *sector.Normalizer {
	return e.normalizer
}

// Generate runs the full pipeline for one client. A nil market is treated as
// missing. Only caller contract violations return an error, always wrapping
// models.ErrInvalidInput.
func (e *Engine) Generate(p *models.Portfolio, m *models.MarketTable, opts Options) (*models.EngineOutput, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: portfolio is required", models.ErrInvalidInput)
	}
	policy := opts.FreshnessPolicy
	if policy == "" {
		policy = models.FreshnessDegrade
	}
	policy, err := models.ParseFreshnessPolicy(string(policy))
	if err != nil {
		return nil, err
	}
	if opts.StaleAfterMinutes <= 0 {
		return nil, fmt.Errorf("%w: stale_after_minutes must be positive, got %d", models.ErrInvalidInput, opts.StaleAfterMinutes)
	}

	persona, confidence := InferPersona(p)

	now := e.now().UTC()
	asof := now
	if opts.MarketAsOf != nil && !opts.MarketAsOf.IsZero() {
		asof = opts.MarketAsOf.UTC()
	}
	stale := common.IsStale(asof, now, time.Duration(opts.StaleAfterMinutes)*time.Minute)

	in := e.prepare(p, m)
	recs := CheckDataQuality(p)
	for _, gen := range generators {
		recs = append(recs, gen(in, e.thresholds)...)
	}

	if stale {
		recs = ApplyFreshness(recs, policy)
	}
	recs = SortByPriority(recs)
	recs = Dedupe(recs)
	recs = Truncate(recs, opts.MaxItems)

	meta := models.EngineMeta{
		FreshnessPolicy:   policy,
		StaleAfterMinutes: opts.StaleAfterMinutes,
		DataTimestamp:     asof.Format(time.RFC3339),
		IsStale:           stale,
	}
	if opts.MaxItems > 0 {
		maxItems := opts.MaxItems
		meta.MaxItems = &maxItems
	}

	return &models.EngineOutput{
		ClientID:          p.ClientID,
		RiskPersona:       persona,
		PersonaConfidence: round(confidence, 2),
		Meta:              meta,
		Recommendations:   recs,
	}, nil
}
