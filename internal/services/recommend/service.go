// Package recommend wires the loaders, the engine and the advice renderers
// into the recommendation service shared by the REST API, MCP and the CLI.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bobmcallan/advisor/internal/advice"
	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/engine"
	"github.com/bobmcallan/advisor/internal/interfaces"
	"github.com/bobmcallan/advisor/internal/loader"
	"github.com/bobmcallan/advisor/internal/models"
)

// Service implements interfaces.RecommendationService.
type Service struct {
	config   *common.Config
	engine   *engine.Engine
	loader   *loader.Loader
	template interfaces.AdviceRenderer
	llm      interfaces.AdviceRenderer
	validate *validator.Validate
	metrics  *Metrics
	logger   *common.Logger

	mu         sync.RWMutex
	portfolios *fileEntry[*loader.PortfolioSet]
	market     *fileEntry[*loader.Snapshot]
}

// fileEntry caches a parsed data file until its modification time or size
// changes.
type fileEntry[T any] struct {
	path    string
	modTime time.Time
	size    int64
	value   T
}

func (e *fileEntry[T]) matches(path string, info os.FileInfo) bool {
	return e != nil && e.path == path && e.modTime.Equal(info.ModTime()) && e.size == info.Size()
}

// Option configures a Service.
type Option func(*Service)

// WithLLMRenderer enables the "llm" renderer. A nil renderer leaves only the
// template.
func WithLLMRenderer(r interfaces.AdviceRenderer) Option {
	return func(s *Service) {
		s.llm = r
	}
}

// WithMetrics records request metrics. Without it the service is unmetered.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates the service. config supplies defaults and data paths;
// eng and ld may be nil to use the defaults.
func NewService(config *common.Config, eng *engine.Engine, ld *loader.Loader, opts ...Option) *Service {
	if config == nil {
		config = common.NewDefaultConfig()
	}
	if eng == nil {
		eng = engine.New()
	}
	if ld == nil {
		ld = loader.New()
	}
	s := &Service{
		config:   config,
		engine:   eng,
		loader:   ld,
		template: advice.TemplateRenderer{},
		validate: validator.New(),
		logger:   common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend runs the engine for one client.
func (s *Service) Recommend(ctx context.Context, req models.RecommendRequest) (*models.EngineOutput, error) {
	_, out, err := s.run(ctx, "recommend", req)
	return out, err
}

// Advise runs the engine and renders the result. An empty renderer prefers
// the LLM when one is configured; a failed LLM call falls back to the
// template, which Advice.Renderer then reports.
func (s *Service) Advise(ctx context.Context, req models.RecommendRequest) (*models.Advice, error) {
	p, out, err := s.run(ctx, "advise", req)
	if err != nil {
		return nil, err
	}

	renderer := s.rendererFor(req.Renderer)
	adv, err := renderer.Render(ctx, p, out)
	if err != nil {
		return nil, fmt.Errorf("failed to render advice: %w", err)
	}

	if s.metrics != nil {
		s.metrics.Advice.WithLabelValues(adv.Renderer).Inc()
	}
	s.logger.Info().
		Str("correlation_id", common.CorrelationID(ctx)).
		Str("client_id", adv.ClientID).
		Str("renderer", adv.Renderer).
		Int("chars", len(adv.AdviceText)).
		Msg("Advice rendered")

	return adv, nil
}

// Clients lists the client ids in the configured portfolio file.
func (s *Service) Clients(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set, err := s.loadPortfolios(s.config.Data.PortfolioPath)
	if err != nil {
		return nil, err
	}
	return set.IDs(), nil
}

// NormalizeSector maps a free-text label onto a sector bucket.
func (s *Service) NormalizeSector(label string) string {
	return s.engine.Normalizer().Normalize(label)
}

// HasLLM reports whether the "llm" renderer is available.
func (s *Service) HasLLM() bool {
	return s.llm != nil
}

func (s *Service) rendererFor(name string) interfaces.AdviceRenderer {
	switch name {
	case models.RendererTemplate:
		return s.template
	case models.RendererLLM:
		if s.llm == nil {
			s.logger.Warn().Msg("LLM renderer requested but not configured, using template")
			return s.template
		}
		return s.llm
	}
	if s.llm != nil {
		return s.llm
	}
	return s.template
}

func (s *Service) run(ctx context.Context, op string, req models.RecommendRequest) (*models.Portfolio, *models.EngineOutput, error) {
	p, out, err := s.generate(ctx, req)
	if s.metrics != nil {
		s.metrics.Requests.WithLabelValues(op, outcome(err)).Inc()
	}
	if err != nil {
		s.logger.Warn().
			Str("correlation_id", common.CorrelationID(ctx)).
			Str("operation", op).
			Str("client_id", req.ClientID).
			Err(err).
			Msg("Recommendation request failed")
		return nil, nil, err
	}
	return p, out, nil
}

func (s *Service) generate(ctx context.Context, req models.RecommendRequest) (*models.Portfolio, *models.EngineOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	req.Normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	p, err := s.resolvePortfolio(req)
	if err != nil {
		return nil, nil, err
	}
	market, asof, err := s.resolveMarket(req)
	if err != nil {
		return nil, nil, err
	}
	opts := s.options(req, asof)

	start := time.Now()
	out, err := s.engine.Generate(p, market, opts)
	elapsed := time.Since(start)
	if err != nil {
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.Duration.Observe(elapsed.Seconds())
		s.metrics.Items.Observe(float64(len(out.Recommendations)))
		for _, r := range out.Recommendations {
			s.metrics.Recommended.WithLabelValues(string(r.Type)).Inc()
		}
		if out.Meta.IsStale {
			s.metrics.StaleResults.WithLabelValues(string(out.Meta.FreshnessPolicy)).Inc()
		}
	}

	s.logger.Info().
		Str("correlation_id", common.CorrelationID(ctx)).
		Str("client_id", out.ClientID).
		Str("persona", string(out.RiskPersona)).
		Int("items", len(out.Recommendations)).
		Int("quotes", market.Len()).
		Bool("stale", out.Meta.IsStale).
		Dur("elapsed", elapsed).
		Msg("Recommendations generated")

	return p, out, nil
}

func (s *Service) resolvePortfolio(req models.RecommendRequest) (*models.Portfolio, error) {
	if req.Portfolio != nil {
		if req.ClientID != "" && req.Portfolio.ClientID == "" {
			p := *req.Portfolio
			p.ClientID = req.ClientID
			return &p, nil
		}
		return req.Portfolio, nil
	}

	path := s.config.Data.PortfolioPath
	if path == "" {
		return nil, fmt.Errorf("%w: no portfolio given and no portfolio file configured", models.ErrInvalidInput)
	}
	set, err := s.loadPortfolios(path)
	if err != nil {
		return nil, err
	}
	return set.Find(req.ClientID)
}

// resolveMarket returns the market table and, for file snapshots with
// data.use_file_timestamp set, the file time as the snapshot instant. A
// missing market file degrades to a missing snapshot.
func (s *Service) resolveMarket(req models.RecommendRequest) (*models.MarketTable, *time.Time, error) {
	asof := req.MarketAsOf
	if req.Market != nil {
		return &models.MarketTable{Quotes: req.Market}, asof, nil
	}

	path := s.config.Data.MarketPath
	if path == "" {
		return nil, asof, nil
	}
	snap, err := s.loadMarket(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn().Str("path", path).Msg("Market file not found, continuing without market data")
		return nil, asof, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if asof == nil && s.config.Data.UseFileTimestamp {
		t := snap.AsOf
		asof = &t
	}
	return snap.Table, asof, nil
}

func (s *Service) options(req models.RecommendRequest, asof *time.Time) engine.Options {
	cfg := s.config.Engine
	opts := engine.Options{
		MaxItems:          cfg.MaxItems,
		FreshnessPolicy:   models.FreshnessPolicy(cfg.FreshnessPolicy),
		StaleAfterMinutes: cfg.StaleAfterMinutes,
		MarketAsOf:        asof,
	}
	if req.MaxItems != nil {
		opts.MaxItems = *req.MaxItems
	}
	if req.FreshnessPolicy != "" {
		opts.FreshnessPolicy = models.FreshnessPolicy(req.FreshnessPolicy)
	}
	if req.StaleAfterMinutes != nil {
		opts.StaleAfterMinutes = *req.StaleAfterMinutes
	}
	return opts
}

func (s *Service) loadPortfolios(path string) (*loader.PortfolioSet, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("portfolio file: %w", err)
	}

	s.mu.RLock()
	entry := s.portfolios
	s.mu.RUnlock()
	if entry.matches(path, info) {
		s.cacheResult("portfolio", "hit")
		return entry.value, nil
	}

	set, err := s.loader.LoadPortfolios(path)
	if err != nil {
		return nil, err
	}
	s.cacheResult("portfolio", "miss")
	if s.metrics != nil {
		s.metrics.PortfolioRows.Set(float64(set.Len()))
	}

	s.mu.Lock()
	s.portfolios = &fileEntry[*loader.PortfolioSet]{path: path, modTime: info.ModTime(), size: info.Size(), value: set}
	s.mu.Unlock()
	return set, nil
}

func (s *Service) loadMarket(path string) (*loader.Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("market file: %w", err)
	}

	s.mu.RLock()
	entry := s.market
	s.mu.RUnlock()
	if entry.matches(path, info) {
		s.cacheResult("market", "hit")
		return entry.value, nil
	}

	snap, err := s.loader.LoadMarket(path)
	if err != nil {
		return nil, err
	}
	s.cacheResult("market", "miss")
	if s.metrics != nil {
		s.metrics.MarketRows.Set(float64(snap.Table.Len()))
	}

	s.mu.Lock()
	s.market = &fileEntry[*loader.Snapshot]{path: path, modTime: info.ModTime(), size: info.Size(), value: snap}
	s.mu.Unlock()
	return snap, nil
}

func (s *Service) cacheResult(file, result string) {
	if s.metrics != nil {
		s.metrics.FileCache.WithLabelValues(file, result).Inc()
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, models.ErrClientNotFound):
		return "not_found"
	}
	return "error"
}

var _ interfaces.RecommendationService = (*Service)(nil)
