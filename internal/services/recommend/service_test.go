package recommend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/engine"
	"github.com/bobmcallan/advisor/internal/models"
	"github.com/bobmcallan/advisor/internal/sector"
)

var testNow = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

const portfolioCSV = `ClientID,ClientNameE,MostTradedSector,MostProfitableSector,TradesVolumeOfMostTradedSector,TotalTradesVolumeIn24,DaysAsClient,TotalTradesIn24,DurationHeld
C1,Jane Doe,Banking,Tourism,700,1000,1200,2,200
C2,John Roe,Energy,Energy,100,1000,30,400,3
`

const marketCSV = `Name,Chg. %,Sector
Arab Bank,+4.00%,Banking
Jordan Hotels,+3.00%,Tourism
Phosphate Mines,+6.00%,Basic Materials
Jordan Petroleum,-5.00%,Energy
`

type fixture struct {
	service       *Service
	metrics       *Metrics
	config        *common.Config
	portfolioPath string
	marketPath    string
}

func writeFile(t *testing.T, dir, name, content string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	dir := t.TempDir()

	config := common.NewDefaultConfig()
	config.Data.PortfolioPath = writeFile(t, dir, "clients.csv", portfolioCSV, testNow.Add(-time.Hour))
	config.Data.MarketPath = writeFile(t, dir, "market.csv", marketCSV, testNow.Add(-30*time.Minute))
	config.Data.UseFileTimestamp = true

	metrics := NewMetrics(prometheus.NewRegistry())
	eng := engine.New(engine.WithClock(func() time.Time { return testNow }))
	opts = append([]Option{WithMetrics(metrics)}, opts...)

	return &fixture{
		service:       NewService(config, eng, nil, opts...),
		metrics:       metrics,
		config:        config,
		portfolioPath: config.Data.PortfolioPath,
		marketPath:    config.Data.MarketPath,
	}
}

func intPtr(v int) *int { return &v }

type stubRenderer struct {
	name string
	err  error
}

func (r stubRenderer) Name() string { return r.name }

func (r stubRenderer) Render(_ context.Context, _ *models.Portfolio, out *models.EngineOutput) (*models.Advice, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &models.Advice{ClientID: out.ClientID, AdviceText: "from " + r.name, Renderer: r.name, EngineOutput: out}, nil
}

func TestRecommend_FromFiles(t *testing.T) {
	f := newFixture(t)

	out, err := f.service.Recommend(t.Context(), models.RecommendRequest{ClientID: "C1"})
	require.NoError(t, err)

	assert.Equal(t, "C1", out.ClientID)
	assert.Equal(t, models.PersonaConservative, out.RiskPersona)
	assert.Equal(t, "2024-06-03T11:30:00Z", out.Meta.DataTimestamp, "market file time is the snapshot instant")
	assert.False(t, out.Meta.IsStale)
	require.NotEmpty(t, out.Recommendations)
	assert.Equal(t, models.RecommendationSectorConcentration, out.Recommendations[0].Type)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("recommend", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.PortfolioRows))
	assert.Equal(t, 4.0, testutil.ToFloat64(f.metrics.MarketRows))
}

func TestRecommend_EmptyClientIDUsesFirstRecord(t *testing.T) {
	f := newFixture(t)
	out, err := f.service.Recommend(t.Context(), models.RecommendRequest{})
	require.NoError(t, err)
	assert.Equal(t, "C1", out.ClientID)
}

func TestRecommend_ClientNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Recommend(t.Context(), models.RecommendRequest{ClientID: "nobody"})
	assert.ErrorIs(t, err, models.ErrClientNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("recommend", "not_found")))
}

func TestRecommend_InlineInputs(t *testing.T) {
	f := newFixture(t)
	change := 0.05

	out, err := f.service.Recommend(t.Context(), models.RecommendRequest{
		ClientID: "X9",
		Portfolio: &models.Portfolio{
			MostTradedSector:    "Energy",
			MostTradedSecurity:  "Other Co",
			MostTradedSectorStd: sector.Energy,
		},
		Market: []models.EquityQuote{{Name: "Petro Co", ChangePct: &change, Sector: "oil"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "X9", out.ClientID, "request id fills a blank portfolio id")
	assert.Equal(t, "2024-06-03T12:00:00Z", out.Meta.DataTimestamp, "inline market has no file time")
	for _, r := range out.Recommendations {
		stock, _ := r.Evidence.String(models.EvidenceStock)
		alt, _ := r.Evidence.String(models.EvidenceAltStock)
		assert.NotContains(t, []string{"Arab Bank", "Jordan Hotels"}, stock+alt, "file market must not be used")
	}
}

func TestRecommend_EmptyInlineMarketIsNotTheFile(t *testing.T) {
	f := newFixture(t)
	out, err := f.service.Recommend(t.Context(), models.RecommendRequest{
		ClientID: "C1",
		Market:   []models.EquityQuote{},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.RecommendationType{models.RecommendationSectorConcentration}, typesOfRecs(out.Recommendations))
}

func TestRecommend_MissingMarketFileDegrades(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(f.marketPath))

	out, err := f.service.Recommend(t.Context(), models.RecommendRequest{ClientID: "C1"})
	require.NoError(t, err)
	assert.Equal(t, []models.RecommendationType{models.RecommendationSectorConcentration}, typesOfRecs(out.Recommendations))
	assert.Equal(t, "2024-06-03T12:00:00Z", out.Meta.DataTimestamp)
}

func TestRecommend_StaleFileTimestamp(t *testing.T) {
	f := newFixture(t)
	old := testNow.Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(f.marketPath, old, old))

	out, err := f.service.Recommend(t.Context(), models.RecommendRequest{ClientID: "C1"})
	require.NoError(t, err)
	assert.True(t, out.Meta.IsStale)
	for _, r := range out.Recommendations {
		assert.True(t, r.Stale)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StaleResults.WithLabelValues("degrade")))
}

func TestRecommend_RequestOverridesConfig(t *testing.T) {
	f := newFixture(t)
	f.config.Engine.MaxItems = 1
	f.config.Engine.FreshnessPolicy = "warn"

	out, err := f.service.Recommend(t.Context(), models.RecommendRequest{ClientID: "C1"})
	require.NoError(t, err)
	assert.Len(t, out.Recommendations, 1)
	assert.Equal(t, models.FreshnessWarn, out.Meta.FreshnessPolicy)
	require.NotNil(t, out.Meta.MaxItems)

	asof := testNow.Add(-10 * time.Minute)
	out, err = f.service.Recommend(t.Context(), models.RecommendRequest{
		ClientID:          "C1",
		MaxItems:          intPtr(0),
		FreshnessPolicy:   "OFF",
		StaleAfterMinutes: intPtr(5),
		MarketAsOf:        &asof,
	})
	require.NoError(t, err)
	assert.Greater(t, len(out.Recommendations), 1)
	assert.Nil(t, out.Meta.MaxItems)
	assert.Equal(t, models.FreshnessOff, out.Meta.FreshnessPolicy)
	assert.Equal(t, 5, out.Meta.StaleAfterMinutes)
	assert.True(t, out.Meta.IsStale)
	assert.Equal(t, "2024-06-03T11:50:00Z", out.Meta.DataTimestamp)
}

func TestRecommend_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  models.RecommendRequest
	}{
		{"unknown policy", models.RecommendRequest{FreshnessPolicy: "sometimes"}},
		{"negative max items", models.RecommendRequest{MaxItems: intPtr(-1)}},
		{"zero stale window", models.RecommendRequest{StaleAfterMinutes: intPtr(0)}},
		{"unknown renderer", models.RecommendRequest{Renderer: "pdf"}},
	}

	f := newFixture(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Recommend(t.Context(), tt.req)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
	assert.Equal(t, float64(len(tests)), testutil.ToFloat64(f.metrics.Requests.WithLabelValues("recommend", "invalid")))
}

func TestRecommend_NoPortfolioConfigured(t *testing.T) {
	f := newFixture(t)
	f.config.Data.PortfolioPath = ""
	_, err := f.service.Recommend(t.Context(), models.RecommendRequest{ClientID: "C1"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestRecommend_CanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := f.service.Recommend(ctx, models.RecommendRequest{ClientID: "C1"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("recommend", "error")))
}

func TestFileCache_ReloadsOnChange(t *testing.T) {
	f := newFixture(t)

	for range 3 {
		_, err := f.service.Recommend(t.Context(), models.RecommendRequest{ClientID: "C1"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FileCache.WithLabelValues("portfolio", "miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.FileCache.WithLabelValues("portfolio", "hit")))

	updated := portfolioCSV + "C3,New Client,Banking,Banking,1,10,10,1,1\n"
	writeFile(t, filepath.Dir(f.portfolioPath), "clients.csv", updated, testNow)

	ids, err := f.service.Clients(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2", "C3"}, ids)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.FileCache.WithLabelValues("portfolio", "miss")))
}

func TestRecommend_Concurrent(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "C1"
			if i%2 == 1 {
				id = "C2"
			}
			_, err := f.service.Recommend(context.Background(), models.RecommendRequest{ClientID: id})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 16.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("recommend", "ok")))
}

func TestAdvise_RendererSelection(t *testing.T) {
	llm := stubRenderer{name: "gemini"}

	tests := []struct {
		name     string
		opts     []Option
		renderer string
		want     string
	}{
		{"default without llm", nil, "", models.RendererTemplate},
		{"default with llm", []Option{WithLLMRenderer(llm)}, "", "gemini"},
		{"template forced", []Option{WithLLMRenderer(llm)}, models.RendererTemplate, models.RendererTemplate},
		{"llm requested", []Option{WithLLMRenderer(llm)}, models.RendererLLM, "gemini"},
		{"llm requested but absent", nil, models.RendererLLM, models.RendererTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts...)
			adv, err := f.service.Advise(t.Context(), models.RecommendRequest{ClientID: "C1", Renderer: tt.renderer})
			require.NoError(t, err)
			assert.Equal(t, tt.want, adv.Renderer)
			assert.Equal(t, "C1", adv.ClientID)
			require.NotNil(t, adv.EngineOutput)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Advice.WithLabelValues(tt.want)))
		})
	}
}

func TestAdvise_TemplateUsesClientName(t *testing.T) {
	f := newFixture(t)
	adv, err := f.service.Advise(t.Context(), models.RecommendRequest{ClientID: "C1", Renderer: "template"})
	require.NoError(t, err)
	assert.Contains(t, adv.AdviceText, "Client: Jane Doe (C1)")
	assert.Contains(t, adv.AdviceText, "**Sector Concentration**")
}

func TestAdvise_RenderError(t *testing.T) {
	f := newFixture(t, WithLLMRenderer(stubRenderer{name: "gemini", err: errors.New("boom")}))
	_, err := f.service.Advise(t.Context(), models.RecommendRequest{ClientID: "C1"})
	assert.Error(t, err)
}

func TestAdvise_PropagatesEngineErrors(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Advise(t.Context(), models.RecommendRequest{ClientID: "missing"})
	assert.ErrorIs(t, err, models.ErrClientNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues("advise", "not_found")))
}

func TestClients_MissingFile(t *testing.T) {
	f := newFixture(t)
	f.config.Data.PortfolioPath = filepath.Join(t.TempDir(), "none.csv")
	_, err := f.service.Clients(t.Context())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNormalizeSector(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, sector.Financials, f.service.NormalizeSector(" Banking "))
	assert.Equal(t, sector.Unknown, f.service.NormalizeSector("crypto"))
	assert.False(t, f.service.HasLLM())
}

func typesOfRecs(recs []models.Recommendation) []models.RecommendationType {
	out := make([]models.RecommendationType, len(recs))
	for i, r := range recs {
		out[i] = r.Type
	}
	return out
}
