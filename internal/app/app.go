package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bobmcallan/advisor/internal/advice"
	"github.com/bobmcallan/advisor/internal/clients/gemini"
	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/engine"
	"github.com/bobmcallan/advisor/internal/interfaces"
	"github.com/bobmcallan/advisor/internal/loader"
	"github.com/bobmcallan/advisor/internal/sector"
	"github.com/bobmcallan/advisor/internal/services/recommend"
)

// App holds the initialized service, clients and the MCP server.
// It is the shared core used by cmd/advisor-server and cmd/advisor.
type App struct {
	Config       *common.Config
	Logger       *common.Logger
	Registry     *prometheus.Registry
	GeminiClient interfaces.GeminiClient
	Service      *recommend.Service
	MCPServer    *server.MCPServer
	StartupTime  time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, then
// ADVISOR_CONFIG, then advisor.toml next to the binary, then the
// development fallback config/advisor.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("ADVISOR_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "advisor.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/advisor.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and initializes the application.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}

	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppWithConfig initializes the application from an already loaded
// config. Metrics are registered on a registry owned by the App.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	normalizer := sector.Default().WithOverrides(config.Engine.SectorOverrides)
	th := config.Engine.Thresholds
	eng := engine.New(
		engine.WithNormalizer(normalizer),
		engine.WithThresholds(engine.Thresholds{
			Concentration: th.Concentration,
			MoverUp:       th.MoverUp,
			MoverDown:     th.MoverDown,
			MoverLimit:    th.MoverLimit,
		}),
	)
	ld := loader.New(
		loader.WithNormalizer(normalizer),
		loader.WithMarketSectors(config.Data.MarketSectors),
		loader.WithLogger(logger),
	)

	opts := []recommend.Option{
		recommend.WithLogger(logger),
		recommend.WithMetrics(recommend.NewMetrics(registry)),
	}

	var geminiClient interfaces.GeminiClient
	if config.HasGemini() {
		client, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - advice will use the template renderer")
		} else {
			geminiClient = client
			opts = append(opts, recommend.WithLLMRenderer(
				advice.NewLLMRenderer(client, config.Clients.Gemini.GetTimeout(), logger),
			))
		}
	} else {
		logger.Info().Msg("Gemini API key not configured - advice will use the template renderer")
	}

	svc := recommend.NewService(config, eng, ld, opts...)

	mcpServer := server.NewMCPServer(
		"advisor",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:       config,
		Logger:       logger,
		Registry:     registry,
		GeminiClient: geminiClient,
		Service:      svc,
		MCPServer:    mcpServer,
		StartupTime:  startupStart,
	}

	// Register all MCP tools
	a.registerTools()

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	svc := a.Service
	logger := a.Logger

	s.AddTool(createGetVersionTool(), handleGetVersion())
	s.AddTool(createRecommendTool(), handleRecommend(svc, logger))
	s.AddTool(createAdviseTool(), handleAdvise(svc, logger))
	s.AddTool(createListClientsTool(), handleListClients(svc, logger))
	s.AddTool(createNormalizeSectorTool(), handleNormalizeSector(svc))
}
