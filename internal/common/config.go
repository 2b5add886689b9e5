package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/advisor/internal/models"
)

// Config holds all configuration for the advisor
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Engine      EngineConfig  `toml:"engine"`
	Data        DataConfig    `toml:"data"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	RateLimit float64 `toml:"rate_limit"` // requests per second; 0 disables limiting
	Burst     int     `toml:"burst"`
}

// EngineConfig holds the default per-call engine options and tuning.
type EngineConfig struct {
	FreshnessPolicy   string            `toml:"freshness_policy"`
	StaleAfterMinutes int               `toml:"stale_after_minutes"`
	MaxItems          int               `toml:"max_items"` // 0 = unbounded
	Thresholds        ThresholdsConfig  `toml:"thresholds"`
	SectorOverrides   map[string]string `toml:"sector_overrides"` // extra label -> bucket synonyms
}

// ThresholdsConfig mirrors the generator thresholds; zero keeps the default.
type ThresholdsConfig struct {
	Concentration float64 `toml:"concentration" json:"concentration"`
	MoverUp       float64 `toml:"mover_up" json:"mover_up"`
	MoverDown     float64 `toml:"mover_down" json:"mover_down"`
	MoverLimit    int     `toml:"mover_limit" json:"mover_limit"`
}

// DataConfig points at the portfolio and market snapshots served by default.
type DataConfig struct {
	PortfolioPath    string            `toml:"portfolio_path"`
	MarketPath       string            `toml:"market_path"`
	UseFileTimestamp bool              `toml:"use_file_timestamp"` // use the market file's mtime as market_asof
	MarketSectors    map[string]string `toml:"market_sectors"`     // security name -> sector label, for rows without one
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Gemini GeminiConfig `toml:"gemini"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"`
	FilePath string `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			RateLimit: 20,
			Burst:     40,
		},
		Engine: EngineConfig{
			FreshnessPolicy:   string(models.FreshnessDegrade),
			StaleAfterMinutes: int(FreshnessMarketSnapshot / time.Minute),
		},
		Data: DataConfig{
			PortfolioPath: "data/clients_portfolios.json",
			MarketPath:    "data/market.csv",
		},
		Clients: ClientsConfig{
			Gemini: GeminiConfig{
				Model:   "gemini-2.0-flash",
				Timeout: "30s",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateEngine(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ADVISOR_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("ADVISOR_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("ADVISOR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("ADVISOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("ADVISOR_PORTFOLIO_PATH"); path != "" {
		config.Data.PortfolioPath = path
	}

	if path := os.Getenv("ADVISOR_MARKET_PATH"); path != "" {
		config.Data.MarketPath = path
	}

	if policy := os.Getenv("ADVISOR_FRESHNESS_POLICY"); policy != "" {
		config.Engine.FreshnessPolicy = policy
	}

	if v := os.Getenv("ADVISOR_STALE_AFTER_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Engine.StaleAfterMinutes = n
		}
	}

	if v := os.Getenv("ADVISOR_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Engine.MaxItems = n
		}
	}

	for _, name := range []string{"ADVISOR_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			config.Clients.Gemini.APIKey = key
			break
		}
	}
}

// validateEngine normalizes the freshness policy, falling back to degrade for
// unknown values, and restores the default window when it is not positive.
func validateEngine(config *Config) {
	policy, err := models.ParseFreshnessPolicy(config.Engine.FreshnessPolicy)
	if err != nil {
		policy = models.FreshnessDegrade
	}
	config.Engine.FreshnessPolicy = string(policy)

	if config.Engine.StaleAfterMinutes <= 0 {
		config.Engine.StaleAfterMinutes = int(FreshnessMarketSnapshot / time.Minute)
	}
	if config.Engine.MaxItems < 0 {
		config.Engine.MaxItems = 0
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// HasGemini reports whether an API key is configured for the prose renderer.
func (c *Config) HasGemini() bool {
	return strings.TrimSpace(c.Clients.Gemini.APIKey) != ""
}
