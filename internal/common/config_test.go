package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
}

func TestConfig_DefaultEngine(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Engine.FreshnessPolicy != "degrade" {
		t.Errorf("Engine.FreshnessPolicy default = %q, want %q", cfg.Engine.FreshnessPolicy, "degrade")
	}
	if cfg.Engine.StaleAfterMinutes != 120 {
		t.Errorf("Engine.StaleAfterMinutes default = %d, want %d", cfg.Engine.StaleAfterMinutes, 120)
	}
	if cfg.Engine.MaxItems != 0 {
		t.Errorf("Engine.MaxItems default = %d, want 0", cfg.Engine.MaxItems)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("ADVISOR_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_InvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("ADVISOR_PORT", "not-a-port")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080 when env is invalid", cfg.Server.Port)
	}
}

func TestConfig_EngineEnvOverrides(t *testing.T) {
	t.Setenv("ADVISOR_FRESHNESS_POLICY", "warn")
	t.Setenv("ADVISOR_STALE_AFTER_MINUTES", "30")
	t.Setenv("ADVISOR_MAX_ITEMS", "5")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Engine.FreshnessPolicy != "warn" {
		t.Errorf("Engine.FreshnessPolicy = %q, want %q", cfg.Engine.FreshnessPolicy, "warn")
	}
	if cfg.Engine.StaleAfterMinutes != 30 {
		t.Errorf("Engine.StaleAfterMinutes = %d, want 30", cfg.Engine.StaleAfterMinutes)
	}
	if cfg.Engine.MaxItems != 5 {
		t.Errorf("Engine.MaxItems = %d, want 5", cfg.Engine.MaxItems)
	}
}

func TestConfig_GeminiKeyEnvPrecedence(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "generic")
	t.Setenv("ADVISOR_GEMINI_API_KEY", "specific")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Clients.Gemini.APIKey != "specific" {
		t.Errorf("Gemini.APIKey = %q, want %q", cfg.Clients.Gemini.APIKey, "specific")
	}
	if !cfg.HasGemini() {
		t.Error("HasGemini() = false, want true")
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "advisor.toml")
	content := `
environment = "production"

[server]
port = 7000

[engine]
freshness_policy = "off"
stale_after_minutes = 15
max_items = 3

[engine.thresholds]
concentration = 0.5

[engine.sector_overrides]
mining = "Materials"

[data]
portfolio_path = "/srv/portfolios.csv"
use_file_timestamp = true

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ADVISOR_PORT", "7100")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("Server.Port = %d, want env value 7100", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want default kept", cfg.Server.Host)
	}
	if cfg.Engine.FreshnessPolicy != "off" || cfg.Engine.StaleAfterMinutes != 15 || cfg.Engine.MaxItems != 3 {
		t.Errorf("Engine = %+v, want off/15/3", cfg.Engine)
	}
	if cfg.Engine.Thresholds.Concentration != 0.5 {
		t.Errorf("Thresholds.Concentration = %v, want 0.5", cfg.Engine.Thresholds.Concentration)
	}
	if cfg.Engine.SectorOverrides["mining"] != "Materials" {
		t.Errorf("SectorOverrides = %v, want mining -> Materials", cfg.Engine.SectorOverrides)
	}
	if cfg.Data.PortfolioPath != "/srv/portfolios.csv" || !cfg.Data.UseFileTimestamp {
		t.Errorf("Data = %+v", cfg.Data)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), "")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoadConfig_InvalidToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[server\nport = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig with invalid TOML returned nil error")
	}
}

func TestValidateEngine_RepairsBadValues(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Engine.FreshnessPolicy = "sometimes"
	cfg.Engine.StaleAfterMinutes = -5
	cfg.Engine.MaxItems = -1

	validateEngine(cfg)

	if cfg.Engine.FreshnessPolicy != "degrade" {
		t.Errorf("FreshnessPolicy = %q, want degrade", cfg.Engine.FreshnessPolicy)
	}
	if cfg.Engine.StaleAfterMinutes != 120 {
		t.Errorf("StaleAfterMinutes = %d, want 120", cfg.Engine.StaleAfterMinutes)
	}
	if cfg.Engine.MaxItems != 0 {
		t.Errorf("MaxItems = %d, want 0", cfg.Engine.MaxItems)
	}
}

func TestGeminiConfig_GetTimeout(t *testing.T) {
	c := GeminiConfig{Timeout: "5s"}
	if got := c.GetTimeout(); got != 5*time.Second {
		t.Errorf("GetTimeout() = %v, want 5s", got)
	}
	c.Timeout = "bogus"
	if got := c.GetTimeout(); got != 30*time.Second {
		t.Errorf("GetTimeout() = %v, want 30s fallback", got)
	}
}

func TestIsStale(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 120 * time.Minute

	if IsStale(now.Add(-window), now, window) {
		t.Error("exactly the window old should not be stale")
	}
	if !IsStale(now.Add(-window-time.Second), now, window) {
		t.Error("older than the window should be stale")
	}
	if IsStale(now.Add(time.Hour), now, window) {
		t.Error("a future timestamp should not be stale")
	}
}
