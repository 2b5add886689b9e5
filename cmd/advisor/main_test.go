package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/advisor/internal/models"
)

const cliPortfolios = `clientid,clientnamee,mosttradedsector,mostprofitablesector,tradesvolumeofmosttradedsector,totaltradesvolumein24,daysasclient,totaltradesin24,durationheld
C1,Jane Doe,Banking,Tourism,700,1000,1200,2,200
C2,John Roe,Energy,Energy,100,1000,30,400,3
`

const cliMarket = `Name,Chg. %,Sector
Arab Bank,+4.00%,Banking
Jordan Hotels,+3.00%,Tourism
Jordan Petroleum,-5.00%,Energy
`

// writeFixtures writes the data files and a config without an API key.
func writeFixtures(t *testing.T) (configPath, portfolioPath, marketPath string) {
	t.Helper()
	t.Setenv("ADVISOR_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("ADVISOR_CONFIG", "")

	dir := t.TempDir()
	portfolioPath = filepath.Join(dir, "clients.csv")
	marketPath = filepath.Join(dir, "market.csv")
	configPath = filepath.Join(dir, "advisor.toml")

	require.NoError(t, os.WriteFile(portfolioPath, []byte(cliPortfolios), 0644))
	require.NoError(t, os.WriteFile(marketPath, []byte(cliMarket), 0644))
	require.NoError(t, os.WriteFile(configPath, []byte(`
[engine]
freshness_policy = "off"

[data]
portfolio_path = "/nonexistent/clients.csv"
market_path = "/nonexistent/market.csv"
`), 0644))
	return configPath, portfolioPath, marketPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRecommendCmd_JSON(t *testing.T) {
	cfg, portfolio, market := writeFixtures(t)

	out, err := runCLI(t, "recommend", "--config", cfg, "--portfolio", portfolio, "--market", market,
		"--client", "C1", "--max-items", "2", "--format", "json")
	require.NoError(t, err)

	var env models.EngineOutput
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, "C1", env.ClientID)
	assert.Equal(t, models.FreshnessOff, env.Meta.FreshnessPolicy)
	require.NotNil(t, env.Meta.MaxItems)
	assert.Equal(t, 2, *env.Meta.MaxItems)
	assert.Len(t, env.Recommendations, 2)
	assert.Equal(t, models.RecommendationSectorConcentration, env.Recommendations[0].Type)
}

func TestRecommendCmd_Text(t *testing.T) {
	cfg, portfolio, market := writeFixtures(t)

	out, err := runCLI(t, "recommend", "--config", cfg, "--portfolio", portfolio, "--market", market, "--client", "C2")
	require.NoError(t, err)
	assert.Contains(t, out, "**Summary**")
	assert.Contains(t, out, "**Recommendations**")
}

func TestAdviseCmd_Template(t *testing.T) {
	cfg, portfolio, market := writeFixtures(t)

	out, err := runCLI(t, "advise", "--config", cfg, "--portfolio", portfolio, "--market", market,
		"--client", "C1", "--renderer", "template")
	require.NoError(t, err)
	assert.Contains(t, out, "Client: Jane Doe (C1)")
	assert.Contains(t, out, "Sector Concentration")
}

func TestClientsCmd(t *testing.T) {
	cfg, portfolio, _ := writeFixtures(t)

	out, err := runCLI(t, "clients", "--config", cfg, "--portfolio", portfolio)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2"}, strings.Fields(out))
}

func TestSectorCmd(t *testing.T) {
	cfg, _, _ := writeFixtures(t)

	out, err := runCLI(t, "sector", "--config", cfg, "Banking", "no idea")
	require.NoError(t, err)
	assert.Contains(t, out, "Banking\tFinancials")
	assert.Contains(t, out, "no idea\tUnknown")
}

func TestRecommendCmd_Errors(t *testing.T) {
	cfg, portfolio, market := writeFixtures(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown client", []string{"--client", "ZZ"}, "client not found"},
		{"bad policy", []string{"--policy", "sometimes"}, "invalid input"},
		{"bad asof", []string{"--asof", "yesterday"}, "invalid --asof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"recommend", "--config", cfg, "--portfolio", portfolio, "--market", market}, tt.args...)
			_, err := runCLI(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRequestFromFlags(t *testing.T) {
	opts := &cliOptions{maxItems: -1}
	req, err := opts.request()
	require.NoError(t, err)
	assert.Nil(t, req.MaxItems)
	assert.Nil(t, req.StaleAfterMinutes)
	assert.Nil(t, req.MarketAsOf)

	opts = &cliOptions{maxItems: 0, staleAfter: 15, asOf: "2024-06-03T12:00:00Z", policy: "warn"}
	req, err = opts.request()
	require.NoError(t, err)
	require.NotNil(t, req.MaxItems)
	assert.Equal(t, 0, *req.MaxItems)
	assert.Equal(t, 15, *req.StaleAfterMinutes)
	assert.Equal(t, "2024-06-03T12:00:00Z", req.MarketAsOf.UTC().Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, "warn", req.FreshnessPolicy)
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "advisor "))
}
