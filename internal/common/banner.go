package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/banner"
)

var bannerArt = []string{
	`    d8888 8888888b.  888     888 8888888  .d8888b.   .d88888b.  8888888b.`,
	`   d88888 888  "Y88b 888     888   888   d88P  Y88b d88P" "Y88b 888   Y88b`,
	`  d88P888 888    888 888     888   888   Y88b.      888     888 888    888`,
	` d88P 888 888    888 Y88b   d88P   888    "Y888b.   888     888 888   d88P`,
	`d88P  888 888    888  Y88b d88P    888       "Y88b. 888     888 8888888P"`,
	`d88P   888 888    888   Y88o88P     888         "888 888     888 888 T88b`,
	`d8888888888 888  .d88P    Y888P      888   Y88b  d88P Y88b. .d88P 888  T88b`,
	`d88P     888 8888888P"      Y8P     8888888  "Y8888P"   "Y88888P"  888   T88b`,
}

// startupFields lists what the banner reports, in display order.
func startupFields(config *Config) [][2]string {
	renderer := "template"
	if config.HasGemini() {
		renderer = "gemini (" + config.Clients.Gemini.Model + ")"
	}
	maxItems := "unbounded"
	if config.Engine.MaxItems > 0 {
		maxItems = fmt.Sprint(config.Engine.MaxItems)
	}
	rateLimit := "off"
	if config.Server.RateLimit > 0 {
		rateLimit = fmt.Sprintf("%g/s burst %d", config.Server.RateLimit, config.Server.Burst)
	}

	return [][2]string{
		{"Version", fmt.Sprintf("%s (build %s, commit %s)", Version, Build, GitCommit)},
		{"Environment", config.Environment},
		{"Listen", fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)},
		{"Rate limit", rateLimit},
		{"Freshness", fmt.Sprintf("%s, stale after %dm", config.Engine.FreshnessPolicy, config.Engine.StaleAfterMinutes)},
		{"Max items", maxItems},
		{"Portfolio", config.Data.PortfolioPath},
		{"Market", config.Data.MarketPath},
		{"Renderer", renderer},
	}
}

// writeBanner draws the startup banner on w.
func writeBanner(w io.Writer, config *Config) {
	text := banner.ColorBold + banner.ColorWhite
	rule := banner.ColorCyan + strings.Repeat("═", 78) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n\n", rule)
	for _, line := range bannerArt {
		fmt.Fprintf(w, "%s%s%s\n", text, line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s  Portfolio Recommendations & Advice%s\n\n%s\n\n", text, banner.ColorReset, rule)
	for _, kv := range startupFields(config) {
		fmt.Fprintf(w, "%s  %-14s %s%s\n", text, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", rule)
}

// PrintBanner draws the startup banner on stderr and logs the same settings.
func PrintBanner(config *Config, logger *Logger) {
	writeBanner(os.Stderr, config)

	event := logger.Info()
	for _, kv := range startupFields(config) {
		event = event.Str(strings.ToLower(strings.ReplaceAll(kv[0], " ", "_")), kv[1])
	}
	event.Msg("Application started")
}

// PrintShutdownBanner draws the shutdown notice on stderr.
func PrintShutdownBanner(logger *Logger) {
	rule := banner.ColorCyan + strings.Repeat("═", 42) + banner.ColorReset
	fmt.Fprintf(os.Stderr, "\n%s\n%s  ADVISOR: SHUTTING DOWN%s\n%s\n\n",
		rule, banner.ColorBold+banner.ColorWhite, banner.ColorReset, rule)

	logger.Info().Msg("Application shutting down")
}
