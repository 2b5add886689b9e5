// Command advisor generates portfolio recommendations and advice from the
// command line, and can serve the MCP tools over stdio.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/advisor/internal/app"
	"github.com/bobmcallan/advisor/internal/common"
	"github.com/bobmcallan/advisor/internal/models"
)

// cliOptions holds the flags shared by every subcommand.
type cliOptions struct {
	configPath    string
	portfolioPath string
	marketPath    string
	logLevel      string

	clientID   string
	maxItems   int
	policy     string
	staleAfter int
	asOf       string
	renderer   string
	format     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "advisor",
		Short: "Portfolio recommendations and advice",
		Long: `advisor reads a client portfolio snapshot and a market snapshot and
produces ranked, explainable recommendations, optionally rendered as prose.

Examples:
  advisor recommend --client C1
  advisor advise --client C1 --renderer template
  advisor sector "Banking"
  advisor mcp`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to advisor.toml (default: $ADVISOR_CONFIG or next to the binary)")
	pf.StringVar(&opts.portfolioPath, "portfolio", "", "Portfolio file (.json or .csv), overrides config")
	pf.StringVar(&opts.marketPath, "market", "", "Market snapshot file (.csv), overrides config")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	root.AddCommand(
		newRecommendCmd(opts),
		newAdviseCmd(opts),
		newClientsCmd(opts),
		newSectorCmd(opts),
		newMCPCmd(opts),
		newVersionCmd(),
	)
	return root
}

// requestFlags registers the per-call engine options on cmd.
func requestFlags(cmd *cobra.Command, opts *cliOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.clientID, "client", "", "Client id (default: first record)")
	f.IntVar(&opts.maxItems, "max-items", -1, "Maximum recommendations; 0 means unbounded (default: config)")
	f.StringVar(&opts.policy, "policy", "", "Freshness policy: degrade, warn or off (default: config)")
	f.IntVar(&opts.staleAfter, "stale-after", 0, "Minutes after which market data is stale (default: config)")
	f.StringVar(&opts.asOf, "asof", "", "Market timestamp, RFC3339 (default: market file time or now)")
	f.StringVar(&opts.format, "format", "text", "Output format: text or json")
}

// loadApp builds the App for a CLI run. Logging goes to stderr so stdout
// carries only command output.
func loadApp(opts *cliOptions) (*app.App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(app.ResolveConfigPath(opts.configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.portfolioPath != "" {
		config.Data.PortfolioPath = opts.portfolioPath
	}
	if opts.marketPath != "" {
		config.Data.MarketPath = opts.marketPath
	}

	return app.NewAppWithConfig(config, common.NewLoggerWithOutput(opts.logLevel, os.Stderr))
}

// request converts the flags into a RecommendRequest. Unset flags stay nil
// so configuration defaults apply.
func (o *cliOptions) request() (models.RecommendRequest, error) {
	req := models.RecommendRequest{
		ClientID:        o.clientID,
		FreshnessPolicy: o.policy,
		Renderer:        o.renderer,
	}
	if o.maxItems >= 0 {
		n := o.maxItems
		req.MaxItems = &n
	}
	if o.staleAfter > 0 {
		n := o.staleAfter
		req.StaleAfterMinutes = &n
	}
	if o.asOf != "" {
		t, err := time.Parse(time.RFC3339, o.asOf)
		if err != nil {
			return req, fmt.Errorf("invalid --asof %q: %w", o.asOf, err)
		}
		req.MarketAsOf = &t
	}
	return req, nil
}
