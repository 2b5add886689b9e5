package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/advisor/internal/advice"
	"github.com/bobmcallan/advisor/internal/common"
)

func newRecommendCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Generate ranked recommendations for a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			req, err := opts.request()
			if err != nil {
				return err
			}

			out, err := a.Service.Recommend(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return writeMarkdown(cmd.OutOrStdout(), advice.RenderText(nil, out))
		},
	}
	requestFlags(cmd, opts)
	return cmd
}

func newAdviseCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Generate recommendations and render them as client-facing advice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			req, err := opts.request()
			if err != nil {
				return err
			}

			adv, err := a.Service.Advise(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), adv)
			}
			return writeMarkdown(cmd.OutOrStdout(), adv.AdviceText)
		},
	}
	requestFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.renderer, "renderer", "", "Renderer: template or llm (default: llm when configured)")
	return cmd
}

func newClientsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List client ids in the portfolio file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			ids, err := a.Service.Clients(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newSectorCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sector <label>...",
		Short: "Map free-text sector labels to canonical buckets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			for _, label := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", strings.TrimSpace(label), a.Service.NormalizeSector(label))
			}
			return nil
		},
	}
}

func newMCPCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the advisor tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.Logger.Info().Msg("Serving MCP over stdio")
			return server.NewStdioServer(a.MCPServer).Listen(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			common.LoadVersionFromFile()
			fmt.Fprintln(cmd.OutOrStdout(), common.GetBuildInfo("advisor"))
		},
	}
}
