package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kazuph/tabsense/internal/extract"
	"github.com/kazuph/tabsense/internal/mcp"
	"github.com/kazuph/tabsense/internal/reporter"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol server that exposes tab reporting
and page summaries to AI assistants.

The server exposes tools for:
- list_tabs: List reportable tabs without sending them
- send_tabs: Post one batch to the activity endpoint
- extract_page: Summarize one tab's headings and text
- check_environment: Verify the DevTools endpoint

With --report the server also posts tabs on the configured interval, and
the tabs://current resource shows the last batch sent.

Configure in claude_desktop_config.json:
{
  "mcpServers": {
    "tabsense": {
      "command": "/path/to/tabsense",
      "args": ["mcp", "--report"]
    }
  }
}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		background, _ := cmd.Flags().GetBool("report")

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		d, host, stop, err := startHost(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stop()

		r := reporter.New(reporter.Config{
			Endpoint: cfg.Endpoint,
			Interval: cfg.Interval(),
		}, host, reporter.WithLogger(logger))
		e := extract.NewExtractor(host, mcp.LogPublisher(logger), logger)

		if background {
			done := make(chan struct{})
			go func() {
				r.Run(ctx)
				close(done)
			}()
			defer func() {
				cancel()
				<-done
			}()
		}

		logger.Info("starting MCP server", "source", cfg.Source, "report", background)
		return mcp.NewTabSenseServer(d, r, e, logger).Start()
	},
}

func init() {
	mcpCmd.Flags().Bool("report", false, "Also post tabs to the endpoint on the configured interval")
}
