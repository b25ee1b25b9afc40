package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kazuph/tabsense/internal/reporter"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Post open tabs to the activity endpoint on an interval",
	Long: `Post all open http(s) tabs to the activity endpoint once immediately and
then every --interval milliseconds until interrupted.

Each batch is sent as:
  POST <endpoint>
  Content-Type: application/json
  {"tabs": [{"tabId", "windowId", "title", "url", "switchCount", "proof"}, ...]}

Failed sends are logged and dropped; the next tick is not affected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		_, host, stop, err := startHost(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stop()

		r := reporter.New(reporter.Config{
			Endpoint: cfg.Endpoint,
			Interval: cfg.Interval(),
		}, host, reporter.WithLogger(logger))

		r.Run(ctx)
		logger.Info("reporter stopped")
		return nil
	},
}
