package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kazuph/tabsense/internal/format"
	"github.com/kazuph/tabsense/internal/reporter"
)

var tabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "Print the batch of tabs that would be reported",
	Long: `Collect open tabs once and print them in the same shape the report
command posts, without contacting the activity endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		formatStr, _ := cmd.Flags().GetString("format")
		f, err := format.ParseFormat(formatStr)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		_, host, stop, err := startHost(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stop()

		r := reporter.New(reporter.Config{Endpoint: cfg.Endpoint, Interval: cfg.Interval()}, host, reporter.WithLogger(logger))
		records, err := r.Collect(ctx)
		if err != nil {
			return err
		}

		out, err := format.NewFormatter(f).FormatRecords(records)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	tabsCmd.Flags().StringP("format", "f", "json", "Output format (json or yaml)")
}
