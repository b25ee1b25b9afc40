package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kazuph/tabsense/internal/config"
	"github.com/kazuph/tabsense/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the browser can be reached",
	Long: `Check that required dependencies are available and the browser's
DevTools endpoint answers.

For the desktop source this requests http://<host>:<port>/json/version.
For the android source this verifies ADB is installed and working.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		out := cmd.OutOrStdout()

		d, err := driver.New(cfg, logger)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, "Checking system dependencies...")
		fmt.Fprintf(out, "Source: %s\n\n", cfg.Source)

		switch cfg.Source {
		case config.SourceAndroid:
			fmt.Fprint(out, "Android (ADB): ")
		default:
			fmt.Fprintf(out, "DevTools (%s): ", d.BaseURL())
		}

		if err := d.CheckEnvironment(); err != nil {
			fmt.Fprintf(out, "❌ %v\n\n", err)
			if cfg.Source == config.SourceDesktop {
				fmt.Fprintln(out, "Start the browser with remote debugging enabled, for example:")
				fmt.Fprintf(out, "  google-chrome --remote-debugging-port=%d\n", cfg.CDP.Port)
			}
			return fmt.Errorf("environment check failed")
		}

		fmt.Fprintln(out, "✅ Available and working")
		fmt.Fprintf(out, "\nReports will be sent to %s every %v\n", cfg.Endpoint, cfg.Interval())
		return nil
	},
}
