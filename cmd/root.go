package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kazuph/tabsense/internal/browser"
	"github.com/kazuph/tabsense/internal/config"
	"github.com/kazuph/tabsense/internal/driver"
)

var rootCmd = &cobra.Command{
	Use:   "tabsense",
	Short: "Report open browser tabs and page summaries to a local activity service",
	Long: `tabsense watches a Chromium-based browser through the Chrome DevTools
Protocol and reports what is open in it.

This tool supports:
- Posting the list of open http(s) tabs to an activity endpoint on an interval
- Summarizing a page's headings and visible text
- Reading tabs from desktop Chrome or from Chrome on Android via ADB
- Serving the same operations to AI assistants over MCP

Start the browser with --remote-debugging-port=9222 (desktop), or enable
USB debugging on the device (android).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	addConfigFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(tabsCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(mcpCmd)
}

// addConfigFlags defines the flags that override config file values
func addConfigFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "Path to a YAML config file")
	flags.Bool("debug", false, "Enable debug output")
	flags.StringP("endpoint", "e", config.DefaultEndpoint, "Activity endpoint receiving tab batches")
	flags.IntP("interval", "i", config.DefaultIntervalMs, "Reporting interval in milliseconds")
	flags.StringP("source", "s", config.SourceDesktop, "Browser source (desktop or android)")
	flags.String("host", config.DefaultHost, "DevTools host")
	flags.IntP("port", "p", config.DefaultPort, "DevTools port")
	flags.IntP("timeout", "t", config.DefaultTimeout, "DevTools request timeout in seconds")
}

// loadConfig reads the config file and applies flags that were set explicitly
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint, _ = flags.GetString("endpoint")
	}
	if flags.Changed("interval") {
		cfg.IntervalMs, _ = flags.GetInt("interval")
	}
	if flags.Changed("source") {
		cfg.Source, _ = flags.GetString("source")
	}
	if flags.Changed("host") {
		cfg.CDP.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		cfg.CDP.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("timeout") {
		cfg.CDP.TimeoutSeconds, _ = flags.GetInt("timeout")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger writes text logs to stderr; stdout is reserved for command output
func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// startHost starts the configured driver. The returned stop function
// undoes what Start did.
func startHost(ctx context.Context, cfg config.Config, logger *slog.Logger) (driver.Driver, *browser.Host, func(), error) {
	d, err := driver.New(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := d.Start(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to start %s driver: %w", cfg.Source, err)
	}

	stop := func() {
		if err := d.Stop(context.Background()); err != nil {
			logger.Warn("driver cleanup failed", "err", err)
		}
	}
	return d, browser.NewHost(d, logger), stop, nil
}
