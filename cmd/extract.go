package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kazuph/tabsense/internal/bus"
	"github.com/kazuph/tabsense/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Summarize page content and publish SEMANTIC_CONTENT messages",
	Long: `Summarize pages into their first five h1-h3 headings and up to 1500
characters of visible text. Each summary is published as one JSON line on
stdout:

  {"type":"SEMANTIC_CONTENT","payload":{"headings":[...],"text":"..."}}

Examples:
  tabsense extract --tab 9A3F...   # one tab by CDP target id
  tabsense extract --tab https://go.dev/
                                    # first tab with exactly this URL
  tabsense extract --all            # every http(s) tab
  tabsense extract --file page.html # a saved page, no browser needed`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		tabRef, _ := flags.GetString("tab")
		all, _ := flags.GetBool("all")
		file, _ := flags.GetString("file")

		if countSet(tabRef != "", all, file != "") != 1 {
			return errors.New("exactly one of --tab, --all or --file is required")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		publisher := bus.NewWriterPublisher(cmd.OutOrStdout(), logger)

		if file != "" {
			fh, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open page: %w", err)
			}
			defer fh.Close()

			page, err := extract.Parse(fh)
			if err != nil {
				logger.Debug("page parsed with errors", "file", file, "err", err)
			}
			extract.NewExtractor(nil, publisher, logger).Publish(page)
			return nil
		}

		ctx := cmd.Context()
		_, host, stop, err := startHost(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stop()

		extractor := extract.NewExtractor(host, publisher, logger)
		if all {
			pages, err := extractor.ExtractAll(ctx)
			if err != nil {
				return err
			}
			logger.Info("extracted pages", "count", len(pages))
			return nil
		}

		tab, err := host.Resolve(ctx, tabRef)
		if err != nil {
			return err
		}
		_, err = extractor.ExtractSemanticContent(ctx, tab.ID)
		return err
	},
}

func countSet(conds ...bool) int {
	n := 0
	for _, c := range conds {
		if c {
			n++
		}
	}
	return n
}

func init() {
	extractCmd.Flags().String("tab", "", "Tab to summarize: CDP target id, exact URL, or numeric id (numeric ids are assigned per process, in listing order)")
	extractCmd.Flags().Bool("all", false, "Summarize every http(s) tab")
	extractCmd.Flags().String("file", "", "Summarize a saved HTML file instead of a live tab")
}
