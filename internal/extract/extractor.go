package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kazuph/tabsense/internal/browser"
	"github.com/kazuph/tabsense/internal/bus"
)

// concurrency bounds ExtractAll
const concurrency = 4

// PageSource reads the live DOM of a tab
type PageSource interface {
	Tabs(ctx context.Context) ([]browser.Tab, error)
	PageHTML(ctx context.Context, tabID int) (string, error)
}

// Extractor summarizes tabs and announces each summary on the bus
type Extractor struct {
	source PageSource
	bus    bus.Publisher
	logger *slog.Logger
}

// NewExtractor creates an extractor
func NewExtractor(source PageSource, publisher bus.Publisher, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{source: source, bus: publisher, logger: logger}
}

// ExtractSemanticContent summarizes one tab and publishes exactly one
// SEMANTIC_CONTENT message for it.
func (e *Extractor) ExtractSemanticContent(ctx context.Context, tabID int) (PageExtract, error) {
	doc, err := e.source.PageHTML(ctx, tabID)
	if err != nil {
		return PageExtract{}, fmt.Errorf("failed to load page: %w", err)
	}

	page, err := Parse(strings.NewReader(doc))
	if err != nil {
		e.logger.Debug("page parsed with errors", "tabId", tabID, "err", err)
	}

	e.Publish(page)
	return page, nil
}

// Publish announces an extract on the bus
func (e *Extractor) Publish(page PageExtract) {
	e.bus.Publish(bus.Message{Type: bus.TypeSemanticContent, Payload: page})
}

// ExtractAll summarizes every http(s) tab. Tabs that fail are logged and
// skipped; the extracts that succeeded are returned keyed by tab id.
func (e *Extractor) ExtractAll(ctx context.Context) (map[int]PageExtract, error) {
	tabs, err := e.source.Tabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tabs: %w", err)
	}

	results := make([]*PageExtract, len(tabs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, tab := range tabs {
		if !strings.HasPrefix(tab.URL, "http") {
			continue
		}
		i, tab := i, tab
		g.Go(func() error {
			page, err := e.ExtractSemanticContent(gctx, tab.ID)
			if err != nil {
				e.logger.Warn("skipping tab", "tabId", tab.ID, "url", tab.URL, "err", err)
				return nil
			}
			results[i] = &page
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[int]PageExtract)
	for i, r := range results {
		if r != nil {
			out[tabs[i].ID] = *r
		}
	}
	return out, ctx.Err()
}
