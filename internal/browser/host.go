// Package browser presents a CDP endpoint the way an extension sees the
// browser: tabs with integer ids grouped into windows, and page content.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/kazuph/tabsense/internal/driver"
	"github.com/kazuph/tabsense/internal/loader"
)

// WindowIDNone is reported when the browser cannot resolve a tab's window
const WindowIDNone = -1

// Tab is an open browser tab
type Tab struct {
	ID       int    `json:"id"`
	WindowID int    `json:"windowId"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	TargetID string `json:"targetId"`
}

// Host enumerates tabs of a started driver. Tab ids start at 1, are stable
// for a CDP target and never reused within a process.
type Host struct {
	driver driver.Driver
	logger *slog.Logger

	mu      sync.Mutex
	ids     map[string]int
	targets map[int]loader.Tab
	nextID  int
}

// NewHost wraps a started driver
func NewHost(d driver.Driver, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		driver:  d,
		logger:  logger,
		ids:     make(map[string]int),
		targets: make(map[int]loader.Tab),
	}
}

// Tabs lists open tabs across all windows in CDP order
func (h *Host) Tabs(ctx context.Context) ([]Tab, error) {
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	targets, err := h.driver.LoadTabs(ctx)
	if err != nil {
		return nil, err
	}

	var pages []loader.Tab
	for _, t := range targets {
		if t.IsPage() {
			pages = append(pages, t)
		}
	}

	ids := h.assign(pages)
	windows := h.windows(ctx, pages)

	tabs := make([]Tab, 0, len(pages))
	for i, p := range pages {
		tabs = append(tabs, Tab{
			ID:       ids[i],
			WindowID: windows[i],
			Title:    p.Title,
			URL:      p.URL,
			TargetID: p.ID,
		})
	}
	return tabs, nil
}

// Resolve lists tabs and picks one by reference. A reference is a tab id
// from this Host, a CDP target id, or an exact URL (first match in CDP
// order). Tab ids are only meaningful within one process; target ids and
// URLs also identify a tab from another process.
func (h *Host) Resolve(ctx context.Context, ref string) (Tab, error) {
	tabs, err := h.Tabs(ctx)
	if err != nil {
		return Tab{}, err
	}

	if id, err := strconv.Atoi(ref); err == nil {
		for _, t := range tabs {
			if t.ID == id {
				return t, nil
			}
		}
	}
	for _, t := range tabs {
		if t.TargetID == ref {
			return t, nil
		}
	}
	for _, t := range tabs {
		if t.URL == ref {
			return t, nil
		}
	}
	return Tab{}, fmt.Errorf("tab %q not found", ref)
}

// PageHTML returns the serialized DOM of a tab previously seen by Tabs
func (h *Host) PageHTML(ctx context.Context, tabID int) (string, error) {
	h.mu.Lock()
	target, ok := h.targets[tabID]
	h.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("tab %d not found", tabID)
	}
	if target.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("tab %d has no debugger url (is DevTools attached to it?)", tabID)
	}

	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	client, err := loader.Dial(ctx, target.WebSocketDebuggerURL)
	if err != nil {
		return "", err
	}
	defer client.Close()

	html, err := client.EvaluateString(ctx, "document.documentElement.outerHTML")
	if err != nil {
		return "", fmt.Errorf("failed to read tab %d: %w", tabID, err)
	}
	return html, nil
}

func (h *Host) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t := h.driver.Timeout(); t > 0 {
		return context.WithTimeout(ctx, t)
	}
	return context.WithCancel(ctx)
}

// assign maps targets to tab ids and forgets targets that are gone
func (h *Host) assign(pages []loader.Tab) []int {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[string]bool, len(pages))
	ids := make([]int, len(pages))
	for i, p := range pages {
		id, ok := h.ids[p.ID]
		if !ok {
			h.nextID++
			id = h.nextID
			h.ids[p.ID] = id
		}
		ids[i] = id
		h.targets[id] = p
		seen[p.ID] = true
	}

	for targetID, id := range h.ids {
		if !seen[targetID] {
			delete(h.ids, targetID)
			delete(h.targets, id)
		}
	}
	return ids
}

// windows resolves window ids over the browser websocket. Failures degrade
// to WindowIDNone rather than failing the listing.
func (h *Host) windows(ctx context.Context, pages []loader.Tab) []int {
	windows := make([]int, len(pages))
	for i := range windows {
		windows[i] = WindowIDNone
	}
	if len(pages) == 0 {
		return windows
	}

	v, err := loader.Version(ctx, h.driver.BaseURL(), h.driver.Timeout())
	if err != nil || v.WebSocketDebuggerURL == "" {
		h.logger.Debug("window lookup unavailable", "err", err)
		return windows
	}

	client, err := loader.Dial(ctx, v.WebSocketDebuggerURL)
	if err != nil {
		h.logger.Debug("window lookup unavailable", "err", err)
		return windows
	}
	defer client.Close()

	start := time.Now()
	for i, p := range pages {
		id, err := client.WindowForTarget(ctx, p.ID)
		if err != nil {
			h.logger.Debug("window lookup failed", "targetId", p.ID, "err", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		windows[i] = id
	}
	h.logger.Debug("resolved windows", "tabs", len(pages), "took", time.Since(start))
	return windows
}
