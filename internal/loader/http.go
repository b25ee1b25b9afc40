package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// HTTPTabLoader loads tabs from the Chrome DevTools Protocol HTTP endpoint
type HTTPTabLoader struct {
	url    string
	logger *slog.Logger
	client *http.Client
}

// NewHTTPTabLoader creates a loader for the given /json/list URL
func NewHTTPTabLoader(url string, timeout time.Duration, logger *slog.Logger) *HTTPTabLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPTabLoader{
		url:    url,
		logger: logger,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// LoadTabs retrieves all targets from the CDP endpoint
func (h *HTTPTabLoader) LoadTabs(ctx context.Context) ([]Tab, error) {
	h.logger.Debug("loading tabs", "url", h.url)

	var tabs []Tab
	if err := getJSON(ctx, h.client, h.url, &tabs); err != nil {
		return nil, fmt.Errorf("failed to fetch tabs: %w", err)
	}

	h.logger.Debug("loaded tabs", "count", len(tabs))
	return tabs, nil
}

// Version retrieves /json/version from the CDP endpoint at baseURL
func Version(ctx context.Context, baseURL string, timeout time.Duration) (*BrowserVersion, error) {
	client := &http.Client{Timeout: timeout}

	var v BrowserVersion
	if err := getJSON(ctx, client, strings.TrimRight(baseURL, "/")+"/json/version", &v); err != nil {
		return nil, fmt.Errorf("failed to fetch browser version: %w", err)
	}
	return &v, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
