package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mcp_golang "github.com/metoro-io/mcp-golang"

	"github.com/kazuph/tabsense/internal/browser"
	"github.com/kazuph/tabsense/internal/extract"
	"github.com/kazuph/tabsense/internal/loader"
	"github.com/kazuph/tabsense/internal/reporter"
)

type fakeHost struct {
	tabs  []browser.Tab
	pages map[int]string
}

func (h *fakeHost) Tabs(ctx context.Context) ([]browser.Tab, error) { return h.tabs, nil }

func (h *fakeHost) PageHTML(ctx context.Context, tabID int) (string, error) {
	if p, ok := h.pages[tabID]; ok {
		return p, nil
	}
	return "", errors.New("tab not found")
}

type fakeDriver struct{ envErr error }

func (d *fakeDriver) Start(ctx context.Context) error { return nil }
func (d *fakeDriver) Stop(ctx context.Context) error  { return nil }
func (d *fakeDriver) GetURL() string                  { return "http://localhost:9222/json/list" }
func (d *fakeDriver) BaseURL() string                 { return "http://localhost:9222" }
func (d *fakeDriver) Timeout() time.Duration          { return time.Second }
func (d *fakeDriver) CheckEnvironment() error         { return d.envErr }
func (d *fakeDriver) LoadTabs(ctx context.Context) ([]loader.Tab, error) {
	return nil, nil
}

func newTestServer(t *testing.T, endpoint string, envErr error) *TabSenseServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	host := &fakeHost{
		tabs: []browser.Tab{
			{ID: 1, WindowID: 1, Title: "Go", URL: "https://go.dev/"},
			{ID: 2, WindowID: 1, Title: "New Tab", URL: "chrome://newtab/"},
		},
		pages: map[int]string{1: "<body><h1>Go</h1><p>Build simple, secure, scalable systems</p></body>"},
	}
	r := reporter.New(reporter.Config{Endpoint: endpoint, Interval: time.Second}, host, reporter.WithLogger(logger))
	e := extract.NewExtractor(host, LogPublisher(logger), logger)
	return NewTabSenseServer(&fakeDriver{envErr: envErr}, r, e, logger)
}

func text(t *testing.T, resp *mcp_golang.ToolResponse) string {
	t.Helper()
	if resp == nil || len(resp.Content) == 0 || resp.Content[0].TextContent == nil {
		t.Fatalf("empty tool response: %+v", resp)
	}
	return resp.Content[0].TextContent.Text
}

func TestListTabs(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1/activity", nil)
	resp, err := s.listTabs(ListTabsArgs{Format: "yaml"})
	if err != nil {
		t.Fatal(err)
	}
	out := text(t, resp)
	if !strings.Contains(out, "Found 1 reportable tabs") || !strings.Contains(out, "url: https://go.dev/") {
		t.Errorf("unexpected output: %s", out)
	}
	if strings.Contains(out, "chrome://") {
		t.Error("internal tab listed")
	}

	if _, err := s.listTabs(ListTabsArgs{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSendTabsAndResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	s := newTestServer(t, srv.URL, nil)
	resp, err := s.sendTabs(SendTabsArgs{Reason: "test"})
	if err != nil {
		t.Fatal(err)
	}
	if out := text(t, resp); !strings.Contains(out, "Sent 1 tabs") {
		t.Errorf("unexpected output: %s", out)
	}

	res, err := s.getCurrentTabs()
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || len(res.Contents) == 0 {
		t.Fatal("empty resource")
	}
}

func TestSendTabsFailure(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1/activity", nil)
	if _, err := s.sendTabs(SendTabsArgs{}); err == nil {
		t.Error("expected error for unreachable endpoint")
	}
}

func TestExtractPage(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1/activity", nil)
	resp, err := s.extractPage(ExtractPageArgs{TabID: 1})
	if err != nil {
		t.Fatal(err)
	}
	out := text(t, resp)
	if !strings.Contains(out, `"headings": [`) || !strings.Contains(out, "Go Build simple") {
		t.Errorf("unexpected output: %s", out)
	}

	if _, err := s.extractPage(ExtractPageArgs{TabID: 42}); err == nil {
		t.Error("expected error for unknown tab")
	}
}

func TestCheckEnvironment(t *testing.T) {
	resp, err := newTestServer(t, "http://x", nil).checkEnvironment(CheckEnvironmentArgs{Verbose: true})
	if err != nil {
		t.Fatal(err)
	}
	out := text(t, resp)
	if !strings.Contains(out, "✅") || !strings.Contains(out, "json/list") {
		t.Errorf("unexpected output: %s", out)
	}

	resp, err = newTestServer(t, "http://x", errors.New("connection refused")).checkEnvironment(CheckEnvironmentArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if out := text(t, resp); !strings.Contains(out, "connection refused") {
		t.Errorf("unexpected output: %s", out)
	}
}
