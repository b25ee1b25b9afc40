package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcp_golang "github.com/metoro-io/mcp-golang"
	"github.com/metoro-io/mcp-golang/transport/stdio"

	"github.com/kazuph/tabsense/internal/bus"
	"github.com/kazuph/tabsense/internal/driver"
	"github.com/kazuph/tabsense/internal/extract"
	"github.com/kazuph/tabsense/internal/format"
	"github.com/kazuph/tabsense/internal/reporter"
)

// toolTimeout bounds a single tool call
const toolTimeout = 30 * time.Second

// TabSenseServer exposes tab reporting and page extraction as MCP tools
type TabSenseServer struct {
	server    *mcp_golang.Server
	driver    driver.Driver
	reporter  *reporter.Reporter
	extractor *extract.Extractor
	logger    *slog.Logger
}

// NewTabSenseServer creates a new MCP server over stdio. The driver must
// already be started.
func NewTabSenseServer(d driver.Driver, r *reporter.Reporter, e *extract.Extractor, logger *slog.Logger) *TabSenseServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TabSenseServer{
		server:    mcp_golang.NewServer(stdio.NewStdioServerTransport()),
		driver:    d,
		reporter:  r,
		extractor: e,
		logger:    logger,
	}
}

// LogPublisher reports bus messages to the log. stdout belongs to the MCP
// transport, so messages cannot be written there.
func LogPublisher(logger *slog.Logger) bus.Publisher {
	return bus.PublisherFunc(func(msg bus.Message) {
		logger.Debug("bus message", "type", msg.Type, "payload", msg.Payload)
	})
}

// Start registers tools and resources and serves until stdin closes
func (s *TabSenseServer) Start() error {
	if err := s.registerTools(); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	if err := s.registerResources(); err != nil {
		return fmt.Errorf("failed to register resources: %w", err)
	}

	return s.server.Serve()
}

// registerTools registers all available MCP tools
func (s *TabSenseServer) registerTools() error {
	tools := []struct {
		name, description string
		handler           any
	}{
		{"list_tabs", "List open http(s) browser tabs as activity records without sending them", s.listTabs},
		{"send_tabs", "Collect open tabs and POST them to the activity endpoint once", s.sendTabs},
		{"extract_page", "Summarize a tab's headings and visible text", s.extractPage},
		{"check_environment", "Check that the browser's DevTools endpoint is reachable", s.checkEnvironment},
	}
	for _, t := range tools {
		if err := s.server.RegisterTool(t.name, t.description, t.handler); err != nil {
			return fmt.Errorf("failed to register %s: %w", t.name, err)
		}
	}
	return nil
}

// registerResources registers MCP resources
func (s *TabSenseServer) registerResources() error {
	mime := format.NewFormatter(format.FormatJSON).GetMimeType()
	err := s.server.RegisterResource("tabs://current", "current_tabs", "Last batch of tabs sent to the activity endpoint", mime, s.getCurrentTabs)
	if err != nil {
		return fmt.Errorf("failed to register current_tabs resource: %w", err)
	}
	return nil
}

// ListTabsArgs represents arguments for list_tabs
type ListTabsArgs struct {
	Format string `json:"format" jsonschema:"description=Output format: json or yaml (default: json)"`
}

// SendTabsArgs represents arguments for send_tabs
type SendTabsArgs struct {
	Reason string `json:"reason" jsonschema:"description=Optional note written to the agent log with this send"`
}

// ExtractPageArgs represents arguments for extract_page
type ExtractPageArgs struct {
	TabID  int    `json:"tabId" jsonschema:"required,description=Tab id as reported by list_tabs"`
	Format string `json:"format" jsonschema:"description=Output format: json or yaml (default: json)"`
}

// CheckEnvironmentArgs represents arguments for check_environment
type CheckEnvironmentArgs struct {
	Verbose bool `json:"verbose" jsonschema:"description=Include the DevTools URL in the result"`
}

func (s *TabSenseServer) listTabs(args ListTabsArgs) (*mcp_golang.ToolResponse, error) {
	f, err := format.ParseFormat(args.Format)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	records, err := s.reporter.Collect(ctx)
	if err != nil {
		return nil, err
	}

	out, err := format.NewFormatter(f).FormatRecords(records)
	if err != nil {
		return nil, err
	}

	result := fmt.Sprintf("Found %d reportable tabs:\n\n%s", len(records), out)
	return mcp_golang.NewToolResponse(mcp_golang.NewTextContent(result)), nil
}

func (s *TabSenseServer) sendTabs(args SendTabsArgs) (*mcp_golang.ToolResponse, error) {
	if args.Reason != "" {
		s.logger.Info("send requested", "reason", args.Reason)
	}

	ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	if err := s.reporter.CollectAndSend(ctx); err != nil {
		return nil, fmt.Errorf("failed to send tabs: %w", err)
	}

	result := fmt.Sprintf("Sent %d tabs to the activity endpoint", len(s.reporter.Snapshot()))
	return mcp_golang.NewToolResponse(mcp_golang.NewTextContent(result)), nil
}

func (s *TabSenseServer) extractPage(args ExtractPageArgs) (*mcp_golang.ToolResponse, error) {
	f, err := format.ParseFormat(args.Format)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), toolTimeout)
	defer cancel()

	// refresh the tab registry so ids from list_tabs resolve
	if _, err := s.reporter.Collect(ctx); err != nil {
		return nil, err
	}

	page, err := s.extractor.ExtractSemanticContent(ctx, args.TabID)
	if err != nil {
		return nil, err
	}

	out, err := format.NewFormatter(f).FormatExtract(page)
	if err != nil {
		return nil, err
	}
	return mcp_golang.NewToolResponse(mcp_golang.NewTextContent(out)), nil
}

func (s *TabSenseServer) checkEnvironment(args CheckEnvironmentArgs) (*mcp_golang.ToolResponse, error) {
	var sb strings.Builder
	sb.WriteString("Environment Check Results:\n\n")
	if err := s.driver.CheckEnvironment(); err != nil {
		fmt.Fprintf(&sb, "browser: ❌ %v\n", err)
	} else {
		sb.WriteString("browser: ✅ DevTools endpoint reachable\n")
	}
	if args.Verbose {
		fmt.Fprintf(&sb, "devtools: %s\n", s.driver.GetURL())
	}
	return mcp_golang.NewToolResponse(mcp_golang.NewTextContent(sb.String())), nil
}

func (s *TabSenseServer) getCurrentTabs() (*mcp_golang.ResourceResponse, error) {
	f := format.NewFormatter(format.FormatJSON)
	out, err := f.FormatRecords(s.reporter.Snapshot())
	if err != nil {
		return nil, err
	}

	resource := mcp_golang.NewTextEmbeddedResource(
		"tabs://current",
		out,
		f.GetMimeType(),
	)
	return mcp_golang.NewResourceResponse(resource), nil
}
