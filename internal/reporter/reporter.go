package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kazuph/tabsense/internal/browser"
)

// TabSource lists the browser's open tabs
type TabSource interface {
	Tabs(ctx context.Context) ([]browser.Tab, error)
}

// DefaultInterval is used when Config.Interval is not positive
const DefaultInterval = 5000 * time.Millisecond

// Config holds the reporter options
type Config struct {
	Endpoint string
	Interval time.Duration
}

// Reporter snapshots open tabs and posts them to the activity endpoint
type Reporter struct {
	config Config
	source TabSource
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	lastProof int64
	snapshot  []TabRecord
}

// Option configures a Reporter
type Option func(*Reporter)

// WithHTTPClient sets the client used for the POST
func WithHTTPClient(c *http.Client) Option {
	return func(r *Reporter) { r.client = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(r *Reporter) { r.logger = l }
}

// WithClock sets the time source used for proofs
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

// New creates a reporter
func New(config Config, source TabSource, opts ...Option) *Reporter {
	r := &Reporter{
		config: config,
		source: source,
		client: &http.Client{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if r.config.Interval <= 0 {
		r.config.Interval = DefaultInterval
	}
	return r
}

// Collect builds one batch without sending it
func (r *Reporter) Collect(ctx context.Context) ([]TabRecord, error) {
	tabs, err := r.source.Tabs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query tabs: %w", err)
	}
	return BuildRecords(tabs, Proof(r.stamp())), nil
}

// CollectAndSend posts one batch. Every failure is logged and returned;
// nothing is retried.
func (r *Reporter) CollectAndSend(ctx context.Context) error {
	err := r.collectAndSend(ctx)
	if err != nil {
		r.logger.Error("error sending tabs", "endpoint", r.config.Endpoint, "err", err)
	}
	return err
}

func (r *Reporter) collectAndSend(ctx context.Context) error {
	records, err := r.Collect(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(Batch{Tabs: records})
	if err != nil {
		return fmt.Errorf("failed to marshal tabs: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post tabs: %w", err)
	}
	defer resp.Body.Close()

	var reply any
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	r.mu.Lock()
	r.snapshot = records
	r.mu.Unlock()

	r.logger.Info("sent tabs", "count", len(records), "status", resp.StatusCode, "response", reply)
	return nil
}

// Snapshot returns the last batch that was sent
func (r *Reporter) Snapshot() []TabRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TabRecord, len(r.snapshot))
	copy(out, r.snapshot)
	return out
}

// Run sends once immediately and then on every interval until ctx is done.
// Each send runs on its own goroutine, so a slow endpoint never delays the
// next tick and sends may overlap. Run returns after in-flight sends finish.
func (r *Reporter) Run(ctx context.Context) {
	var wg sync.WaitGroup
	fire := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.CollectAndSend(ctx)
		}()
	}

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.logger.Info("reporting tabs", "endpoint", r.config.Endpoint, "interval", r.config.Interval)
	fire()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-ticker.C:
			fire()
		}
	}
}

// stamp returns the cycle timestamp in unix milliseconds, never lower than
// a previous cycle's.
func (r *Reporter) stamp() int64 {
	ms := r.now().UnixMilli()
	r.mu.Lock()
	defer r.mu.Unlock()
	if ms < r.lastProof {
		ms = r.lastProof
	}
	r.lastProof = ms
	return ms
}
