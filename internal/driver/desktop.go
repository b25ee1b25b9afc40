package driver

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/kazuph/tabsense/internal/loader"
)

// DesktopDriver talks to a browser started with --remote-debugging-port
type DesktopDriver struct {
	config    DriverConfig
	tabLoader *loader.HTTPTabLoader
}

// NewDesktopDriver creates a new desktop driver
func NewDesktopDriver(config DriverConfig) *DesktopDriver {
	return &DesktopDriver{
		config: config,
	}
}

// Start verifies the endpoint answers and prepares the tab loader
func (d *DesktopDriver) Start(ctx context.Context) error {
	if _, err := loader.Version(ctx, d.BaseURL(), d.config.Timeout); err != nil {
		return fmt.Errorf("browser not reachable at %s (start it with --remote-debugging-port=%d): %w",
			d.BaseURL(), d.config.Port, err)
	}

	d.tabLoader = loader.NewHTTPTabLoader(d.GetURL(), d.config.Timeout, d.config.logger())
	return nil
}

// Stop is a no-op; the browser is not owned by the driver
func (d *DesktopDriver) Stop(ctx context.Context) error {
	return nil
}

// GetURL returns the Chrome DevTools Protocol tab list URL
func (d *DesktopDriver) GetURL() string {
	return d.BaseURL() + "/json/list"
}

// BaseURL returns the root of the CDP HTTP endpoint
func (d *DesktopDriver) BaseURL() string {
	return "http://" + net.JoinHostPort(d.config.Host, strconv.Itoa(d.config.Port))
}

// Timeout bounds a single CDP request
func (d *DesktopDriver) Timeout() time.Duration {
	return d.config.Timeout
}

// CheckEnvironment verifies the CDP endpoint is reachable
func (d *DesktopDriver) CheckEnvironment() error {
	timeout := d.config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	v, err := loader.Version(ctx, d.BaseURL(), timeout)
	if err != nil {
		return err
	}
	d.config.logger().Debug("browser reachable", "browser", v.Browser, "protocol", v.ProtocolVersion)
	return nil
}

// LoadTabs retrieves all CDP targets
func (d *DesktopDriver) LoadTabs(ctx context.Context) ([]loader.Tab, error) {
	if d.tabLoader == nil {
		return nil, fmt.Errorf("driver not started")
	}
	return d.tabLoader.LoadTabs(ctx)
}
