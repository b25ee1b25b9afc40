package driver

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"time"

	"github.com/kazuph/tabsense/internal/loader"
	"github.com/kazuph/tabsense/internal/platform"
)

// AndroidDriver reads Chrome tabs on an Android device through adb forwarding
type AndroidDriver struct {
	config    AndroidConfig
	tabLoader *loader.HTTPTabLoader
}

// NewAndroidDriver creates a new Android driver
func NewAndroidDriver(config AndroidConfig) *AndroidDriver {
	return &AndroidDriver{
		config: config,
	}
}

// Start sets up ADB port forwarding
func (d *AndroidDriver) Start(ctx context.Context) error {
	if err := d.CheckEnvironment(); err != nil {
		return fmt.Errorf("environment check failed: %w", err)
	}

	if err := platform.CheckADBDeviceConnected(); err != nil {
		return fmt.Errorf("device connection check failed: %w", err)
	}

	cmd := exec.CommandContext(ctx, platform.FindADBPath(), "-d", "forward",
		fmt.Sprintf("tcp:%d", d.config.Port),
		fmt.Sprintf("localabstract:%s", d.config.Socket))

	d.config.logger().Debug("executing", "cmd", cmd.String())

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to setup ADB port forwarding: %w", err)
	}

	if d.config.Wait > 0 {
		select {
		case <-time.After(d.config.Wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	d.tabLoader = loader.NewHTTPTabLoader(d.GetURL(), d.config.Timeout, d.config.logger())
	return nil
}

// Stop removes the ADB port forwarding
func (d *AndroidDriver) Stop(ctx context.Context) error {
	if d.config.SkipCleanup {
		return nil
	}

	cmd := exec.CommandContext(ctx, platform.FindADBPath(), "-d", "forward", "--remove",
		fmt.Sprintf("tcp:%d", d.config.Port))

	d.config.logger().Debug("executing cleanup", "cmd", cmd.String())

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to cleanup ADB port forwarding: %w", err)
	}
	return nil
}

// GetURL returns the Chrome DevTools Protocol tab list URL
func (d *AndroidDriver) GetURL() string {
	return d.BaseURL() + "/json/list"
}

// BaseURL returns the root of the forwarded CDP endpoint
func (d *AndroidDriver) BaseURL() string {
	return "http://" + net.JoinHostPort(d.config.Host, strconv.Itoa(d.config.Port))
}

// Timeout bounds a single CDP request
func (d *AndroidDriver) Timeout() time.Duration {
	return d.config.Timeout
}

// CheckEnvironment verifies ADB is available
func (d *AndroidDriver) CheckEnvironment() error {
	return platform.CheckADBAvailable()
}

// LoadTabs retrieves all CDP targets from the device
func (d *AndroidDriver) LoadTabs(ctx context.Context) ([]loader.Tab, error) {
	if d.tabLoader == nil {
		return nil, fmt.Errorf("driver not started")
	}
	return d.tabLoader.LoadTabs(ctx)
}
