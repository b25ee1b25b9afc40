package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kazuph/tabsense/internal/config"
	"github.com/kazuph/tabsense/internal/loader"
)

// DriverConfig holds common configuration for all drivers
type DriverConfig struct {
	Host    string        `json:"host"`
	Port    int           `json:"port"`
	Timeout time.Duration `json:"timeout"`
	Logger  *slog.Logger  `json:"-"`
}

func (c DriverConfig) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Driver gives access to the CDP endpoint of one browser
type Driver interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	GetURL() string
	BaseURL() string
	Timeout() time.Duration
	CheckEnvironment() error
	LoadTabs(ctx context.Context) ([]loader.Tab, error)
}

// AndroidConfig extends DriverConfig with Android-specific options
type AndroidConfig struct {
	DriverConfig
	Socket      string        `json:"socket"`
	Wait        time.Duration `json:"wait"`
	SkipCleanup bool          `json:"skipCleanup"`
}

// New builds the driver selected by cfg.Source
func New(cfg config.Config, logger *slog.Logger) (Driver, error) {
	base := DriverConfig{
		Host:    cfg.CDP.Host,
		Port:    cfg.CDP.Port,
		Timeout: cfg.Timeout(),
		Logger:  logger,
	}

	switch cfg.Source {
	case config.SourceDesktop:
		return NewDesktopDriver(base), nil
	case config.SourceAndroid:
		return NewAndroidDriver(AndroidConfig{
			DriverConfig: base,
			Socket:       cfg.Android.Socket,
			Wait:         cfg.Wait(),
			SkipCleanup:  cfg.Android.SkipCleanup,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported source: %s", cfg.Source)
	}
}
