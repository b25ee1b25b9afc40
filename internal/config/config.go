package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint   = "http://localhost:8000/activity"
	DefaultIntervalMs = 5000
	DefaultHost       = "localhost"
	DefaultPort       = 9222
	DefaultTimeout    = 10
	DefaultSocket     = "chrome_devtools_remote"
	DefaultWait       = 2
)

// Source names the kind of browser the tabs are read from.
const (
	SourceDesktop = "desktop"
	SourceAndroid = "android"
)

// Config holds the agent configuration
type Config struct {
	Endpoint   string        `yaml:"endpoint"`
	IntervalMs int           `yaml:"intervalMs"`
	Source     string        `yaml:"source"`
	CDP        CDPConfig     `yaml:"cdp"`
	Android    AndroidConfig `yaml:"android"`
	Debug      bool          `yaml:"debug"`
}

// CDPConfig locates the Chrome DevTools Protocol endpoint
type CDPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// AndroidConfig holds options used when the source is an Android device
type AndroidConfig struct {
	Socket      string `yaml:"socket"`
	WaitSeconds int    `yaml:"waitSeconds"`
	SkipCleanup bool   `yaml:"skipCleanup"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Endpoint:   DefaultEndpoint,
		IntervalMs: DefaultIntervalMs,
		Source:     SourceDesktop,
		CDP: CDPConfig{
			Host:           DefaultHost,
			Port:           DefaultPort,
			TimeoutSeconds: DefaultTimeout,
		},
		Android: AndroidConfig{
			Socket:      DefaultSocket,
			WaitSeconds: DefaultWait,
		},
	}
}

// Load reads a YAML config file on top of the defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid option
func (c Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: must be an absolute http or https URL", c.Endpoint)
	}
	if c.IntervalMs <= 0 {
		return fmt.Errorf("invalid intervalMs %d: must be positive", c.IntervalMs)
	}
	switch c.Source {
	case SourceDesktop, SourceAndroid:
	default:
		return fmt.Errorf("unsupported source: %s (use '%s' or '%s')", c.Source, SourceDesktop, SourceAndroid)
	}
	if c.CDP.Host == "" {
		return errors.New("cdp host must not be empty")
	}
	if c.CDP.Port <= 0 || c.CDP.Port > 65535 {
		return fmt.Errorf("invalid cdp port %d", c.CDP.Port)
	}
	if c.CDP.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid cdp timeout %d", c.CDP.TimeoutSeconds)
	}
	if c.Source == SourceAndroid && c.Android.Socket == "" {
		return errors.New("android socket must not be empty")
	}
	return nil
}

// Interval is the reporting period
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Timeout bounds a single CDP request. Zero means no limit.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.CDP.TimeoutSeconds) * time.Second
}

// Wait is the pause after adb forwarding is set up
func (c Config) Wait() time.Duration {
	return time.Duration(c.Android.WaitSeconds) * time.Second
}
