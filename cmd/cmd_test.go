package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// newFlagged builds a throwaway command with its own copy of the config flags
func newFlagged(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	addConfigFlags(c.Flags())
	if err := c.Flags().Parse(args); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("endpoint: http://file.example/activity\nintervalMs: 1000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(newFlagged(t, "--config", path, "--interval", "250", "--port", "9333"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Endpoint != "http://file.example/activity" {
		t.Errorf("file endpoint lost: %q", cfg.Endpoint)
	}
	if cfg.IntervalMs != 250 {
		t.Errorf("flag interval not applied: %d", cfg.IntervalMs)
	}
	if cfg.CDP.Port != 9333 {
		t.Errorf("flag port not applied: %d", cfg.CDP.Port)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	if _, err := loadConfig(newFlagged(t, "--interval", "0")); err == nil {
		t.Error("expected error for zero interval")
	}
	if _, err := loadConfig(newFlagged(t, "--source", "ios")); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestExtractFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	page := "<html><body><h1> Welcome </h1><p>Hello   there</p></body></html>"
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"extract", "--file", path})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}

	want := `{"type":"SEMANTIC_CONTENT","payload":{"headings":["Welcome"],"text":"Welcome Hello there"}}`
	if strings.TrimSpace(out.String()) != want {
		t.Errorf("got  %s\nwant %s", out.String(), want)
	}
}

func TestExtractRequiresOneTarget(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"extract", "--all", "--tab", "https://go.dev/"})
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error when both --all and --tab are set")
	}
}
