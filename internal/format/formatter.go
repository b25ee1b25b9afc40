package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kazuph/tabsense/internal/extract"
	"github.com/kazuph/tabsense/internal/reporter"
)

// Format represents the output format type
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formatter renders records and page extracts for humans and tools
type Formatter struct {
	format Format
}

// NewFormatter creates a formatter for the given format
func NewFormatter(format Format) *Formatter {
	return &Formatter{
		format: format,
	}
}

// FormatRecords renders a batch in the same shape it is posted in
func (f *Formatter) FormatRecords(records []reporter.TabRecord) (string, error) {
	if records == nil {
		records = []reporter.TabRecord{}
	}
	return f.marshal(reporter.Batch{Tabs: records})
}

// FormatExtract renders a single page extract
func (f *Formatter) FormatExtract(page extract.PageExtract) (string, error) {
	return f.marshal(page)
}

func (f *Formatter) marshal(v any) (string, error) {
	switch f.format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", f.format)
	}
}

// ParseFormat parses a format string and returns the Format enum
func ParseFormat(formatStr string) (Format, error) {
	switch strings.ToLower(formatStr) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatJSON, fmt.Errorf("unsupported format: %s (supported: json, yaml)", formatStr)
	}
}

// GetMimeType returns the MIME type for the format
func (f *Formatter) GetMimeType() string {
	switch f.format {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/x-yaml"
	default:
		return "text/plain"
	}
}
