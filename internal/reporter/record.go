package reporter

import (
	"strconv"
	"strings"

	"github.com/kazuph/tabsense/internal/browser"
)

// ProofPrefix starts every proof tag
const ProofPrefix = "OPEN_TAB_"

// TabRecord is one tab as reported to the activity endpoint
type TabRecord struct {
	TabID       int    `json:"tabId" yaml:"tabId"`
	WindowID    int    `json:"windowId" yaml:"windowId"`
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
	SwitchCount int    `json:"switchCount" yaml:"switchCount"`
	Proof       string `json:"proof" yaml:"proof"`
}

// Batch is the request body posted to the endpoint
type Batch struct {
	Tabs []TabRecord `json:"tabs"`
}

// Reportable reports whether a tab's URL is sent. Browser-internal pages
// (chrome://, about:, devtools://) and empty URLs are not.
func Reportable(url string) bool {
	return strings.HasPrefix(url, "http")
}

// Proof formats the tag for a cycle stamped at unix milliseconds ms
func Proof(ms int64) string {
	return ProofPrefix + strconv.FormatInt(ms, 10)
}

// BuildRecords filters and maps tabs, preserving order. switchCount is
// always 0: tab switches are not tracked.
func BuildRecords(tabs []browser.Tab, proof string) []TabRecord {
	records := make([]TabRecord, 0, len(tabs))
	for _, t := range tabs {
		if !Reportable(t.URL) {
			continue
		}
		records = append(records, TabRecord{
			TabID:       t.ID,
			WindowID:    t.WindowID,
			Title:       t.Title,
			URL:         t.URL,
			SwitchCount: 0,
			Proof:       proof,
		})
	}
	return records
}
