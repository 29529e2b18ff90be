package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
	"reviewharvest/internal/scraper"
)

// probeSelectors are the candidate selectors whose hit counts go into the
// selector probe report, for tuning against markup changes.
var probeSelectors = []string{
	".reviews-section",
	".review-list",
	`[data-testid*="review"]`,
	`[data-e2e*="review"]`,
	`[data-e2e*="comment"]`,
	`[class*="Review"]`,
	`[class*="review"]`,
	`[class*="Comment"]`,
	`[class*="comment"]`,
	".review-item",
	".comment-item",
	".feedback-item",
	"#reviews",
}

var productIDRe = regexp.MustCompile(`/product/(\d+)`)

// DebugCapture dumps page snapshots, selector probe reports and
// screenshots for offline selector tuning. Capture failures are logged at
// debug and swallowed; a capture must never break a harvest.
type DebugCapture struct {
	dir    string
	logger logging.Logger
}

// NewDebugCapture creates a debug capture writer targeting the output
// directory.
func NewDebugCapture(cfg *config.Config, logger logging.Logger) *DebugCapture {
	return &DebugCapture{
		dir:    cfg.Output.Dir,
		logger: logger,
	}
}

// Prefix builds the artifact name prefix for one product visit:
// debug_{market}_{productID}_{timestamp}.
func (d *DebugCapture) Prefix(market, productURL string) string {
	productID := "unknown"
	if m := productIDRe.FindStringSubmatch(productURL); m != nil {
		productID = m[1]
	}
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("debug_%s_%s_%s", market, productID, timestamp)
}

// SavePageSource writes the current page HTML under name.html.
func (d *DebugCapture) SavePageSource(page scraper.PageAccessor, name string) {
	snap, ok := page.(scraper.Snapshotter)
	if !ok {
		return
	}

	html, err := snap.HTML()
	if err != nil {
		d.logger.Debug("Failed to read page source for debug capture", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	d.write(name+".html", []byte(html))
}

// SaveProbeReport queries each candidate selector and writes the hit
// counts as JSON under name.json.
func (d *DebugCapture) SaveProbeReport(page scraper.PageAccessor, name string) {
	report := make(map[string]int, len(probeSelectors))
	for _, selector := range probeSelectors {
		count := 0
		if handles, err := page.QueryAll(selector); err == nil {
			count = len(handles)
		}
		report[selector] = count
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		d.logger.Debug("Failed to encode selector probe report", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if path := d.write(name+".json", data); path != "" {
		d.logger.Info("Saved selector probe report", map[string]interface{}{
			"path": path,
		})
	}
}

// SaveScreenshot writes driver-captured screenshot bytes under name.jpg.
func (d *DebugCapture) SaveScreenshot(data []byte, name string) {
	if len(data) == 0 {
		return
	}
	d.write(name+".jpg", data)
}

// write persists one artifact and returns its path, or "" on failure.
func (d *DebugCapture) write(name string, data []byte) string {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		d.logger.Debug("Failed to create debug capture directory", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}

	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		d.logger.Debug("Failed to write debug capture", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return ""
	}
	return path
}
