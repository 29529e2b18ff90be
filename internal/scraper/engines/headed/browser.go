package headed

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
	"reviewharvest/pkg/utils"
)

// Manager owns the headed browser the harvest run drives. Products are
// processed sequentially, so a single connected browser with one live page
// at a time is enough.
type Manager struct {
	config   *config.Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	mu       sync.Mutex
	logger   logging.Logger
}

// NewManager prepares the launcher without starting a browser. The first
// page request launches and connects it.
func NewManager(cfg *config.Config, logger logging.Logger) *Manager {
	l := launcher.New().
		Headless(cfg.Scraper.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-gpu").          // prevents GPU context failures in Docker
		Set("disable-dev-shm-usage") // overcomes Docker shared memory limitations

	if cfg.Scraper.ProxyURL != "" {
		l = l.Proxy(cfg.Scraper.ProxyURL)
	}

	// Use system-installed Chrome/Chromium instead of downloading
	if chromePath := systemChromePath(); chromePath != "" {
		l = l.Bin(chromePath)
		logger.Info("Using system Chrome browser", map[string]interface{}{
			"chrome_path": chromePath,
		})
	} else {
		logger.Warn("System Chrome not found, Rod will download a browser", map[string]interface{}{})
	}

	return &Manager{
		config:   cfg,
		launcher: l,
		logger:   logger,
	}
}

// Start launches and connects the browser. Starting a live manager is a
// no-op, and a dead browser is replaced.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(ctx)
}

func (m *Manager) startLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.browser != nil && m.isBrowserHealthy() {
		return nil
	}

	url, err := m.launcher.Launch()
	if err != nil {
		return utils.NewDriverFailureError("failed to launch browser", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return utils.NewDriverFailureError("failed to connect to browser", err)
	}

	m.browser = browser
	m.logger.Info("Browser session started", map[string]interface{}{
		"headless": m.config.Scraper.Headless,
		"stealth":  m.config.Scraper.StealthMode,
	})
	return nil
}

// NewPage opens a fresh page with the viewport, headers and fingerprint
// masking applied. The user agent rotates per page, and Accept-Language
// follows the market's locale so localized review markup renders.
func (m *Manager) NewPage(ctx context.Context, language string) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.startLocked(ctx); err != nil {
		return nil, err
	}

	page, err := m.createPage(language)
	if err != nil {
		return nil, utils.NewDriverFailureError("failed to create page", err)
	}

	return &Page{
		page:   page,
		config: m.config,
		logger: m.logger,
	}, nil
}

func (m *Manager) createPage(language string) (*rod.Page, error) {
	var page *rod.Page
	var err error

	if m.config.Scraper.StealthMode {
		page, err = stealth.Page(m.browser)
	} else {
		page, err = m.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	// Common desktop resolution
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		m.logger.Warn("Failed to set viewport", map[string]interface{}{
			"error": err.Error(),
		})
	}

	userAgent := utils.RandomUserAgent()
	err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: userAgent,
	})
	if err != nil {
		m.logger.Warn("Failed to set user agent", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Additional headers to appear more human-like. One call: the CDP
	// extra-header set is replaced wholesale on every invocation.
	headers := []string{
		"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language", acceptLanguage(language),
		"Accept-Encoding", "gzip, deflate, br",
		"Cache-Control", "no-cache",
		"Pragma", "no-cache",
		"Sec-Fetch-Dest", "document",
		"Sec-Fetch-Mode", "navigate",
		"Sec-Fetch-Site", "none",
		"Sec-Fetch-User", "?1",
		"Upgrade-Insecure-Requests", "1",
	}

	if _, err := page.SetExtraHeaders(headers); err != nil {
		m.logger.Debug("Failed to set headers", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Mask the automation fingerprints bot checks probe first
	err = rod.Try(func() {
		page.MustEval(`() => {
			Object.defineProperty(navigator, 'webdriver', {
				get: () => undefined,
			});

			Object.defineProperty(navigator, 'plugins', {
				get: () => [1, 2, 3, 4, 5],
			});

			Object.defineProperty(navigator, 'languages', {
				get: () => ['en-US', 'en'],
			});

			window.chrome = {
				runtime: {},
			};

			const originalQuery = window.navigator.permissions.query;
			window.navigator.permissions.query = (parameters) => (
				parameters.name === 'notifications' ?
					Promise.resolve({ state: Notification.permission }) :
					originalQuery(parameters)
			);
		}`)
	})
	if err != nil {
		m.logger.Warn("Failed to inject stealth JavaScript", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return page, nil
}

// isBrowserHealthy checks that the browser connection still answers
func (m *Manager) isBrowserHealthy() bool {
	err := rod.Try(func() {
		m.browser.MustPages()
	})
	return err == nil
}

// IsHealthy reports whether a usable browser is connected
func (m *Manager) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.browser != nil && m.isBrowserHealthy()
}

// Cleanup closes the browser and the launcher
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil && m.isBrowserHealthy() {
		m.browser.MustClose()
	}

	m.browser = nil
	m.launcher.Cleanup()
	m.logger.Info("Browser manager cleanup completed", map[string]interface{}{})
}

// acceptLanguage builds the Accept-Language header for a market locale.
func acceptLanguage(language string) string {
	if language == "" {
		return "en-US,en;q=0.9"
	}
	return language + ",en;q=0.8"
}

// systemChromePath finds the system-installed Chrome/Chromium browser
func systemChromePath() string {
	// Environment overrides first (container configuration)
	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		if _, err := os.Stat(chromeBin); err == nil {
			return chromeBin
		}
	}

	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	commonPaths := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"C:\\Program Files\\Google\\Chrome\\Application\\chrome.exe",
		"C:\\Program Files (x86)\\Google\\Chrome\\Application\\chrome.exe",
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
