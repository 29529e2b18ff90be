package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"reviewharvest/pkg/models"
)

// LoggingAdapter configures one log output adapter
type LoggingAdapter struct {
	Name    string                 `yaml:"name"`
	Type    string                 `yaml:"type"`
	Enabled bool                   `yaml:"enabled"`
	Options map[string]interface{} `yaml:"options"`
}

// Config represents the application configuration
type Config struct {
	Scraper struct {
		TargetBrand      string        `validate:"required"`
		BaseHost         string        `validate:"required,hostname"`
		SearchLimit      int           `validate:"gt=0"`
		SourceScanLimit  int           `validate:"gt=0"`
		ScrollPasses     int           `validate:"gte=0"`
		PageTimeout      time.Duration `validate:"gt=0"`
		DataIslandID     string        `validate:"required"`
		Headless         bool
		StealthMode      bool
		ProxyURL         string
		RatePerMinute    int `validate:"gt=0"`
		MinReviewTextLen int `validate:"gt=0"`
		MinFallbackLen   int `validate:"gt=0"`
	}

	Markets []models.Market `validate:"min=1,dive"`

	Delays struct {
		NavMin     time.Duration
		NavMax     time.Duration
		ScrollMin  time.Duration
		ScrollMax  time.Duration
		ProductMin time.Duration
		ProductMax time.Duration
	}

	Session struct {
		Backend string `validate:"oneof=file redis none"`
		Dir     string
		TTL     time.Duration
	}

	Redis struct {
		URL      string
		Password string
		DB       int
		Timeout  time.Duration
	}

	Operator struct {
		Mode          string `validate:"oneof=stdin http"`
		ListenAddr    string
		ResumeTimeout time.Duration // 0 waits forever
	}

	Output struct {
		Dir           string   `validate:"required"`
		Formats       []string `validate:"min=1,dive,oneof=csv json"`
		DebugCaptures bool
	}

	Logging struct {
		Level    string
		Format   string
		File     string
		Adapters []LoggingAdapter
	}
}

// configFile mirrors Config for YAML decoding. Durations arrive as strings
// like "45s" or "5m" and are parsed during merge; booleans and
// zero-meaningful numbers are pointers so an explicit false or 0 in the
// file still overrides a non-zero default.
type configFile struct {
	Scraper struct {
		TargetBrand      string `yaml:"target_brand"`
		BaseHost         string `yaml:"base_host"`
		SearchLimit      int    `yaml:"search_limit"`
		SourceScanLimit  int    `yaml:"source_scan_limit"`
		ScrollPasses     *int   `yaml:"scroll_passes"`
		PageTimeout      string `yaml:"page_timeout"`
		DataIslandID     string `yaml:"data_island_id"`
		Headless         *bool  `yaml:"headless"`
		StealthMode      *bool  `yaml:"stealth_mode"`
		ProxyURL         string `yaml:"proxy_url"`
		RatePerMinute    int    `yaml:"rate_per_minute"`
		MinReviewTextLen int    `yaml:"min_review_text_len"`
		MinFallbackLen   int    `yaml:"min_fallback_len"`
	} `yaml:"scraper"`

	Markets []models.Market `yaml:"markets"`

	Delays struct {
		NavMin     string `yaml:"nav_min"`
		NavMax     string `yaml:"nav_max"`
		ScrollMin  string `yaml:"scroll_min"`
		ScrollMax  string `yaml:"scroll_max"`
		ProductMin string `yaml:"product_min"`
		ProductMax string `yaml:"product_max"`
	} `yaml:"delays"`

	Session struct {
		Backend string `yaml:"backend"`
		Dir     string `yaml:"dir"`
		TTL     string `yaml:"ttl"`
	} `yaml:"session"`

	Redis struct {
		URL      string `yaml:"url"`
		Password string `yaml:"password"`
		DB       *int   `yaml:"db"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"redis"`

	Operator struct {
		Mode          string `yaml:"mode"`
		ListenAddr    string `yaml:"listen_addr"`
		ResumeTimeout string `yaml:"resume_timeout"`
	} `yaml:"operator"`

	Output struct {
		Dir           string   `yaml:"dir"`
		Formats       []string `yaml:"formats"`
		DebugCaptures *bool    `yaml:"debug_captures"`
	} `yaml:"output"`

	Logging struct {
		Level    string           `yaml:"level"`
		Format   string           `yaml:"format"`
		File     *string          `yaml:"file"`
		Adapters []LoggingAdapter `yaml:"adapters"`
	} `yaml:"logging"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	// Expand ${VAR} syntax
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	// Expand $VAR syntax
	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables.
// A missing file is not an error; defaults apply.
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}
	config.setDefaults()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			// Expand environment variables in the YAML content
			yamlContent := expandEnvVars(string(data))

			var file configFile
			if err := yaml.Unmarshal([]byte(yamlContent), &file); err != nil {
				return nil, err
			}
			if err := config.applyFile(&file); err != nil {
				return nil, err
			}
		}
	}

	config.loadFromEnv()
	config.fillMarketURLs()

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults applies the programmatic defaults
func (c *Config) setDefaults() {
	c.Scraper.TargetBrand = "lancome"
	c.Scraper.BaseHost = "shop.tiktok.com"
	c.Scraper.SearchLimit = 20
	c.Scraper.SourceScanLimit = 10
	c.Scraper.ScrollPasses = 5
	c.Scraper.PageTimeout = 45 * time.Second
	c.Scraper.DataIslandID = "__MODERN_ROUTER_DATA__"
	c.Scraper.Headless = true
	c.Scraper.StealthMode = true
	c.Scraper.RatePerMinute = 12
	c.Scraper.MinReviewTextLen = 10
	c.Scraper.MinFallbackLen = 15

	c.Markets = []models.Market{
		{Key: "vietnam", Code: "vn", Language: "vi-VN"},
		{Key: "saudi_arabia", Code: "sa", Language: "ar-SA"},
		{Key: "philippines", Code: "ph", Language: "en-PH"},
	}

	c.Delays.NavMin = 3 * time.Second
	c.Delays.NavMax = 5 * time.Second
	c.Delays.ScrollMin = 2 * time.Second
	c.Delays.ScrollMax = 3 * time.Second
	c.Delays.ProductMin = 5 * time.Second
	c.Delays.ProductMax = 10 * time.Second

	c.Session.Backend = "file"
	c.Session.Dir = "session"
	c.Session.TTL = 24 * time.Hour

	c.Redis.URL = "redis://localhost:6379"
	c.Redis.DB = 0
	c.Redis.Timeout = 5 * time.Second

	c.Operator.Mode = "stdin"
	c.Operator.ListenAddr = ":8090"
	c.Operator.ResumeTimeout = 5 * time.Minute

	c.Output.Dir = "output"
	c.Output.Formats = []string{"csv", "json"}
	c.Output.DebugCaptures = false

	c.Logging.Level = "info"
	c.Logging.Format = "text"
	c.Logging.File = "harvester.log"
}

// applyFile merges file values over the defaults. A zero value means the
// key was absent, except where the mirror carries a pointer.
func (c *Config) applyFile(f *configFile) error {
	setString(&c.Scraper.TargetBrand, f.Scraper.TargetBrand)
	setString(&c.Scraper.BaseHost, f.Scraper.BaseHost)
	setInt(&c.Scraper.SearchLimit, f.Scraper.SearchLimit)
	setInt(&c.Scraper.SourceScanLimit, f.Scraper.SourceScanLimit)
	if f.Scraper.ScrollPasses != nil {
		c.Scraper.ScrollPasses = *f.Scraper.ScrollPasses
	}
	setString(&c.Scraper.DataIslandID, f.Scraper.DataIslandID)
	if f.Scraper.Headless != nil {
		c.Scraper.Headless = *f.Scraper.Headless
	}
	if f.Scraper.StealthMode != nil {
		c.Scraper.StealthMode = *f.Scraper.StealthMode
	}
	setString(&c.Scraper.ProxyURL, f.Scraper.ProxyURL)
	setInt(&c.Scraper.RatePerMinute, f.Scraper.RatePerMinute)
	setInt(&c.Scraper.MinReviewTextLen, f.Scraper.MinReviewTextLen)
	setInt(&c.Scraper.MinFallbackLen, f.Scraper.MinFallbackLen)

	if len(f.Markets) > 0 {
		c.Markets = f.Markets
	}

	durations := []struct {
		dst *time.Duration
		src string
		key string
	}{
		{&c.Scraper.PageTimeout, f.Scraper.PageTimeout, "scraper.page_timeout"},
		{&c.Delays.NavMin, f.Delays.NavMin, "delays.nav_min"},
		{&c.Delays.NavMax, f.Delays.NavMax, "delays.nav_max"},
		{&c.Delays.ScrollMin, f.Delays.ScrollMin, "delays.scroll_min"},
		{&c.Delays.ScrollMax, f.Delays.ScrollMax, "delays.scroll_max"},
		{&c.Delays.ProductMin, f.Delays.ProductMin, "delays.product_min"},
		{&c.Delays.ProductMax, f.Delays.ProductMax, "delays.product_max"},
		{&c.Session.TTL, f.Session.TTL, "session.ttl"},
		{&c.Redis.Timeout, f.Redis.Timeout, "redis.timeout"},
		{&c.Operator.ResumeTimeout, f.Operator.ResumeTimeout, "operator.resume_timeout"},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.src, d.key); err != nil {
			return err
		}
	}

	setString(&c.Session.Backend, f.Session.Backend)
	setString(&c.Session.Dir, f.Session.Dir)

	setString(&c.Redis.URL, f.Redis.URL)
	setString(&c.Redis.Password, f.Redis.Password)
	if f.Redis.DB != nil {
		c.Redis.DB = *f.Redis.DB
	}

	setString(&c.Operator.Mode, f.Operator.Mode)
	setString(&c.Operator.ListenAddr, f.Operator.ListenAddr)

	setString(&c.Output.Dir, f.Output.Dir)
	if len(f.Output.Formats) > 0 {
		c.Output.Formats = f.Output.Formats
	}
	if f.Output.DebugCaptures != nil {
		c.Output.DebugCaptures = *f.Output.DebugCaptures
	}

	setString(&c.Logging.Level, f.Logging.Level)
	setString(&c.Logging.Format, f.Logging.Format)
	if f.Logging.File != nil {
		c.Logging.File = *f.Logging.File
	}
	if len(f.Logging.Adapters) > 0 {
		c.Logging.Adapters = f.Logging.Adapters
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, key string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

// fillMarketURLs derives each market's base URL from the host when the
// config didn't set one explicitly.
func (c *Config) fillMarketURLs() {
	for i := range c.Markets {
		if c.Markets[i].BaseURL == "" {
			c.Markets[i].BaseURL = fmt.Sprintf("https://%s/%s", c.Scraper.BaseHost, c.Markets[i].Code)
		}
	}
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if brand := os.Getenv("TARGET_BRAND"); brand != "" {
		c.Scraper.TargetBrand = brand
	}

	if host := os.Getenv("BASE_HOST"); host != "" {
		c.Scraper.BaseHost = host
	}

	if proxy := os.Getenv("PROXY_URL"); proxy != "" {
		c.Scraper.ProxyURL = proxy
	}

	if headless := os.Getenv("HEADLESS"); headless != "" {
		c.Scraper.Headless = headless == "true" || headless == "1"
	}

	// MIN_DELAY / MAX_DELAY are plain seconds for parity with older deployments
	if minDelay := os.Getenv("MIN_DELAY"); minDelay != "" {
		if secs, err := strconv.Atoi(minDelay); err == nil {
			c.Delays.NavMin = time.Duration(secs) * time.Second
		}
	}

	if maxDelay := os.Getenv("MAX_DELAY"); maxDelay != "" {
		if secs, err := strconv.Atoi(maxDelay); err == nil {
			c.Delays.NavMax = time.Duration(secs) * time.Second
		}
	}

	if outputDir := os.Getenv("OUTPUT_DIR"); outputDir != "" {
		c.Output.Dir = outputDir
	}

	if backend := os.Getenv("SESSION_BACKEND"); backend != "" {
		c.Session.Backend = backend
	}

	if dir := os.Getenv("SESSION_DIR"); dir != "" {
		c.Session.Dir = dir
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if mode := os.Getenv("OPERATOR_MODE"); mode != "" {
		c.Operator.Mode = mode
	}

	if addr := os.Getenv("OPERATOR_LISTEN_ADDR"); addr != "" {
		c.Operator.ListenAddr = addr
	}

	if timeout := os.Getenv("RESUME_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Operator.ResumeTimeout = d
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}
}

// CookiesPath returns the file-store cookie path under the session dir.
func (c *Config) CookiesPath() string {
	return c.Session.Dir + string(os.PathSeparator) + "cookies.json"
}

// MarketByKey looks up a configured market.
func (c *Config) MarketByKey(key string) (models.Market, bool) {
	return MarketByKey(c.Markets, key)
}

// MarketByKey looks up a market in a configured list.
func MarketByKey(markets []models.Market, key string) (models.Market, bool) {
	for _, m := range markets {
		if m.Key == key {
			return m, true
		}
	}
	return models.Market{}, false
}
