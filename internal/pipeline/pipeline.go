// Package pipeline drives the market → product → extraction run.
package pipeline

import (
	"context"
	"time"

	"reviewharvest/internal/config"
	"reviewharvest/internal/dedupe"
	"reviewharvest/internal/discovery"
	"reviewharvest/internal/logging"
	"reviewharvest/internal/normalize"
	"reviewharvest/internal/output"
	"reviewharvest/internal/scraper"
	"reviewharvest/internal/scraper/challenge"
	"reviewharvest/internal/scraper/engines/headed"
	"reviewharvest/internal/session"
	"reviewharvest/pkg/models"
	"reviewharvest/pkg/utils"
)

// Deps bundles the pipeline's collaborators.
type Deps struct {
	Browser    *headed.Manager
	Finder     *discovery.Finder
	Chain      *scraper.Chain
	Recovery   *challenge.Recovery
	Normalizer *normalize.Normalizer
	Store      session.Store
	Sink       *output.Sink
	Debug      *output.DebugCapture
}

// Summary aggregates one run's counters.
type Summary struct {
	RunID       string                `json:"run_id"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`
	Markets     int                   `json:"markets"`
	Products    int                   `json:"products"`
	ByStrategy  map[string]int        `json:"by_strategy"`
	Validated   int                   `json:"validated"`
	Rejected    int                   `json:"rejected"`
	Duplicates  int                   `json:"duplicates"`
	Errors      int                   `json:"errors"`
	Records     []models.ReviewRecord `json:"-"`
	OutputPaths []string              `json:"output_paths"`
}

// Pipeline runs the harvest sequentially: one market at a time, one
// product at a time, one page at a time. Sequencing is the politeness
// mechanism, together with the randomized delays and the host limiter.
type Pipeline struct {
	config     *config.Config
	browser    *headed.Manager
	finder     *discovery.Finder
	chain      *scraper.Chain
	recovery   *challenge.Recovery
	normalizer *normalize.Normalizer
	store      session.Store
	sink       *output.Sink
	debug      *output.DebugCapture
	limiter    *hostLimiter
	logger     logging.Logger
}

// New creates the pipeline.
func New(cfg *config.Config, deps Deps, logger logging.Logger) *Pipeline {
	return &Pipeline{
		config:     cfg,
		browser:    deps.Browser,
		finder:     deps.Finder,
		chain:      deps.Chain,
		recovery:   deps.Recovery,
		normalizer: deps.Normalizer,
		store:      deps.Store,
		sink:       deps.Sink,
		debug:      deps.Debug,
		limiter:    newHostLimiter(cfg.Scraper.RatePerMinute, logger),
		logger:     logger,
	}
}

// Run harvests every configured market and writes the combined record set
// once at the end. Per-market and per-product failures are absorbed; only
// browser bootstrap failure or full cancellation abort the run.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:      utils.GenerateRunID(),
		StartedAt:  time.Now(),
		ByStrategy: make(map[string]int),
	}
	runLogger := p.logger.WithField("run_id", summary.RunID)

	runLogger.Info("Starting review harvest", map[string]interface{}{
		"brand":   p.config.Scraper.TargetBrand,
		"markets": len(p.config.Markets),
	})

	if err := p.browser.Start(ctx); err != nil {
		return nil, err
	}

	dedup := dedupe.New(runLogger)

	for _, market := range p.config.Markets {
		if ctx.Err() != nil {
			break
		}
		summary.Markets++
		if err := p.runMarket(ctx, market, dedup, summary, runLogger); err != nil {
			summary.Errors++
			runLogger.Error("Market harvest failed", map[string]interface{}{
				"market": market.Key,
				"error":  err.Error(),
			})
		}
	}

	summary.Records = dedup.Records()
	summary.Duplicates = dedup.Overwrites()

	paths, err := p.sink.SaveAll(summary.Records)
	if err != nil {
		summary.Errors++
		runLogger.Error("Failed to save harvest output", map[string]interface{}{
			"error": err.Error(),
		})
	}
	summary.OutputPaths = paths

	summary.FinishedAt = time.Now()
	p.logSummary(runLogger, summary)
	return summary, nil
}

// runMarket discovers the market's brand products and harvests each one. A
// challenge timeout or abandonment aborts the rest of the market; with the
// operator gone, every remaining product would hit the same dead wait.
func (p *Pipeline) runMarket(ctx context.Context, market models.Market, dedup *dedupe.Deduplicator, summary *Summary, logger logging.Logger) error {
	marketLogger := logger.WithField("market", market.Key)
	marketLogger.Info("Starting market harvest", map[string]interface{}{
		"base_url": market.BaseURL,
	})

	products, err := p.discoverProducts(ctx, market, marketLogger)
	if err != nil {
		return err
	}
	marketLogger.Info("Discovered brand products", map[string]interface{}{
		"count": len(products),
	})

	for _, product := range products {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		summary.Products++

		records, err := p.harvestProduct(ctx, market, product, summary, marketLogger)
		for _, record := range records {
			dedup.Add(record)
		}
		if err != nil {
			if utils.HasCode(err, utils.CodeChallengeTimeout) || utils.HasCode(err, utils.CodeChallengeAbandoned) {
				return err
			}
			summary.Errors++
			marketLogger.Error("Product harvest failed", map[string]interface{}{
				"product": product.URL,
				"error":   err.Error(),
			})
		} else {
			marketLogger.Info("Collected reviews for product", map[string]interface{}{
				"product": product.Name,
				"count":   len(records),
			})
		}

		_ = utils.RandomDelay(ctx, p.config.Delays.ProductMin, p.config.Delays.ProductMax)
	}
	return nil
}

// discoverProducts opens the market search page and runs discovery on it.
func (p *Pipeline) discoverProducts(ctx context.Context, market models.Market, logger logging.Logger) ([]models.ProductRef, error) {
	page, err := p.browser.NewPage(ctx, market.Language)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	p.applyCookies(ctx, page, logger)

	searchURL := p.finder.SearchURL(market)
	logger.Info("Accessing search URL", map[string]interface{}{
		"url": searchURL,
	})

	if err := p.navigate(ctx, page, searchURL); err != nil {
		return nil, err
	}
	_ = utils.RandomDelay(ctx, p.config.Delays.NavMin, p.config.Delays.NavMax)

	if err := page.WaitForSelector(ctx, ".product-card", 10*time.Second); err != nil {
		logger.Warn("Product cards not found, trying alternative selectors")
	}

	products, err := p.finder.Discover(ctx, page, market)
	if err != nil {
		return nil, err
	}

	p.saveCookies(ctx, page, logger)
	return products, nil
}

// harvestProduct runs the per-product sequence: navigate, locate the
// review region (with challenge recovery), trigger lazy loading, extract,
// normalize. Returned records are validated but not yet deduplicated.
func (p *Pipeline) harvestProduct(ctx context.Context, market models.Market, product models.ProductRef, summary *Summary, logger logging.Logger) ([]models.ReviewRecord, error) {
	productLogger := logger.WithField("product_url", product.URL)
	productLogger.Info("Scraping reviews for product", map[string]interface{}{
		"name": product.Name,
	})

	page, err := p.browser.NewPage(ctx, market.Language)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	p.applyCookies(ctx, page, productLogger)

	if err := p.navigate(ctx, page, product.URL); err != nil {
		return nil, err
	}
	_ = utils.RandomDelay(ctx, p.config.Delays.NavMin, p.config.Delays.NavMax)

	var prefix string
	if p.config.Output.DebugCaptures {
		prefix = p.debug.Prefix(market.Key, product.URL)
		p.debug.SavePageSource(page, prefix+"_initial")
		p.debug.SaveProbeReport(page, prefix+"_initial_selector_probe")
	}

	outcome, err := p.recovery.Locate(ctx, page)
	if err != nil {
		return nil, err
	}
	if outcome.Waited && p.config.Output.DebugCaptures {
		p.debug.SavePageSource(page, prefix+"_after_challenge")
		p.debug.SaveProbeReport(page, prefix+"_after_challenge_selector_probe")
		if shot, err := page.CaptureScreenshot(ctx); err == nil {
			p.debug.SaveScreenshot(shot, prefix+"_after_challenge")
		}
	}
	if outcome.State != challenge.StateFound {
		productLogger.Warn("No review region found after retry, skipping product")
		return nil, nil
	}

	_ = page.SimulateReading(ctx)
	if err := page.TriggerLazyLoad(ctx); err != nil {
		productLogger.Debug("Lazy-load scrolling stopped early", map[string]interface{}{
			"error": err.Error(),
		})
	}

	candidates := p.chain.Extract(ctx, page, product)
	for _, candidate := range candidates {
		summary.ByStrategy[candidate.SourceStrategy]++
	}

	var records []models.ReviewRecord
	rejected := 0
	for _, candidate := range candidates {
		record, ok := p.normalizer.BuildRecord(candidate, product)
		if !ok {
			rejected++
			continue
		}
		records = append(records, record)
	}
	summary.Validated += len(records)
	summary.Rejected += rejected

	if len(records) == 0 {
		productLogger.Warn("No reviews extracted", map[string]interface{}{
			"candidates": len(candidates),
		})
		if p.config.Output.DebugCaptures {
			p.debug.SavePageSource(page, prefix+"_no_reviews")
		}
	}

	p.saveCookies(ctx, page, productLogger)
	return records, nil
}

// navigate paces the request through the host limiter, then drives the
// page.
func (p *Pipeline) navigate(ctx context.Context, page *headed.Page, target string) error {
	if err := p.limiter.Wait(ctx, target); err != nil {
		return err
	}
	return page.Navigate(ctx, target)
}

// applyCookies loads the persisted session into the page. Failures are
// logged and skipped; the harvest continues with a cold session.
func (p *Pipeline) applyCookies(ctx context.Context, page *headed.Page, logger logging.Logger) {
	cookies, err := p.store.Load(ctx)
	if err != nil {
		logger.Warn("Failed to load session cookies", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if len(cookies) == 0 {
		return
	}

	if err := page.ApplyCookies(cookies); err != nil {
		logger.Warn("Failed to apply session cookies", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	logger.Info("Loaded persisted cookies into browser session", map[string]interface{}{
		"count": len(cookies),
	})
}

// saveCookies persists the page's cookies for the next run. Failures are
// logged and skipped.
func (p *Pipeline) saveCookies(ctx context.Context, page *headed.Page, logger logging.Logger) {
	cookies, err := page.CollectCookies()
	if err != nil {
		logger.Debug("Failed to collect session cookies", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if err := p.store.Save(ctx, cookies); err != nil {
		logger.Warn("Failed to save session cookies", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (p *Pipeline) logSummary(logger logging.Logger, summary *Summary) {
	fields := map[string]interface{}{
		"markets":    summary.Markets,
		"products":   summary.Products,
		"validated":  summary.Validated,
		"rejected":   summary.Rejected,
		"duplicates": summary.Duplicates,
		"errors":     summary.Errors,
		"records":    len(summary.Records),
		"duration":   utils.FormatDuration(summary.FinishedAt.Sub(summary.StartedAt)),
	}
	for strategy, count := range summary.ByStrategy {
		fields["candidates_"+strategy] = count
	}
	logger.Info("Harvest complete", fields)

	if len(summary.Records) == 0 {
		logger.Warn("No reviews found; the storefront may be geo-gated, the brand absent, or the markup changed")
	}
}
