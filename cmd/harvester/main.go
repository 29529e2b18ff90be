package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"reviewharvest/internal/config"
	"reviewharvest/internal/discovery"
	"reviewharvest/internal/logging"
	"reviewharvest/internal/normalize"
	"reviewharvest/internal/operator"
	"reviewharvest/internal/output"
	"reviewharvest/internal/pipeline"
	"reviewharvest/internal/scraper"
	"reviewharvest/internal/scraper/challenge"
	"reviewharvest/internal/scraper/engines/headed"
	"reviewharvest/internal/scraper/strategies"
	"reviewharvest/internal/session"
	"reviewharvest/pkg/models"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	marketKeys := flag.String("markets", "", "comma-separated market keys to run (default: all configured)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *marketKeys != "" {
		if err := selectMarkets(cfg, *marketKeys); err != nil {
			log.Fatalf("Failed to select markets: %v", err)
		}
	}

	// Initialize logging before anything that wants a logger
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	code := run(cfg)
	_ = logging.CloseLogging()
	os.Exit(code)
}

func run(cfg *config.Config) int {
	logger := logging.GetGlobalLogger()
	logger.Info("Starting review harvester", map[string]interface{}{
		"brand":   cfg.Scraper.TargetBrand,
		"markets": len(cfg.Markets),
	})

	// Ctrl+C or SIGTERM cancels the run; in-flight waits unblock through
	// the context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	browser := headed.NewManager(cfg, logger)
	defer browser.Cleanup()

	prompter, err := operator.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to start operator channel", map[string]interface{}{
			"error": err.Error(),
		})
		return 1
	}
	defer prompter.Close()

	store, err := session.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to open session store", map[string]interface{}{
			"error": err.Error(),
		})
		return 1
	}
	defer store.Close()

	chain := scraper.NewChain(logger,
		strategies.NewEmbeddedDataStrategy(cfg.Scraper.DataIslandID, logger),
		strategies.NewSelectorStrategy(logger),
		strategies.NewFreeTextStrategy(cfg.Scraper.MinFallbackLen, cfg.Scraper.MinReviewTextLen, logger),
	)

	deps := pipeline.Deps{
		Browser:    browser,
		Finder:     discovery.NewFinder(cfg, logger),
		Chain:      chain,
		Recovery:   challenge.NewRecovery(cfg, prompter, logger),
		Normalizer: normalize.New(cfg.Scraper.MinReviewTextLen, logger),
		Store:      store,
		Sink:       output.NewSink(cfg, logger),
		Debug:      output.NewDebugCapture(cfg, logger),
	}

	summary, err := pipeline.New(cfg, deps, logger).Run(ctx)
	if err != nil {
		logger.Error("Harvest run failed", map[string]interface{}{
			"error": err.Error(),
		})
		return 1
	}

	logger.Info("Run finished", map[string]interface{}{
		"records": len(summary.Records),
		"outputs": summary.OutputPaths,
	})
	return 0
}

// selectMarkets narrows the configured market list to the given
// comma-separated keys.
func selectMarkets(cfg *config.Config, keys string) error {
	var picked []models.Market
	for _, key := range strings.Split(keys, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		market, ok := cfg.MarketByKey(key)
		if !ok {
			return fmt.Errorf("unknown market %q", key)
		}
		picked = append(picked, market)
	}
	if len(picked) == 0 {
		return fmt.Errorf("no markets selected")
	}
	cfg.Markets = picked
	return nil
}
