package discovery

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
	"reviewharvest/internal/scraper"
	"reviewharvest/pkg/models"
	"reviewharvest/pkg/utils"
)

// cardSelectors locate product cards on a search results page. The first
// selector that yields elements wins.
var cardSelectors = []string{
	".product-card",
	`[data-testid*='product']`,
	".item-card",
	".goods-card",
	`a[href*='/product/']`,
}

var (
	nameSelectors  = []string{".product-name", ".item-title", "h3", "h4"}
	priceSelectors = []string{".price", ".product-price", ".cost"}
	titleSelectors = []string{"h1", ".product-title", `[data-testid*="title"]`}
)

// Finder discovers brand products on a market storefront, by search page
// card scan first and a raw source scan of product links as fallback.
type Finder struct {
	config *config.Config
	logger logging.Logger
}

// NewFinder creates a product discovery finder.
func NewFinder(cfg *config.Config, logger logging.Logger) *Finder {
	return &Finder{
		config: cfg,
		logger: logger,
	}
}

// SearchURL builds the market's brand search URL.
func (f *Finder) SearchURL(market models.Market) string {
	return market.BaseURL + "/search?q=" + url.QueryEscape(f.config.Scraper.TargetBrand)
}

// Discover scans the already-loaded search page for product cards and
// extracts a ProductRef per card naming the target brand. When no card
// selector yields anything it falls back to harvesting product links from
// the raw page source and visiting each one.
func (f *Finder) Discover(ctx context.Context, page scraper.PageAccessor, market models.Market) ([]models.ProductRef, error) {
	cards, selector, err := f.findCards(page)
	if err != nil {
		return nil, err
	}

	if len(cards) == 0 {
		f.logger.Warn("No product cards found, scanning page source for product links", map[string]interface{}{
			"market": market.Key,
		})
		return f.scanSource(ctx, page, market)
	}

	f.logger.Info("Found product cards", map[string]interface{}{
		"market":   market.Key,
		"selector": selector,
		"count":    len(cards),
	})

	if len(cards) > f.config.Scraper.SearchLimit {
		cards = cards[:f.config.Scraper.SearchLimit]
	}

	var products []models.ProductRef
	for _, card := range cards {
		ref, ok := f.extractCard(card, market)
		if !ok || !f.matchesBrand(ref.Name) {
			continue
		}
		products = append(products, ref)
		f.logger.Info("Discovered brand product", map[string]interface{}{
			"market": market.Key,
			"name":   ref.Name,
			"url":    ref.URL,
		})
	}
	return products, nil
}

// findCards walks the card selectors and returns the first non-empty match.
// A selector error counts as no match unless every selector errors.
func (f *Finder) findCards(page scraper.PageAccessor) ([]scraper.ElementHandle, string, error) {
	var lastErr error
	errored := 0

	for _, selector := range cardSelectors {
		handles, err := page.QueryAll(selector)
		if err != nil {
			errored++
			lastErr = err
			continue
		}
		if len(handles) > 0 {
			return handles, selector, nil
		}
	}

	if errored == len(cardSelectors) {
		return nil, "", utils.NewDriverFailureError("product card scan failed", lastErr)
	}
	return nil, "", nil
}

// extractCard reads one product card. A card without a link is unusable;
// every other field degrades to its sentinel.
func (f *Finder) extractCard(card scraper.ElementHandle, market models.Market) (models.ProductRef, bool) {
	href := cardLink(card)
	if href == "" {
		return models.ProductRef{}, false
	}

	rating := models.SentinelNA
	if v := firstText(card, []string{".rating, .star-rating"}); v != "" {
		rating = v
	}
	reviewCount := models.SentinelNA
	if v := firstText(card, []string{".review-count, .reviews"}); v != "" {
		reviewCount = v
	}
	price := models.SentinelNA
	if v := firstText(card, priceSelectors); v != "" {
		price = v
	}

	return models.ProductRef{
		URL:         f.absoluteURL(href, market),
		Name:        firstText(card, nameSelectors),
		Price:       price,
		Rating:      rating,
		ReviewCount: reviewCount,
		Brand:       f.config.Scraper.TargetBrand,
		Market:      market.Key,
	}, true
}

// scanSource parses the page source for product-detail links and visits
// each to read its title, keeping those that name the brand. Card-level
// fields are not available on this path and stay at their sentinels.
func (f *Finder) scanSource(ctx context.Context, page scraper.PageAccessor, market models.Market) ([]models.ProductRef, error) {
	snap, ok := page.(scraper.Snapshotter)
	if !ok {
		return nil, nil
	}

	html, err := snap.HTML()
	if err != nil {
		return nil, utils.NewDriverFailureError("reading search page source", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var productURLs []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, "/product/") {
			return
		}
		full := f.absoluteURL(href, market)
		if seen[full] {
			return
		}
		seen[full] = true
		productURLs = append(productURLs, full)
	})

	if len(productURLs) > f.config.Scraper.SourceScanLimit {
		productURLs = productURLs[:f.config.Scraper.SourceScanLimit]
	}

	var products []models.ProductRef
	for _, productURL := range productURLs {
		if ctx.Err() != nil {
			return products, ctx.Err()
		}

		if err := page.Navigate(ctx, productURL); err != nil {
			f.logger.Debug("Failed to open product link", map[string]interface{}{
				"url":   productURL,
				"error": err.Error(),
			})
			continue
		}
		utils.RandomDelay(ctx, f.config.Delays.ScrollMin, f.config.Delays.ScrollMax)

		name := pageText(page, titleSelectors)
		if name == "" || !f.matchesBrand(name) {
			continue
		}

		products = append(products, models.ProductRef{
			URL:         productURL,
			Name:        name,
			Price:       models.SentinelNA,
			Rating:      models.SentinelNA,
			ReviewCount: models.SentinelNA,
			Brand:       f.config.Scraper.TargetBrand,
			Market:      market.Key,
		})
		f.logger.Info("Discovered brand product from source scan", map[string]interface{}{
			"market": market.Key,
			"name":   name,
			"url":    productURL,
		})
	}
	return products, nil
}

func (f *Finder) matchesBrand(name string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(f.config.Scraper.TargetBrand))
}

// absoluteURL resolves a possibly relative href against the market base.
func (f *Finder) absoluteURL(href string, market models.Market) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(market.BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// cardLink pulls the product link off a card: the card's own href when the
// card is itself an anchor, otherwise the first anchor inside it.
func cardLink(card scraper.ElementHandle) string {
	if href, err := card.Attribute("href"); err == nil && href != nil && *href != "" {
		return *href
	}

	link, err := card.FindIn("a")
	if err != nil || link == nil {
		return ""
	}
	if href, err := link.Attribute("href"); err == nil && href != nil {
		return *href
	}
	return ""
}

// firstText returns the first selector whose element carries non-blank
// text.
func firstText(root scraper.ElementHandle, selectors []string) string {
	for _, selector := range selectors {
		child, err := root.FindIn(selector)
		if err != nil || child == nil {
			continue
		}
		text, err := child.Text()
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// pageText is firstText against the whole page.
func pageText(page scraper.PageAccessor, selectors []string) string {
	for _, selector := range selectors {
		handles, err := page.QueryAll(selector)
		if err != nil || len(handles) == 0 {
			continue
		}
		text, err := handles[0].Text()
		if err != nil {
			continue
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
