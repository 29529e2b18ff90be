package strategies

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"reviewharvest/internal/logging"
	"reviewharvest/internal/scraper"
	"reviewharvest/pkg/models"
	"reviewharvest/pkg/utils"
)

// EmbeddedDataStrategy reads the JSON island the storefront renders into a
// well-known script element and maps its review collection directly. When
// present it is the most stable source, so it runs first in the chain.
type EmbeddedDataStrategy struct {
	islandID string
	logger   logging.Logger
}

func NewEmbeddedDataStrategy(islandID string, logger logging.Logger) *EmbeddedDataStrategy {
	return &EmbeddedDataStrategy{
		islandID: islandID,
		logger:   logger,
	}
}

func (s *EmbeddedDataStrategy) Name() string {
	return models.StrategyEmbeddedData
}

func (s *EmbeddedDataStrategy) Extract(ctx context.Context, page scraper.PageAccessor, product models.ProductRef) ([]models.RawCandidate, error) {
	payload, err := s.readIsland(ctx, page)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload) == "" {
		s.logger.Debug("No embedded data island on page", map[string]interface{}{
			"island_id":   s.islandID,
			"product_url": product.URL,
		})
		return nil, nil
	}

	doc := gjson.Parse(payload)
	if !doc.IsObject() && !doc.IsArray() {
		return nil, utils.NewStrategyFailureError("embedded island is not a JSON document", nil)
	}

	island, ok := findReviewInfoNode(doc)
	if !ok {
		s.logger.Debug("Embedded data carries no review collection", map[string]interface{}{
			"product_url": product.URL,
		})
		return nil, nil
	}

	var candidates []models.RawCandidate
	island.Get("product_reviews").ForEach(func(_, item gjson.Result) bool {
		if candidate, mapped := s.mapItem(item, product); mapped {
			candidates = append(candidates, candidate)
		}
		return true
	})

	return candidates, nil
}

// readIsland fetches the island's text content. The element query comes
// first so snapshot accessors are served; script evaluation covers drivers
// where the node hides from selector queries.
func (s *EmbeddedDataStrategy) readIsland(ctx context.Context, page scraper.PageAccessor) (string, error) {
	handles, err := page.QueryAll("script#" + s.islandID)
	if err != nil {
		return "", err
	}
	if len(handles) > 0 {
		if text, textErr := handles[0].Text(); textErr == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	src := fmt.Sprintf("() => { const el = document.getElementById(%q); return el ? el.textContent : ''; }", s.islandID)
	content, err := page.EvaluateScript(ctx, src)
	if err != nil {
		// Snapshot accessors cannot evaluate scripts; the query above
		// already answered for them.
		return "", nil
	}
	return content, nil
}

// mapItem maps one provider review entry onto a raw candidate. Entries
// without review text are dropped here; everything else is judged by the
// normalizer later.
func (s *EmbeddedDataStrategy) mapItem(item gjson.Result, product models.ProductRef) (models.RawCandidate, bool) {
	text := strings.TrimSpace(item.Get("review_text").String())
	if text == "" {
		return models.RawCandidate{}, false
	}

	candidate := models.RawCandidate{
		ReviewerName:   item.Get("reviewer_name").String(),
		TextRaw:        text,
		DateRaw:        reviewDate(item.Get("review_time")),
		CountryRaw:     item.Get("review_country").String(),
		ProductName:    item.Get("product_name").String(),
		ProviderID:     item.Get("review_id").String(),
		SourceStrategy: models.StrategyEmbeddedData,
	}

	if rating := item.Get("review_rating"); rating.Exists() {
		candidate.RatingRaw = rating.String()
	}

	if item.Get("is_verified_purchase").Bool() {
		candidate.VerifiedRaw = models.VerifiedYes
	}

	return candidate, true
}

// reviewDate converts an epoch-millisecond review time to RFC 3339 UTC.
// A value that does not parse as a timestamp is kept verbatim, and an
// absent one yields "" so the sentinel applies downstream.
func reviewDate(value gjson.Result) string {
	if !value.Exists() {
		return ""
	}

	var millis int64
	switch value.Type {
	case gjson.Number:
		millis = value.Int()
	case gjson.String:
		parsed, err := strconv.ParseInt(strings.TrimSpace(value.Str), 10, 64)
		if err != nil {
			return value.Str
		}
		millis = parsed
	default:
		return value.String()
	}

	if millis <= 0 {
		return ""
	}
	return time.UnixMilli(millis).UTC().Format(time.RFC3339)
}

// findReviewInfoNode locates the first node in document order exposing a
// review_info object. Only the first match is used; a document embedding
// several such nodes is not exhaustively merged.
func findReviewInfoNode(node gjson.Result) (gjson.Result, bool) {
	if node.IsObject() {
		if island := node.Get("review_info"); island.Exists() && island.IsObject() {
			return island, true
		}
	}

	var found gjson.Result
	var ok bool
	node.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() && !value.IsArray() {
			return true
		}
		if sub, subOK := findReviewInfoNode(value); subOK {
			found = sub
			ok = true
			return false
		}
		return true
	})

	return found, ok
}
