package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"reviewharvest/internal/logging"
	"reviewharvest/pkg/models"
	"reviewharvest/pkg/utils"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	numericRatingRe = regexp.MustCompile(`^\d+(\.\d+)?$`)
	wordRatingRe    = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*stars?$`)
)

// Filled star glyphs counted by rating normalization. Hollow stars are
// decoration, not score.
const filledStars = "★⭐"

// CleanText collapses whitespace runs into single spaces, trims the ends
// and doubles embedded quote characters for tabular serialization. Empty
// input stays empty.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	cleaned := whitespaceRe.ReplaceAllString(text, " ")
	cleaned = strings.TrimSpace(cleaned)
	return strings.ReplaceAll(cleaned, `"`, `""`)
}

// NormalizeRating maps the rating shapes the storefront renders onto a
// plain value. Applied in order: numeric strings pass through, "<n> stars"
// labels become one-decimal numbers, star glyph runs become the count of
// filled glyphs, empty input becomes "N/A" and anything else is returned
// unchanged. The function is idempotent: feeding its output back in
// returns the same value.
func NormalizeRating(rating string) string {
	rating = strings.TrimSpace(rating)
	if rating == "" {
		return models.SentinelNA
	}

	if numericRatingRe.MatchString(rating) {
		return rating
	}

	if match := wordRatingRe.FindStringSubmatch(rating); match != nil {
		value, err := strconv.ParseFloat(match[1], 64)
		if err == nil {
			return strconv.FormatFloat(value, 'f', 1, 64)
		}
	}

	if count := countFilledStars(rating); count > 0 {
		return strconv.Itoa(count)
	}

	return rating
}

func countFilledStars(s string) int {
	count := 0
	for _, r := range s {
		if strings.ContainsRune(filledStars, r) {
			count++
		}
	}
	return count
}

// Normalizer turns raw strategy candidates into canonical review records,
// applying sentinel defaults and the minimum-content gate.
type Normalizer struct {
	minTextLen int
	logger     logging.Logger
}

func New(minTextLen int, logger logging.Logger) *Normalizer {
	return &Normalizer{
		minTextLen: minTextLen,
		logger:     logger,
	}
}

// BuildRecord normalizes one candidate into a record. The second return
// is false when validation rejects the candidate; rejections are counted
// by the caller, never raised as errors. ReviewID stays empty when the
// provider supplied no id; the deduplicator assigns the content hash.
func (n *Normalizer) BuildRecord(candidate models.RawCandidate, product models.ProductRef) (models.ReviewRecord, bool) {
	record := models.ReviewRecord{
		ProductURL:       product.URL,
		ProductName:      utils.GetStringOrDefault(CleanText(candidate.ProductName), product.Name),
		ReviewerName:     utils.GetStringOrDefault(CleanText(candidate.ReviewerName), models.SentinelAnonymous),
		Rating:           NormalizeRating(candidate.RatingRaw),
		ReviewText:       CleanText(candidate.TextRaw),
		ReviewDate:       utils.GetStringOrDefault(CleanText(candidate.DateRaw), models.SentinelNA),
		VerifiedPurchase: utils.GetStringOrDefault(candidate.VerifiedRaw, models.SentinelNA),
		HelpfulVotes:     utils.GetStringOrDefault(CleanText(candidate.HelpfulRaw), models.SentinelZero),
		ReviewID:         candidate.ProviderID,
		CountryMarket:    utils.GetStringOrDefault(candidate.CountryRaw, product.Market),
		ScrapeTimestamp:  time.Now().Format(time.RFC3339),
	}

	if !n.valid(record) {
		n.logger.Debug("Candidate rejected by validation", map[string]interface{}{
			"strategy":    candidate.SourceStrategy,
			"product_url": product.URL,
			"text_len":    utf8.RuneCountInString(record.ReviewText),
		})
		return models.ReviewRecord{}, false
	}

	return record, true
}

// valid enforces the acceptance predicate: url, reviewer and text all
// present, and the cleaned text longer than the minimum-content threshold.
func (n *Normalizer) valid(record models.ReviewRecord) bool {
	if record.ProductURL == "" || record.ReviewerName == "" || record.ReviewText == "" {
		return false
	}
	return utf8.RuneCountInString(record.ReviewText) > n.minTextLen
}
