package strategies

import (
	"context"
	"strings"
	"unicode/utf8"

	"reviewharvest/internal/logging"
	"reviewharvest/internal/scraper"
	"reviewharvest/pkg/models"
	"reviewharvest/pkg/utils"
)

// FreeTextStrategy claims the containers the structured pass cannot read:
// any container whose text resolvers produce nothing is reduced to its
// visible text, and the longest line is taken as the review body. Review
// bodies are typically the longest line; short blobs are discarded here
// before they reach the normalizer.
type FreeTextStrategy struct {
	minTotalLen int
	minTextLen  int
	logger      logging.Logger
}

func NewFreeTextStrategy(minTotalLen, minTextLen int, logger logging.Logger) *FreeTextStrategy {
	return &FreeTextStrategy{
		minTotalLen: minTotalLen,
		minTextLen:  minTextLen,
		logger:      logger,
	}
}

func (s *FreeTextStrategy) Name() string {
	return models.StrategyFreeText
}

func (s *FreeTextStrategy) Extract(ctx context.Context, page scraper.PageAccessor, product models.ProductRef) ([]models.RawCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	containers, _, err := findContainers(page)
	if err != nil {
		return nil, utils.NewStrategyFailureError("container query failed", err)
	}

	var candidates []models.RawCandidate
	for _, container := range containers {
		// Containers the structured strategy can read are not ours.
		if _, ok := resolveFirst(container, textResolvers); ok {
			continue
		}

		if candidate, ok := s.extractContainer(container); ok {
			candidates = append(candidates, candidate)
		}
	}

	if len(candidates) > 0 {
		s.logger.Debug("Free-text fallback produced candidates", map[string]interface{}{
			"count":       len(candidates),
			"product_url": product.URL,
		})
	}

	return candidates, nil
}

func (s *FreeTextStrategy) extractContainer(container scraper.ElementHandle) (models.RawCandidate, bool) {
	raw, err := container.Text()
	if err != nil {
		return models.RawCandidate{}, false
	}

	raw = strings.TrimSpace(raw)
	if utf8.RuneCountInString(raw) < s.minTotalLen {
		return models.RawCandidate{}, false
	}

	lines := splitLines(raw)
	text := longestLine(lines)
	if text == "" {
		text = raw
	}
	if utf8.RuneCountInString(text) < s.minTextLen {
		return models.RawCandidate{}, false
	}

	reviewer := ""
	if len(lines) > 0 {
		reviewer = lines[0]
	}

	return models.RawCandidate{
		ReviewerName:   reviewer,
		TextRaw:        text,
		SourceStrategy: models.StrategyFreeText,
	}, true
}

// splitLines returns the non-empty trimmed lines of a text block.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// longestLine picks the entry with the most characters; earlier entries
// win length ties.
func longestLine(lines []string) string {
	longest := ""
	longestLen := 0
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > longestLen {
			longest = line
			longestLen = n
		}
	}
	return longest
}
