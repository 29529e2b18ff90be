package strategies

import (
	"context"

	"reviewharvest/internal/logging"
	"reviewharvest/internal/scraper"
	"reviewharvest/pkg/models"
	"reviewharvest/pkg/utils"
)

// SelectorStrategy walks the review containers in the rendered DOM and
// resolves each field through its own ordered resolver chain. Fields no
// resolver can produce stay empty; the normalizer fills sentinels.
type SelectorStrategy struct {
	logger logging.Logger
}

func NewSelectorStrategy(logger logging.Logger) *SelectorStrategy {
	return &SelectorStrategy{logger: logger}
}

func (s *SelectorStrategy) Name() string {
	return models.StrategySelector
}

func (s *SelectorStrategy) Extract(ctx context.Context, page scraper.PageAccessor, product models.ProductRef) ([]models.RawCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	containers, pattern, err := findContainers(page)
	if err != nil {
		return nil, utils.NewStrategyFailureError("container query failed", err)
	}
	if len(containers) == 0 {
		s.logger.Debug("No review containers matched", map[string]interface{}{
			"product_url": product.URL,
		})
		return nil, nil
	}

	s.logger.Debug("Review containers located", map[string]interface{}{
		"pattern":     pattern,
		"count":       len(containers),
		"product_url": product.URL,
	})

	candidates := make([]models.RawCandidate, 0, len(containers))
	for _, container := range containers {
		candidates = append(candidates, s.extractContainer(container))
	}

	return candidates, nil
}

// extractContainer resolves every review field within one container. A
// container always yields a candidate; ones without resolvable text are
// weeded out by validation so the free-text pass can claim them.
func (s *SelectorStrategy) extractContainer(container scraper.ElementHandle) models.RawCandidate {
	candidate := models.RawCandidate{
		SourceStrategy: models.StrategySelector,
	}

	if name, ok := resolveFirst(container, nameResolvers); ok {
		candidate.ReviewerName = name
	}
	if rating, ok := resolveFirst(container, ratingResolvers); ok {
		candidate.RatingRaw = rating
	}
	if text, ok := resolveFirst(container, textResolvers); ok {
		candidate.TextRaw = text
	}
	if date, ok := resolveFirst(container, dateResolvers); ok {
		candidate.DateRaw = date
	}
	if helpful, ok := resolveFirst(container, helpfulResolvers); ok {
		candidate.HelpfulRaw = helpful
	}

	return candidate
}
