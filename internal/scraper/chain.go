package scraper

import (
	"context"
	"fmt"

	"reviewharvest/internal/logging"
	"reviewharvest/pkg/models"
)

// Chain runs extraction strategies in priority order and pools their
// candidates. A strategy failure is contained: it contributes nothing and
// the remaining strategies still run.
type Chain struct {
	strategies []Strategy
	logger     logging.Logger
}

func NewChain(logger logging.Logger, strategies ...Strategy) *Chain {
	return &Chain{
		strategies: strategies,
		logger:     logger,
	}
}

// Extract runs every strategy against the page and returns the pooled
// candidates in strategy-priority order.
func (c *Chain) Extract(ctx context.Context, page PageAccessor, product models.ProductRef) []models.RawCandidate {
	var pooled []models.RawCandidate

	for _, strategy := range c.strategies {
		candidates, err := c.run(ctx, strategy, page, product)
		if err != nil {
			c.logger.Warn("Extraction strategy failed", map[string]interface{}{
				"strategy":    strategy.Name(),
				"product_url": product.URL,
				"error":       err.Error(),
			})
			continue
		}

		c.logger.Debug("Extraction strategy finished", map[string]interface{}{
			"strategy":    strategy.Name(),
			"product_url": product.URL,
			"candidates":  len(candidates),
		})
		pooled = append(pooled, candidates...)
	}

	return pooled
}

// run isolates a single strategy, converting panics from driver or parser
// internals into ordinary errors.
func (c *Chain) run(ctx context.Context, strategy Strategy, page PageAccessor, product models.ProductRef) (candidates []models.RawCandidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			candidates = nil
			err = fmt.Errorf("strategy %s panicked: %v", strategy.Name(), r)
		}
	}()

	return strategy.Extract(ctx, page, product)
}
