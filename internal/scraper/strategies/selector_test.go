package strategies

import (
	"context"
	"testing"

	"reviewharvest/internal/logging"
	"reviewharvest/internal/scraper/engines/static"
	"reviewharvest/pkg/models"
)

func selectorPage(t *testing.T, html string) *static.Accessor {
	t.Helper()

	page, err := static.FromHTML(html)
	if err != nil {
		t.Fatalf("FromHTML() error = %v", err)
	}
	return page
}

func TestSelectorExtract_ResolvesFields(t *testing.T) {
	// Containers match the third pattern in the container list; within
	// them every field resolves through its own chain.
	page := selectorPage(t, `<html><body>
		<div class="feedback-item">
			<span class="reviewer-name">Linh</span>
			<span class="rating" data-rating="4.5">four and a half</span>
			<p class="review-text">Absorbs quickly and smells great</p>
			<span class="review-date">2024-01-01</span>
			<span class="helpful-count">12</span>
		</div>
		<div class="feedback-item">
			<span class="username">Mai</span>
			<span class="star-rating">5</span>
			<p class="comment-text">Bought twice already, love it</p>
		</div>
	</body></html>`)

	s := NewSelectorStrategy(logging.NewMultiLogger())
	candidates, err := s.Extract(context.Background(), page, strategyProduct())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.ReviewerName != "Linh" {
		t.Errorf("ReviewerName = %q", first.ReviewerName)
	}
	if first.RatingRaw != "4.5" {
		t.Errorf("RatingRaw = %q, want the data-rating attribute to win", first.RatingRaw)
	}
	if first.TextRaw != "Absorbs quickly and smells great" {
		t.Errorf("TextRaw = %q", first.TextRaw)
	}
	if first.DateRaw != "2024-01-01" {
		t.Errorf("DateRaw = %q", first.DateRaw)
	}
	if first.HelpfulRaw != "12" {
		t.Errorf("HelpfulRaw = %q", first.HelpfulRaw)
	}
	if first.SourceStrategy != models.StrategySelector {
		t.Errorf("SourceStrategy = %q", first.SourceStrategy)
	}

	second := candidates[1]
	if second.ReviewerName != "Mai" {
		t.Errorf("second ReviewerName = %q, want the .username fallback", second.ReviewerName)
	}
	if second.RatingRaw != "5" {
		t.Errorf("second RatingRaw = %q, want element text when no attribute", second.RatingRaw)
	}
	if second.DateRaw != "" {
		t.Errorf("unresolved date should stay empty, got %q", second.DateRaw)
	}
	if second.HelpfulRaw != "" {
		t.Errorf("unresolved helpful count should stay empty, got %q", second.HelpfulRaw)
	}
}

func TestSelectorExtract_FirstContainerPatternWins(t *testing.T) {
	// .review-item is earlier in the pattern list than .feedback-item, so
	// only its containers are walked.
	page := selectorPage(t, `<html><body>
		<div class="review-item">
			<p class="review-text">From the review-item container</p>
		</div>
		<div class="feedback-item">
			<p class="review-text">From the feedback-item container</p>
		</div>
	</body></html>`)

	s := NewSelectorStrategy(logging.NewMultiLogger())
	candidates, err := s.Extract(context.Background(), page, strategyProduct())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].TextRaw != "From the review-item container" {
		t.Errorf("TextRaw = %q", candidates[0].TextRaw)
	}
}

func TestSelectorExtract_NoContainers(t *testing.T) {
	page := selectorPage(t, `<html><body><p>nothing to see</p></body></html>`)

	s := NewSelectorStrategy(logging.NewMultiLogger())
	candidates, err := s.Extract(context.Background(), page, strategyProduct())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}
