package strategies

import (
	"context"
	"testing"

	"reviewharvest/internal/logging"
	"reviewharvest/pkg/models"
)

func TestFreeTextExtract_ClaimsUnstructuredContainers(t *testing.T) {
	page := selectorPage(t, `<html><body>
		<div class="comment-item">Structured one
			<p class="content">This container resolves through the structured chain</p>
		</div>
		<div class="comment-item">Mai
Great product for dry skin, absorbed within seconds
2 days ago</div>
	</body></html>`)

	s := NewFreeTextStrategy(15, 10, logging.NewMultiLogger())
	candidates, err := s.Extract(context.Background(), page, strategyProduct())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected only the unstructured container, got %d candidates", len(candidates))
	}

	candidate := candidates[0]
	if candidate.TextRaw != "Great product for dry skin, absorbed within seconds" {
		t.Errorf("TextRaw = %q, want the longest line", candidate.TextRaw)
	}
	if candidate.ReviewerName != "Mai" {
		t.Errorf("ReviewerName = %q, want the first line", candidate.ReviewerName)
	}
	if candidate.SourceStrategy != models.StrategyFreeText {
		t.Errorf("SourceStrategy = %q", candidate.SourceStrategy)
	}
}

func TestFreeTextExtract_DiscardsShortContainers(t *testing.T) {
	page := selectorPage(t, `<html><body>
		<div class="comment-item">too short</div>
	</body></html>`)

	s := NewFreeTextStrategy(15, 10, logging.NewMultiLogger())
	candidates, err := s.Extract(context.Background(), page, strategyProduct())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}

func TestFreeTextExtract_SingleLineIsBothNameAndText(t *testing.T) {
	page := selectorPage(t, `<html><body>
		<div class="comment-item">One single line that is clearly long enough</div>
	</body></html>`)

	s := NewFreeTextStrategy(15, 10, logging.NewMultiLogger())
	candidates, err := s.Extract(context.Background(), page, strategyProduct())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].ReviewerName != candidates[0].TextRaw {
		t.Errorf("single-line containers reuse the line for both fields, got name %q text %q",
			candidates[0].ReviewerName, candidates[0].TextRaw)
	}
}

func TestFreeTextExtract_EarlierLineWinsLengthTies(t *testing.T) {
	page := selectorPage(t, `<html><body>
		<div class="comment-item">aaaaaaaaaaaaaaaaaaaa
bbbbbbbbbbbbbbbbbbbb</div>
	</body></html>`)

	s := NewFreeTextStrategy(15, 10, logging.NewMultiLogger())
	candidates, err := s.Extract(context.Background(), page, strategyProduct())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].TextRaw != "aaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("TextRaw = %q, want the earlier of two equal-length lines", candidates[0].TextRaw)
	}
}
