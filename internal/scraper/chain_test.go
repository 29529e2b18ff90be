package scraper

import (
	"context"
	"errors"
	"testing"

	"reviewharvest/internal/logging"
	"reviewharvest/pkg/models"
)

type stubStrategy struct {
	name   string
	out    []models.RawCandidate
	err    error
	panics bool
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(ctx context.Context, page PageAccessor, product models.ProductRef) ([]models.RawCandidate, error) {
	if s.panics {
		panic("driver exploded")
	}
	return s.out, s.err
}

type nilPage struct{}

func (nilPage) Navigate(ctx context.Context, url string) error                  { return nil }
func (nilPage) EvaluateScript(ctx context.Context, src string) (string, error) { return "", nil }
func (nilPage) QueryAll(selector string) ([]ElementHandle, error)              { return nil, nil }

func candidate(strategy, text string) models.RawCandidate {
	return models.RawCandidate{SourceStrategy: strategy, TextRaw: text}
}

func TestChainExtract_PoolsInPriorityOrder(t *testing.T) {
	chain := NewChain(logging.NewMultiLogger(),
		&stubStrategy{name: "embedded", out: []models.RawCandidate{candidate("embedded", "a")}},
		&stubStrategy{name: "selector", out: []models.RawCandidate{candidate("selector", "b"), candidate("selector", "c")}},
	)

	pooled := chain.Extract(context.Background(), nilPage{}, models.ProductRef{})

	if len(pooled) != 3 {
		t.Fatalf("expected 3 pooled candidates, got %d", len(pooled))
	}
	if pooled[0].SourceStrategy != "embedded" || pooled[1].SourceStrategy != "selector" {
		t.Errorf("pool order does not follow strategy priority: %+v", pooled)
	}
}

func TestChainExtract_IsolatesFailingStrategy(t *testing.T) {
	chain := NewChain(logging.NewMultiLogger(),
		&stubStrategy{name: "embedded", err: errors.New("island unreadable")},
		&stubStrategy{name: "selector", out: []models.RawCandidate{candidate("selector", "b")}},
	)

	pooled := chain.Extract(context.Background(), nilPage{}, models.ProductRef{})

	if len(pooled) != 1 {
		t.Fatalf("expected the surviving strategy's candidate, got %d", len(pooled))
	}
	if pooled[0].SourceStrategy != "selector" {
		t.Errorf("unexpected candidate: %+v", pooled[0])
	}
}

func TestChainExtract_RecoversPanickingStrategy(t *testing.T) {
	chain := NewChain(logging.NewMultiLogger(),
		&stubStrategy{name: "embedded", panics: true},
		&stubStrategy{name: "selector", out: []models.RawCandidate{candidate("selector", "b")}},
	)

	pooled := chain.Extract(context.Background(), nilPage{}, models.ProductRef{})

	if len(pooled) != 1 {
		t.Fatalf("expected the surviving strategy's candidate, got %d", len(pooled))
	}
}

func TestChainExtract_NoStrategies(t *testing.T) {
	chain := NewChain(logging.NewMultiLogger())

	pooled := chain.Extract(context.Background(), nilPage{}, models.ProductRef{})
	if len(pooled) != 0 {
		t.Errorf("expected no candidates, got %d", len(pooled))
	}
}
