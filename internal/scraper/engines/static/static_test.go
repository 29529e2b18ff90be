package static

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fixtureHTML = `
<html><body>
	<div class="review-item" data-rating="5">
		<span class="username">Linh</span>
		<p class="content">Great serum, will buy again.</p>
	</div>
	<div class="review-item">
		<span class="username">Mai</span>
	</div>
</body></html>`

func TestAccessor_QueryAll(t *testing.T) {
	page, err := FromHTML(fixtureHTML)
	if err != nil {
		t.Fatalf("FromHTML() error = %v", err)
	}

	items, err := page.QueryAll(".review-item")
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	none, err := page.QueryAll(".missing")
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestElement_TextAndAttribute(t *testing.T) {
	page, err := FromHTML(fixtureHTML)
	if err != nil {
		t.Fatalf("FromHTML() error = %v", err)
	}

	items, err := page.QueryAll(".review-item")
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}

	rating, err := items[0].Attribute("data-rating")
	if err != nil {
		t.Fatalf("Attribute() error = %v", err)
	}
	if rating == nil || *rating != "5" {
		t.Errorf("data-rating = %v, want 5", rating)
	}

	absent, err := items[1].Attribute("data-rating")
	if err != nil {
		t.Fatalf("Attribute() error = %v", err)
	}
	if absent != nil {
		t.Errorf("absent attribute should be nil, got %q", *absent)
	}

	text, err := items[0].Text()
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if !strings.Contains(text, "Great serum") {
		t.Errorf("Text() = %q", text)
	}
}

func TestElement_FindIn(t *testing.T) {
	page, err := FromHTML(fixtureHTML)
	if err != nil {
		t.Fatalf("FromHTML() error = %v", err)
	}

	items, err := page.QueryAll(".review-item")
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}

	name, err := items[0].FindIn(".username")
	if err != nil {
		t.Fatalf("FindIn() error = %v", err)
	}
	if name == nil {
		t.Fatal("expected a username element")
	}
	if text, _ := name.Text(); text != "Linh" {
		t.Errorf("username = %q, want Linh", text)
	}

	missing, err := items[0].FindIn(".avatar")
	if err != nil {
		t.Fatalf("FindIn() error = %v", err)
	}
	if missing != nil {
		t.Error("unmatched descendant selector should yield nil")
	}
}

func TestAccessor_NavigateReadsCaptureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.html")
	if err := os.WriteFile(path, []byte(fixtureHTML), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	page := New()
	if err := page.Navigate(context.Background(), path); err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}

	items, err := page.QueryAll(".review-item")
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items from capture, got %d", len(items))
	}
}

func TestAccessor_NavigateMissingFile(t *testing.T) {
	page := New()
	if err := page.Navigate(context.Background(), filepath.Join(t.TempDir(), "gone.html")); err == nil {
		t.Error("expected an error for a missing capture file")
	}
}

func TestAccessor_EvaluateScriptUnsupported(t *testing.T) {
	page, err := FromHTML(fixtureHTML)
	if err != nil {
		t.Fatalf("FromHTML() error = %v", err)
	}

	if _, err := page.EvaluateScript(context.Background(), "1 + 1"); err == nil {
		t.Error("static pages cannot run scripts; expected an error")
	}
}

func TestAccessor_QueryBeforeLoad(t *testing.T) {
	page := New()
	if _, err := page.QueryAll("div"); err == nil {
		t.Error("expected an error before any document is loaded")
	}
}
