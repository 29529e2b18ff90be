package strategies

import (
	"strings"

	"reviewharvest/internal/scraper"
)

// containerSelectors locate individual review containers, tried in order
// until one yields elements.
var containerSelectors = []string{
	".review-item",
	".comment-item",
	".feedback-item",
	`[data-testid*="review"]`,
	`[data-e2e*="review"]`,
	`[data-e2e*="comment"]`,
	`[class*="Review"]`,
	`[class*="review"]`,
	`[class*="Comment"]`,
	`[class*="comment"]`,
}

// Per-field resolver chains. Order matters: the first resolver that
// produces a value wins the field.
var (
	nameResolvers = []FieldResolver{
		textResolver{selector: ".reviewer-name"},
		textResolver{selector: ".username"},
		textResolver{selector: ".author"},
	}

	ratingResolvers = []FieldResolver{
		attrOrTextResolver{selector: ".rating", attribute: "data-rating"},
		attrOrTextResolver{selector: ".star-rating", attribute: "data-rating"},
		attrOrTextResolver{selector: ".score", attribute: "data-rating"},
	}

	textResolvers = []FieldResolver{
		textResolver{selector: ".review-text"},
		textResolver{selector: ".comment-text"},
		textResolver{selector: ".content"},
	}

	dateResolvers = []FieldResolver{
		textResolver{selector: ".review-date"},
		textResolver{selector: ".timestamp"},
		textResolver{selector: ".date"},
	}

	helpfulResolvers = []FieldResolver{
		textResolver{selector: ".helpful-count"},
		textResolver{selector: ".likes"},
		textResolver{selector: ".thumbs-up"},
	}
)

// FieldResolver resolves one field's value inside a review container.
// Implementations report (value, true) on success and ("", false) when
// their pattern does not produce a value; internal faults count as no
// match, never as errors.
type FieldResolver interface {
	TryResolve(container scraper.ElementHandle) (string, bool)
}

// textResolver takes the trimmed text of the first descendant matching
// its selector. An element with empty text does not count as a match, so
// the field falls through to its sentinel.
type textResolver struct {
	selector string
}

func (r textResolver) TryResolve(container scraper.ElementHandle) (string, bool) {
	el, err := container.FindIn(r.selector)
	if err != nil || el == nil {
		return "", false
	}

	text, err := el.Text()
	if err != nil {
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return text, true
}

// attrOrTextResolver prefers a structured attribute over the element's
// visible text, for fields where the markup carries the machine value.
type attrOrTextResolver struct {
	selector  string
	attribute string
}

func (r attrOrTextResolver) TryResolve(container scraper.ElementHandle) (string, bool) {
	el, err := container.FindIn(r.selector)
	if err != nil || el == nil {
		return "", false
	}

	if val, attrErr := el.Attribute(r.attribute); attrErr == nil && val != nil {
		if trimmed := strings.TrimSpace(*val); trimmed != "" {
			return trimmed, true
		}
	}

	text, err := el.Text()
	if err != nil {
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return text, true
}

// resolveFirst runs resolvers in order and returns the first hit.
func resolveFirst(container scraper.ElementHandle, resolvers []FieldResolver) (string, bool) {
	for _, r := range resolvers {
		if value, ok := r.TryResolve(container); ok {
			return value, true
		}
	}
	return "", false
}

// findContainers returns the review containers for the first selector
// pattern that yields any, along with the winning pattern.
func findContainers(page scraper.PageAccessor) ([]scraper.ElementHandle, string, error) {
	for _, selector := range containerSelectors {
		handles, err := page.QueryAll(selector)
		if err != nil {
			return nil, "", err
		}
		if len(handles) > 0 {
			return handles, selector, nil
		}
	}
	return nil, "", nil
}
