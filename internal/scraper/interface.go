package scraper

import (
	"context"

	"reviewharvest/pkg/models"
)

// ElementHandle is a handle to one DOM element surfaced by a PageAccessor.
type ElementHandle interface {
	// Text returns the element's visible text.
	Text() (string, error)

	// Attribute returns the named attribute value, or nil when the
	// attribute is absent.
	Attribute(name string) (*string, error)

	// FindIn resolves the first descendant matching the selector.
	// A selector that matches nothing yields (nil, nil).
	FindIn(selector string) (ElementHandle, error)
}

// PageAccessor is the thin contract over a browser/DOM driver. The
// extraction pipeline consumes it and never manages the driver's process
// lifecycle.
type PageAccessor interface {
	// Navigate loads the URL and waits for the document to settle.
	Navigate(ctx context.Context, url string) error

	// EvaluateScript runs the script in page context and returns its
	// result as a string.
	EvaluateScript(ctx context.Context, src string) (string, error)

	// QueryAll returns every element matching the selector. A selector
	// that matches nothing yields an empty slice, not an error.
	QueryAll(selector string) ([]ElementHandle, error)
}

// Snapshotter is implemented by accessors that can export the current DOM,
// used for debug captures of pages that produced nothing.
type Snapshotter interface {
	HTML() (string, error)
}

// Strategy is one independent extraction method run against page state.
// Strategies have no data dependency on one another; the chain fixes their
// priority order for deduplication.
type Strategy interface {
	// Name identifies the strategy in logs and candidate provenance.
	Name() string

	// Extract produces candidate records from the current page state.
	Extract(ctx context.Context, page PageAccessor, product models.ProductRef) ([]models.RawCandidate, error)
}
