package static

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"reviewharvest/internal/scraper"
)

// Accessor serves a parsed HTML document through the page accessor
// contract. It backs strategy tests and replays of saved page captures;
// it cannot execute scripts.
type Accessor struct {
	doc *goquery.Document
	url string
}

// New returns an empty accessor. Navigate loads a document into it.
func New() *Accessor {
	return &Accessor{}
}

// FromHTML parses raw HTML into a ready accessor.
func FromHTML(html string) (*Accessor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return &Accessor{doc: doc}, nil
}

// Navigate loads an HTML document from a local file path.
func (a *Accessor) Navigate(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("failed to read capture %s: %w", target, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse capture %s: %w", target, err)
	}

	a.doc = doc
	a.url = target
	return nil
}

// EvaluateScript always fails: a static document has no script runtime.
// Callers are expected to fall back to element queries.
func (a *Accessor) EvaluateScript(ctx context.Context, src string) (string, error) {
	return "", fmt.Errorf("static accessor cannot evaluate scripts")
}

func (a *Accessor) QueryAll(selector string) ([]scraper.ElementHandle, error) {
	if a.doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	var handles []scraper.ElementHandle
	a.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		handles = append(handles, &element{sel: sel})
	})

	return handles, nil
}

func (a *Accessor) HTML() (string, error) {
	if a.doc == nil {
		return "", fmt.Errorf("no document loaded")
	}

	return a.doc.Html()
}

// element adapts a goquery selection to the element handle contract.
type element struct {
	sel *goquery.Selection
}

func (e *element) Text() (string, error) {
	return e.sel.Text(), nil
}

func (e *element) Attribute(name string) (*string, error) {
	val, ok := e.sel.Attr(name)
	if !ok {
		return nil, nil
	}

	return &val, nil
}

func (e *element) FindIn(selector string) (scraper.ElementHandle, error) {
	found := e.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, nil
	}

	return &element{sel: found}, nil
}
