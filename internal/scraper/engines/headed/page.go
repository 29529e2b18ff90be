package headed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
	"reviewharvest/internal/scraper"
	"reviewharvest/pkg/models"
	"reviewharvest/pkg/utils"
)

// loadMoreSelectors are the controls that reveal additional reviews when
// the page paginates instead of lazy-loading.
var loadMoreSelectors = []string{
	".load-more",
	".show-more",
	"button[data-testid*='load']",
}

// Page adapts one live rod page to the extraction pipeline's accessor
// contract and carries the session-level operations around it.
type Page struct {
	page   *rod.Page
	config *config.Config
	logger logging.Logger
}

// Navigate loads the URL and waits for the load event, bounded by the
// configured page timeout.
func (p *Page) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, p.config.Scraper.PageTimeout)
	defer cancel()

	err := rod.Try(func() {
		p.page.Context(navCtx).MustNavigate(url).MustWaitLoad()
	})
	if err != nil {
		return utils.NewDriverFailureError(fmt.Sprintf("failed to navigate to %s", url), err)
	}

	p.logger.Debug("Navigation complete", map[string]interface{}{
		"url": url,
	})
	return nil
}

// EvaluateScript runs the script in page context and returns the result
// as a string. Plain expressions and function definitions both work; a
// null result maps to the empty string.
func (p *Page) EvaluateScript(ctx context.Context, src string) (string, error) {
	obj, err := p.page.Context(ctx).Eval(src)
	if err != nil {
		return "", utils.NewDriverFailureError("script evaluation failed", err)
	}
	if obj.Value.Nil() {
		return "", nil
	}
	return obj.Value.Str(), nil
}

// QueryAll returns every element currently matching the selector. It does
// not wait for elements to appear.
func (p *Page) QueryAll(selector string) ([]scraper.ElementHandle, error) {
	elements, err := p.page.Elements(selector)
	if err != nil {
		return nil, utils.NewDriverFailureError(fmt.Sprintf("query failed for %q", selector), err)
	}

	handles := make([]scraper.ElementHandle, 0, len(elements))
	for _, el := range elements {
		handles = append(handles, &element{el: el})
	}
	return handles, nil
}

// HTML returns the serialized DOM of the current page.
func (p *Page) HTML() (string, error) {
	html, err := p.page.HTML()
	if err != nil {
		return "", utils.NewDriverFailureError("failed to read page HTML", err)
	}
	return html, nil
}

// WaitForSelector waits for an element to appear on the page.
func (p *Page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := rod.Try(func() {
		p.page.Context(waitCtx).MustElement(selector)
	})
	if err != nil {
		return utils.NewDriverFailureError(fmt.Sprintf("element %q not found within %s", selector, timeout), err)
	}
	return nil
}

// TriggerLazyLoad scrolls to the bottom of the page for the configured
// number of passes, clicking any load-more control it finds, so lazily
// rendered reviews enter the DOM.
func (p *Page) TriggerLazyLoad(ctx context.Context) error {
	for pass := 0; pass < p.config.Scraper.ScrollPasses; pass++ {
		_, err := p.page.Context(ctx).Eval(`window.scrollTo(0, document.body.scrollHeight)`)
		if err != nil {
			return utils.NewDriverFailureError("scroll failed", err)
		}

		if err := utils.RandomDelay(ctx, p.config.Delays.ScrollMin, p.config.Delays.ScrollMax); err != nil {
			return err
		}

		p.clickLoadMore()
	}
	return nil
}

// clickLoadMore clicks the first load-more control present, if any. A
// missing button is the common case, so failures are only logged.
func (p *Page) clickLoadMore() {
	for _, selector := range loadMoreSelectors {
		clicked := false
		err := rod.Try(func() {
			has, el, hasErr := p.page.Has(selector)
			if hasErr != nil || !has {
				return
			}
			el.MustClick()
			clicked = true
		})
		if err != nil {
			p.logger.Debug("Load-more click failed", map[string]interface{}{
				"selector": selector,
				"error":    err.Error(),
			})
			continue
		}
		if clicked {
			p.logger.Debug("Clicked load-more control", map[string]interface{}{
				"selector": selector,
			})
			time.Sleep(2 * time.Second)
			return
		}
	}
}

// SimulateReading moves the mouse and scrolls gently so the session looks
// like a person skimming the page before extraction starts.
func (p *Page) SimulateReading(ctx context.Context) error {
	err := rod.Try(func() {
		for i := 0; i < 3; i++ {
			x := float64(200 + i*180)
			y := float64(150 + i*120)
			p.page.Context(ctx).Mouse.MustMoveTo(x, y)
			time.Sleep(time.Duration(200+i*100) * time.Millisecond)
		}

		p.page.Context(ctx).MustEval(`() => {
			window.scrollTo({top: 300, behavior: 'smooth'});
			setTimeout(() => {
				window.scrollTo({top: 0, behavior: 'smooth'});
			}, 700);
		}`)
		time.Sleep(1500 * time.Millisecond)
	})
	if err != nil {
		return utils.NewDriverFailureError("behavior simulation failed", err)
	}

	p.logger.Debug("Reading simulation completed", map[string]interface{}{})
	return nil
}

// ApplyCookies installs persisted cookies so the marketplace sees a
// returning session. Call before navigating to the product page.
func (p *Page) ApplyCookies(cookies []models.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		param := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if c.Expiry > 0 {
			param.Expires = proto.TimeSinceEpoch(c.Expiry)
		}
		params = append(params, param)
	}

	if err := p.page.SetCookies(params); err != nil {
		return utils.NewPersistenceFailureError("failed to set cookies", err)
	}

	p.logger.Debug("Applied session cookies", map[string]interface{}{
		"count": len(params),
	})
	return nil
}

// CollectCookies reads the cookies the current session accumulated.
func (p *Page) CollectCookies() ([]models.Cookie, error) {
	raw, err := p.page.Cookies(nil)
	if err != nil {
		return nil, utils.NewPersistenceFailureError("failed to read cookies", err)
	}

	cookies := make([]models.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expiry:   float64(c.Expires),
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		})
	}
	return cookies, nil
}

// CaptureScreenshot captures a full-page JPEG for debug output.
func (p *Page) CaptureScreenshot(ctx context.Context) ([]byte, error) {
	captureCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	quality := 90
	shot, err := p.page.Context(captureCtx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
	})
	if err != nil {
		return nil, utils.NewDriverFailureError("failed to capture screenshot", err)
	}
	return shot, nil
}

// Close releases the page. The browser stays up for the next product.
func (p *Page) Close() {
	err := rod.Try(func() {
		p.page.MustClose()
	})
	if err != nil {
		p.logger.Debug("Page close failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// element adapts a rod element to the element handle contract.
type element struct {
	el *rod.Element
}

func (e *element) Text() (string, error) {
	text, err := e.el.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read element text: %w", err)
	}
	return text, nil
}

func (e *element) Attribute(name string) (*string, error) {
	val, err := e.el.Attribute(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	return val, nil
}

func (e *element) FindIn(selector string) (scraper.ElementHandle, error) {
	has, child, err := e.el.Has(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	if !has {
		return nil, nil
	}
	return &element{el: child}, nil
}
