package challenge

import (
	"context"
	"strings"
	"time"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
	"reviewharvest/internal/scraper"
	"reviewharvest/pkg/utils"
)

// regionSelectors locate the review region on a product page, ordered from
// most to least specific. The first selector that yields elements wins.
var regionSelectors = []string{
	".reviews-section",
	".review-list",
	`[data-testid*="review"]`,
	`[class*="review"]`,
	`[class*="comment"]`,
	"#reviews",
	".comment-section",
}

// challengeIndicators are substrings that suggest an anti-bot interstitial
// rather than a genuinely review-less page. They annotate logs and the
// operator prompt; the wait itself is triggered by the missing region alone.
var challengeIndicators = []string{
	"captcha",
	"verify",
	"verification",
	"security check",
	"slide to verify",
	"puzzle",
	"unusual traffic",
	"access denied",
	"robot",
}

// State tracks where review-region location stands for the current page.
type State string

const (
	StateSearching          State = "searching"
	StateFound              State = "found"
	StateSuspectedChallenge State = "suspected_challenge"
	StateEmpty              State = "empty"
)

// Prompter blocks until a human operator signals that the page is usable
// again, typically after solving a puzzle in the visible browser.
type Prompter interface {
	AwaitResume(ctx context.Context, reason string) error
}

// Outcome reports how region location ended. Region and Selector are set
// only when State is StateFound. Waited records that an operator wait
// happened on the way to this outcome, so callers can capture
// post-challenge debug artifacts.
type Outcome struct {
	State    State
	Selector string
	Region   scraper.ElementHandle
	Waited   bool
}

// Recovery locates the review region and, when it is missing, runs the
// operator-assisted retry. The retry happens at most once per page.
type Recovery struct {
	config   *config.Config
	prompter Prompter
	logger   logging.Logger
}

// NewRecovery creates a challenge recovery handler.
func NewRecovery(cfg *config.Config, prompter Prompter, logger logging.Logger) *Recovery {
	return &Recovery{
		config:   cfg,
		prompter: prompter,
		logger:   logger,
	}
}

// Locate drives the recovery state machine: probe the region selectors,
// suspect a challenge on a miss, hold for the operator, then probe once
// more. A page with no region after the retry is reported as empty, not
// as an error; a page may genuinely carry no reviews.
func (r *Recovery) Locate(ctx context.Context, page scraper.PageAccessor) (*Outcome, error) {
	r.logger.Debug("Locating review region", map[string]interface{}{
		"state": string(StateSearching),
	})

	region, selector, err := r.probe(page)
	if err != nil {
		return nil, err
	}
	if region != nil {
		r.logger.Debug("Review region located", map[string]interface{}{
			"state":    string(StateFound),
			"selector": selector,
		})
		return &Outcome{State: StateFound, Selector: selector, Region: region}, nil
	}

	indicators := r.scanIndicators(page)
	r.logger.Warn("No review region found, suspecting a challenge page", map[string]interface{}{
		"state":      string(StateSuspectedChallenge),
		"indicators": strings.Join(indicators, ","),
	})

	if err := r.awaitOperator(ctx, indicators); err != nil {
		return nil, err
	}

	region, selector, err = r.probe(page)
	if err != nil {
		return nil, err
	}
	if region == nil {
		r.logger.Warn("No review region found after operator retry", map[string]interface{}{
			"state": string(StateEmpty),
		})
		return &Outcome{State: StateEmpty, Waited: true}, nil
	}

	r.logger.Info("Review region located after operator retry", map[string]interface{}{
		"state":    string(StateFound),
		"selector": selector,
	})
	return &Outcome{State: StateFound, Selector: selector, Region: region, Waited: true}, nil
}

// probe walks the region selectors and returns the first handle any of them
// yields. A selector error counts as no match unless every selector errors,
// which points at the driver rather than the page.
func (r *Recovery) probe(page scraper.PageAccessor) (scraper.ElementHandle, string, error) {
	var lastErr error
	errored := 0

	for _, selector := range regionSelectors {
		handles, err := page.QueryAll(selector)
		if err != nil {
			errored++
			lastErr = err
			continue
		}
		if len(handles) > 0 {
			return handles[0], selector, nil
		}
	}

	if errored == len(regionSelectors) {
		return nil, "", utils.NewDriverFailureError("review region probe failed", lastErr)
	}
	return nil, "", nil
}

// scanIndicators reports which challenge markers appear in the page HTML.
// Accessors without a snapshot view yield no indicators.
func (r *Recovery) scanIndicators(page scraper.PageAccessor) []string {
	snap, ok := page.(scraper.Snapshotter)
	if !ok {
		return nil
	}

	html, err := snap.HTML()
	if err != nil {
		return nil
	}

	lower := strings.ToLower(html)
	var found []string
	for _, indicator := range challengeIndicators {
		if strings.Contains(lower, indicator) {
			found = append(found, indicator)
		}
	}
	return found
}

// awaitOperator holds the run until the operator resumes it. A configured
// resume timeout bounds the wait; zero means wait forever. Cancellation of
// the parent context is reported as abandonment, not as a timeout.
func (r *Recovery) awaitOperator(ctx context.Context, indicators []string) error {
	waitCtx := ctx
	if r.config.Operator.ResumeTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.config.Operator.ResumeTimeout)
		defer cancel()
	}

	reason := "no review region on the current page"
	if len(indicators) > 0 {
		reason = "possible challenge page (" + strings.Join(indicators, ", ") + ")"
	}

	start := time.Now()
	err := r.prompter.AwaitResume(waitCtx, reason)
	if err == nil {
		r.logger.Info("Operator resumed the run", map[string]interface{}{
			"waited": time.Since(start).String(),
		})
		return nil
	}

	if ctx.Err() != nil {
		return utils.NewChallengeAbandonedError("run cancelled while waiting for the operator")
	}
	if waitCtx.Err() == context.DeadlineExceeded {
		return utils.NewChallengeTimeoutError("operator did not resume within " + r.config.Operator.ResumeTimeout.String())
	}
	return utils.NewChallengeAbandonedError(err.Error())
}
