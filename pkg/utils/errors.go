package utils

import (
	"errors"
	"fmt"
)

// Error codes for the scrape error taxonomy. Codes are stable strings so
// tests and log queries can match on them.
const (
	CodeStrategyFailure    = "strategy_failure"
	CodeNoReviewRegion     = "no_review_region"
	CodeValidationRejected = "validation_rejected"
	CodeDriverFailure      = "driver_failure"
	CodePersistenceFailure = "persistence_failure"
	CodeChallengeTimeout   = "challenge_timeout"
	CodeChallengeAbandoned = "challenge_abandoned"
)

// ScrapeError represents a classified pipeline error
type ScrapeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Cause   error  `json:"-"`
}

func (e *ScrapeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *ScrapeError) Unwrap() error {
	return e.Cause
}

// HasCode reports whether err (or anything it wraps) is a ScrapeError
// carrying the given code.
func HasCode(err error, code string) bool {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// Taxonomy constructors

// NewStrategyFailureError classifies a single strategy's internal fault.
// These are recovered locally and never abort a product.
func NewStrategyFailureError(detail string, cause error) *ScrapeError {
	return &ScrapeError{
		Code:    CodeStrategyFailure,
		Message: "extraction strategy failed",
		Detail:  detail,
		Cause:   cause,
	}
}

// NewNoReviewRegionError signals that no review-region selector matched,
// which hands control to challenge recovery.
func NewNoReviewRegionError(detail string) *ScrapeError {
	return &ScrapeError{
		Code:    CodeNoReviewRegion,
		Message: "no recognizable review region",
		Detail:  detail,
	}
}

// NewValidationRejectedError marks a candidate dropped by validation.
// Rejections are counted, never surfaced to the caller.
func NewValidationRejectedError(detail string) *ScrapeError {
	return &ScrapeError{
		Code:    CodeValidationRejected,
		Message: "candidate rejected by validation",
		Detail:  detail,
	}
}

// NewDriverFailureError classifies a navigation or evaluation crash.
// Aborts the current product only; the run continues.
func NewDriverFailureError(detail string, cause error) *ScrapeError {
	return &ScrapeError{
		Code:    CodeDriverFailure,
		Message: "browser driver failure",
		Detail:  detail,
		Cause:   cause,
	}
}

// NewPersistenceFailureError classifies a cookie or output write fault.
// Non-fatal; the session proceeds without the persisted state.
func NewPersistenceFailureError(detail string, cause error) *ScrapeError {
	return &ScrapeError{
		Code:    CodePersistenceFailure,
		Message: "persistence failed",
		Detail:  detail,
		Cause:   cause,
	}
}

// NewChallengeTimeoutError signals that the operator did not resume within
// the configured bound.
func NewChallengeTimeoutError(detail string) *ScrapeError {
	return &ScrapeError{
		Code:    CodeChallengeTimeout,
		Message: "challenge wait timed out",
		Detail:  detail,
	}
}

// NewChallengeAbandonedError signals that the wait was cancelled before the
// operator resumed, usually by run shutdown.
func NewChallengeAbandonedError(detail string) *ScrapeError {
	return &ScrapeError{
		Code:    CodeChallengeAbandoned,
		Message: "challenge wait abandoned",
		Detail:  detail,
	}
}
