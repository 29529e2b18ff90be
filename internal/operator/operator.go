package operator

import (
	"context"
	"fmt"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
)

// Prompter pauses the run until a human signals that it can continue.
// AwaitResume blocks until the operator acts or the context ends; waits
// are strictly sequential, one at a time.
type Prompter interface {
	AwaitResume(ctx context.Context, reason string) error
	Close() error
}

// New builds the prompter for the configured operator mode. The http mode
// starts its listener before returning.
func New(cfg *config.Config, logger logging.Logger) (Prompter, error) {
	switch cfg.Operator.Mode {
	case "stdin":
		return NewStdinPrompter(logger), nil
	case "http":
		prompter := NewHTTPPrompter(cfg, logger)
		prompter.Start()
		return prompter, nil
	default:
		return nil, fmt.Errorf("unknown operator mode: %s", cfg.Operator.Mode)
	}
}
