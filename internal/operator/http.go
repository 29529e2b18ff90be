package operator

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
)

// HTTPPrompter resumes the run through a small HTTP API instead of the
// terminal, for deployments where the browser runs on a remote display.
// GET /status reports whether a wait is in progress; POST /resume releases
// it.
type HTTPPrompter struct {
	echo   *echo.Echo
	addr   string
	resume chan struct{}
	logger logging.Logger

	mu      sync.Mutex
	waiting bool
	reason  string
	since   time.Time
}

// NewHTTPPrompter creates the prompter and wires its routes. Call Start to
// bring the listener up.
func NewHTTPPrompter(cfg *config.Config, logger logging.Logger) *HTTPPrompter {
	p := &HTTPPrompter{
		echo:   echo.New(),
		addr:   cfg.Operator.ListenAddr,
		resume: make(chan struct{}),
		logger: logger,
	}

	p.echo.HideBanner = true
	p.echo.HidePort = true
	p.echo.Use(echomiddleware.Recover())

	p.echo.GET("/status", p.statusHandler)
	p.echo.POST("/resume", p.resumeHandler)

	return p
}

// Start brings the listener up in the background.
func (p *HTTPPrompter) Start() {
	p.logger.Info("Operator listener starting", map[string]interface{}{
		"address": p.addr,
	})

	go func() {
		if err := p.echo.Start(p.addr); err != nil && err != http.ErrServerClosed {
			p.logger.Error("Operator listener failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
}

// AwaitResume blocks until POST /resume arrives or the context ends.
func (p *HTTPPrompter) AwaitResume(ctx context.Context, reason string) error {
	p.mu.Lock()
	p.waiting = true
	p.reason = reason
	p.since = time.Now()
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.waiting = false
		p.reason = ""
		p.mu.Unlock()
	}()

	p.logger.Info("Waiting for operator resume", map[string]interface{}{
		"reason":  reason,
		"address": p.addr,
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.resume:
		return nil
	}
}

// Close shuts the listener down.
func (p *HTTPPrompter) Close() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.echo.Shutdown(shutdownCtx)
}

func (p *HTTPPrompter) statusHandler(c echo.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	body := map[string]interface{}{
		"status": "running",
	}
	if p.waiting {
		body["status"] = "waiting_for_operator"
		body["reason"] = p.reason
		body["waiting_since"] = p.since.Format(time.RFC3339)
	}

	return c.JSON(http.StatusOK, body)
}

func (p *HTTPPrompter) resumeHandler(c echo.Context) error {
	select {
	case p.resume <- struct{}{}:
		p.logger.Info("Operator resumed via HTTP", map[string]interface{}{
			"remote": c.RealIP(),
		})
		return c.JSON(http.StatusOK, map[string]string{
			"status": "resumed",
		})
	default:
		return c.JSON(http.StatusConflict, map[string]string{
			"status":  "idle",
			"message": "no wait in progress",
		})
	}
}
