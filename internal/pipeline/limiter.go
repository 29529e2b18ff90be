package pipeline

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"reviewharvest/internal/logging"
)

// hostLimiter paces navigations per marketplace host. Limiters are created
// lazily; markets normally share one host, so the map stays tiny.
type hostLimiter struct {
	perMinute int
	logger    logging.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newHostLimiter(perMinute int, logger logging.Logger) *hostLimiter {
	return &hostLimiter{
		perMinute: perMinute,
		logger:    logger,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the target's host clears the next navigation.
func (l *hostLimiter) Wait(ctx context.Context, rawURL string) error {
	return l.limiterFor(hostOf(rawURL)).Wait(ctx)
}

func (l *hostLimiter) limiterFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters[host]; ok {
		return limiter
	}

	// Rate limit: requests per minute converted to requests per second
	rps := rate.Limit(float64(l.perMinute) / 60.0)
	burst := 5

	limiter := rate.NewLimiter(rps, burst)
	l.limiters[host] = limiter

	l.logger.Debug("Created host rate limiter", map[string]interface{}{
		"host":  host,
		"rate":  float64(rps),
		"burst": burst,
	})
	return limiter
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	host := parsed.Hostname()
	if host == "" {
		return "unknown"
	}
	return strings.ToLower(host)
}
