package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
	"reviewharvest/pkg/models"
	"reviewharvest/pkg/utils"
)

const cookieKey = "reviewharvest:session:cookies"

// RedisStore keeps cookies in Redis with a TTL, for deployments where
// several hosts share one scraping identity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(cfg *config.Config, logger logging.Logger) *RedisStore {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		// Fallback to default configuration
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}

	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	opts.DialTimeout = cfg.Redis.Timeout
	opts.ReadTimeout = cfg.Redis.Timeout
	opts.WriteTimeout = cfg.Redis.Timeout

	return &RedisStore{
		client: redis.NewClient(opts),
		ttl:    cfg.Session.TTL,
		logger: logger,
	}
}

// Load fetches the cookie set. An absent key is a fresh session.
func (s *RedisStore) Load(ctx context.Context) ([]models.Cookie, error) {
	payload, err := s.client.Get(ctx, cookieKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, utils.NewPersistenceFailureError("reading session cookies from redis", err)
	}

	var cookies []models.Cookie
	if err := json.Unmarshal([]byte(payload), &cookies); err != nil {
		return nil, utils.NewPersistenceFailureError("decoding session cookies", err)
	}

	s.logger.Debug("Loaded persisted cookies", map[string]interface{}{
		"backend": "redis",
		"count":   len(cookies),
	})
	return cookies, nil
}

// Save stores the cookie set under the configured TTL, so an identity that
// stops being refreshed ages out on its own.
func (s *RedisStore) Save(ctx context.Context, cookies []models.Cookie) error {
	payload, err := json.Marshal(cookies)
	if err != nil {
		return utils.NewPersistenceFailureError("encoding session cookies", err)
	}

	if err := s.client.Set(ctx, cookieKey, payload, s.ttl).Err(); err != nil {
		return utils.NewPersistenceFailureError("writing session cookies to redis", err)
	}

	s.logger.Debug("Saved session cookies", map[string]interface{}{
		"backend": "redis",
		"count":   len(cookies),
		"ttl":     s.ttl.String(),
	})
	return nil
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
