package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
	"reviewharvest/pkg/models"
	"reviewharvest/pkg/utils"
)

func redisConfig(t *testing.T, addr string) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.Session.Backend = "redis"
	cfg.Session.TTL = 24 * time.Hour
	cfg.Redis.URL = "redis://" + addr
	cfg.Redis.Timeout = 5 * time.Second
	return cfg
}

func TestRedisStore_LoadAbsentKeyIsFreshSession(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	store := NewRedisStore(redisConfig(t, mr.Addr()), logging.NewMultiLogger())
	defer store.Close()

	cookies, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cookies != nil {
		t.Errorf("expected no cookies, got %d", len(cookies))
	}
}

func TestRedisStore_SaveLoadRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	store := NewRedisStore(redisConfig(t, mr.Addr()), logging.NewMultiLogger())
	defer store.Close()

	in := []models.Cookie{
		{Name: "sessionid", Value: "abc123", Domain: ".tiktok.com", Secure: true},
	}
	if err := store.Save(context.Background(), in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(out) != 1 || out[0].Name != "sessionid" || out[0].Value != "abc123" {
		t.Errorf("cookies did not round-trip: %+v", out)
	}
}

func TestRedisStore_SaveAppliesSessionTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	cfg := redisConfig(t, mr.Addr())
	store := NewRedisStore(cfg, logging.NewMultiLogger())
	defer store.Close()

	if err := store.Save(context.Background(), []models.Cookie{{Name: "a", Value: "b"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if got := mr.TTL(cookieKey); got != cfg.Session.TTL {
		t.Errorf("TTL = %v, want %v", got, cfg.Session.TTL)
	}
}

func TestRedisStore_LoadCorruptPayload(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set(cookieKey, "{not json"); err != nil {
		t.Fatalf("seed key: %v", err)
	}

	store := NewRedisStore(redisConfig(t, mr.Addr()), logging.NewMultiLogger())
	defer store.Close()

	_, err = store.Load(context.Background())
	if err == nil {
		t.Fatal("expected an error for a corrupt payload")
	}
	if !utils.HasCode(err, utils.CodePersistenceFailure) {
		t.Errorf("expected persistence_failure, got %v", err)
	}
}

func TestRedisStore_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	store := NewRedisStore(redisConfig(t, mr.Addr()), logging.NewMultiLogger())
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
