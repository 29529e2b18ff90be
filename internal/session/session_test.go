package session

import (
	"testing"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
)

func TestNew_BackendDispatch(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{backend: "file"},
		{backend: "redis"},
		{backend: "none"},
		{backend: "memcached", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Session.Backend = tt.backend
			cfg.Session.Dir = t.TempDir()
			cfg.Redis.URL = "redis://localhost:6379"

			store, err := New(cfg, logging.NewMultiLogger())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error for an unknown backend")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer store.Close()

			var ok bool
			switch tt.backend {
			case "file":
				_, ok = store.(*FileStore)
			case "redis":
				_, ok = store.(*RedisStore)
			case "none":
				_, ok = store.(*NullStore)
			}
			if !ok {
				t.Errorf("New(%q) = %T", tt.backend, store)
			}
		})
	}
}
