package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"reviewharvest/internal/config"
	"reviewharvest/internal/logging"
	"reviewharvest/pkg/models"
	"reviewharvest/pkg/utils"
)

// FileStore keeps cookies in a JSON file under the session directory. The
// file layout is a plain indented array, readable by the dumps older
// deployments produced. Unknown keys such as sameSite are dropped on load.
type FileStore struct {
	path   string
	logger logging.Logger
}

// NewFileStore creates a file-backed session store.
func NewFileStore(cfg *config.Config, logger logging.Logger) *FileStore {
	return &FileStore{
		path:   cfg.CookiesPath(),
		logger: logger,
	}
}

// Load reads the cookie file. A missing file is a fresh session, not an
// error.
func (s *FileStore) Load(ctx context.Context) ([]models.Cookie, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, utils.NewPersistenceFailureError("reading session cookies", err)
	}

	var cookies []models.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, utils.NewPersistenceFailureError("decoding session cookies", err)
	}

	s.logger.Debug("Loaded persisted cookies", map[string]interface{}{
		"path":  s.path,
		"count": len(cookies),
	})
	return cookies, nil
}

// Save writes the cookie file atomically via a rename, so a crash mid-write
// never leaves a truncated session behind.
func (s *FileStore) Save(ctx context.Context, cookies []models.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return utils.NewPersistenceFailureError("creating session directory", err)
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return utils.NewPersistenceFailureError("encoding session cookies", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return utils.NewPersistenceFailureError("writing session cookies", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return utils.NewPersistenceFailureError("replacing session cookies", err)
	}

	s.logger.Debug("Saved session cookies", map[string]interface{}{
		"path":  s.path,
		"count": len(cookies),
	})
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
