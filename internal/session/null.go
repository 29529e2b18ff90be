package session

import (
	"context"

	"reviewharvest/pkg/models"
)

// NullStore disables session persistence. Every run starts with a clean
// browser identity.
type NullStore struct{}

// NewNullStore creates the no-op store.
func NewNullStore() *NullStore {
	return &NullStore{}
}

func (s *NullStore) Load(ctx context.Context) ([]models.Cookie, error) {
	return nil, nil
}

func (s *NullStore) Save(ctx context.Context, cookies []models.Cookie) error {
	return nil
}

func (s *NullStore) Close() error {
	return nil
}
