// Package store persists the auth token across client restarts.
package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/config"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/database"
)

// Keys written by the session manager.
const (
	KeyAuthToken    = "auth_token"
	KeyRefreshToken = "auth_refresh_token"
)

// KV is a string key-value store. Last write wins.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Memory is a process-local KV.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Open builds the store named by cfg.TokenStore. The returned close function
// releases any connection the store holds.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (KV, func() error, error) {
	noop := func() error { return nil }

	switch cfg.TokenStore {
	case config.StoreMemory:
		return NewMemory(), noop, nil

	case config.StoreFile, "":
		f, err := NewFile(cfg.TokenFile, cfg.TokenPassphrase)
		if err != nil {
			return nil, nil, err
		}
		return f, noop, nil

	case config.StoreRedis:
		client, err := database.ConnectRedis(ctx, cfg.RedisURI, logger)
		if err != nil {
			return nil, nil, err
		}
		return NewRedis(client, ""), client.Close, nil

	case config.StorePostgres:
		db, err := database.ConnectPostgres(ctx, cfg.PostgresURI, logger)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgres(db), db.Close, nil
	}
	return nil, nil, fmt.Errorf("store: unknown token store %q", cfg.TokenStore)
}
