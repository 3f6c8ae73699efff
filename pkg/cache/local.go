package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// LocalCache 进程内缓存
type LocalCache struct {
	store *bigcache.BigCache
}

// NewLocal 创建进程内缓存
func NewLocal(ctx context.Context, ttl time.Duration) (*LocalCache, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl
	cfg.Verbose = false

	store, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}
	return &LocalCache{store: store}, nil
}

// Get 读取缓存
func (l *LocalCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, err := l.store.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set 写入缓存
func (l *LocalCache) Set(_ context.Context, key string, value []byte) error {
	return l.store.Set(key, value)
}

// Close 关闭缓存
func (l *LocalCache) Close() error {
	return l.store.Close()
}
