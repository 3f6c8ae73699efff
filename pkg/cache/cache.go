// Package cache 提供定价结果缓存，支持进程内（bigcache）与 Redis（带熔断）两种后端
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Cache 字节级 KV 缓存
type Cache interface {
	// Get 读取缓存；未命中时 found 为 false 且 err 为 nil
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set 写入缓存，过期时间由后端配置决定
	Set(ctx context.Context, key string, value []byte) error
	// Close 释放资源
	Close() error
}

// GetJSON 读取 JSON 格式的缓存值
func GetJSON(ctx context.Context, c Cache, key string, dest any) (bool, error) {
	raw, found, err := c.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached value %s: %w", key, err)
	}
	return true, nil
}

// SetJSON 写入 JSON 格式的缓存值
func SetJSON(ctx context.Context, c Cache, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value %s: %w", key, err)
	}
	return c.Set(ctx, key, raw)
}

// Key 由前缀、类别与请求参数生成稳定的缓存 key
// 参数先做 JSON 序列化再取 SHA-256，结构体字段顺序固定因此 key 稳定。
func Key(prefix, kind string, params any) (string, error) {
	if kind == "" {
		return "", errors.New("cache key kind is required")
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode cache key params: %w", err)
	}
	sum := sha256.Sum256(raw)
	if prefix == "" {
		return kind + ":" + hex.EncodeToString(sum[:]), nil
	}
	return prefix + ":" + kind + ":" + hex.EncodeToString(sum[:]), nil
}
