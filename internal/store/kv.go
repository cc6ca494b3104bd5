package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss 表示缓存不存在
var ErrMiss = errors.New("cache miss")

// KV 抽象的 KV 存储（Redis 或内存实现）
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// RedisKV 基于 go-redis 的 KV 实现
type RedisKV struct {
	c *redis.Client
}

func NewRedisKV(c *redis.Client) *RedisKV { return &RedisKV{c: c} }

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

// MemoryKV 内存 KV + TTL（未配置 Redis 时的退化实现，也用于单元测试）
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]memoryItem
}

type memoryItem struct {
	value   string
	expires time.Time // zero = 不过期
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]memoryItem)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.data[key]
	if !ok {
		return "", ErrMiss
	}
	if !item.expires.IsZero() && time.Now().After(item.expires) {
		delete(m.data, key)
		return "", ErrMiss
	}
	return item.value, nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.data[key] = memoryItem{value: value, expires: exp}
	return nil
}
