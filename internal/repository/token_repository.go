package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenRepository 记录已注销的 access token。
type TokenRepository interface {
	Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

type redisTokenRepository struct {
	redisClient *redis.Client
}

// NewTokenRepository 创建基于 Redis 的 TokenRepository。
func NewTokenRepository(redisClient *redis.Client) TokenRepository {
	return &redisTokenRepository{redisClient: redisClient}
}

func blacklistKey(tokenID string) string {
	return fmt.Sprintf("uvlhub:token:blacklist:%s", tokenID)
}

// Blacklist 将 token 加入黑名单，ttl 取 token 剩余有效期。
func (r *redisTokenRepository) Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.redisClient.Set(ctx, blacklistKey(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (r *redisTokenRepository) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.redisClient.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return n > 0, nil
}

// memoryTokenRepository 在未启用 Redis 时使用，仅在单进程内有效。
type memoryTokenRepository struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryTokenRepository 创建进程内的 TokenRepository。
func NewMemoryTokenRepository() TokenRepository {
	return &memoryTokenRepository{entries: make(map[string]time.Time)}
}

func (r *memoryTokenRepository) Blacklist(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	// 写入时顺带清理已过期的记录
	for id, exp := range r.entries {
		if now.After(exp) {
			delete(r.entries, id)
		}
	}
	r.entries[tokenID] = now.Add(ttl)
	return nil
}

func (r *memoryTokenRepository) IsBlacklisted(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.entries[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(r.entries, tokenID)
		return false, nil
	}
	return true, nil
}
