package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aihub/chatdoc-go/internal/config"
	"github.com/aihub/chatdoc-go/internal/logger"
	"github.com/redis/go-redis/v9"
)

// InitRedis 初始化Redis连接
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connected successfully")
	return rdb, nil
}

// RedisCache 基于Redis的查询缓存
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建Redis查询缓存
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.client == nil {
		return "", false, fmt.Errorf("redis client not initialized")
	}
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if c.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Ready() bool {
	if c.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err() == nil
}

// NoopCache 未配置Redis时的占位实现，所有读取均为未命中
type NoopCache struct{}

func (n *NoopCache) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

func (n *NoopCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return nil
}

func (n *NoopCache) Ready() bool {
	return false
}
