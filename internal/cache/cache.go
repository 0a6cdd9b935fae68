package cache

import (
	"context"
	"time"
)

// QueryCache 查询响应缓存抽象
// 缓存永远不是数据源，任何失败都应被调用方降级为未命中
type QueryCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Ready() bool
}

// QueryKey 生成查询缓存键（精确匹配，不做归一化）
func QueryKey(query string) string {
	return "query:" + query
}
