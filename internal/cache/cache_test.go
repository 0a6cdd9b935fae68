package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "query:hello world", QueryKey("hello world"))
	// 精确匹配：大小写与空白差异产生不同的键
	assert.NotEqual(t, QueryKey("Hello"), QueryKey("hello"))
	assert.NotEqual(t, QueryKey("hello "), QueryKey("hello"))
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	noop := &NoopCache{}

	assert.NoError(t, noop.Set(context.Background(), "query:a", "value", 0))

	_, hit, err := noop.Get(context.Background(), "query:a")
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, noop.Ready())
}
