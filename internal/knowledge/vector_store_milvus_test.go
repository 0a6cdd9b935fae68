package knowledge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnsureCollectionConcurrentSingleSetup(t *testing.T) {
	var setupCalls atomic.Int32
	store := &milvusVectorStore{collection: "document_chunks", vectorSize: 4}
	store.setup = func(ctx context.Context) error {
		setupCalls.Add(1)
		time.Sleep(5 * time.Millisecond)
		return nil
	}

	// 模拟上传请求与会话循环同时触达索引
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.ensureCollection(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), setupCalls.Load())
	assert.True(t, store.loaded)
}

func TestEnsureCollectionRetriesAfterFailure(t *testing.T) {
	var setupCalls atomic.Int32
	store := &milvusVectorStore{collection: "document_chunks", vectorSize: 4}
	store.setup = func(ctx context.Context) error {
		if setupCalls.Add(1) == 1 {
			return errors.New("milvus unreachable")
		}
		return nil
	}

	assert.Error(t, store.ensureCollection(context.Background()))
	assert.False(t, store.loaded)

	assert.NoError(t, store.ensureCollection(context.Background()))
	assert.True(t, store.loaded)
	assert.Equal(t, int32(2), setupCalls.Load())

	// 加载成功后不再触发setup
	assert.NoError(t, store.ensureCollection(context.Background()))
	assert.Equal(t, int32(2), setupCalls.Load())
}
