package knowledge

import (
	"context"
	"sort"
	"sync"
)

// memoryVectorStore 内存向量存储：暴力余弦检索
// 用于测试与未配置Milvus的本地运行，进程结束即丢失
type memoryVectorStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryVectorStore 创建内存向量存储
func NewMemoryVectorStore() VectorStore {
	return &memoryVectorStore{
		records: make(map[string]Record),
	}
}

func (s *memoryVectorStore) Upsert(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		s.records[record.ID] = record
	}
	return nil
}

func (s *memoryVectorStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.records))
	for _, record := range s.records {
		matches = append(matches, Match{
			ID:       record.ID,
			Score:    cosineSimilarity(vector, record.Embedding),
			Metadata: record.Metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *memoryVectorStore) Stats(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

func (s *memoryVectorStore) Ready() bool {
	return true
}

// cosineSimilarity 余弦相似度；入库与查询向量均已单位归一化，等价于点积
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
