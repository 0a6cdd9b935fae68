package knowledge

import "context"

// RecordMetadata 向量记录携带的元数据
type RecordMetadata struct {
	DocID    string `json:"doc_id"`
	Chunk    string `json:"chunk"`
	Filename string `json:"filename"`
}

// Record 向量索引中的一条记录，ID由"{doc_id}-{chunk序号}"确定性派生
type Record struct {
	ID        string
	Embedding []float32
	Metadata  RecordMetadata
}

// Match 向量检索结果，按相似度降序
type Match struct {
	ID       string
	Score    float64
	Metadata RecordMetadata
}

// VectorStore 向量存储抽象，相似度度量为余弦
type VectorStore interface {
	// Upsert 按ID写入或覆盖一批记录，一个文档的全部chunk应在一次调用中提交
	Upsert(ctx context.Context, records []Record) error
	// Query 返回与查询向量最相近的topK条记录（含元数据）
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	// Stats 返回索引中的记录总数
	Stats(ctx context.Context) (int64, error)
	Ready() bool
}
