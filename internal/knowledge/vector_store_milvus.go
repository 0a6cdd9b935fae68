package knowledge

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aihub/chatdoc-go/internal/logger"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"
)

// MilvusOptions Milvus客户端配置
type MilvusOptions struct {
	Address    string
	Username   string
	Password   string
	Collection string
	Database   string
	VectorSize int
	UseTLS     bool
	Timeout    time.Duration
}

type milvusVectorStore struct {
	milvusClient client.Client
	collection   string
	vectorSize   int

	// Upsert与Query来自不同goroutine（上传请求与会话循环），
	// 集合的惰性创建和加载必须串行化
	loadMu sync.Mutex
	loaded bool
	setup  func(ctx context.Context) error
}

// NewMilvusVectorStore 创建Milvus向量存储
func NewMilvusVectorStore(opts MilvusOptions) (VectorStore, error) {
	if opts.Address == "" {
		opts.Address = "localhost:19530"
	}
	if opts.Collection == "" {
		opts.Collection = "document_chunks"
	}
	if opts.Database == "" {
		opts.Database = "default"
	}
	if opts.VectorSize == 0 {
		opts.VectorSize = 1536
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	milvusClient, err := client.NewClient(ctx, client.Config{
		Address:       opts.Address,
		DBName:        opts.Database,
		Username:      opts.Username,
		Password:      opts.Password,
		EnableTLSAuth: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	store := &milvusVectorStore{
		milvusClient: milvusClient,
		collection:   opts.Collection,
		vectorSize:   opts.VectorSize,
	}
	store.setup = store.setupCollection
	return store, nil
}

// ensureCollection 保证集合已创建并加载，仅在首次成功后短路
// 失败不置位，下一次调用整体重试
func (s *milvusVectorStore) ensureCollection(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.loaded {
		return nil
	}
	if err := s.setup(ctx); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

func (s *milvusVectorStore) setupCollection(ctx context.Context) error {
	hasCollection, err := s.milvusClient.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if !hasCollection {
		schema := &entity.Schema{
			CollectionName: s.collection,
			Description:    "Document chunk embeddings",
			Fields: []*entity.Field{
				{
					Name:       "id",
					DataType:   entity.FieldTypeVarChar,
					PrimaryKey: true,
					AutoID:     false,
					TypeParams: map[string]string{
						"max_length": "128",
					},
				},
				{
					Name:     "doc_id",
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "64",
					},
				},
				{
					Name:     "chunk",
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "65535",
					},
				},
				{
					Name:     "filename",
					DataType: entity.FieldTypeVarChar,
					TypeParams: map[string]string{
						"max_length": "512",
					},
				},
				{
					Name:     "vector",
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": fmt.Sprintf("%d", s.vectorSize),
					},
				},
			},
		}

		if err := s.milvusClient.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		// 创建索引，HNSW失败时回退IVF_FLAT
		var index entity.Index
		var indexErr error
		index, indexErr = entity.NewIndexHNSW(entity.COSINE, 8, 64)
		if indexErr != nil {
			index, indexErr = entity.NewIndexIvfFlat(entity.COSINE, 128)
			if indexErr != nil {
				return fmt.Errorf("failed to create index: %w", indexErr)
			}
		}
		if err := s.milvusClient.CreateIndex(ctx, s.collection, "vector", index, false); err != nil {
			// 索引创建失败不影响使用，只记录警告
			logger.Warn("failed to create index for collection",
				zap.String("collection", s.collection), zap.Error(err))
		}
	}

	if err := s.milvusClient.LoadCollection(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

func (s *milvusVectorStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	ids := make([]string, 0, len(records))
	docIDs := make([]string, 0, len(records))
	chunks := make([]string, 0, len(records))
	filenames := make([]string, 0, len(records))
	vectors := make([][]float32, 0, len(records))

	for _, record := range records {
		if len(record.Embedding) != s.vectorSize {
			return fmt.Errorf("embedding dimension mismatch: got %d, want %d",
				len(record.Embedding), s.vectorSize)
		}
		ids = append(ids, record.ID)
		docIDs = append(docIDs, record.Metadata.DocID)
		chunks = append(chunks, record.Metadata.Chunk)
		filenames = append(filenames, record.Metadata.Filename)
		vectors = append(vectors, record.Embedding)
	}

	idColumn := entity.NewColumnVarChar("id", ids)
	docIDColumn := entity.NewColumnVarChar("doc_id", docIDs)
	chunkColumn := entity.NewColumnVarChar("chunk", chunks)
	filenameColumn := entity.NewColumnVarChar("filename", filenames)
	vectorColumn := entity.NewColumnFloatVector("vector", s.vectorSize, vectors)

	if _, err := s.milvusClient.Upsert(ctx, s.collection, "",
		idColumn, docIDColumn, chunkColumn, filenameColumn, vectorColumn); err != nil {
		return fmt.Errorf("milvus upsert failed: %w", err)
	}

	if err := s.milvusClient.Flush(ctx, s.collection, false); err != nil {
		// 刷新失败不影响写入，只记录警告
		logger.Warn("failed to flush collection",
			zap.String("collection", s.collection), zap.Error(err))
	}

	return nil
}

func (s *milvusVectorStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 5
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	sp, _ := entity.NewIndexHNSWSearchParam(64)
	searchResults, err := s.milvusClient.Search(
		ctx,
		s.collection,
		[]string{},
		"",
		[]string{"doc_id", "chunk", "filename"},
		[]entity.Vector{entity.FloatVector(vector)},
		"vector",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	if len(searchResults) == 0 {
		return []Match{}, nil
	}
	result := searchResults[0]
	if result.Err != nil {
		return nil, fmt.Errorf("milvus search error: %w", result.Err)
	}
	if result.ResultCount == 0 {
		return []Match{}, nil
	}

	var ids []string
	if idCol, ok := result.IDs.(*entity.ColumnVarChar); ok {
		ids = idCol.Data()
	}

	var docIDs, chunks, filenames []string
	for _, field := range result.Fields {
		col, ok := field.(*entity.ColumnVarChar)
		if !ok {
			continue
		}
		switch field.Name() {
		case "doc_id":
			docIDs = col.Data()
		case "chunk":
			chunks = col.Data()
		case "filename":
			filenames = col.Data()
		}
	}

	matches := make([]Match, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		match := Match{}
		if i < len(ids) {
			match.ID = ids[i]
		}
		if i < len(result.Scores) {
			match.Score = float64(result.Scores[i])
		}
		if i < len(docIDs) {
			match.Metadata.DocID = docIDs[i]
		}
		if i < len(chunks) {
			match.Metadata.Chunk = chunks[i]
		}
		if i < len(filenames) {
			match.Metadata.Filename = filenames[i]
		}
		matches = append(matches, match)
	}

	return matches, nil
}

func (s *milvusVectorStore) Stats(ctx context.Context) (int64, error) {
	hasCollection, err := s.milvusClient.HasCollection(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to check collection: %w", err)
	}
	if !hasCollection {
		return 0, nil
	}

	stats, err := s.milvusClient.GetCollectionStatistics(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}

	count, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected row_count value %q: %w", stats["row_count"], err)
	}
	return count, nil
}

func (s *milvusVectorStore) Ready() bool {
	if s.milvusClient == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.milvusClient.ListCollections(ctx)
	return err == nil
}
