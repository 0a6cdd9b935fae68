package services

import (
	"context"
	"strings"

	apperrors "github.com/aihub/chatdoc-go/internal/errors"
	"github.com/aihub/chatdoc-go/internal/knowledge"
	"go.uber.org/zap"
)

// RetrievalResult 检索结果
// Context为空表示语料库中没有足以作答的证据
type RetrievalResult struct {
	Context string
	Sources []string
}

// Retriever 检索编排接口
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*RetrievalResult, error)
}

// RetrievalService 检索编排：查询向量化、Top-K检索、阈值过滤、上下文拼装
type RetrievalService struct {
	embedder knowledge.Embedder
	store    knowledge.VectorStore
	logger   *zap.Logger

	topK               int
	relevanceThreshold float64
	maxContextChars    int
	sourceSnippetChars int
}

// RetrievalParams 检索参数
type RetrievalParams struct {
	TopK               int
	RelevanceThreshold float64
	MaxContextChars    int
	SourceSnippetChars int
}

// NewRetrievalService 创建检索编排服务
func NewRetrievalService(embedder knowledge.Embedder, store knowledge.VectorStore, params RetrievalParams, logger *zap.Logger) *RetrievalService {
	if params.TopK <= 0 {
		params.TopK = 5
	}
	if params.MaxContextChars <= 0 {
		params.MaxContextChars = 4000
	}
	if params.SourceSnippetChars <= 0 {
		params.SourceSnippetChars = 500
	}
	return &RetrievalService{
		embedder:           embedder,
		store:              store,
		logger:             logger,
		topK:               params.TopK,
		relevanceThreshold: params.RelevanceThreshold,
		maxContextChars:    params.MaxContextChars,
		sourceSnippetChars: params.SourceSnippetChars,
	}
}

// Retrieve 执行一次检索
// 过滤策略：只用最高分与阈值比较（严格小于才拒绝），通过后Top-K全部进入上下文
func (s *RetrievalService) Retrieve(ctx context.Context, query string) (*RetrievalResult, error) {
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, apperrors.NewExternalError(apperrors.ErrCodeEmbeddingFailure,
			"failed to embed query", err)
	}

	matches, err := s.store.Query(ctx, embedding, s.topK)
	if err != nil {
		return nil, apperrors.NewExternalError(apperrors.ErrCodeIndexFailure,
			"vector index query failed", err)
	}

	if len(matches) == 0 {
		return &RetrievalResult{}, nil
	}

	maxScore := matches[0].Score
	for _, match := range matches[1:] {
		if match.Score > maxScore {
			maxScore = match.Score
		}
	}

	// 最高分低于阈值时整体拒绝，宁可不答也不用弱证据
	if maxScore < s.relevanceThreshold {
		s.logger.Debug("query rejected below relevance threshold",
			zap.Float64("max_score", maxScore),
			zap.Float64("threshold", s.relevanceThreshold))
		return &RetrievalResult{}, nil
	}

	chunks := make([]string, 0, len(matches))
	for _, match := range matches {
		// 缺少chunk元数据的记录直接跳过，不算错误
		if match.Metadata.Chunk == "" {
			continue
		}
		chunks = append(chunks, match.Metadata.Chunk)
	}
	if len(chunks) == 0 {
		return &RetrievalResult{}, nil
	}

	context := truncateRunes(strings.Join(chunks, "\n"), s.maxContextChars)

	return &RetrievalResult{
		Context: context,
		Sources: []string{truncateRunes(context, s.sourceSnippetChars)},
	}, nil
}

// truncateRunes 按rune截断到最多limit个字符
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
