package di

import (
	"fmt"

	"github.com/aihub/chatdoc-go/internal/cache"
	"github.com/aihub/chatdoc-go/internal/config"
	"github.com/aihub/chatdoc-go/internal/knowledge"
	"github.com/aihub/chatdoc-go/internal/logger"
	"github.com/aihub/chatdoc-go/internal/services"
	"github.com/aihub/chatdoc-go/internal/storage"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// RegisterProviders 注册所有依赖提供者
// 容器是进程级的显式上下文对象，取代模块级单例
func RegisterProviders(container *dig.Container, queryCache cache.QueryCache,
	store knowledge.VectorStore, archive *storage.ArchiveStore) error {
	// 注册配置
	if err := container.Provide(func() (*config.Config, error) {
		cfg := config.GetAppConfig()
		if cfg == nil {
			return nil, fmt.Errorf("config not loaded")
		}
		return cfg, nil
	}); err != nil {
		return err
	}

	// 注册日志
	if err := container.Provide(func() *zap.Logger {
		return logger.GetLogger()
	}); err != nil {
		return err
	}

	// 注册外部依赖实例（启动时已初始化）
	if err := container.Provide(func() cache.QueryCache { return queryCache }); err != nil {
		return err
	}
	if err := container.Provide(func() knowledge.VectorStore { return store }); err != nil {
		return err
	}
	if err := container.Provide(func() *storage.ArchiveStore { return archive }); err != nil {
		return err
	}

	// 注册知识处理组件
	if err := container.Provide(knowledge.NewExtractor); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config) *knowledge.Chunker {
		return knowledge.NewChunker(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config) knowledge.Embedder {
		return knowledge.NewOpenAIEmbedder(cfg.AI.OpenAIAPIKey, cfg.AI.EmbeddingModel)
	}); err != nil {
		return err
	}

	// 注册服务
	if err := container.Provide(func(cfg *config.Config) services.AnswerGenerator {
		return services.NewOpenAIGenerator(&cfg.AI)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config, embedder knowledge.Embedder,
		store knowledge.VectorStore, log *zap.Logger) *services.RetrievalService {
		return services.NewRetrievalService(embedder, store, services.RetrievalParams{
			TopK:               cfg.Knowledge.TopK,
			RelevanceThreshold: cfg.Knowledge.RelevanceThreshold,
			MaxContextChars:    cfg.Knowledge.MaxContextChars,
			SourceSnippetChars: cfg.Knowledge.SourceSnippetChars,
		}, log)
	}); err != nil {
		return err
	}
	if err := container.Provide(func(r *services.RetrievalService) services.Retriever {
		return r
	}); err != nil {
		return err
	}
	if err := container.Provide(services.NewIngestService); err != nil {
		return err
	}
	if err := container.Provide(func(cfg *config.Config, queryCache cache.QueryCache,
		retriever services.Retriever, generator services.AnswerGenerator,
		store knowledge.VectorStore, log *zap.Logger) *services.ChatSessionService {
		return services.NewChatSessionService(queryCache, retriever, generator, store,
			cfg.Redis.CacheTTLDuration(), cfg.Knowledge.CallTimeout(), log)
	}); err != nil {
		return err
	}

	return nil
}
