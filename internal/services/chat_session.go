package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aihub/chatdoc-go/internal/cache"
	"github.com/aihub/chatdoc-go/internal/knowledge"
	"github.com/aihub/chatdoc-go/internal/metrics"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Conn 会话连接抽象，*websocket.Conn天然满足
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

// QueryRequest 客户端单帧请求
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse 服务端单帧响应
type QueryResponse struct {
	Response string   `json:"response"`
	Source   []string `json:"source"`
}

// 会话通知语，作为协议的一部分保持稳定
const (
	noticeNoDocuments = "No documents are available."
	noticeEmptyQuery  = "Query cannot be empty."
)

// ChatSessionService 问答会话服务
// 每个连接独立运行一个循环：一个问题处理完毕后才读取下一帧
type ChatSessionService struct {
	cache       cache.QueryCache
	retriever   Retriever
	generator   AnswerGenerator
	store       knowledge.VectorStore
	logger      *zap.Logger
	cacheTTL    time.Duration
	callTimeout time.Duration
}

// NewChatSessionService 创建会话服务
func NewChatSessionService(queryCache cache.QueryCache, retriever Retriever,
	generator AnswerGenerator, store knowledge.VectorStore,
	cacheTTL, callTimeout time.Duration, logger *zap.Logger) *ChatSessionService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &ChatSessionService{
		cache:       queryCache,
		retriever:   retriever,
		generator:   generator,
		store:       store,
		logger:      logger,
		cacheTTL:    cacheTTL,
		callTimeout: callTimeout,
	}
}

// Run 驱动一个会话直到连接断开或出现未预期错误
// 前置检查只在会话开始时做一次：索引为空则直接告知并结束
func (s *ChatSessionService) Run(ctx context.Context, conn Conn) {
	statsCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	total, err := s.store.Stats(statsCtx)
	cancel()
	if err != nil {
		s.logger.Error("failed to read vector index stats", zap.Error(err))
		s.sendNotice(conn, fmt.Sprintf("An error occurred: %v", err))
		return
	}
	if total == 0 {
		s.sendNotice(conn, noticeNoDocuments)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// 客户端断开，会话正常结束
			s.logger.Debug("session closed", zap.Error(err))
			return
		}

		if !s.handleQuery(ctx, conn, data) {
			return
		}
	}
}

// handleQuery 处理一帧，返回false表示会话应终止
func (s *ChatSessionService) handleQuery(ctx context.Context, conn Conn, data []byte) bool {
	// 非法帧按空查询处理，不中断会话
	var request QueryRequest
	if err := json.Unmarshal(data, &request); err != nil {
		request.Query = ""
	}
	query := strings.TrimSpace(request.Query)

	if query == "" {
		return s.sendNotice(conn, noticeEmptyQuery)
	}

	metrics.QueriesTotal.Inc()
	cacheKey := cache.QueryKey(query)

	// 缓存失败一律降级为未命中，绝不因为缓存中断会话
	cacheCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	cached, hit, err := s.cache.Get(cacheCtx, cacheKey)
	cancel()
	if err != nil {
		s.logger.Warn("cache lookup failed, treating as miss", zap.Error(err))
		hit = false
	}
	if hit {
		metrics.CacheHits.Inc()
		// 缓存命中原样重放，不与当前索引内容做校验
		return s.send(conn, []byte(cached))
	}
	metrics.CacheMisses.Inc()

	retrieveCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	result, err := s.retriever.Retrieve(retrieveCtx, query)
	cancel()
	if err != nil {
		// 检索路径的失败属于未预期错误：告知后终止会话
		s.logger.Error("retrieval failed", zap.String("query", query), zap.Error(err))
		s.sendNotice(conn, fmt.Sprintf("An error occurred: %v", err))
		return false
	}

	prompt := BuildPrompt(query, result.Context)

	generateCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	answer, err := s.generator.Complete(generateCtx, SystemInstruction, prompt)
	cancel()
	if err != nil {
		// 生成失败降级为可读的错误文本，与正常回答一样缓存和返回
		metrics.GenerationFailures.Inc()
		s.logger.Warn("generation failed, returning error answer", zap.Error(err))
		answer = fmt.Sprintf("Error calling language model: %v", err)
	}

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}
	payload, err := json.Marshal(QueryResponse{Response: answer, Source: sources})
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		s.sendNotice(conn, fmt.Sprintf("An error occurred: %v", err))
		return false
	}

	setCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	if err := s.cache.Set(setCtx, cacheKey, string(payload), s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache response", zap.Error(err))
	}
	cancel()

	return s.send(conn, payload)
}

func (s *ChatSessionService) sendNotice(conn Conn, message string) bool {
	payload, _ := json.Marshal(map[string]string{"response": message})
	return s.send(conn, payload)
}

func (s *ChatSessionService) send(conn Conn, payload []byte) bool {
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.logger.Debug("failed to write frame, closing session", zap.Error(err))
		return false
	}
	return true
}
