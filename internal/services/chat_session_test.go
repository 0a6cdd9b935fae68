package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeConn struct {
	frames [][]byte
	next   int
	writes []string
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	if c.next >= len(c.frames) {
		return 0, nil, io.EOF
	}
	frame := c.frames[c.next]
	c.next++
	return websocket.TextMessage, frame, nil
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.writes = append(c.writes, string(data))
	return nil
}

type fakeCache struct {
	entries map[string]string
	getErr  error
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Ready() bool { return true }

type fakeRetriever struct {
	result *RetrievalResult
	err    error
	calls  int
}

func (r *fakeRetriever) Retrieve(ctx context.Context, query string) (*RetrievalResult, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if r.result != nil {
		return r.result, nil
	}
	return &RetrievalResult{}, nil
}

type fakeGenerator struct {
	answer string
	err    error
	calls  int
}

func (g *fakeGenerator) Complete(ctx context.Context, systemInstruction, prompt string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func (g *fakeGenerator) Ready() bool { return true }

type sessionFixture struct {
	service   *ChatSessionService
	cache     *fakeCache
	retriever *fakeRetriever
	generator *fakeGenerator
	store     *fakeStore
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		cache:     newFakeCache(),
		retriever: &fakeRetriever{result: &RetrievalResult{Context: "some context", Sources: []string{"some context"}}},
		generator: &fakeGenerator{answer: "the answer"},
		store:     &fakeStore{total: 3},
	}
	f.service = NewChatSessionService(f.cache, f.retriever, f.generator, f.store,
		time.Hour, time.Second, zap.NewNop())
	return f
}

func decodeResponse(t *testing.T, frame string) QueryResponse {
	t.Helper()
	var resp QueryResponse
	assert.NoError(t, json.Unmarshal([]byte(frame), &resp))
	return resp
}

func TestSessionEmptyIndexNotice(t *testing.T) {
	f := newSessionFixture()
	f.store.total = 0
	conn := &fakeConn{frames: [][]byte{[]byte(`{"query":"hello"}`)}}

	f.service.Run(context.Background(), conn)

	// 前置检查失败后直接结束，不读取任何查询帧
	assert.Equal(t, []string{`{"response":"No documents are available."}`}, conn.writes)
	assert.Equal(t, 0, conn.next)
	assert.Equal(t, 0, f.retriever.calls)
}

func TestSessionStatsFailure(t *testing.T) {
	f := newSessionFixture()
	f.store.statsErr = errors.New("index down")
	conn := &fakeConn{}

	f.service.Run(context.Background(), conn)

	assert.Len(t, conn.writes, 1)
	assert.Contains(t, conn.writes[0], "An error occurred:")
	assert.Contains(t, conn.writes[0], "index down")
}

func TestSessionEmptyQueryNotice(t *testing.T) {
	f := newSessionFixture()
	conn := &fakeConn{frames: [][]byte{
		[]byte(`{"query":"   "}`),
		[]byte(`{"query":"real question"}`),
	}}

	f.service.Run(context.Background(), conn)

	// 空查询只提示，会话继续处理后续帧
	assert.Len(t, conn.writes, 2)
	assert.Equal(t, `{"response":"Query cannot be empty."}`, conn.writes[0])
	assert.Equal(t, "the answer", decodeResponse(t, conn.writes[1]).Response)
	assert.Equal(t, 1, f.retriever.calls)
}

func TestSessionMalformedFrameTreatedAsEmpty(t *testing.T) {
	f := newSessionFixture()
	conn := &fakeConn{frames: [][]byte{[]byte(`not json at all`)}}

	f.service.Run(context.Background(), conn)

	assert.Equal(t, []string{`{"response":"Query cannot be empty."}`}, conn.writes)
	assert.Equal(t, 0, f.retriever.calls)
}

func TestSessionCacheHitReplaysVerbatim(t *testing.T) {
	f := newSessionFixture()
	cached := `{"response":"cached answer","source":["cached source"]}`
	f.cache.entries["query:hello"] = cached
	conn := &fakeConn{frames: [][]byte{[]byte(`{"query":"hello"}`)}}

	f.service.Run(context.Background(), conn)

	assert.Equal(t, []string{cached}, conn.writes)
	assert.Equal(t, 0, f.retriever.calls)
	assert.Equal(t, 0, f.generator.calls)
}

func TestSessionAnswerFlowAndCaching(t *testing.T) {
	f := newSessionFixture()
	conn := &fakeConn{frames: [][]byte{[]byte(`{"query":"hello"}`)}}

	f.service.Run(context.Background(), conn)

	assert.Len(t, conn.writes, 1)
	resp := decodeResponse(t, conn.writes[0])
	assert.Equal(t, "the answer", resp.Response)
	assert.Equal(t, []string{"some context"}, resp.Source)

	// 响应按相同键写入缓存，后续同一查询重放
	assert.Equal(t, conn.writes[0], f.cache.entries["query:hello"])
}

func TestSessionCacheIdempotence(t *testing.T) {
	f := newSessionFixture()
	conn := &fakeConn{frames: [][]byte{
		[]byte(`{"query":"hello"}`),
		[]byte(`{"query":"hello"}`),
	}}

	f.service.Run(context.Background(), conn)

	assert.Len(t, conn.writes, 2)
	assert.Equal(t, conn.writes[0], conn.writes[1])
	assert.Equal(t, 1, f.generator.calls)
}

func TestSessionNoSourcesYieldsEmptyArray(t *testing.T) {
	f := newSessionFixture()
	f.retriever.result = &RetrievalResult{}
	conn := &fakeConn{frames: [][]byte{[]byte(`{"query":"hello"}`)}}

	f.service.Run(context.Background(), conn)

	assert.Len(t, conn.writes, 1)
	assert.Contains(t, conn.writes[0], `"source":[]`)
}

func TestSessionGenerationFailureDegrades(t *testing.T) {
	f := newSessionFixture()
	f.generator.err = errors.New("rate limited")
	conn := &fakeConn{frames: [][]byte{
		[]byte(`{"query":"hello"}`),
		[]byte(`{"query":"next question"}`),
	}}

	f.service.Run(context.Background(), conn)

	// 生成失败降级为错误文本，会话不中断，错误文本同样被缓存
	assert.Len(t, conn.writes, 2)
	resp := decodeResponse(t, conn.writes[0])
	assert.Equal(t, "Error calling language model: rate limited", resp.Response)
	assert.Equal(t, conn.writes[0], f.cache.entries["query:hello"])
}

func TestSessionCacheFailureTreatedAsMiss(t *testing.T) {
	f := newSessionFixture()
	f.cache.getErr = errors.New("redis down")
	conn := &fakeConn{frames: [][]byte{[]byte(`{"query":"hello"}`)}}

	f.service.Run(context.Background(), conn)

	assert.Len(t, conn.writes, 1)
	assert.Equal(t, "the answer", decodeResponse(t, conn.writes[0]).Response)
	assert.Equal(t, 1, f.generator.calls)
}

func TestSessionCacheSetFailureIgnored(t *testing.T) {
	f := newSessionFixture()
	f.cache.setErr = errors.New("redis down")
	conn := &fakeConn{frames: [][]byte{[]byte(`{"query":"hello"}`)}}

	f.service.Run(context.Background(), conn)

	assert.Len(t, conn.writes, 1)
	assert.Equal(t, "the answer", decodeResponse(t, conn.writes[0]).Response)
}

type blockingRetriever struct {
	calls int
}

func (r *blockingRetriever) Retrieve(ctx context.Context, query string) (*RetrievalResult, error) {
	r.calls++
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSessionSlowRetrievalHitsDeadline(t *testing.T) {
	// 每次外部调用都有独立超时，挂死的检索不能让连接永远卡住
	retriever := &blockingRetriever{}
	service := NewChatSessionService(newFakeCache(), retriever, &fakeGenerator{answer: "unused"},
		&fakeStore{total: 3}, time.Hour, 20*time.Millisecond, zap.NewNop())
	conn := &fakeConn{frames: [][]byte{[]byte(`{"query":"hello"}`)}}

	start := time.Now()
	service.Run(context.Background(), conn)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, retriever.calls)
	assert.Len(t, conn.writes, 1)
	assert.Contains(t, conn.writes[0], "An error occurred:")
	assert.Contains(t, conn.writes[0], context.DeadlineExceeded.Error())
}

func TestSessionRetrievalFailureTerminates(t *testing.T) {
	f := newSessionFixture()
	f.retriever.err = errors.New("milvus unreachable")
	conn := &fakeConn{frames: [][]byte{
		[]byte(`{"query":"hello"}`),
		[]byte(`{"query":"never processed"}`),
	}}

	f.service.Run(context.Background(), conn)

	assert.Len(t, conn.writes, 1)
	assert.Contains(t, conn.writes[0], "An error occurred:")
	assert.Equal(t, 1, f.retriever.calls)
	assert.Equal(t, 0, f.generator.calls)
}
