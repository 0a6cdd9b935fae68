package knowledge

import (
	apperrors "github.com/aihub/chatdoc-go/internal/errors"
)

// Chunk 表示分块后的文本结构
// Text是原文中[Start, End)的连续子串（按rune计），不做任何归一化
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

// Chunker 文本分块器：固定大小滑动窗口，相邻窗口重叠
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker 创建分块器
func NewChunker(chunkSize, overlap int) *Chunker {
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: overlap,
	}
}

// Split 将文本切分为多个chunk
// 覆盖性保证：输入的每个字符至少出现在一个chunk中；
// 相邻chunk在文本足够长时恰好共享overlap个字符
func (c *Chunker) Split(text string) ([]Chunk, error) {
	if c.chunkSize <= 0 {
		return nil, apperrors.NewClientError(apperrors.ErrCodeInvalidChunkParams,
			"chunk size must be positive")
	}
	if c.chunkOverlap < 0 {
		return nil, apperrors.NewClientError(apperrors.ErrCodeInvalidChunkParams,
			"chunk overlap must not be negative")
	}
	// 重叠不小于窗口时步进为0，必须直接报错而不是死循环
	if c.chunkOverlap >= c.chunkSize {
		return nil, apperrors.NewClientError(apperrors.ErrCodeInvalidChunkParams,
			"chunk overlap must be smaller than chunk size")
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := c.chunkSize - c.chunkOverlap
	var chunks []Chunk
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
	}

	return chunks, nil
}
