package services

import (
	"context"
	"errors"
	"strings"

	"github.com/aihub/chatdoc-go/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

// AnswerGenerator 语言模型补全接口
// 失败以error返回，由调用方决定如何降级，不允许panic传播
type AnswerGenerator interface {
	Complete(ctx context.Context, systemInstruction, prompt string) (string, error)
	Ready() bool
}

// OpenAIGenerator 使用OpenAI Chat Completion API
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIGenerator 创建OpenAI回答生成器
func NewOpenAIGenerator(cfg *config.AIConfig) AnswerGenerator {
	apiKey := strings.TrimSpace(cfg.OpenAIAPIKey)
	if apiKey == "" {
		return &NoopGenerator{}
	}

	model := cfg.ChatModel
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 150
	}

	return &OpenAIGenerator{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(cfg.Temperature),
	}
}

func (g *OpenAIGenerator) Complete(ctx context.Context, systemInstruction, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion response empty")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *OpenAIGenerator) Ready() bool {
	return g.client != nil
}

// NoopGenerator 未配置API key时的占位实现
type NoopGenerator struct{}

func (n *NoopGenerator) Complete(ctx context.Context, systemInstruction, prompt string) (string, error) {
	return "", errors.New("language model provider not configured")
}

func (n *NoopGenerator) Ready() bool {
	return false
}
