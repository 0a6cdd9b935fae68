package services

import "fmt"

// SystemInstruction 每次生成调用携带的固定系统指令
const SystemInstruction = "You are a helpful assistant that answers questions based on the provided context."

// BuildPrompt 组装发给语言模型的提示词
// 上下文为空时完全省略Context段，不向模型透露检索曾发生
func BuildPrompt(query, context string) string {
	if context != "" {
		return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\nAnswer:", context, query)
	}
	return fmt.Sprintf("Question: %s\nAnswer:", query)
}
