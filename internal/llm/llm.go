// Package llm defines the chat-model client contract and its
// OpenAI-compatible implementation.
package llm

import "context"

// Message is one turn in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a chat completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	TopP        float64
	MaxTokens   int
	ForceJSON   bool
}

// Usage reports token consumption for a completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Result is a chat completion response.
type Result struct {
	Text  string
	Usage Usage
}

// Client performs chat completions.
type Client interface {
	Chat(ctx context.Context, req Request) (Result, error)
}
