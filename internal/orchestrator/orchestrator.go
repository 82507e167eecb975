// Package orchestrator builds the model prompt from job context, evidence
// and conversation history, invokes the chat model, and parses the response
// into a typed, defensive structure.
package orchestrator

import (
	"context"

	"github.com/schradermade/hvac-ai-sub002/internal/apperr"
	"github.com/schradermade/hvac-ai-sub002/internal/evidence"
	"github.com/schradermade/hvac-ai-sub002/internal/llm"
)

// Orchestrator answers technician questions about a job.
type Orchestrator struct {
	client      llm.Client
	model       string
	temperature float64
	topP        float64
	maxTokens   int
}

// Config holds the model invocation parameters.
type Config struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// New creates an Orchestrator.
func New(client llm.Client, cfg Config) *Orchestrator {
	return &Orchestrator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
	}
}

// Answer builds the prompt, calls the model and parses its response.
// Malformed model JSON never fails the call; provider errors surface as
// upstream errors with generic messages.
func (o *Orchestrator) Answer(ctx context.Context, snapshot *evidence.Snapshot, items []evidence.Item, question string, history []llm.Message) (Answer, error) {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: SystemPrompt()})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: BuildUserMessage(snapshot, items, question),
	})

	result, err := o.client.Chat(ctx, llm.Request{
		Model:       o.model,
		Messages:    messages,
		Temperature: o.temperature,
		TopP:        o.topP,
		MaxTokens:   o.maxTokens,
		ForceJSON:   true,
	})
	if err != nil {
		return Answer{}, apperr.Upstream("model provider request failed")
	}

	return ParseResponse(result.Text), nil
}
