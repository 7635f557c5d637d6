package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OllamaBackend talks to a local Ollama instance through its OpenAI-compatible
// /v1/chat/completions endpoint. Local inference has no per-token cost, and
// Ollama does not support Anthropic-style prompt caching.
type OllamaBackend struct {
	client *openai.Client
}

// NewOllamaBackend creates an OllamaBackend pointed at baseURL (e.g.
// "http://localhost:11434/v1"). Ollama ignores the API key but the
// go-openai client requires a non-empty value.
func NewOllamaBackend(baseURL string) *OllamaBackend {
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = baseURL
	client := openai.NewClientWithConfig(cfg)
	return &OllamaBackend{client: client}
}

func (o *OllamaBackend) Name() string               { return ProviderOllama }
func (o *OllamaBackend) SupportsPromptCaching() bool { return false }

// Generate issues a chat completion against the local Ollama endpoint.
func (o *OllamaBackend) Generate(ctx context.Context, systemPrompt, userPrompt, model string, maxTokens int, temperature float64) (string, Meta, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	})
	if err != nil {
		return "", Meta{}, classifyOllamaError(err)
	}
	if len(resp.Choices) == 0 {
		return "", Meta{}, fmt.Errorf("llm: ollama returned no choices")
	}

	return resp.Choices[0].Message.Content, Meta{
		Provider:     ProviderOllama,
		Model:        model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func classifyOllamaError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && (apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden) {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return fmt.Errorf("llm: ollama api error: %w", err)
}
