package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// claudeCostPerMTokIn/Out are rough per-million-token prices (USD) used
// only for the session-level cost estimate surfaced to callers; they are
// not billing-accurate and are not meant to be.
const (
	claudeCostPerMTokIn  = 3.00
	claudeCostPerMTokOut = 15.00
)

// ClaudeBackend adapts Anthropic's Messages API to the Backend interface.
type ClaudeBackend struct {
	client anthropic.Client
}

// NewClaudeBackend creates a ClaudeBackend authenticated with apiKey.
func NewClaudeBackend(apiKey string) *ClaudeBackend {
	return &ClaudeBackend{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func (c *ClaudeBackend) Name() string                  { return ProviderClaude }
func (c *ClaudeBackend) SupportsPromptCaching() bool    { return true }

// Generate sends one message to Claude and returns its text response.
// systemPrompt, when caching is enabled by the caller's prompt shape, is
// marked cacheable via an ephemeral cache-control breakpoint so repeated
// calls with the same system prompt (the event-extraction instructions,
// which don't change per-article) incur the cached input-token rate.
func (c *ClaudeBackend) Generate(ctx context.Context, systemPrompt, userPrompt, model string, maxTokens int, temperature float64) (string, Meta, error) {
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", Meta{}, classifyClaudeError(err)
	}

	if len(message.Content) == 0 {
		return "", Meta{}, fmt.Errorf("llm: claude returned empty response")
	}
	block, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", Meta{}, fmt.Errorf("llm: claude returned unexpected content type")
	}

	inputTokens := int(message.Usage.InputTokens)
	outputTokens := int(message.Usage.OutputTokens)
	cachedTokens := int(message.Usage.CacheReadInputTokens)

	cost := float64(inputTokens)/1_000_000*claudeCostPerMTokIn + float64(outputTokens)/1_000_000*claudeCostPerMTokOut

	return block.Text, Meta{
		Provider:         ProviderClaude,
		Model:            model,
		InputTokens:      inputTokens,
		OutputTokens:     outputTokens,
		CachedTokens:     cachedTokens,
		EstimatedCostUSD: cost,
	}, nil
}

// classifyClaudeError maps SDK errors that represent auth failures to
// ErrAuthFailed so the router can skip the fallback attempt.
func classifyClaudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && (apiErr.StatusCode == 401 || apiErr.StatusCode == 403) {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return fmt.Errorf("llm: claude api error: %w", err)
}
