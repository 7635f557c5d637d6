// Package llm provides a provider-agnostic Generate contract over Claude
// and an OpenAI-compatible local endpoint (Ollama), with automatic
// one-retry fallback to the other provider, usage accounting, and
// circuit-breaker/retry wrapping per provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"
)

// Provider names, used in config, logs, and usage breakdowns.
const (
	ProviderClaude = "claude"
	ProviderOllama = "ollama"
)

// Meta describes one Generate call's outcome: which provider served it, and
// token/cost accounting for the session.
type Meta struct {
	Provider        string
	Model           string
	InputTokens     int
	OutputTokens    int
	CachedTokens    int
	EstimatedCostUSD float64
	Duration        time.Duration
	UsedFallback    bool
}

// Backend is one provider's Generate implementation. Claude and Ollama
// adapters both satisfy this.
type Backend interface {
	Name() string
	SupportsPromptCaching() bool
	Generate(ctx context.Context, systemPrompt, userPrompt, model string, maxTokens int, temperature float64) (text string, meta Meta, err error)
}

// ErrAuthFailed is a sentinel a Backend returns for non-retryable
// authentication/authorization failures, so the router can fail fast
// instead of burning the fallback attempt on a doomed request.
var ErrAuthFailed = errors.New("llm: provider authentication failed")

// Router selects a primary backend and falls back to a secondary backend
// once if the primary's circuit breaker is open or its call fails.
type Router struct {
	primary   Backend
	fallback  Backend
	breakers  map[string]*circuitbreaker.CircuitBreaker
	retryCfg  retry.Config
	semaphore chan struct{}

	mu    sync.Mutex
	stats map[string]*usageTotals
}

type usageTotals struct {
	calls        int
	inputTokens  int
	outputTokens int
	cachedTokens int
	costUSD      float64
}

// New builds a Router. fallback may be nil to disable fallback entirely.
// maxConcurrent bounds how many Generate calls may be in flight at once
// across both backends (0 means unbounded).
func New(primary, fallback Backend, maxConcurrent int) *Router {
	r := &Router{
		primary:  primary,
		fallback: fallback,
		breakers: make(map[string]*circuitbreaker.CircuitBreaker),
		retryCfg: retry.AIAPIConfig(),
		stats:    make(map[string]*usageTotals),
	}
	r.breakers[primary.Name()] = circuitbreaker.New(circuitbreaker.ClaudeAPIConfig())
	if fallback != nil {
		cfg := circuitbreaker.ClaudeAPIConfig()
		cfg.Name = fallback.Name()
		r.breakers[fallback.Name()] = circuitbreaker.New(cfg)
	}
	if maxConcurrent > 0 {
		r.semaphore = make(chan struct{}, maxConcurrent)
	}
	return r
}

// Generate routes to the primary backend, retrying transient failures with
// backoff; if the primary is exhausted (circuit open, or all retries
// failed with a non-auth error) and a fallback is configured, makes one
// attempt against the fallback before giving up.
func (r *Router) Generate(ctx context.Context, systemPrompt, userPrompt, model string, maxTokens int, temperature float64) (string, Meta, error) {
	if r.semaphore != nil {
		select {
		case r.semaphore <- struct{}{}:
			defer func() { <-r.semaphore }()
		case <-ctx.Done():
			return "", Meta{}, ctx.Err()
		}
	}

	text, meta, err := r.callWithResilience(ctx, r.primary, systemPrompt, userPrompt, model, maxTokens, temperature)
	if err == nil {
		r.record(meta)
		return text, meta, nil
	}

	if errors.Is(err, ErrAuthFailed) {
		slog.Error("llm: primary provider auth failed, not attempting fallback",
			slog.String("provider", r.primary.Name()))
		return "", Meta{}, err
	}

	if r.fallback == nil {
		return "", Meta{}, fmt.Errorf("llm: primary provider %s failed: %w", r.primary.Name(), err)
	}

	slog.Warn("llm: primary provider failed, attempting fallback",
		slog.String("primary", r.primary.Name()),
		slog.String("fallback", r.fallback.Name()),
		slog.String("error", err.Error()))

	text, meta, fbErr := r.callWithResilience(ctx, r.fallback, systemPrompt, userPrompt, model, maxTokens, temperature)
	if fbErr != nil {
		return "", Meta{}, fmt.Errorf("llm: both providers failed: primary=%v fallback=%v", err, fbErr)
	}
	meta.UsedFallback = true
	r.record(meta)
	return text, meta, nil
}

// callWithResilience wraps one backend's Generate with retry and a
// circuit-breaker.
func (r *Router) callWithResilience(ctx context.Context, backend Backend, systemPrompt, userPrompt, model string, maxTokens int, temperature float64) (string, Meta, error) {
	breaker := r.breakers[backend.Name()]
	var text string
	var meta Meta

	retryErr := retry.WithBackoff(ctx, r.retryCfg, func() error {
		start := time.Now()
		cbResult, err := breaker.Execute(func() (interface{}, error) {
			t, m, err := backend.Generate(ctx, systemPrompt, userPrompt, model, maxTokens, temperature)
			return struct {
				text string
				meta Meta
			}{t, m}, err
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("llm: circuit breaker open, request rejected",
					slog.String("provider", backend.Name()))
				return fmt.Errorf("llm: %s unavailable: circuit breaker open", backend.Name())
			}
			return err
		}
		out := cbResult.(struct {
			text string
			meta Meta
		})
		text = out.text
		meta = out.meta
		meta.Duration = time.Since(start)
		return nil
	})

	return text, meta, retryErr
}

// record accumulates usage stats for later introspection (ResetStats,
// Stats).
func (r *Router) record(meta Meta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals, ok := r.stats[meta.Provider]
	if !ok {
		totals = &usageTotals{}
		r.stats[meta.Provider] = totals
	}
	totals.calls++
	totals.inputTokens += meta.InputTokens
	totals.outputTokens += meta.OutputTokens
	totals.cachedTokens += meta.CachedTokens
	totals.costUSD += meta.EstimatedCostUSD
}

// Stats returns per-provider cumulative usage since the last ResetStats.
func (r *Router) Stats() map[string]Meta {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Meta, len(r.stats))
	for provider, t := range r.stats {
		out[provider] = Meta{
			Provider:         provider,
			InputTokens:      t.inputTokens,
			OutputTokens:     t.outputTokens,
			CachedTokens:     t.cachedTokens,
			EstimatedCostUSD: t.costUSD,
		}
	}
	return out
}

// ResetStats clears accumulated usage totals, typically called once per
// search session so per-request cost can be reported independently.
func (r *Router) ResetStats() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = make(map[string]*usageTotals)
}

// ProviderStatus reports a backend's name, prompt-caching capability, and
// current circuit breaker state.
type ProviderStatus struct {
	Name                  string
	SupportsPromptCaching bool
	CircuitState          string
}

// Status returns introspection data for both configured providers.
func (r *Router) Status() []ProviderStatus {
	statuses := []ProviderStatus{{
		Name:                  r.primary.Name(),
		SupportsPromptCaching: r.primary.SupportsPromptCaching(),
		CircuitState:          r.breakers[r.primary.Name()].State().String(),
	}}
	if r.fallback != nil {
		statuses = append(statuses, ProviderStatus{
			Name:                  r.fallback.Name(),
			SupportsPromptCaching: r.fallback.SupportsPromptCaching(),
			CircuitState:          r.breakers[r.fallback.Name()].State().String(),
		})
	}
	return statuses
}
