// Package orchestrator drives the multi-stage search pipeline: query
// enrichment, source selection, discovery fan-out, per-article fetch and
// extraction, match and rank, and session update, shared by both the batch
// Search and the streaming SearchStream surfaces.
package orchestrator

import (
	"context"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/querymatch"
)

// SourceLister serves the enabled source list. Implemented by
// *sourceregistry.Registry.
type SourceLister interface {
	List(enabledOnly bool) []*entity.SourceConfig
}

// Discoverer turns a query into candidate article URLs for one source.
// Implemented by a discovery-package adapter selecting the HTML or API
// backend per source.DiscoveryKind.
type Discoverer interface {
	Discover(ctx context.Context, source *entity.SourceConfig, query string, maxResults int) ([]string, error)
}

// ArticleFetcher fetches and field-extracts one candidate URL into a
// RawArticle. Implemented by an httpfetch+extract adapter.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, rawURL string, source *entity.SourceConfig) (*entity.RawArticle, error)
}

// EventExtractor turns one article into a structured event. Implemented by
// *eventextract.Extractor.
type EventExtractor interface {
	Extract(ctx context.Context, article *entity.RawArticle, entities *entity.EntityBundle, publishedDate time.Time) (*entity.EventRecord, error)
}

// SessionStore is the subset of *session.Store the orchestrator drives.
type SessionStore interface {
	Create(query entity.SearchQuery) string
	AppendResult(id string, event entity.EventRecord) bool
	UpdateProgress(id string, current, total int, message string) bool
	SetStatus(id string, status entity.SessionStatus) bool
	IsCancelled(id string) bool
	GetSession(id string) (entity.Session, bool)
}

// Clock abstracts time.Now for deterministic processing-time tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Config holds the orchestrator's tunable defaults, normally sourced from
// environment configuration.
type Config struct {
	DefaultMaxSearchResults     int
	DefaultMaxArticlesToProcess int
	MaxConcurrentArticles       int // batch mode only; default 4
	PerArticleTimeout           time.Duration
	ExtractionBudget            time.Duration
	MinRelevanceScore           float64
	Weights                     querymatch.Weights
}

// DefaultConfig mirrors the reference defaults.
func DefaultConfig() Config {
	return Config{
		DefaultMaxSearchResults:     20,
		DefaultMaxArticlesToProcess: 10,
		MaxConcurrentArticles:       4,
		PerArticleTimeout:           60 * time.Second,
		ExtractionBudget:            300 * time.Second,
		MinRelevanceScore:           0.1,
		Weights:                     querymatch.DefaultWeights,
	}
}

// Deps wires every collaborator the orchestrator drives. All fields are
// required except Clock, which defaults to SystemClock.
type Deps struct {
	Sources  SourceLister
	Discover Discoverer
	Fetch    ArticleFetcher
	Extract  EventExtractor
	Sessions SessionStore
	Clock    Clock
}

// Orchestrator drives the full search pipeline: query enrichment, source
// selection, discovery fan-out, per-article fetch and extraction, match and
// rank, and session update, in both batch and streaming shapes.
type Orchestrator struct {
	cfg  Config
	deps Deps
}

// New builds an Orchestrator.
func New(cfg Config, deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	return &Orchestrator{cfg: cfg, deps: deps}
}

// Limits overrides the orchestrator's configured defaults for one call;
// zero fields fall back to Config's defaults.
type Limits struct {
	MaxSearchResults     int
	MaxArticlesToProcess int
	MinRelevanceScore    float64
}

func (o *Orchestrator) minRelevanceScore(limits Limits) float64 {
	if limits.MinRelevanceScore > 0 {
		return limits.MinRelevanceScore
	}
	return o.cfg.MinRelevanceScore
}
