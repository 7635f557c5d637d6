package social

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"catchup-feed/internal/domain/entity"
)

// Adapter fetches one platform's content for a canonical URL. Adapters are
// treated as opaque by Aggregator: a nil record with a nil error means "no
// content found", distinct from a fetch error. An adapter missing required
// credentials must return (nil, nil), not raise.
type Adapter interface {
	Fetch(ctx context.Context, url string) (*entity.SocialContentRecord, error)
}

// DetectPlatform maps a URL's host substrings onto the closed Platform set,
// returning "" when no known platform matches.
func DetectPlatform(url string) entity.Platform {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "youtube.com"), strings.Contains(lower, "youtu.be"):
		return entity.PlatformYouTube
	case strings.Contains(lower, "twitter.com"), strings.Contains(lower, "x.com"):
		return entity.PlatformTwitter
	case strings.Contains(lower, "facebook.com"), strings.Contains(lower, "fb.com"):
		return entity.PlatformFacebook
	case strings.Contains(lower, "instagram.com"):
		return entity.PlatformInstagram
	}
	return ""
}

// Aggregator routes social content fetches to per-platform adapters and
// caches both the raw content and any attached LLM analysis behind an
// MD5-fingerprinted TTL cache.
type Aggregator struct {
	adapters map[entity.Platform]Adapter
	content  *ttlCache[entity.SocialContentRecord]
	analyses *ttlCache[entity.EventRecord]
	cacheTTL time.Duration
}

// New builds an Aggregator. adapters maps each supported platform to its
// fetch implementation; a platform absent from the map is simply
// unsupported (FetchContent returns an error, not a panic). cacheTTL is
// applied to both the content and analysis caches.
func New(adapters map[entity.Platform]Adapter, cacheTTL time.Duration, clock Clock) *Aggregator {
	return &Aggregator{
		adapters: adapters,
		content:  newTTLCache[entity.SocialContentRecord](clock),
		analyses: newTTLCache[entity.EventRecord](clock),
		cacheTTL: cacheTTL,
	}
}

// FetchContent fetches content for url, using the given platform if
// supplied or auto-detecting it otherwise. forceRefresh skips the content
// cache lookup (but still writes a fresh entry on success). model selects
// which cached analysis, if any, gets attached.
func (a *Aggregator) FetchContent(ctx context.Context, url string, platform entity.Platform, forceRefresh bool, model string) (*entity.SocialContentRecord, error) {
	if platform == "" {
		platform = DetectPlatform(url)
		if platform == "" {
			return nil, fmt.Errorf("social: could not detect platform from url %q", url)
		}
	}

	key := contentCacheKey(platform, url)

	if !forceRefresh {
		if cached, ok := a.content.get(key); ok {
			cached.Cached = true
			if expiresAt, ok := a.content.expiresAt(key); ok {
				cached.CacheExpiresAt = expiresAt
			}
			if analysis, ok := a.getCachedAnalysis(url, model); ok {
				cached.ExtractedEvent = &analysis
			} else if model != "" {
				if analysis, ok := a.getCachedAnalysis(url, ""); ok {
					cached.ExtractedEvent = &analysis
				}
			}
			return &cached, nil
		}
	}

	adapter, ok := a.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("social: unsupported platform %q", platform)
	}

	record, err := adapter.Fetch(ctx, url)
	if err != nil {
		slog.Error("social: adapter fetch failed",
			slog.String("platform", string(platform)), slog.String("error", err.Error()))
		return nil, err
	}
	if record == nil {
		slog.Warn("social: no content retrieved", slog.String("platform", string(platform)), slog.String("url", url))
		return nil, nil
	}

	a.content.set(key, *record, a.cacheTTL)
	return record, nil
}

// CheckStatus reports whether content and analysis are cached for url
// without fetching either.
func (a *Aggregator) CheckStatus(url string, platform entity.Platform, model string) (contentCached, analysisCached bool) {
	if platform == "" {
		platform = DetectPlatform(url)
	}
	_, contentCached = a.content.get(contentCacheKey(platform, url))
	_, analysisCached = a.getCachedAnalysis(url, model)
	return
}

// SaveAnalysis caches event as the LLM analysis for url (optionally scoped
// to model).
func (a *Aggregator) SaveAnalysis(url string, event entity.EventRecord, model string) {
	a.analyses.set(analysisCacheKey(url, model), event, a.cacheTTL)
}

func (a *Aggregator) getCachedAnalysis(url, model string) (entity.EventRecord, bool) {
	return a.analyses.get(analysisCacheKey(url, model))
}

// CacheStats reports the current entry counts of both caches, for metrics.
type CacheStats struct {
	ContentEntries  int
	AnalysisEntries int
}

// Stats returns current cache occupancy.
func (a *Aggregator) Stats() CacheStats {
	return CacheStats{ContentEntries: a.content.len(), AnalysisEntries: a.analyses.len()}
}
