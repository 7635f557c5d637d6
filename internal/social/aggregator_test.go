package social

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catchup-feed/internal/domain/entity"
)

type fakeAdapter struct {
	record *entity.SocialContentRecord
	err    error
	calls  int
}

func (f *fakeAdapter) Fetch(_ context.Context, url string) (*entity.SocialContentRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.record == nil {
		return nil, nil
	}
	clone := *f.record
	clone.URL = url
	return &clone, nil
}

func TestDetectPlatform_MatchesKnownHosts(t *testing.T) {
	assert.Equal(t, entity.PlatformYouTube, DetectPlatform("https://www.youtube.com/watch?v=abc"))
	assert.Equal(t, entity.PlatformYouTube, DetectPlatform("https://youtu.be/abc"))
	assert.Equal(t, entity.PlatformTwitter, DetectPlatform("https://x.com/user/status/1"))
	assert.Equal(t, entity.PlatformFacebook, DetectPlatform("https://www.facebook.com/post/1"))
	assert.Equal(t, entity.PlatformInstagram, DetectPlatform("https://instagram.com/p/abc"))
	assert.Equal(t, entity.Platform(""), DetectPlatform("https://example.com/article"))
}

func TestFetchContent_CacheMissCallsAdapterAndCaches(t *testing.T) {
	adapter := &fakeAdapter{record: &entity.SocialContentRecord{Platform: entity.PlatformTwitter, Text: "breaking news"}}
	agg := New(map[entity.Platform]Adapter{entity.PlatformTwitter: adapter}, time.Hour, nil)

	record, err := agg.FetchContent(context.Background(), "https://x.com/a/status/1", "", false, "")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "breaking news", record.Text)
	assert.Equal(t, 1, adapter.calls)
	assert.Equal(t, 1, agg.Stats().ContentEntries)
}

func TestFetchContent_CacheHitSkipsAdapterAndMarksCached(t *testing.T) {
	adapter := &fakeAdapter{record: &entity.SocialContentRecord{Platform: entity.PlatformTwitter, Text: "breaking news"}}
	agg := New(map[entity.Platform]Adapter{entity.PlatformTwitter: adapter}, time.Hour, nil)

	_, err := agg.FetchContent(context.Background(), "https://x.com/a/status/1", entity.PlatformTwitter, false, "")
	require.NoError(t, err)

	record, err := agg.FetchContent(context.Background(), "https://x.com/a/status/1", entity.PlatformTwitter, false, "")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Cached)
	assert.Equal(t, 1, adapter.calls, "second fetch should be served from cache")
}

func TestFetchContent_ForceRefreshBypassesCache(t *testing.T) {
	adapter := &fakeAdapter{record: &entity.SocialContentRecord{Platform: entity.PlatformTwitter, Text: "v1"}}
	agg := New(map[entity.Platform]Adapter{entity.PlatformTwitter: adapter}, time.Hour, nil)

	_, err := agg.FetchContent(context.Background(), "https://x.com/a/status/1", entity.PlatformTwitter, false, "")
	require.NoError(t, err)

	adapter.record = &entity.SocialContentRecord{Platform: entity.PlatformTwitter, Text: "v2"}
	record, err := agg.FetchContent(context.Background(), "https://x.com/a/status/1", entity.PlatformTwitter, true, "")
	require.NoError(t, err)
	assert.Equal(t, "v2", record.Text)
	assert.Equal(t, 2, adapter.calls)
}

func TestFetchContent_AttachesModelScopedAnalysisOnCacheHit(t *testing.T) {
	adapter := &fakeAdapter{record: &entity.SocialContentRecord{Platform: entity.PlatformTwitter, Text: "t"}}
	agg := New(map[entity.Platform]Adapter{entity.PlatformTwitter: adapter}, time.Hour, nil)
	url := "https://x.com/a/status/1"

	_, err := agg.FetchContent(context.Background(), url, entity.PlatformTwitter, false, "")
	require.NoError(t, err)
	agg.SaveAnalysis(url, entity.EventRecord{Title: "scoped analysis"}, "claude-3")

	record, err := agg.FetchContent(context.Background(), url, entity.PlatformTwitter, false, "claude-3")
	require.NoError(t, err)
	require.NotNil(t, record.ExtractedEvent)
	assert.Equal(t, "scoped analysis", record.ExtractedEvent.Title)
}

func TestFetchContent_FallsBackToUnscopedAnalysis(t *testing.T) {
	adapter := &fakeAdapter{record: &entity.SocialContentRecord{Platform: entity.PlatformTwitter, Text: "t"}}
	agg := New(map[entity.Platform]Adapter{entity.PlatformTwitter: adapter}, time.Hour, nil)
	url := "https://x.com/a/status/1"

	_, err := agg.FetchContent(context.Background(), url, entity.PlatformTwitter, false, "")
	require.NoError(t, err)
	agg.SaveAnalysis(url, entity.EventRecord{Title: "legacy analysis"}, "")

	record, err := agg.FetchContent(context.Background(), url, entity.PlatformTwitter, false, "claude-3")
	require.NoError(t, err)
	require.NotNil(t, record.ExtractedEvent)
	assert.Equal(t, "legacy analysis", record.ExtractedEvent.Title)
}

func TestFetchContent_NoContentReturnsNilNil(t *testing.T) {
	adapter := &fakeAdapter{record: nil}
	agg := New(map[entity.Platform]Adapter{entity.PlatformTwitter: adapter}, time.Hour, nil)

	record, err := agg.FetchContent(context.Background(), "https://x.com/a/status/1", entity.PlatformTwitter, false, "")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestFetchContent_UnsupportedPlatformErrors(t *testing.T) {
	agg := New(map[entity.Platform]Adapter{}, time.Hour, nil)

	_, err := agg.FetchContent(context.Background(), "https://x.com/a/status/1", entity.PlatformTwitter, false, "")
	assert.Error(t, err)
}

func TestFetchContent_UnknownURLReturnsDetectionError(t *testing.T) {
	agg := New(map[entity.Platform]Adapter{}, time.Hour, nil)

	_, err := agg.FetchContent(context.Background(), "https://example.com/article", "", false, "")
	assert.Error(t, err)
}

func TestCheckStatus_ReportsContentAndAnalysisPresence(t *testing.T) {
	adapter := &fakeAdapter{record: &entity.SocialContentRecord{Platform: entity.PlatformTwitter}}
	agg := New(map[entity.Platform]Adapter{entity.PlatformTwitter: adapter}, time.Hour, nil)
	url := "https://x.com/a/status/1"

	contentCached, analysisCached := agg.CheckStatus(url, entity.PlatformTwitter, "")
	assert.False(t, contentCached)
	assert.False(t, analysisCached)

	_, err := agg.FetchContent(context.Background(), url, entity.PlatformTwitter, false, "")
	require.NoError(t, err)
	agg.SaveAnalysis(url, entity.EventRecord{}, "")

	contentCached, analysisCached = agg.CheckStatus(url, entity.PlatformTwitter, "")
	assert.True(t, contentCached)
	assert.True(t, analysisCached)
}
