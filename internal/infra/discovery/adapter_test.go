package discovery

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catchup-feed/internal/domain/entity"
)

func TestAdapter_DiscoverDispatchesHTMLSourceToHTMLFetcher(t *testing.T) {
	source := &entity.SourceConfig{
		Name:              "html-source",
		DiscoveryKind:     entity.DiscoveryKindHTML,
		SearchURLTemplate: "https://example.com/search?q={query}",
	}
	fetcher := &fakeFetcher{html: "<html></html>"}
	links := []string{"https://news.example.com/a"}

	adapter := NewAdapter(fetcher, fakeExtractLinks(links), http.DefaultClient, "")
	got, err := adapter.Discover(context.Background(), source, "riots", 10)
	require.NoError(t, err)
	assert.Equal(t, links, got)
}

func TestAdapter_DiscoverDispatchesAPISourceToGoogleCSE(t *testing.T) {
	source := &entity.SourceConfig{
		Name:          "api-source",
		DiscoveryKind: entity.DiscoveryKindAPI,
		RequestData:   map[string]string{"cx": "my-cx"},
	}

	adapter := NewAdapter(&fakeFetcher{}, fakeExtractLinks(nil), http.DefaultClient, "")
	_, err := adapter.Discover(context.Background(), source, "q", 10)
	// No API key configured, so GoogleCSE rejects the call rather than
	// silently falling back to HTML discovery.
	assert.Error(t, err)
}
