package discovery

import (
	"context"
	"net/http"

	"catchup-feed/internal/domain/entity"
)

// cxRequestDataKey is the RequestData key an api-kind source carries its
// Google Custom Search engine ID (cx) under. There is no dedicated
// SourceConfig field for it since only the api discovery kind needs it.
const cxRequestDataKey = "cx"

// Adapter satisfies orchestrator.Discoverer by dispatching each source to
// the HTML or Google Custom Search backend per its DiscoveryKind.
type Adapter struct {
	fetcher      HTMLFetcher
	extractLinks LinkExtractor
	httpClient   *http.Client
	googleAPIKey string
}

// NewAdapter builds a discovery Adapter. googleAPIKey may be empty if no
// api-kind source is configured; GoogleCSE then fails per-call rather than
// at construction.
func NewAdapter(fetcher HTMLFetcher, extractLinks LinkExtractor, httpClient *http.Client, googleAPIKey string) *Adapter {
	return &Adapter{
		fetcher:      fetcher,
		extractLinks: extractLinks,
		httpClient:   httpClient,
		googleAPIKey: googleAPIKey,
	}
}

// Discover implements orchestrator.Discoverer.
func (a *Adapter) Discover(ctx context.Context, source *entity.SourceConfig, query string, maxResults int) ([]string, error) {
	if source.DiscoveryKind == entity.DiscoveryKindAPI {
		return GoogleCSE(ctx, a.httpClient, a.googleAPIKey, source.RequestData[cxRequestDataKey], query, maxResults)
	}
	return HTML(ctx, a.fetcher, a.extractLinks, source, query, maxResults)
}
