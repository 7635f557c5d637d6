// Package articlefetch adapts the HTML fetch and field-extraction stages
// into a single orchestrator.ArticleFetcher: fetch a candidate URL, pull
// its fields with the source's configured selectors, fall back to generic
// selectors when those come up empty, and parse whatever date string
// either path found.
package articlefetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/infra/extract"
)

// defaultMinContentLength is used when New is given a non-positive value.
const defaultMinContentLength = 200

// ErrContentTooThin is returned when neither the selector-driven nor the
// generic extraction path produced content worth sending to the LLM.
var ErrContentTooThin = errors.New("articlefetch: extracted content too thin")

// HTTPFetcher is the subset of *httpfetch.Fetcher this package depends on.
type HTTPFetcher interface {
	Fetch(ctx context.Context, rawURL, method string, headers map[string]string, form map[string]string, respectRobots bool, minInterval time.Duration) (string, error)
}

// FieldExtractor is the subset of *extract.Extractor this package depends
// on.
type FieldExtractor interface {
	WithSelectors(html string, sel entity.SourceSelectors) extract.Fields
	Generic(html string) extract.Fields
}

// Clock abstracts time.Now for deterministic scrape-timestamp tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Fetcher satisfies orchestrator.ArticleFetcher.
type Fetcher struct {
	fetch            HTTPFetcher
	extract          FieldExtractor
	clock            Clock
	minContentLength int
}

// New builds a Fetcher. clock defaults to SystemClock when nil;
// minContentLength defaults to defaultMinContentLength when <= 0.
func New(fetch HTTPFetcher, extractor FieldExtractor, clock Clock, minContentLength int) *Fetcher {
	if clock == nil {
		clock = SystemClock{}
	}
	if minContentLength <= 0 {
		minContentLength = defaultMinContentLength
	}
	return &Fetcher{fetch: fetch, extract: extractor, clock: clock, minContentLength: minContentLength}
}

// FetchArticle implements orchestrator.ArticleFetcher.
func (f *Fetcher) FetchArticle(ctx context.Context, rawURL string, source *entity.SourceConfig) (*entity.RawArticle, error) {
	minInterval := time.Duration(source.RateLimitSeconds * float64(time.Second))
	html, err := f.fetch.Fetch(ctx, rawURL, "GET", source.Headers, nil, true, minInterval)
	if err != nil {
		return nil, fmt.Errorf("articlefetch: fetch %s: %w", rawURL, err)
	}

	fields := f.extract.WithSelectors(html, source.Selectors)
	if !extract.IsValidContent(fields.Content, f.minContentLength) {
		fields = f.extract.Generic(html)
	}
	if !extract.IsValidContent(fields.Content, f.minContentLength) {
		return nil, fmt.Errorf("%w: %s", ErrContentTooThin, rawURL)
	}

	return &entity.RawArticle{
		ID:              uuid.NewString(),
		URL:             rawURL,
		Title:           extract.CleanText(fields.Title),
		Content:         extract.CleanText(fields.Content),
		PublishedDate:   parseDate(fields.Date),
		Author:          extract.CleanText(fields.Author),
		SourceName:      source.Name,
		ScrapeTimestamp: f.clock.Now(),
	}, nil
}

// parseDate tolerates the wide variety of date strings real news pages
// embed, returning the zero time when raw is empty or unparsable.
func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
