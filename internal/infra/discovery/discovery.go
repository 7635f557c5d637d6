// Package discovery turns a search query into a deduplicated list of
// candidate article URLs, either via an HTML search page (extracted with
// the Extractor) or the Google Custom Search API.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"catchup-feed/internal/domain/entity"
)

// excludedDomains lists social/video platforms that can't be scraped as
// articles; discovery filters them out rather than handing them to the
// fetcher and failing downstream.
var excludedDomains = []string{
	"youtube.com", "youtu.be",
	"facebook.com", "fb.com",
	"twitter.com", "x.com",
	"instagram.com",
	"tiktok.com",
	"vimeo.com",
	"linkedin.com/posts",
	"reddit.com/r/",
}

func isExcludedDomain(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, domain := range excludedDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

// dedupe preserves first-seen order while dropping repeats.
func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// HTMLFetcher fetches a URL and returns its decoded body. Implemented by
// *httpfetch.Fetcher in production, faked in tests.
type HTMLFetcher interface {
	Fetch(ctx context.Context, rawURL, method string, headers map[string]string, form map[string]string, respectRobots bool, minInterval time.Duration) (string, error)
}

// LinkExtractor pulls hrefs out of HTML, unwrapping search-engine redirect
// formats. Implemented by extract.ExtractLinks in production.
type LinkExtractor func(html, selector string) []string

// HTML discovers candidate article URLs by fetching a source's search page
// and extracting links with its configured selector, following the
// source's request method (GET query string or POST form) and rate limit.
func HTML(ctx context.Context, fetcher HTMLFetcher, extractLinks LinkExtractor, source *entity.SourceConfig, query string, maxResults int) ([]string, error) {
	if source.SearchURLTemplate == "" {
		return nil, fmt.Errorf("discovery: source %q has no search_url_template", source.Name)
	}

	searchURL := strings.ReplaceAll(source.SearchURLTemplate, "{query}", url.QueryEscape(query))

	var form map[string]string
	if strings.EqualFold(source.RequestMethod, "POST") && len(source.RequestData) > 0 {
		form = make(map[string]string, len(source.RequestData))
		for k, v := range source.RequestData {
			form[k] = strings.ReplaceAll(v, "{query}", query)
		}
	}

	minInterval := time.Duration(source.RateLimitSeconds * float64(time.Second))
	html, err := fetcher.Fetch(ctx, searchURL, source.RequestMethod, source.Headers, form, true, minInterval)
	if err != nil {
		return nil, fmt.Errorf("discovery: fetch search page for %q: %w", source.Name, err)
	}

	selector := "a"
	if sels := source.Selectors.List("article_links"); len(sels) > 0 {
		selector = strings.Join(sels, ", ")
	}

	links := dedupe(extractLinks(html, selector))
	var filtered []string
	for _, link := range links {
		if isExcludedDomain(link) {
			continue
		}
		filtered = append(filtered, link)
		if len(filtered) >= maxResults {
			break
		}
	}

	slog.Info("discovery: html search complete",
		slog.String("source", source.Name),
		slog.Int("found", len(links)),
		slog.Int("returned", len(filtered)))
	return filtered, nil
}

// googleSearchItem is the subset of a Google Custom Search API result item
// discovery needs.
type googleSearchItem struct {
	Link string `json:"link"`
}

type googleSearchResponse struct {
	Items []googleSearchItem `json:"items"`
}

// googleCSEURL is overridden in tests to point at an httptest server.
var googleCSEURL = "https://www.googleapis.com/customsearch/v1"

// GoogleCSE discovers candidate URLs via the Google Custom Search API, with
// automatic pagination (Google caps each request at 10 results) up to
// maxResults or 100, whichever is smaller.
func GoogleCSE(ctx context.Context, client *http.Client, apiKey, cx, query string, maxResults int) ([]string, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("discovery: google custom search not configured")
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	numRequests := (maxResults + 9) / 10
	if numRequests > 10 {
		numRequests = 10
	}

	var urls []string
	seen := map[string]bool{}
	filtered := 0

	for page := 0; page < numRequests; page++ {
		if len(urls) >= maxResults {
			break
		}

		startIndex := page*10 + 1
		perRequest := maxResults - len(urls) + filtered
		if perRequest > 10 {
			perRequest = 10
		}

		values := url.Values{}
		values.Set("key", apiKey)
		values.Set("cx", cx)
		values.Set("q", query)
		values.Set("num", strconv.Itoa(perRequest))
		values.Set("start", strconv.Itoa(startIndex))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			googleCSEURL+"?"+values.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("discovery: build google cse request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			slog.Warn("discovery: google cse request failed", slog.String("error", err.Error()))
			break
		}

		if resp.StatusCode != http.StatusOK {
			slog.Warn("discovery: google cse non-200", slog.Int("status", resp.StatusCode))
			resp.Body.Close()
			break
		}

		var parsed googleSearchResponse
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("discovery: decode google cse response: %w", err)
		}

		if len(parsed.Items) == 0 {
			break
		}

		for _, item := range parsed.Items {
			if item.Link == "" || seen[item.Link] {
				continue
			}
			seen[item.Link] = true
			if isExcludedDomain(item.Link) {
				filtered++
				continue
			}
			urls = append(urls, item.Link)
			if len(urls) >= maxResults {
				break
			}
		}

		if len(parsed.Items) < perRequest {
			break
		}
	}

	slog.Info("discovery: google cse complete", slog.Int("returned", len(urls)), slog.Int("filtered", filtered))
	return urls, nil
}
