package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// DiscoveryKind selects which Discovery backend a source uses.
type DiscoveryKind string

const (
	DiscoveryKindHTML DiscoveryKind = "html"
	DiscoveryKindAPI  DiscoveryKind = "api"
)

// SourceSelectors maps extraction fields to an ordered, comma-separated list
// of fallback CSS selectors. Each value may itself contain multiple
// selectors separated by commas; the extractor tries them in order.
type SourceSelectors struct {
	ArticleLinks string `yaml:"article_links"`
	Title        string `yaml:"title"`
	Content      string `yaml:"content"`
	Date         string `yaml:"date"`
	Author       string `yaml:"author"`
}

// List splits a selector field on commas, trimming whitespace and dropping
// empty entries, preserving the configured fallback order.
func (s SourceSelectors) List(field string) []string {
	var raw string
	switch field {
	case "article_links":
		raw = s.ArticleLinks
	case "title":
		raw = s.Title
	case "content":
		raw = s.Content
	case "date":
		raw = s.Date
	case "author":
		raw = s.Author
	}
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SourceConfig is an immutable, process-lifetime configuration for one
// named upstream source (a search endpoint plus an extractor recipe).
type SourceConfig struct {
	Name                 string            `yaml:"name"`
	BaseURL              string            `yaml:"base_url"`
	Enabled              bool              `yaml:"enabled"`
	DiscoveryKind        DiscoveryKind     `yaml:"discovery_kind"`
	SearchURLTemplate    string            `yaml:"search_url_template"`
	RequestMethod        string            `yaml:"request_method"`
	RequestData          map[string]string `yaml:"request_data"`
	RateLimitSeconds     float64           `yaml:"rate_limit_seconds"`
	MaxSearchResults     int               `yaml:"max_search_results"`
	MaxArticlesToProcess int               `yaml:"max_articles_to_process"`
	Selectors            SourceSelectors   `yaml:"selectors"`
	Headers              map[string]string `yaml:"headers"`
}

// Validate rejects source configs missing a name or base URL, or carrying a
// non-http(s) base URL.
func (c *SourceConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Message: "source name is required"}
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return &ValidationError{Field: "base_url", Message: "base_url is required"}
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return &ValidationError{Field: "base_url", Message: fmt.Sprintf("invalid base_url: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "base_url", Message: "base_url must use http or https scheme"}
	}
	if c.DiscoveryKind == "" {
		c.DiscoveryKind = DiscoveryKindHTML
	}
	if c.RequestMethod == "" {
		c.RequestMethod = "GET"
	}
	return nil
}

// EffectiveLimit resolves max_search_results / max_articles_to_process
// precedence: param > source cap > global default.
func EffectiveLimit(param, sourceCap, globalDefault int) int {
	if param > 0 {
		return param
	}
	if sourceCap > 0 {
		return sourceCap
	}
	return globalDefault
}

// ResolveLimits applies the param>cap>default precedence to both the
// max-search-results and max-articles-to-process limits, then equalizes
// them upward when search results would otherwise undercut processing.
func ResolveLimits(paramSearch, paramArticles int, source *SourceConfig, defaultSearch, defaultArticles int) (searchLimit, articlesLimit int) {
	searchLimit = EffectiveLimit(paramSearch, source.MaxSearchResults, defaultSearch)
	articlesLimit = EffectiveLimit(paramArticles, source.MaxArticlesToProcess, defaultArticles)
	if searchLimit < articlesLimit {
		searchLimit = articlesLimit
	}
	return searchLimit, articlesLimit
}
