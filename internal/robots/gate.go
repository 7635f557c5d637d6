// Package robots provides a cached robots.txt gate used by the HTTP fetcher
// to decide whether a URL may be scraped, and what crawl delay to honor.
package robots

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// cacheTTL is how long a parsed robots.txt is trusted before refetching.
const cacheTTL = 1 * time.Hour

// Decision is the result of a CanFetch check.
type Decision struct {
	Allowed    bool
	CrawlDelay time.Duration
}

// entry is one host's cached robots.txt parse result.
type entry struct {
	group      *robotstxt.Group
	fetchedAt  time.Time
	permissive bool // true when the robots.txt fetch itself failed
}

// Gate is a thread-safe, per-host cached robots.txt checker. A broken or
// unreachable robots.txt endpoint caches a permissive result rather than
// retrying on every call, so one failing host cannot stall the scraper.
type Gate struct {
	mu        sync.Mutex
	cache     map[string]*entry
	client    *http.Client
	userAgent string
}

// New creates a Gate using client to fetch robots.txt documents, identifying
// itself as userAgent when checking group permissions.
func New(client *http.Client, userAgent string) *Gate {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Gate{
		cache:     make(map[string]*entry),
		client:    client,
		userAgent: userAgent,
	}
}

// CanFetch returns whether rawURL may be fetched, plus the crawl-delay the
// robots.txt (if any) requests. When minInterval exceeds the source's
// configured interval the caller should prefer the larger of the two; this
// function only returns what robots.txt itself requests.
func (g *Gate) CanFetch(rawURL string) Decision {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Decision{Allowed: true}
	}
	host := u.Scheme + "://" + u.Host

	e := g.getEntry(host)
	if e.permissive || e.group == nil {
		return Decision{Allowed: true}
	}
	return Decision{
		Allowed:    e.group.Test(u.Path),
		CrawlDelay: e.group.CrawlDelay,
	}
}

// ResolveCrawlDelay returns the greater of the source's configured minimum
// interval and the robots.txt crawl-delay.
func ResolveCrawlDelay(sourceInterval time.Duration, robotsDelay time.Duration) time.Duration {
	if robotsDelay > sourceInterval {
		return robotsDelay
	}
	return sourceInterval
}

// getEntry returns the cached entry for host, fetching and parsing
// robots.txt if the cache is missing or stale.
func (g *Gate) getEntry(host string) *entry {
	g.mu.Lock()
	e, ok := g.cache[host]
	g.mu.Unlock()

	if ok && time.Since(e.fetchedAt) < cacheTTL {
		return e
	}

	e = g.fetch(host)

	g.mu.Lock()
	g.cache[host] = e
	g.mu.Unlock()

	return e
}

// fetch retrieves and parses robots.txt for host. Any failure (network
// error, non-200 status, unparseable body) yields a permissive entry.
func (g *Gate) fetch(host string) *entry {
	resp, err := g.client.Get(host + "/robots.txt")
	if err != nil {
		slog.Debug("robots.txt fetch failed, allowing by default",
			slog.String("host", host), slog.String("error", err.Error()))
		return &entry{permissive: true, fetchedAt: time.Now()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &entry{permissive: true, fetchedAt: time.Now()}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &entry{permissive: true, fetchedAt: time.Now()}
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		slog.Debug("robots.txt parse failed, allowing by default",
			slog.String("host", host), slog.String("error", err.Error()))
		return &entry{permissive: true, fetchedAt: time.Now()}
	}

	group := data.FindGroup(g.userAgent)
	return &entry{group: group, fetchedAt: time.Now()}
}
