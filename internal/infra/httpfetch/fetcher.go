// Package httpfetch implements polite, encoding-robust HTTP acquisition,
// gated by a per-domain rate limiter and a robots.txt cache.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/ratelimit"
	"catchup-feed/internal/robots"
)

// Fetcher performs single-attempt, rate-limited, robots-aware HTTP fetches
// with UA rotation and encoding recovery. No retries happen at this layer;
// bounding pipeline time is left to the orchestrator's retry policy, if any.
type Fetcher struct {
	client      *http.Client
	limiter     *ratelimit.Limiter
	robotsGate  *robots.Gate
	cfg         Config
	uaIndex     atomic.Uint64
}

// New creates a Fetcher. limiter and robotsGate are shared, process-wide
// instances injected by the caller rather than global singletons.
func New(cfg Config, limiter *ratelimit.Limiter, robotsGate *robots.Gate) *Fetcher {
	f := &Fetcher{
		limiter:    limiter,
		robotsGate: robotsGate,
		cfg:        cfg,
	}
	f.client = &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return ErrTooManyRedirects
			}
			if cfg.DenyPrivateIPs {
				if err := entity.ValidateURL(req.URL.String()); err != nil {
					return fmt.Errorf("%w: %v", ErrUnsafeRedirect, err)
				}
			}
			return nil
		},
	}
	return f
}

// nextUserAgent returns the next User-Agent in round-robin rotation.
func (f *Fetcher) nextUserAgent() string {
	i := f.uaIndex.Add(1) - 1
	return userAgents[i%uint64(len(userAgents))]
}

// Fetch issues one HTTP request for url using method, optionally gated by
// robots.txt, serialised through the per-domain rate limiter with the given
// minimum interval. form is URL-encoded as the POST body when method is
// POST; it is ignored for GET. Returns the decoded response body, or an
// error (ErrDisallowedByRobots, ErrBinaryContent, or a transport error).
func (f *Fetcher) Fetch(ctx context.Context, rawURL, method string, headers map[string]string, form map[string]string, respectRobots bool, minInterval time.Duration) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("httpfetch: parse url: %w", err)
	}

	effectiveInterval := minInterval
	if respectRobots {
		decision := f.robotsGate.CanFetch(rawURL)
		if !decision.Allowed {
			return "", ErrDisallowedByRobots
		}
		effectiveInterval = robots.ResolveCrawlDelay(minInterval, decision.CrawlDelay)
	}

	f.limiter.Acquire(u.Host, effectiveInterval)
	time.Sleep(ratelimit.Jitter(f.cfg.JitterMin, f.cfg.JitterMax))

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := f.buildRequest(ctx, u.String(), method, headers, form)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		slog.Warn("httpfetch: request failed",
			slog.String("url", rawURL), slog.String("error", err.Error()))
		return "", fmt.Errorf("httpfetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize))
	if err != nil {
		return "", fmt.Errorf("httpfetch: read body: %w", err)
	}

	slog.Debug("httpfetch: fetched",
		slog.String("url", rawURL),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.Int("bytes", len(body)))

	text := recoverEncoding(body, resp.Header.Get("Content-Type"))
	if text == "" {
		return "", ErrBinaryContent
	}
	return text, nil
}

// buildRequest constructs the outbound request, applying the header rules:
// GET requests carry a rotated UA plus a Google referer and any
// caller-supplied headers; POST requests carry only a rotated UA, since
// richer headers trigger bot-detection on at least one
// search backend the discovery stage talks to.
func (f *Fetcher) buildRequest(ctx context.Context, rawURL, method string, headers map[string]string, form map[string]string) (*http.Request, error) {
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if method == http.MethodPost && len(form) > 0 {
		values := url.Values{}
		for k, v := range form {
			values.Set(k, v)
		}
		bodyReader = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("httpfetch: build request: %w", err)
	}

	if method == http.MethodPost {
		req.Header.Set("User-Agent", f.nextUserAgent())
		if bodyReader != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		return req, nil
	}

	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Referer", "https://www.google.com/")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// IsDisallowed reports whether err is (or wraps) ErrDisallowedByRobots.
func IsDisallowed(err error) bool {
	return errors.Is(err, ErrDisallowedByRobots)
}
