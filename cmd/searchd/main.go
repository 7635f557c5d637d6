package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"catchup-feed/internal/config"
	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/eventextract"
	hhttp "catchup-feed/internal/handler/http"
	"catchup-feed/internal/handler/http/middleware"
	"catchup-feed/internal/handler/http/requestid"
	hsearch "catchup-feed/internal/handler/http/search"
	"catchup-feed/internal/observability/logging"
	hsocial "catchup-feed/internal/handler/http/social"
	"catchup-feed/internal/infra/articlefetch"
	"catchup-feed/internal/infra/discovery"
	"catchup-feed/internal/infra/extract"
	"catchup-feed/internal/infra/httpfetch"
	"catchup-feed/internal/infra/sourceregistry"
	workerinfra "catchup-feed/internal/infra/worker"
	"catchup-feed/internal/llm"
	"catchup-feed/internal/orchestrator"
	"catchup-feed/internal/ratelimit"
	"catchup-feed/internal/robots"
	"catchup-feed/internal/session"
	"catchup-feed/internal/social"
	"catchup-feed/pkg/export"
	pkgratelimit "catchup-feed/pkg/ratelimit"
)

func main() {
	logger := initLogger()

	cfg, err := config.LoadAppConfig()
	if err != nil {
		logger.Error("failed to load application configuration", slog.Any("error", err))
		os.Exit(1)
	}

	registry, loadErrs := sourceregistry.Load(cfg.Discovery.SourcesPath)
	for _, e := range loadErrs {
		logger.Warn("source registry: skipped invalid entry", slog.Any("error", e))
	}
	logger.Info("source registry loaded", slog.Int("sources", registry.Len()))

	orch, sessions := buildOrchestrator(cfg, registry)
	aggregator := buildSocialAggregator(cfg)

	mux := http.NewServeMux()
	hsearch.Register(mux, orch, sessions, export.NewCSVWriter())
	hsocial.Register(mux, aggregator)
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	stopCleanup := startSessionCleanup(logger, sessions, cfg.Orchestrator.SessionTTL)
	defer stopCleanup()

	handler := applyMiddleware(logger, mux, cfg.Server)
	runServer(logger, handler, cfg.Server)
}

// applyMiddleware wraps mux with the handler chain a browser-facing
// streaming API needs: CORS, request IDs, per-IP rate limiting, panic
// recovery, request logging, a body-size cap, and request metrics.
//
// Order (outermost to innermost): CORS, Request ID, IP Rate Limit,
// Recovery, Logging, Body Limit, Metrics.
func applyMiddleware(logger *slog.Logger, handler http.Handler, cfg config.ServerConfig) http.Handler {
	chain := handler
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.LimitRequestBody(1 << 20)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	if ipRateLimiter := buildIPRateLimiter(logger, cfg); ipRateLimiter != nil {
		chain = ipRateLimiter.Middleware()(chain)
	}
	chain = requestidMiddleware(chain)
	chain = corsMiddleware(logger, chain)
	return chain
}

// buildIPRateLimiter wires pkg/ratelimit's in-memory sliding-window store
// and circuit breaker into the HTTP layer. Returns nil when rate limiting
// is disabled, in which case applyMiddleware skips that link entirely.
func buildIPRateLimiter(logger *slog.Logger, cfg config.ServerConfig) *middleware.IPRateLimiter {
	if !cfg.RateLimitEnabled {
		return nil
	}

	store := pkgratelimit.NewInMemoryRateLimitStore(pkgratelimit.DefaultInMemoryStoreConfig())
	algorithm := pkgratelimit.NewSlidingWindowAlgorithm(&pkgratelimit.SystemClock{})
	metrics := pkgratelimit.NewPrometheusMetrics()
	breaker := pkgratelimit.NewCircuitBreaker(pkgratelimit.CircuitBreakerConfig{
		FailureThreshold: 10,
		RecoveryTimeout:  30 * time.Second,
		Clock:            &pkgratelimit.SystemClock{},
		Metrics:          metrics,
		LimiterType:      "ip",
	})

	rlCfg := middleware.DefaultIPRateLimiterConfig()
	rlCfg.Limit = cfg.RateLimitPerMinute

	logger.Info("ip rate limiting enabled", slog.Int("limit_per_minute", rlCfg.Limit))
	return middleware.NewIPRateLimiter(rlCfg, &middleware.RemoteAddrExtractor{}, store, algorithm, metrics, breaker)
}

// corsMiddleware loads CORS policy from CORS_ALLOWED_ORIGINS and friends.
// Unlike the rest of the chain, CORS is fail-closed by design: if no
// origins are configured, cross-origin requests are simply not served
// CORS headers (browsers same-origin requests still work), rather than
// refusing to start.
func corsMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	corsCfg, err := middleware.LoadCORSConfig()
	if err != nil {
		logger.Warn("CORS disabled: no allowed origins configured", slog.Any("error", err))
		return next
	}
	corsCfg.Logger = &middleware.SlogAdapter{Logger: logger}
	return middleware.CORS(*corsCfg)(next)
}

// requestidMiddleware assigns or propagates an X-Request-ID on every
// request so logs and SSE streams can be correlated back to a single call.
func requestidMiddleware(next http.Handler) http.Handler {
	return requestid.Middleware(next)
}

// startSessionCleanup schedules a recurring eviction of sessions older than
// sessionTTL and starts the health-check server worker.LoadConfigFromEnv
// configures, returning a stop function that halts both. The session store
// lives only in this process's memory, so cleanup runs as a goroutine here
// rather than in a separate worker process that could never see it.
func startSessionCleanup(logger *slog.Logger, sessions *session.Store, sessionTTL time.Duration) func() {
	metrics := workerinfra.NewWorkerMetrics()
	metrics.MustRegister()
	workerCfg, _ := workerinfra.LoadConfigFromEnv(logger, metrics)

	loc, err := time.LoadLocation(workerCfg.Timezone)
	if err != nil {
		logger.Error("invalid cleanup timezone, using UTC", slog.String("timezone", workerCfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(workerCfg.CronSchedule, func() {
		runSessionCleanup(logger, sessions, sessionTTL, workerCfg.CleanupTimeout, metrics)
	})
	if err != nil {
		logger.Error("failed to schedule session cleanup", slog.Any("error", err))
	} else {
		c.Start()
		logger.Info("session cleanup scheduled", slog.String("schedule", workerCfg.CronSchedule), slog.String("timezone", workerCfg.Timezone))
	}

	healthAddr := ":" + strconv.Itoa(workerCfg.HealthPort)
	healthServer := workerinfra.NewHealthServer(healthAddr, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	healthServer.SetReady(true)

	return func() {
		c.Stop()
		cancel()
	}
}

// runSessionCleanup executes a single eviction pass. CleanupOlderThan is a
// plain map scan under a mutex, so it normally finishes well inside timeout;
// this only guards against a runaway pass so metrics/logging never block the
// next cron tick.
func runSessionCleanup(logger *slog.Logger, sessions *session.Store, sessionTTL, timeout time.Duration, metrics *workerinfra.WorkerMetrics) {
	start := time.Now()
	done := make(chan int, 1)
	go func() { done <- sessions.CleanupOlderThan(sessionTTL) }()

	select {
	case removed := <-done:
		metrics.RecordJobRun("success")
		metrics.RecordJobDuration(time.Since(start).Seconds())
		metrics.RecordSessionsEvicted(removed)
		metrics.RecordLastSuccess()
		logger.Info("session cleanup completed", slog.Int("removed", removed), slog.Int("remaining", sessions.Len()))
	case <-time.After(timeout):
		metrics.RecordJobRun("failure")
		metrics.RecordJobDuration(time.Since(start).Seconds())
		logger.Error("session cleanup exceeded timeout", slog.Duration("timeout", timeout))
	}
}

func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// buildOrchestrator wires the fetch, discovery, extraction, and session
// collaborators the orchestrator drives, returning the session store
// alongside it since the HTTP layer also addresses sessions directly.
func buildOrchestrator(cfg *config.AppConfig, registry *sourceregistry.Registry) (*orchestrator.Orchestrator, *session.Store) {
	limiter := ratelimit.New()
	httpClient := &http.Client{Timeout: cfg.Orchestrator.HTTPTimeout}
	robotsGate := robots.New(httpClient, "catchup-feed-searchd/1.0")

	fetchCfg := httpfetch.DefaultConfig()
	fetchCfg.Timeout = cfg.Orchestrator.HTTPTimeout
	fetcher := httpfetch.New(fetchCfg, limiter, robotsGate)

	discoverer := discovery.NewAdapter(fetcher, extract.ExtractLinks, httpClient, cfg.Discovery.GoogleAPIKey)
	articleFetcher := articlefetch.New(fetcher, extract.New(), nil, 0)

	router := buildLLMRouter(cfg.LLM)
	extractor := eventextract.New(router, primaryModel(cfg.LLM))

	sessions := session.New(nil)

	deps := orchestrator.Deps{
		Sources:  registry,
		Discover: discoverer,
		Fetch:    articleFetcher,
		Extract:  extractor,
		Sessions: sessions,
	}

	orchCfg := orchestrator.Config{
		DefaultMaxSearchResults:     cfg.Orchestrator.MaxSearchResults,
		DefaultMaxArticlesToProcess: cfg.Orchestrator.MaxArticlesToProcess,
		MaxConcurrentArticles:       cfg.Orchestrator.MaxConcurrentArticles,
		PerArticleTimeout:           cfg.Orchestrator.PerArticleTimeout,
		ExtractionBudget:            cfg.Orchestrator.ExtractionBudget,
		MinRelevanceScore:           cfg.Orchestrator.MinRelevanceScore,
		Weights:                     cfg.Orchestrator.Weights,
	}

	return orchestrator.New(orchCfg, deps), sessions
}

func buildLLMRouter(cfg config.LLMConfig) *llm.Router {
	backends := map[string]llm.Backend{
		llm.ProviderClaude: llm.NewClaudeBackend(cfg.ClaudeAPIKey),
		llm.ProviderOllama: llm.NewOllamaBackend(cfg.OllamaBaseURL),
	}

	primary := backends[cfg.PrimaryProvider]
	var fallback llm.Backend
	if cfg.FallbackEnabled {
		fallback = backends[cfg.FallbackProvider]
	}
	return llm.New(primary, fallback, cfg.MaxConcurrent)
}

func primaryModel(cfg config.LLMConfig) string {
	if cfg.PrimaryProvider == llm.ProviderOllama {
		return cfg.OllamaModel
	}
	return cfg.ClaudeModel
}

func buildSocialAggregator(cfg *config.AppConfig) *social.Aggregator {
	adapters := map[entity.Platform]social.Adapter{
		entity.PlatformYouTube:   socialAdapterFor(cfg.Social.YouTube, entity.PlatformYouTube),
		entity.PlatformTwitter:   socialAdapterFor(cfg.Social.Twitter, entity.PlatformTwitter),
		entity.PlatformFacebook:  socialAdapterFor(cfg.Social.Facebook, entity.PlatformFacebook),
		entity.PlatformInstagram: socialAdapterFor(cfg.Social.Instagram, entity.PlatformInstagram),
		entity.PlatformGoogle:    socialAdapterFor(cfg.Social.Google, entity.PlatformGoogle),
	}
	return social.New(adapters, cfg.Orchestrator.ContentCacheTTL, nil)
}

func socialAdapterFor(p config.SocialPlatformConfig, platform entity.Platform) social.Adapter {
	if p.Mode == "scrapecreators" {
		return social.NewScrapeCreatorsAdapter(p.BaseURL, p.APIKey, p.EndpointPath, platform)
	}
	return social.NoopAdapter{Platform: platform}
}

// runServer starts the HTTP listener and blocks until SIGINT/SIGTERM,
// then drains in-flight requests within cfg.ShutdownTimeout.
func runServer(logger *slog.Logger, handler http.Handler, cfg config.ServerConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("searchd starting", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down searchd...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("searchd stopped")
}
