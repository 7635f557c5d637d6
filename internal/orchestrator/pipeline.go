package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/querymatch"
)

// errCancelled distinguishes an observed mid-article cancellation from a
// genuine extraction failure, so callers stop the run instead of logging and
// continuing to the next article.
var errCancelled = errors.New("orchestrator: session cancelled")

// candidateArticle is one discovered URL paired with the source it came
// from, carried through fetch and extraction so per-source selectors and
// rate limits stay attached.
type candidateArticle struct {
	url    string
	source *entity.SourceConfig
}

// Search runs the pipeline to completion and returns the filled session
// response. It creates its own session.
func (o *Orchestrator) Search(ctx context.Context, query entity.SearchQuery, limits Limits) (*entity.SearchResponse, error) {
	start := o.deps.Clock.Now()
	sessionID := o.deps.Sessions.Create(query)
	o.deps.Sessions.SetStatus(sessionID, entity.SessionStatusProcessing)

	resp := &entity.SearchResponse{SessionID: sessionID, OriginalQuery: query}

	sources := o.deps.Sources.List(true)
	if len(sources) == 0 {
		resp.Status = entity.ResponseStatusNoSources
		resp.Message = "no enabled sources configured"
		resp.ProcessingTime = o.deps.Clock.Now().Sub(start)
		o.deps.Sessions.SetStatus(sessionID, entity.SessionStatusCompleted)
		return resp, nil
	}
	resp.SourcesScraped = len(sources)
	o.reportProgress(sessionID, 10, "loaded sources")

	searchPhrase := enrichQuery(query)
	candidates, cancelled := o.discoverCandidates(ctx, sessionID, sources, searchPhrase, limits)
	if cancelled {
		return o.finishCancelled(sessionID, resp, start, nil, query, limits), nil
	}
	o.reportProgress(sessionID, 20, "discovery complete")

	if len(candidates) == 0 {
		resp.Status = entity.ResponseStatusNoArticles
		resp.Message = "no articles could be discovered from sources"
		resp.ProcessingTime = o.deps.Clock.Now().Sub(start)
		o.deps.Sessions.SetStatus(sessionID, entity.SessionStatusCompleted)
		return resp, nil
	}

	events, articlesProcessed, cancelled := o.extractBatch(ctx, sessionID, candidates)
	resp.ArticlesScraped = articlesProcessed
	if cancelled {
		return o.finishCancelled(sessionID, resp, start, events, query, limits), nil
	}

	if len(events) == 0 {
		resp.Status = entity.ResponseStatusNoEvents
		resp.Message = "no events could be extracted from articles"
		resp.ProcessingTime = o.deps.Clock.Now().Sub(start)
		o.deps.Sessions.SetStatus(sessionID, entity.SessionStatusCompleted)
		return resp, nil
	}

	o.reportProgress(sessionID, 90, "matching and ranking events")
	scored := querymatch.MatchWeighted(events, toMatchQuery(query), o.minRelevanceScore(limits), o.cfg.Weights)

	resp.Events = make([]entity.EventRecord, 0, len(scored))
	for _, s := range scored {
		o.deps.Sessions.AppendResult(sessionID, *s.Event)
		resp.Events = append(resp.Events, *s.Event)
	}
	resp.TotalEvents = len(resp.Events)
	resp.Status = entity.ResponseStatusSuccess
	resp.Message = fmt.Sprintf("found %d relevant events", resp.TotalEvents)
	resp.ProcessingTime = o.deps.Clock.Now().Sub(start)
	o.reportProgress(sessionID, 100, "complete")
	o.deps.Sessions.SetStatus(sessionID, entity.SessionStatusCompleted)
	return resp, nil
}

// SearchStream runs the pipeline against a session the caller already
// created (so its id can reach the client before work begins), emitting a
// frame per stage and, in processing order, one frame per accepted event.
// The returned channel is closed when the run ends, for any reason.
func (o *Orchestrator) SearchStream(ctx context.Context, sessionID string, query entity.SearchQuery, limits Limits) <-chan entity.Frame {
	out := make(chan entity.Frame, 8)
	go o.runStream(ctx, sessionID, query, limits, out)
	return out
}

func (o *Orchestrator) runStream(ctx context.Context, sessionID string, query entity.SearchQuery, limits Limits, out chan<- entity.Frame) {
	defer close(out)
	start := o.deps.Clock.Now()
	o.deps.Sessions.SetStatus(sessionID, entity.SessionStatusProcessing)
	out <- entity.Frame{Kind: entity.FrameKindSession, SessionID: sessionID}

	sources := o.deps.Sources.List(true)
	if len(sources) == 0 {
		o.deps.Sessions.SetStatus(sessionID, entity.SessionStatusCompleted)
		out <- entity.Frame{Kind: entity.FrameKindComplete, CompleteMessage: "no enabled sources configured", ProcessingTime: o.deps.Clock.Now().Sub(start)}
		return
	}
	o.emitProgress(sessionID, out, 0, 0, 10, "loaded sources")

	searchPhrase := enrichQuery(query)
	candidates, cancelled := o.discoverCandidates(ctx, sessionID, sources, searchPhrase, limits)
	if cancelled {
		o.emitCancelledStream(out, 0)
		return
	}
	o.emitProgress(sessionID, out, 0, 0, 20, "discovery complete")

	if len(candidates) == 0 {
		o.deps.Sessions.SetStatus(sessionID, entity.SessionStatusCompleted)
		out <- entity.Frame{Kind: entity.FrameKindComplete, CompleteMessage: "no articles could be discovered from sources", ProcessingTime: o.deps.Clock.Now().Sub(start)}
		return
	}

	total := len(candidates)
	var deadline time.Time
	if o.cfg.ExtractionBudget > 0 {
		deadline = o.deps.Clock.Now().Add(o.cfg.ExtractionBudget)
	}

	threshold := o.minRelevanceScore(limits)
	eventIndex := 0
	articlesProcessed := 0
	totalEvents := 0

	for i, candidate := range candidates {
		if o.deps.Sessions.IsCancelled(sessionID) {
			o.emitCancelledStream(out, totalEvents)
			return
		}
		if !deadline.IsZero() && o.deps.Clock.Now().After(deadline) {
			slog.Warn("orchestrator: extraction budget exceeded, abandoning remaining articles",
				slog.Int("processed", i), slog.Int("total", total))
			break
		}

		articlesProcessed++
		event, err := o.processArticle(ctx, sessionID, candidate)
		pct := extractionPercent(articlesProcessed, total)
		o.emitProgress(sessionID, out, articlesProcessed, total, pct,
			fmt.Sprintf("processed %d/%d articles", articlesProcessed, total))

		if err != nil {
			if !errors.Is(err, errCancelled) {
				slog.Warn("orchestrator: article extraction failed",
					slog.String("url", candidate.url), slog.String("error", err.Error()))
			}
			continue
		}
		if event == nil {
			continue
		}

		score := querymatch.Score(event, toMatchQuery(query), o.cfg.Weights)
		if score < threshold {
			continue
		}

		o.deps.Sessions.AppendResult(sessionID, *event)
		totalEvents++
		out <- entity.Frame{
			Kind:          entity.FrameKindEvent,
			Event:         event,
			EventIndex:    eventIndex,
			ArticleIndex:  i,
			TotalArticles: total,
		}
		eventIndex++
	}

	o.emitProgress(sessionID, out, 0, 0, 90, "finalizing results")
	o.deps.Sessions.SetStatus(sessionID, entity.SessionStatusCompleted)
	out <- entity.Frame{
		Kind:                entity.FrameKindComplete,
		CompleteMessage:     fmt.Sprintf("found %d relevant events", totalEvents),
		CompleteTotalEvents: totalEvents,
		ArticlesProcessed:   articlesProcessed,
		ProcessingTime:      o.deps.Clock.Now().Sub(start),
	}
}

// discoverCandidates fans out discovery across sources in order, applying a
// per-run URL dedup set and the per-source search/article limits. Returns
// (candidates-so-far, true) if cancellation is observed mid-fan-out.
func (o *Orchestrator) discoverCandidates(ctx context.Context, sessionID string, sources []*entity.SourceConfig, searchPhrase string, limits Limits) ([]candidateArticle, bool) {
	seen := make(map[string]bool)
	var out []candidateArticle

	for _, src := range sources {
		if o.deps.Sessions.IsCancelled(sessionID) {
			return out, true
		}

		searchLimit, articlesLimit := entity.ResolveLimits(
			limits.MaxSearchResults, limits.MaxArticlesToProcess, src,
			o.cfg.DefaultMaxSearchResults, o.cfg.DefaultMaxArticlesToProcess)

		urls, err := o.deps.Discover.Discover(ctx, src, searchPhrase, searchLimit)
		if err != nil {
			slog.Warn("orchestrator: discovery failed",
				slog.String("source", src.Name), slog.String("error", err.Error()))
			continue
		}

		added := 0
		for _, u := range urls {
			if seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, candidateArticle{url: u, source: src})
			added++
			if added >= articlesLimit {
				break
			}
		}

		if o.deps.Sessions.IsCancelled(sessionID) {
			return out, true
		}
	}
	return out, false
}

// extractBatch processes candidates with up to cfg.MaxConcurrentArticles
// concurrent workers, honoring the extraction budget and per-session
// cancellation. Results preserve discovery order despite concurrent
// completion.
func (o *Orchestrator) extractBatch(ctx context.Context, sessionID string, candidates []candidateArticle) ([]*entity.EventRecord, int, bool) {
	total := len(candidates)
	slots := make([]*entity.EventRecord, total)
	processed := make([]bool, total)

	var deadline time.Time
	if o.cfg.ExtractionBudget > 0 {
		deadline = o.deps.Clock.Now().Add(o.cfg.ExtractionBudget)
	}

	concurrency := o.cfg.MaxConcurrentArticles
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	var mu sync.Mutex
	done := 0
	cancelledFlag := false

	eg, egCtx := errgroup.WithContext(ctx)

launch:
	for i, candidate := range candidates {
		idx, cand := i, candidate
		select {
		case sem <- struct{}{}:
		case <-egCtx.Done():
			break launch
		}

		// Checked only once a slot is actually free, so at
		// MaxConcurrentArticles=1 this fires strictly between one article
		// finishing and the next starting, never mid-flight on the one
		// already running.
		if o.deps.Sessions.IsCancelled(sessionID) {
			<-sem
			cancelledFlag = true
			break launch
		}
		if !deadline.IsZero() && o.deps.Clock.Now().After(deadline) {
			<-sem
			slog.Warn("orchestrator: extraction budget exceeded, abandoning remaining articles",
				slog.Int("processed", i), slog.Int("total", total))
			break launch
		}

		eg.Go(func() error {
			defer func() { <-sem }()
			event, err := o.processArticle(egCtx, sessionID, cand)

			mu.Lock()
			done++
			processed[idx] = true
			pct := extractionPercent(done, total)
			message := fmt.Sprintf("processed %d/%d articles", done, total)
			mu.Unlock()
			o.reportProgress(sessionID, pct, message)

			if err != nil {
				if !errors.Is(err, errCancelled) {
					slog.Warn("orchestrator: article extraction failed",
						slog.String("url", cand.url), slog.String("error", err.Error()))
				}
				return nil
			}
			slots[idx] = event
			return nil
		})
	}

	_ = eg.Wait()

	out := make([]*entity.EventRecord, 0, total)
	articlesProcessed := 0
	for i, e := range slots {
		if processed[i] {
			articlesProcessed++
		}
		if e != nil {
			out = append(out, e)
		}
	}

	if o.deps.Sessions.IsCancelled(sessionID) {
		cancelledFlag = true
	}

	return out, articlesProcessed, cancelledFlag
}

// processArticle fetches and extracts one candidate, bracketing the LLM call
// with cancellation checks (the two fences the extraction step deserves
// beyond the ordinary between-articles check).
func (o *Orchestrator) processArticle(ctx context.Context, sessionID string, candidate candidateArticle) (*entity.EventRecord, error) {
	article, err := o.deps.Fetch.FetchArticle(ctx, candidate.url, candidate.source)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: fetch %s: %w", candidate.url, err)
	}

	if o.deps.Sessions.IsCancelled(sessionID) {
		return nil, errCancelled
	}

	bundle := buildEntityBundle(article.Title, article.Content)

	extractCtx := ctx
	if o.cfg.PerArticleTimeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, o.cfg.PerArticleTimeout)
		defer cancel()
	}
	event, err := o.deps.Extract.Extract(extractCtx, article, bundle, article.PublishedDate)

	if o.deps.Sessions.IsCancelled(sessionID) {
		return nil, errCancelled
	}
	if err != nil {
		return nil, fmt.Errorf("orchestrator: extract %s: %w", candidate.url, err)
	}
	return event, nil
}

// finishCancelled scores whatever events were already produced before
// cancellation was observed, appends the retained ones to the session, and
// builds the cancelled-status batch response.
func (o *Orchestrator) finishCancelled(sessionID string, resp *entity.SearchResponse, start time.Time, events []*entity.EventRecord, query entity.SearchQuery, limits Limits) *entity.SearchResponse {
	if len(events) > 0 {
		scored := querymatch.MatchWeighted(events, toMatchQuery(query), o.minRelevanceScore(limits), o.cfg.Weights)
		resp.Events = make([]entity.EventRecord, 0, len(scored))
		for _, s := range scored {
			o.deps.Sessions.AppendResult(sessionID, *s.Event)
			resp.Events = append(resp.Events, *s.Event)
		}
	}
	resp.TotalEvents = len(resp.Events)
	resp.Status = entity.ResponseStatusCancelled
	resp.Message = fmt.Sprintf("search cancelled, %d event(s) retained", resp.TotalEvents)
	resp.ProcessingTime = o.deps.Clock.Now().Sub(start)
	return resp
}

func (o *Orchestrator) emitCancelledStream(out chan<- entity.Frame, totalEvents int) {
	out <- entity.Frame{
		Kind:                 entity.FrameKindCancelled,
		CancelledMessage:     fmt.Sprintf("search cancelled, %d event(s) retained", totalEvents),
		CancelledTotalEvents: totalEvents,
	}
}

// emitProgress updates the session's stored progress and, when out is
// non-nil, pushes a matching progress frame.
func (o *Orchestrator) emitProgress(sessionID string, out chan<- entity.Frame, current, total int, percent float64, message string) {
	o.reportProgress(sessionID, percent, message)
	if out != nil {
		out <- entity.Frame{Kind: entity.FrameKindProgress, Progress: entity.Progress{Current: current, Total: total, Percent: percent, Message: message}}
	}
}

// reportProgress stores percent at two-decimal resolution: the session
// store's UpdateProgress derives a percentage from current/total, so percent
// is re-expressed as current/10000 to preserve precision through that
// division.
func (o *Orchestrator) reportProgress(sessionID string, percent float64, message string) {
	const resolution = 10000
	current := int(math.Round(percent * (resolution / 100)))
	o.deps.Sessions.UpdateProgress(sessionID, current, resolution, message)
}

// extractionPercent implements the stage-weighted progress formula: 0-10
// reserved for source load, 10-20 for discovery, 20-90 for extraction
// scaled by done/total, 90-100 for completion.
func extractionPercent(done, total int) float64 {
	if total == 0 {
		return 90
	}
	return 20 + (float64(done)/float64(total))*70
}
