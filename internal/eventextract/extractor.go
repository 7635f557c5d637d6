package eventextract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/llm"
)

const (
	// maxTokens and temperature mirror the original extraction call: a
	// short, low-temperature completion biased toward precision.
	maxTokens            = 500
	temperature          = 0.2
	minConfidence        = 0.3
	lowQualityRatio      = 0.30
	marginalQualityRatio = 0.50
)

// llmClient is the subset of llm.Router's Generate surface this package
// depends on. Narrowed to its own interface (rather than importing
// llm.Router directly) so tests can supply a fake without a full Router.
type llmClient interface {
	Generate(ctx context.Context, systemPrompt, userPrompt, model string, maxTokens int, temperature float64) (text string, meta llm.Meta, err error)
}

// ErrNoEvent indicates the LLM found no extractable event in the article
// (explicit error/no_event response, empty response, or confidence below
// minConfidence). Callers should skip the article rather than treat this as
// a pipeline failure.
var ErrNoEvent = errors.New("eventextract: no extractable event")

// Extractor turns article content into a structured entity.EventRecord by
// prompting an LLM backend and normalizing its response.
type Extractor struct {
	llm   llmClient
	model string
}

// New builds an Extractor. model may be empty to let the backend pick its
// own default.
func New(llm llmClient, model string) *Extractor {
	return &Extractor{llm: llm, model: model}
}

// Extract produces an EventRecord from one article. publishedDate is used as
// a fallback event date (and article-published-date) when the LLM doesn't
// report one; it may be the zero time if unknown.
func (x *Extractor) Extract(ctx context.Context, article *entity.RawArticle, entities *entity.EntityBundle, publishedDate time.Time) (*entity.EventRecord, error) {
	content := article.Content

	if content != "" {
		cleaned, ok := gateContentQuality(content)
		if !ok {
			return nil, fmt.Errorf("%w: content quality too low for extraction", ErrNoEvent)
		}
		content = cleaned
	}

	prompt := BuildPrompt(article.Title, content, entities)

	response, _, err := x.llm.Generate(ctx, SystemPrompt, prompt, x.model, maxTokens, temperature)
	if err != nil {
		return nil, fmt.Errorf("eventextract: llm call failed: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		return nil, fmt.Errorf("%w: empty llm response", ErrNoEvent)
	}

	parsed, err := ParseLLMResponse(response)
	if err != nil {
		return nil, fmt.Errorf("eventextract: could not parse llm response: %w", err)
	}

	if parsed.Error != "" || parsed.NoEvent {
		return nil, fmt.Errorf("%w: %s", ErrNoEvent, parsed.Error)
	}

	confidence := 0.75
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}
	if confidence < minConfidence {
		return nil, fmt.Errorf("%w: confidence %.2f below threshold", ErrNoEvent, confidence)
	}

	eventType := NormalizeEventType(parsed.EventType)
	perpetrator := ""
	if parsed.Perpetrator != nil {
		perpetrator = *parsed.Perpetrator
	}
	var perpetratorType entity.PerpetratorType
	if parsed.PerpetratorType != nil {
		perpetratorType = NormalizePerpetratorType(*parsed.PerpetratorType)
	}

	record := &entity.EventRecord{
		EventType:       eventType,
		EventSubType:    parsed.EventSubType,
		Title:           article.Title,
		Summary:         firstNonEmpty(parsed.Summary, parsed.Description),
		Perpetrator:     perpetrator,
		PerpetratorType: perpetratorType,
		Casualties:      coerceCasualties(parsed.Casualties),
		Confidence:      clamp01(confidence),
		FullContent:     content,
	}

	if record.IsViolenceType() && !HasViolenceMention(article.Title, content) {
		slog.Warn("eventextract: violent event type unsupported by article content, demoting to other",
			slog.String("event_type", string(eventType)),
			slog.String("title", truncateForLog(article.Title)))
		record.EventType = entity.EventTypeOther
		record.Perpetrator = ""
		record.PerpetratorType = ""
		record.Casualties = nil
	}

	loc := parseRawLocation(parsed.Location)
	record.Location = entity.Location{
		City:    stringOrJoinedList(loc.City),
		Region:  firstNonEmpty(loc.Region, loc.State),
		Country: stringOrJoinedList(loc.Country),
	}

	record.EventDate = parseEventDate(parsed.EventDate)
	if record.EventDate.IsZero() && !publishedDate.IsZero() {
		record.EventDate = publishedDate
	}
	record.EventTime = parsed.EventTime

	record.Participants = entity.DedupeStrings(append(append([]string{}, parsed.Individuals...), entity.TopN(entitiesOrEmpty(entities).Persons, 10)...))
	record.Organizations = entity.DedupeStrings(append(append([]string{}, parsed.Organizations...), entity.TopN(entitiesOrEmpty(entities).Organizations, 10)...))

	sourceName := article.SourceName
	if sourceName == "" {
		sourceName = sourceNameFromURL(article.URL)
	}
	record.SourceName = sourceName
	record.SourceURL = article.URL

	record.ArticlePublishedDate = publishedDate
	if record.ArticlePublishedDate.IsZero() {
		record.ArticlePublishedDate = record.EventDate
	}
	record.CollectionTimestamp = article.ScrapeTimestamp

	return record, nil
}

// gateContentQuality checks the readable-character ratio over the first
// 1000 characters of content, rejecting it outright below lowQualityRatio
// and stripping non-printable characters when marginal (below
// marginalQualityRatio). Mirrors the pre-LLM-call quality check that gates
// the expensive extraction call.
func gateContentQuality(content string) (string, bool) {
	runes := []rune(content)
	window := runes
	if len(window) > 1000 {
		window = window[:1000]
	}
	readable := 0
	for _, r := range window {
		if isReadableForGate(r) {
			readable++
		}
	}
	ratio := float64(readable) / float64(len(window))
	if ratio < lowQualityRatio {
		return "", false
	}
	if ratio < marginalQualityRatio {
		return stripNonPrintable(content), true
	}
	return content, true
}

func isReadableForGate(r rune) bool {
	switch {
	case r == ' ' || r == '\n' || r == '\t' || r == '\r':
		return true
	case r >= '0' && r <= '9':
		return true
	case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		return true
	}
	switch r {
	case '.', ',', '!', '?', ';', ':', '(', ')', '-', '"', '\'':
		return true
	}
	return false
}

func stripNonPrintable(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || r == '\r' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// coerceCasualties applies the zero-drop rule: only construct a Casualties
// value when at least one of killed/injured is positive.
func coerceCasualties(data []byte) *entity.Casualties {
	if len(data) == 0 {
		return nil
	}
	raw := rawCasualties{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	killed := intFromRaw(raw.Killed)
	injured := intFromRaw(raw.Injured)
	if killed <= 0 && injured <= 0 {
		return nil
	}
	return &entity.Casualties{Killed: killed, Injured: injured}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseEventDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	slog.Warn("eventextract: could not parse event date", slog.String("value", raw))
	return time.Time{}
}

func sourceNameFromURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return SourceNameFromDomain(parsed.Host)
}

func entitiesOrEmpty(e *entity.EntityBundle) *entity.EntityBundle {
	if e == nil {
		return &entity.EntityBundle{}
	}
	return e
}

func truncateForLog(s string) string {
	if len(s) > 60 {
		return s[:60]
	}
	return s
}
