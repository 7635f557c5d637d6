package search

import (
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/orchestrator"
)

// requestDTO is the wire shape of both the batch and streaming search
// endpoints' request bodies.
type requestDTO struct {
	Phrase               string `json:"phrase"`
	Location             string `json:"location"`
	EventType            string `json:"event_type"`
	DateFrom             string `json:"date_from"` // RFC3339 or "2006-01-02"
	DateTo               string `json:"date_to"`
	MaxSearchResults     int     `json:"max_search_results"`
	MaxArticlesToProcess int     `json:"max_articles_to_process"`
	MinRelevanceScore    float64 `json:"min_relevance_score"`
}

func (d requestDTO) toQuery() (entity.SearchQuery, error) {
	q := entity.SearchQuery{
		Phrase:    d.Phrase,
		Location:  d.Location,
		EventType: entity.EventType(d.EventType),
	}
	if d.DateFrom != "" {
		t, err := parseFlexibleDate(d.DateFrom)
		if err != nil {
			return entity.SearchQuery{}, err
		}
		q.DateFrom = t
	}
	if d.DateTo != "" {
		t, err := parseFlexibleDate(d.DateTo)
		if err != nil {
			return entity.SearchQuery{}, err
		}
		q.DateTo = t
	}
	return q, nil
}

func parseFlexibleDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func (d requestDTO) toLimits() orchestrator.Limits {
	return orchestrator.Limits{
		MaxSearchResults:     d.MaxSearchResults,
		MaxArticlesToProcess: d.MaxArticlesToProcess,
		MinRelevanceScore:    d.MinRelevanceScore,
	}
}
