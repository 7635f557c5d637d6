package orchestrator

import (
	"fmt"
	"strings"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/querymatch"
)

// toMatchQuery adapts a session's search query to the shape querymatch
// scores against.
func toMatchQuery(q entity.SearchQuery) querymatch.Query {
	return querymatch.Query{
		Text:     q.Phrase,
		Location: q.Location,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
		Type:     q.EventType,
	}
}

// enrichQuery appends a human date-context token to the query phrase before
// it's used for discovery, so source search pages see a more specific
// phrase. The token is purely a discovery-stage input; the structured
// DateFrom/DateTo filters are applied separately during match and rank.
func enrichQuery(q entity.SearchQuery) string {
	phrase := strings.TrimSpace(q.Phrase)
	if !q.HasDateRange() {
		return strings.TrimSpace(phrase + " recent")
	}

	const monthYear = "January 2006"
	switch {
	case !q.DateFrom.IsZero() && !q.DateTo.IsZero():
		from := q.DateFrom.Format(monthYear)
		to := q.DateTo.Format(monthYear)
		if from == to {
			return strings.TrimSpace(fmt.Sprintf("%s %s", phrase, from))
		}
		return strings.TrimSpace(fmt.Sprintf("%s %s to %s", phrase, from, to))
	case !q.DateFrom.IsZero():
		return strings.TrimSpace(fmt.Sprintf("%s after %s", phrase, q.DateFrom.Format(monthYear)))
	default:
		return strings.TrimSpace(fmt.Sprintf("%s before %s", phrase, q.DateTo.Format(monthYear)))
	}
}
