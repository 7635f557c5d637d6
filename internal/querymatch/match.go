// Package querymatch computes a weighted relevance score combining text,
// location, date, and event-type sub-scores, discounted by the event's own
// extraction confidence.
package querymatch

import (
	"sort"
	"strings"
	"time"

	"catchup-feed/internal/domain/entity"
)

// Weights holds the relative contribution of each sub-score to the final
// relevance score. The zero value is invalid; use DefaultWeights.
type Weights struct {
	Text     float64
	Location float64
	Date     float64
	Type     float64
}

// DefaultWeights mirrors the reference weighting: text dominates, location
// and date carry meaningful but secondary weight, type is the lightest
// signal since many queries don't specify one.
var DefaultWeights = Weights{Text: 0.40, Location: 0.25, Date: 0.20, Type: 0.15}

// Query describes the search the caller is scoring events against. Location,
// DateFrom/DateTo, and Type are all optional (zero value means unspecified).
type Query struct {
	Text     string
	Location string
	DateFrom time.Time
	DateTo   time.Time
	Type     entity.EventType
}

// ScoredEvent pairs an event with its computed relevance score.
type ScoredEvent struct {
	Event *entity.EventRecord
	Score float64
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "and": true, "or": true, "is": true,
	"are": true, "was": true, "were": true, "with": true, "by": true,
	"from": true, "it": true, "this": true, "that": true, "as": true,
}

// Score computes the weighted relevance of one event against query, scaled
// by the event's confidence.
func Score(event *entity.EventRecord, query Query, weights Weights) float64 {
	text := textScore(query.Text, event.Title+" "+event.Summary)
	location := locationScore(event.Location, query.Location)
	date := dateScore(event.EventDate, event.HasEventDate(), query.DateFrom, query.DateTo)
	eventType := typeScore(event.EventType, query.Type)

	raw := weights.Text*text + weights.Location*location + weights.Date*date + weights.Type*eventType
	return raw * event.Confidence
}

// Match scores every event against query, keeps those scoring at least
// minScore, and returns them sorted by score descending.
func Match(events []*entity.EventRecord, query Query, minScore float64) []ScoredEvent {
	return MatchWeighted(events, query, minScore, DefaultWeights)
}

// MatchWeighted is Match with explicit weights, for callers overriding the
// defaults via configuration.
func MatchWeighted(events []*entity.EventRecord, query Query, minScore float64, weights Weights) []ScoredEvent {
	out := make([]ScoredEvent, 0, len(events))
	for _, e := range events {
		score := Score(e, query, weights)
		if score >= minScore {
			out = append(out, ScoredEvent{Event: e, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func textScore(query, eventText string) float64 {
	if strings.TrimSpace(query) == "" {
		return 0
	}
	qTokens := tokenize(query)
	eTokens := tokenize(eventText)

	jaccard := jaccardSimilarity(qTokens, eTokens)
	ratio := sequenceRatio(strings.ToLower(query), strings.ToLower(eventText))

	return 0.7*jaccard + 0.3*ratio
}

func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	for _, field := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !isWordRune(r)
	}) {
		if field == "" || stopWords[field] {
			continue
		}
		out[field] = true
	}
	return out
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if b[token] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func locationScore(loc entity.Location, query string) float64 {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0
	}
	if loc.Empty() {
		return 0
	}
	best := 0.0
	for _, component := range []string{loc.City, loc.Region, loc.Country} {
		if component == "" {
			continue
		}
		if score := containmentOrSimilarity(component, query); score > best {
			best = score
		}
	}
	return best
}

func containmentOrSimilarity(component, query string) float64 {
	c := strings.ToLower(component)
	q := strings.ToLower(query)
	if strings.Contains(c, q) || strings.Contains(q, c) {
		return 1.0
	}
	return sequenceRatio(c, q)
}

func dateScore(eventDate time.Time, hasDate bool, from, to time.Time) float64 {
	hasRange := !from.IsZero() || !to.IsZero()
	if !hasRange {
		return 0.5
	}
	if !hasDate {
		return 0.3
	}
	if withinRange(eventDate, from, to) {
		return 1.0
	}
	days := daysOutsideRange(eventDate, from, to)
	score := 1.0 - float64(days)/30.0
	if score < 0 {
		return 0
	}
	return score
}

func withinRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

func daysOutsideRange(t, from, to time.Time) float64 {
	if !from.IsZero() && t.Before(from) {
		return from.Sub(t).Hours() / 24
	}
	if !to.IsZero() && t.After(to) {
		return t.Sub(to).Hours() / 24
	}
	return 0
}

func typeScore(eventType, queryType entity.EventType) float64 {
	if queryType == "" {
		return 0.5
	}
	if eventType == queryType {
		return 1.0
	}
	return 0.0
}

// sequenceRatio is a direct port of Python's difflib.SequenceMatcher.ratio():
// 2 * M / T, where M is the total length of matching blocks found by
// recursively locating the longest common contiguous substring and
// recursing on the unmatched left/right remainders, and T is the combined
// length of both strings. No pack library implements this specific
// algorithm, so it's hand-ported here rather than approximated by Jaccard
// alone (see DESIGN.md).
func sequenceRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	matching := matchingBlockLength(a, b)
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return 2.0 * float64(matching) / float64(total)
}

func matchingBlockLength(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	left := matchingBlockLength(a[:ai], b[:bi])
	right := matchingBlockLength(a[ai+size:], b[bi+size:])
	return left + size + right
}

// longestMatch finds the longest contiguous substring common to a and b,
// returning its start index in each and its length. Ties prefer the
// earliest match in a, then in b, matching SequenceMatcher's own tie-break.
func longestMatch(a, b string) (int, int, int) {
	bestAI, bestBI, bestSize := 0, 0, 0
	// lengths[j] = length of the match ending at a[i-1], b[j-1] for the
	// previous row of i; reused across rows to keep this O(len(a)*len(b))
	// in time and O(len(b)) in space.
	lengths := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		newLengths := make([]int, len(b)+1)
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				newLengths[j] = lengths[j-1] + 1
				if newLengths[j] > bestSize {
					bestSize = newLengths[j]
					bestAI = i - bestSize
					bestBI = j - bestSize
				}
			}
		}
		lengths = newLengths
	}
	return bestAI, bestBI, bestSize
}
