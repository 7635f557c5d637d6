package eventextract

import (
	"strings"

	"catchup-feed/internal/domain/entity"
)

// NormalizeEventType maps a free-form LLM event_type string onto the closed
// EventType enum: exact match, then a handful of keyword synonyms for the
// diplomatic-meeting cluster, then substring containment in both
// directions (longest match wins), then a word-overlap pass excluding
// stop words, defaulting to EventTypeOther when nothing matches.
func NormalizeEventType(raw string) entity.EventType {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if entity.EventType(lower).Valid() {
		return entity.EventType(lower)
	}

	spaced := spaceOutSeparators(lower)

	switch {
	case strings.Contains(spaced, "visit"), strings.Contains(spaced, "diplomatic"):
		return entity.EventTypeMeeting
	case strings.Contains(spaced, "summit"), strings.Contains(spaced, "bilateral"):
		return entity.EventTypeSummit
	case strings.Contains(spaced, "conference"):
		return entity.EventTypeConference
	}

	type candidate struct {
		t   entity.EventType
		len int
	}
	var matches []candidate
	for _, t := range entity.AllEventTypes {
		val := spaceOutSeparators(string(t))
		if val != "" && strings.Contains(spaced, val) {
			matches = append(matches, candidate{t, len(val)})
		}
	}
	if len(matches) > 0 {
		best := matches[0]
		for _, m := range matches[1:] {
			if m.len > best.len {
				best = m
			}
		}
		return best.t
	}

	for _, t := range entity.AllEventTypes {
		val := spaceOutSeparators(string(t))
		if val != "" && strings.Contains(val, spaced) {
			return t
		}
	}

	commonWords := map[string]bool{"event": true, "type": true, "other": true, "a": true, "an": true, "the": true}
	words := nonCommonWords(spaced, commonWords)
	if len(words) > 0 {
		for _, t := range entity.AllEventTypes {
			typeWords := nonCommonWords(spaceOutSeparators(string(t)), commonWords)
			if anyWordIn(words, typeWords) {
				return t
			}
		}
	}

	return entity.EventTypeOther
}

// NormalizePerpetratorType maps a free-form LLM perpetrator_type string onto
// the closed PerpetratorType enum, returning "" (null) when raw is empty.
// Falls back to PerpetratorTypeUnknown, never to empty, once raw is non-empty
// but unrecognized.
func NormalizePerpetratorType(raw string) entity.PerpetratorType {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	lower := strings.ToLower(strings.TrimSpace(raw))
	if entity.PerpetratorType(lower).Valid() {
		return entity.PerpetratorType(lower)
	}

	spaced := spaceOutSeparators(lower)
	for _, t := range entity.AllPerpetratorTypes {
		val := spaceOutSeparators(string(t))
		if strings.Contains(val, spaced) || strings.Contains(spaced, val) {
			return t
		}
	}

	switch {
	case strings.Contains(spaced, "terror"), strings.Contains(spaced, "militant"):
		return entity.PerpetratorTypeTerroristGroup
	case strings.Contains(spaced, "state"), strings.Contains(spaced, "government"), strings.Contains(spaced, "military"):
		return entity.PerpetratorTypeStateActor
	case strings.Contains(spaced, "criminal"), strings.Contains(spaced, "gang"), strings.Contains(spaced, "cartel"):
		return entity.PerpetratorTypeCriminalOrg
	case strings.Contains(spaced, "person"), strings.Contains(spaced, "individual"), strings.Contains(spaced, "man"), strings.Contains(spaced, "woman"):
		return entity.PerpetratorTypeIndividual
	case strings.Contains(spaced, "multiple"), strings.Contains(spaced, "several"):
		return entity.PerpetratorTypeMultipleParties
	case strings.Contains(spaced, "unknown"), strings.Contains(spaced, "unidentified"):
		return entity.PerpetratorTypeUnknown
	}

	return entity.PerpetratorTypeUnknown
}

func spaceOutSeparators(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return s
}

func nonCommonWords(s string, common map[string]bool) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if !common[w] {
			out = append(out, w)
		}
	}
	return out
}

func anyWordIn(words, set []string) bool {
	for _, w := range words {
		for _, s := range set {
			if w == s {
				return true
			}
		}
	}
	return false
}

// violenceKeywords is checked against the title and the first 1000 content
// characters to confirm a violent event_type is actually supported by the
// article, demoting to "other" otherwise.
var violenceKeywords = []string{
	"bomb", "explosion", "attack", "shoot", "terror", "killed", "dead",
	"casualt", "injur", "blast", "kidnap", "abduct",
}

// HasViolenceMention reports whether title or the first 1000 characters of
// content contain any of violenceKeywords, case-insensitively.
func HasViolenceMention(title, content string) bool {
	titleLower := strings.ToLower(title)
	window := content
	if len(window) > 1000 {
		window = window[:1000]
	}
	contentLower := strings.ToLower(window)

	for _, kw := range violenceKeywords {
		if strings.Contains(titleLower, kw) || strings.Contains(contentLower, kw) {
			return true
		}
	}
	return false
}

// wellKnownSources maps a domain substring to a display-friendly source
// name, used when the caller doesn't supply one explicitly.
var wellKnownSources = []struct {
	substr string
	name   string
}{
	{"bbc", "BBC News"},
	{"reuters", "Reuters"},
	{"cnn", "CNN"},
	{"aljazeera", "Al Jazeera"},
	{"wikipedia", "Wikipedia"},
	{"cbsnews", "CBS News"},
	{"npr", "NPR"},
	{"nypost", "New York Post"},
	{"apnews", "Associated Press"},
	{"alarabiya", "Al Arabiya"},
	{"indiatvnews", "India TV News"},
	{"thenationalnews", "The National News"},
}

// SourceNameFromDomain returns a friendly source name for a known news
// domain, or a title-cased fallback derived from the domain's first label.
func SourceNameFromDomain(domain string) string {
	lower := strings.ToLower(domain)
	for _, known := range wellKnownSources {
		if strings.Contains(lower, known.substr) {
			return known.name
		}
	}

	stripped := strings.TrimPrefix(lower, "www.")
	label := strings.SplitN(stripped, ".", 2)[0]
	if label == "" {
		return domain
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
