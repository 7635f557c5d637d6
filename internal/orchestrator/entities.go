package orchestrator

import (
	"regexp"
	"sort"
	"strings"

	"catchup-feed/internal/domain/entity"
)

// properNounRun matches a run of two or more capitalized words, the cheap
// proxy this package uses for named-entity candidates. There is no NER
// library in this module's dependency set, so entity-bundle enrichment is a
// heuristic rather than a model: it trades recall for zero extra
// infrastructure, acceptable since the event extractor treats the bundle as
// optional grounding context, not a source of truth.
var properNounRun = regexp.MustCompile(`\b[A-Z][a-zA-Z'.-]*(?:\s+[A-Z][a-zA-Z'.-]*){1,4}\b`)

// orgSuffixes flags a proper-noun run as an organization rather than a
// person or place.
var orgSuffixes = []string{
	"Party", "Army", "Forces", "Ministry", "Government", "Organization",
	"Organisation", "Agency", "Group", "Corporation", "Corp", "Inc", "Ltd",
	"LLC", "Council", "Command", "Battalion", "Brigade", "Authority",
	"Union", "Coalition", "Front", "Movement", "Administration", "Bureau",
	"Department", "Committee", "Commission", "Alliance",
}

// locationMarkers flags a proper-noun run as a place when it's preceded by
// one of these prepositions in the source text.
var locationMarkers = []string{"in", "near", "outside", "across", "from", "to", "at"}

// buildEntityBundle runs a lightweight heuristic entity scan over an
// article's title and content, populating the persons/organizations/
// locations fields the prompt and post-extraction enrichment use. It is not
// a substitute for real NER; it exists only to give the extractor the same
// kind of pre-extracted grounding context the reference pipeline's NER step
// provides, scaled to what's feasible with regexp and a keyword list.
func buildEntityBundle(title, content string) *entity.EntityBundle {
	text := title + "\n\n" + content
	if len(text) > 20000 {
		text = text[:20000]
	}

	persons := map[string]bool{}
	orgs := map[string]bool{}
	locations := map[string]bool{}

	for _, idx := range properNounRun.FindAllStringIndex(text, -1) {
		candidate := strings.TrimSpace(text[idx[0]:idx[1]])
		if len(candidate) < 4 {
			continue
		}

		switch {
		case hasOrgSuffix(candidate):
			orgs[candidate] = true
		case precededByLocationMarker(text, idx[0]):
			locations[candidate] = true
		case wordCount(candidate) <= 3:
			persons[candidate] = true
		default:
			orgs[candidate] = true
		}
	}

	bundle := &entity.EntityBundle{
		Persons:       sortedKeys(persons),
		Organizations: sortedKeys(orgs),
		Locations:     sortedKeys(locations),
	}
	if bundle.Empty() {
		return nil
	}
	return bundle
}

func hasOrgSuffix(candidate string) bool {
	for _, suffix := range orgSuffixes {
		if strings.HasSuffix(candidate, suffix) {
			return true
		}
	}
	return false
}

func precededByLocationMarker(text string, start int) bool {
	prefix := strings.TrimRight(text[:start], " ")
	for _, marker := range locationMarkers {
		if strings.HasSuffix(prefix, " "+marker) || prefix == marker {
			return true
		}
	}
	return false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
