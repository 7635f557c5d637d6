package entity

import "time"

// RawArticle is a fetched, text-extracted news page plus the metadata
// needed to route it through extraction and scoring. Articles are transient
// within a single pipeline run; they are never persisted.
type RawArticle struct {
	ID              string
	URL             string
	Title           string
	Content         string
	PublishedDate   time.Time
	Author          string
	SourceName      string
	ScrapeTimestamp time.Time
}

// EntityBundle holds disjoint, case-insensitively deduplicated entity sets
// recognized in an article, used to enrich the event-extraction prompt and
// to backfill participants/organizations after LLM extraction.
type EntityBundle struct {
	Persons       []string
	Organizations []string
	Locations     []string
	Dates         []string
	Events        []string
	Products      []string
}

// TopN returns at most n entries from ss, in order.
func TopN(ss []string, n int) []string {
	if len(ss) <= n {
		return ss
	}
	return ss[:n]
}

// Empty reports whether the bundle carries no entities at all.
func (b *EntityBundle) Empty() bool {
	if b == nil {
		return true
	}
	return len(b.Persons) == 0 && len(b.Organizations) == 0 && len(b.Locations) == 0 &&
		len(b.Dates) == 0 && len(b.Events) == 0 && len(b.Products) == 0
}
