// Package export converts ranked event records into downloadable batch
// output. The column set and ordering are fixed regardless of format, so
// every Writer implementation produces the same eighteen columns.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"catchup-feed/internal/domain/entity"
)

// Columns is the fixed, ordered header row every Writer emits.
var Columns = []string{
	"Event Title",
	"Summary",
	"Event Type",
	"Perpetrator",
	"Location (Full Text)",
	"City",
	"Region/State",
	"Country",
	"Event Date",
	"Event Time",
	"Individuals Involved",
	"Organizations Involved",
	"Casualties (Killed)",
	"Casualties (Injured)",
	"Source Name",
	"Source URL",
	"Article Publication Date",
	"Extraction Confidence",
}

// ErrNoEvents is returned when a Writer is asked to export an empty slice.
var ErrNoEvents = fmt.Errorf("export: cannot export an empty event list")

// Writer serializes a batch of events to w in whatever format the
// implementation owns.
type Writer interface {
	Write(w io.Writer, events []entity.EventRecord) error
}

// Row renders a single EventRecord into Columns order as strings, shared by
// every Writer implementation so format-specific code never touches
// EventRecord field access directly.
func Row(e entity.EventRecord) []string {
	killed, injured := "", ""
	if e.Casualties.Killed > 0 {
		killed = fmt.Sprintf("%d", e.Casualties.Killed)
	}
	if e.Casualties.Injured > 0 {
		injured = fmt.Sprintf("%d", e.Casualties.Injured)
	}

	eventDate := ""
	if e.HasEventDate() {
		eventDate = e.EventDate.Format("2006-01-02")
	}
	pubDate := ""
	if !e.ArticlePublishedDate.IsZero() {
		pubDate = e.ArticlePublishedDate.Format("2006-01-02")
	}

	return []string{
		e.Title,
		e.Summary,
		strings.ToUpper(strings.ReplaceAll(string(e.EventType), "_", " ")),
		e.Perpetrator,
		locationFullText(e.Location),
		e.Location.City,
		e.Location.Region,
		e.Location.Country,
		eventDate,
		e.EventTime,
		strings.Join(e.Participants, ", "),
		strings.Join(e.Organizations, ", "),
		killed,
		injured,
		e.SourceName,
		e.SourceURL,
		pubDate,
		fmt.Sprintf("%.0f%%", e.Confidence*100),
	}
}

func locationFullText(loc entity.Location) string {
	if loc.Empty() {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{loc.City, loc.Region, loc.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Summary holds the aggregate counts a Writer may render onto a metadata
// sheet or trailer.
type Summary struct {
	ExportedAt   time.Time
	TotalEvents  int
	ByType       []TypeCount
	TopCountries []CountryCount
}

// TypeCount is one row of the event-type breakdown, sorted by Count desc.
type TypeCount struct {
	EventType entity.EventType
	Count     int
}

// CountryCount is one row of the top-locations breakdown, sorted by Count
// desc and capped at 10 entries.
type CountryCount struct {
	Country string
	Count   int
}

// Summarize builds the aggregate breakdown a metadata sheet needs.
func Summarize(events []entity.EventRecord, exportedAt time.Time) Summary {
	typeCounts := make(map[entity.EventType]int)
	countryCounts := make(map[string]int)
	for _, e := range events {
		typeCounts[e.EventType]++
		if e.Location.Country != "" {
			countryCounts[e.Location.Country]++
		}
	}

	byType := make([]TypeCount, 0, len(typeCounts))
	for t, c := range typeCounts {
		byType = append(byType, TypeCount{EventType: t, Count: c})
	}
	sort.Slice(byType, func(i, j int) bool {
		if byType[i].Count != byType[j].Count {
			return byType[i].Count > byType[j].Count
		}
		return byType[i].EventType < byType[j].EventType
	})

	topCountries := make([]CountryCount, 0, len(countryCounts))
	for c, n := range countryCounts {
		topCountries = append(topCountries, CountryCount{Country: c, Count: n})
	}
	sort.Slice(topCountries, func(i, j int) bool {
		if topCountries[i].Count != topCountries[j].Count {
			return topCountries[i].Count > topCountries[j].Count
		}
		return topCountries[i].Country < topCountries[j].Country
	})
	if len(topCountries) > 10 {
		topCountries = topCountries[:10]
	}

	return Summary{
		ExportedAt:   exportedAt,
		TotalEvents:  len(events),
		ByType:       byType,
		TopCountries: topCountries,
	}
}
