// Package entity defines the core domain entities and validation logic for the
// event search system: event records, source configuration, sessions, and the
// social content records produced by the content aggregator.
package entity

import (
	"strings"
	"time"
)

// EventType is a closed enumeration of the event categories the extractor
// can emit. Unknown or unmapped LLM output normalizes to EventTypeOther.
type EventType string

// Recognized event types. ViolenceEventTypes is the subset subject to the
// keyword-consistency rule.
const (
	EventTypeProtest           EventType = "protest"
	EventTypeDemonstration     EventType = "demonstration"
	EventTypeAttack            EventType = "attack"
	EventTypeExplosion         EventType = "explosion"
	EventTypeBombing           EventType = "bombing"
	EventTypeShooting          EventType = "shooting"
	EventTypeTheft             EventType = "theft"
	EventTypeKidnapping        EventType = "kidnapping"
	EventTypeMilitaryOperation EventType = "military_operation"
	EventTypeCyberAttack       EventType = "cyber_attack"
	EventTypeCyberIncident     EventType = "cyber_incident"
	EventTypeDataBreach        EventType = "data_breach"
	EventTypeConference        EventType = "conference"
	EventTypeMeeting           EventType = "meeting"
	EventTypeSummit            EventType = "summit"
	EventTypeAccident          EventType = "accident"
	EventTypeNaturalDisaster   EventType = "natural_disaster"
	EventTypeElection          EventType = "election"
	EventTypePoliticalEvent    EventType = "political_event"
	// EventTypeTerroristActivity is carried from the original corpus: it is
	// routed through the event-type hierarchy here, with a parallel mapping
	// into PerpetratorTypeTerroristGroup for perpetrator classification (see
	// DESIGN.md open-question resolution).
	EventTypeTerroristActivity EventType = "terrorist_activity"
	EventTypeOther             EventType = "other"
)

// AllEventTypes lists the closed enum in declaration order, used by
// normalization's exact-match and substring-match passes.
var AllEventTypes = []EventType{
	EventTypeProtest, EventTypeDemonstration, EventTypeAttack, EventTypeExplosion,
	EventTypeBombing, EventTypeShooting, EventTypeTheft, EventTypeKidnapping,
	EventTypeMilitaryOperation, EventTypeCyberAttack, EventTypeCyberIncident,
	EventTypeDataBreach, EventTypeConference, EventTypeMeeting, EventTypeSummit,
	EventTypeAccident, EventTypeNaturalDisaster, EventTypeElection,
	EventTypePoliticalEvent, EventTypeTerroristActivity, EventTypeOther,
}

// ViolenceEventTypes is the subset of event types subject to the violence
// keyword-consistency rule in the event extractor.
var ViolenceEventTypes = map[EventType]bool{
	EventTypeBombing:           true,
	EventTypeExplosion:         true,
	EventTypeAttack:            true,
	EventTypeShooting:          true,
	EventTypeTerroristActivity: true,
	EventTypeKidnapping:        true,
}

// Valid reports whether t is one of the closed enum members.
func (t EventType) Valid() bool {
	for _, v := range AllEventTypes {
		if v == t {
			return true
		}
	}
	return false
}

// PerpetratorType is a closed enumeration of perpetrator classifications.
type PerpetratorType string

const (
	PerpetratorTypeTerroristGroup      PerpetratorType = "terrorist_group"
	PerpetratorTypeStateActor          PerpetratorType = "state_actor"
	PerpetratorTypeCriminalOrg         PerpetratorType = "criminal_organization"
	PerpetratorTypeIndividual          PerpetratorType = "individual"
	PerpetratorTypeMultipleParties     PerpetratorType = "multiple_parties"
	PerpetratorTypeUnknown             PerpetratorType = "unknown"
	PerpetratorTypeNotApplicable       PerpetratorType = "not_applicable"
)

// AllPerpetratorTypes lists the closed enum in declaration order.
var AllPerpetratorTypes = []PerpetratorType{
	PerpetratorTypeTerroristGroup, PerpetratorTypeStateActor, PerpetratorTypeCriminalOrg,
	PerpetratorTypeIndividual, PerpetratorTypeMultipleParties, PerpetratorTypeUnknown,
	PerpetratorTypeNotApplicable,
}

// Valid reports whether t is one of the closed enum members.
func (t PerpetratorType) Valid() bool {
	for _, v := range AllPerpetratorTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Location holds the place components of an event. Each field is either
// empty, a single place name, or a "/"-joined string when the LLM reported
// multiple places for a cross-border or multi-city event.
type Location struct {
	City    string
	Region  string
	Country string
}

// Empty reports whether all components are unset.
func (l Location) Empty() bool {
	return l.City == "" && l.Region == "" && l.Country == ""
}

// Casualties holds killed/injured counts. It is only ever attached to an
// EventRecord when at least one of the two counts is positive.
type Casualties struct {
	Killed  int
	Injured int
}

// EventRecord is the structured output unit produced by the pipeline.
type EventRecord struct {
	EventType       EventType
	EventSubType    string
	Title           string
	Summary         string
	Perpetrator     string // empty means null
	PerpetratorType PerpetratorType
	Location        Location
	EventDate       time.Time // zero value means null
	EventTime       string
	Participants    []string
	Organizations   []string
	Casualties      *Casualties

	SourceName            string
	SourceURL             string
	ArticlePublishedDate  time.Time
	CollectionTimestamp   time.Time

	Confidence float64

	FullContent string
}

// HasEventDate reports whether EventDate was populated.
func (e *EventRecord) HasEventDate() bool {
	return !e.EventDate.IsZero()
}

// IsViolenceType reports whether the event's normalized type is subject to
// the violence keyword-consistency rule.
func (e *EventRecord) IsViolenceType() bool {
	return ViolenceEventTypes[e.EventType]
}

// DedupeStrings returns a case-insensitive-deduplicated copy of ss,
// preserving the first-seen casing and order. Used to enforce the
// "participants/organizations contain no duplicates" invariant.
func DedupeStrings(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
