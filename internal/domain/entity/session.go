package entity

import "time"

// SessionStatus is the closed set of lifecycle states for a search session.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusCancelled  SessionStatus = "cancelled"
	SessionStatusError      SessionStatus = "error"
)

// Progress tracks the orchestrator's stage-weighted completion percentage.
type Progress struct {
	Current    int
	Total      int
	Percent    float64
	Message    string
}

// SearchQuery is the natural-language event query plus optional filters.
type SearchQuery struct {
	Phrase    string
	Location  string
	EventType EventType // empty means unspecified
	DateFrom  time.Time // zero means unspecified
	DateTo    time.Time // zero means unspecified
}

// HasDateRange reports whether either bound of the date filter was set.
func (q SearchQuery) HasDateRange() bool {
	return !q.DateFrom.IsZero() || !q.DateTo.IsZero()
}

// Session is a server-side bucket of a single search run's results and
// progress, addressable by id. Results are ordered and append-only.
type Session struct {
	ID        string
	Query     SearchQuery
	Status    SessionStatus
	CreatedAt time.Time
	Progress  Progress
	Results   []EventRecord
}

// ResponseStatus is the closed set of batch-response outcome labels.
type ResponseStatus string

const (
	ResponseStatusSuccess    ResponseStatus = "success"
	ResponseStatusNoSources  ResponseStatus = "no_sources"
	ResponseStatusNoArticles ResponseStatus = "no_articles"
	ResponseStatusNoEvents   ResponseStatus = "no_events"
	ResponseStatusError      ResponseStatus = "error"
	ResponseStatusCancelled  ResponseStatus = "cancelled"
)

// SearchResponse is the session materialisation returned by batch search.
type SearchResponse struct {
	SessionID        string
	Events           []EventRecord
	OriginalQuery    SearchQuery
	TotalEvents      int
	ProcessingTime   time.Duration
	ArticlesScraped  int
	SourcesScraped   int
	Status           ResponseStatus
	Message          string
}

// FrameKind is the closed set of streaming-frame kinds emitted by the
// orchestrator's streaming surface.
type FrameKind string

const (
	FrameKindSession  FrameKind = "session"
	FrameKindProgress FrameKind = "progress"
	FrameKindEvent    FrameKind = "event"
	FrameKindComplete FrameKind = "complete"
	FrameKindCancelled FrameKind = "cancelled"
	FrameKindError    FrameKind = "error"
)

// Frame is one message in the streaming output. Exactly one of the payload
// fields is populated, selected by Kind; the external transport (SSE, a
// websocket, etc.) is responsible for serializing it onto the wire.
type Frame struct {
	Kind FrameKind

	SessionID string // FrameKindSession

	Progress Progress // FrameKindProgress

	Event         *EventRecord // FrameKindEvent
	EventIndex    int
	ArticleIndex  int
	TotalArticles int

	CompleteMessage    string // FrameKindComplete
	CompleteTotalEvents int
	ArticlesProcessed   int
	ProcessingTime      time.Duration

	CancelledMessage     string // FrameKindCancelled
	CancelledTotalEvents int

	ErrorMessage string // FrameKindError
}
