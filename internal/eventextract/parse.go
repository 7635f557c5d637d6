package eventextract

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"
)

var (
	orNullQuoted = regexp.MustCompile(`"[^"]*"\s+or\s+null`)
	nullOrQuoted = regexp.MustCompile(`null\s+or\s+"[^"]*"`)
	bareOrNull   = regexp.MustCompile(`:\s*\w+\s+or\s+null`)
	lineComment  = regexp.MustCompile(`//.*$`)

	errNotDigits = errors.New("eventextract: not a plain digit string")
)

// rawExtraction is the on-the-wire shape of one LLM extraction response,
// deliberately permissive (location.country/city as json.RawMessage since
// the model sometimes returns a list instead of a string for cross-border
// events; casualties values sometimes arrive as strings).
type rawExtraction struct {
	EventType       string          `json:"event_type"`
	EventSubType    string          `json:"event_sub_type"`
	Summary         string          `json:"summary"`
	Description     string          `json:"description"`
	Perpetrator     *string         `json:"perpetrator"`
	PerpetratorType *string         `json:"perpetrator_type"`
	Location        json.RawMessage `json:"location"`
	EventDate       string          `json:"event_date"`
	EventTime       string          `json:"event_time"`
	Individuals     []string        `json:"individuals"`
	Organizations   []string        `json:"organizations"`
	Casualties      json.RawMessage `json:"casualties"`
	Confidence      *float64        `json:"confidence"`
	Error           string          `json:"error"`
	NoEvent         bool            `json:"no_event"`
}

// ParseLLMResponse extracts and repairs a JSON object from a raw LLM
// completion: strips fenced code blocks, slices out the outermost
// {...} span if there's leading/trailing prose, fixes trailing commas and
// "value" or null constructs some models emit, and retries once more with
// // comments stripped if the first parse fails.
func ParseLLMResponse(response string) (*rawExtraction, error) {
	text := strings.TrimSpace(response)
	text = stripFence(text)
	text = sliceOutermostObject(text)
	text = repairCommonIssues(text)

	var parsed rawExtraction
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return &parsed, nil
	} else {
		slog.Debug("eventextract: initial json parse failed, retrying after comment strip",
			slog.String("error", err.Error()))
	}

	cleaned := stripLineComments(text)
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func stripFence(s string) string {
	switch {
	case strings.HasPrefix(s, "```json"):
		if parts := strings.SplitN(s, "```json", 2); len(parts) == 2 {
			if inner := strings.SplitN(parts[1], "```", 2); len(inner) >= 1 {
				return strings.TrimSpace(inner[0])
			}
		}
	case strings.HasPrefix(s, "```"):
		if parts := strings.SplitN(s, "```", 3); len(parts) >= 2 {
			return strings.TrimSpace(parts[1])
		}
	}
	return s
}

func sliceOutermostObject(s string) string {
	if strings.HasPrefix(s, "{") {
		return s
	}
	start := strings.Index(s, "{")
	if start == -1 {
		return s
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

func repairCommonIssues(s string) string {
	s = strings.ReplaceAll(s, ",}", "}")
	s = strings.ReplaceAll(s, ",]", "]")
	s = orNullQuoted.ReplaceAllString(s, "null")
	s = nullOrQuoted.ReplaceAllString(s, "null")
	s = bareOrNull.ReplaceAllString(s, ": null")
	return s
}

func stripLineComments(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lineComment.ReplaceAllString(line, "")
	}
	return strings.Join(lines, "\n")
}

// rawLocation is the permissive shape of the location field: country/city
// may arrive as a single string or, for cross-border events, a list.
type rawLocation struct {
	City    json.RawMessage `json:"city"`
	Region  string          `json:"region"`
	State   string          `json:"state"`
	Country json.RawMessage `json:"country"`
}

func parseRawLocation(data json.RawMessage) rawLocation {
	var loc rawLocation
	if len(data) == 0 {
		return loc
	}
	_ = json.Unmarshal(data, &loc)
	return loc
}

// stringOrJoinedList decodes a json.RawMessage that may be a JSON string or
// a JSON array of strings, joining array elements with "/" (cross-border
// or multi-city events).
func stringOrJoinedList(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		return single
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		return strings.Join(list, "/")
	}
	return ""
}

type rawCasualties struct {
	Killed json.RawMessage `json:"killed"`
	Injured json.RawMessage `json:"injured"`
}

// intFromRaw decodes a json.RawMessage that may be a JSON number or a
// numeric string, defaulting to 0 for anything else (null, missing).
func intFromRaw(data json.RawMessage) int {
	if len(data) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n, err := parsePositiveInt(s)
		if err == nil {
			return n
		}
	}
	return 0
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotDigits
		}
		n = n*10 + int(r-'0')
	}
	if s == "" {
		return 0, errNotDigits
	}
	return n, nil
}
