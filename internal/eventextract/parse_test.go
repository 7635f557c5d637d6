package eventextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLLMResponse_PlainJSON(t *testing.T) {
	resp := `{"event_type": "meeting", "summary": "A meeting happened.", "confidence": 0.9}`
	parsed, err := ParseLLMResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "meeting", parsed.EventType)
	assert.Equal(t, 0.9, *parsed.Confidence)
}

func TestParseLLMResponse_StripsFencedCodeBlock(t *testing.T) {
	resp := "```json\n{\"event_type\": \"summit\", \"summary\": \"ok\"}\n```"
	parsed, err := ParseLLMResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "summit", parsed.EventType)
}

func TestParseLLMResponse_ExtractsOutermostObjectFromProse(t *testing.T) {
	resp := `Here is the JSON you requested: {"event_type": "protest", "summary": "people marched"} Hope that helps!`
	parsed, err := ParseLLMResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "protest", parsed.EventType)
}

func TestParseLLMResponse_FixesTrailingCommas(t *testing.T) {
	resp := `{"event_type": "meeting", "individuals": ["A", "B",],}`
	parsed, err := ParseLLMResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, parsed.Individuals)
}

func TestParseLLMResponse_RewritesOrNullConstructs(t *testing.T) {
	resp := `{"event_type": "meeting", "perpetrator": "Unknown Group" or null}`
	parsed, err := ParseLLMResponse(resp)
	require.NoError(t, err)
	assert.Nil(t, parsed.Perpetrator)
}

func TestParseLLMResponse_FallsBackAfterStrippingComments(t *testing.T) {
	resp := "{\n  \"event_type\": \"meeting\", // inline note\n  \"summary\": \"ok\"\n}"
	parsed, err := ParseLLMResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, "meeting", parsed.EventType)
}

func TestParseLLMResponse_ReturnsErrorOnUnsalvageableInput(t *testing.T) {
	_, err := ParseLLMResponse("not json at all, sorry")
	assert.Error(t, err)
}

func TestStringOrJoinedList_HandlesStringAndArray(t *testing.T) {
	single := parseRawLocation([]byte(`{"country": "India"}`))
	assert.Equal(t, "India", stringOrJoinedList(single.Country))

	multi := parseRawLocation([]byte(`{"country": ["India", "Pakistan"]}`))
	assert.Equal(t, "India/Pakistan", stringOrJoinedList(multi.Country))
}

func TestIntFromRaw_HandlesNumberStringAndNull(t *testing.T) {
	assert.Equal(t, 5, intFromRaw([]byte(`5`)))
	assert.Equal(t, 7, intFromRaw([]byte(`"7"`)))
	assert.Equal(t, 0, intFromRaw([]byte(`null`)))
	assert.Equal(t, 0, intFromRaw(nil))
}
