package eventextract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catchup-feed/internal/domain/entity"
)

func TestNormalizeEventType_ExactMatch(t *testing.T) {
	assert.Equal(t, entity.EventTypeBombing, NormalizeEventType("bombing"))
}

func TestNormalizeEventType_KeywordSynonyms(t *testing.T) {
	assert.Equal(t, entity.EventTypeMeeting, NormalizeEventType("state visit"))
	assert.Equal(t, entity.EventTypeSummit, NormalizeEventType("bilateral talks"))
	assert.Equal(t, entity.EventTypeConference, NormalizeEventType("press conference"))
}

func TestNormalizeEventType_SubstringContainment(t *testing.T) {
	assert.Equal(t, entity.EventTypeNaturalDisaster, NormalizeEventType("major natural disaster event"))
}

func TestNormalizeEventType_DefaultsToOther(t *testing.T) {
	assert.Equal(t, entity.EventTypeOther, NormalizeEventType("completely unrelated nonsense zzy"))
}

func TestNormalizePerpetratorType_EmptyIsNull(t *testing.T) {
	assert.Equal(t, entity.PerpetratorType(""), NormalizePerpetratorType(""))
}

func TestNormalizePerpetratorType_ExactAndFuzzy(t *testing.T) {
	assert.Equal(t, entity.PerpetratorTypeTerroristGroup, NormalizePerpetratorType("terrorist_group"))
	assert.Equal(t, entity.PerpetratorTypeTerroristGroup, NormalizePerpetratorType("militant faction"))
	assert.Equal(t, entity.PerpetratorTypeStateActor, NormalizePerpetratorType("government forces"))
}

func TestNormalizePerpetratorType_DefaultsToUnknown(t *testing.T) {
	assert.Equal(t, entity.PerpetratorTypeUnknown, NormalizePerpetratorType("something else entirely"))
}

func TestHasViolenceMention(t *testing.T) {
	assert.True(t, HasViolenceMention("Bomb kills 3 in market blast", "ordinary text"))
	assert.True(t, HasViolenceMention("Diplomatic visit", "the attack left several dead"))
	assert.False(t, HasViolenceMention("Leaders meet for trade talks", "they discussed tariffs and exports"))
}

func TestSourceNameFromDomain_WellKnown(t *testing.T) {
	assert.Equal(t, "BBC News", SourceNameFromDomain("www.bbc.co.uk"))
	assert.Equal(t, "Reuters", SourceNameFromDomain("reuters.com"))
}

func TestSourceNameFromDomain_FallsBackToTitleCasedLabel(t *testing.T) {
	assert.Equal(t, "Example", SourceNameFromDomain("www.example.com"))
}
