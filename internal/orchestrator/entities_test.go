package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEntityBundle_ClassifiesOrganizationBySuffix(t *testing.T) {
	bundle := buildEntityBundle("", "Members of the National Liberation Front gathered downtown.")
	require.NotNil(t, bundle)
	assert.Contains(t, bundle.Organizations, "National Liberation Front")
}

func TestBuildEntityBundle_ClassifiesLocationByPrecedingPreposition(t *testing.T) {
	bundle := buildEntityBundle("", "Clashes broke out in Buenos Aires overnight.")
	require.NotNil(t, bundle)
	assert.Contains(t, bundle.Locations, "Buenos Aires")
}

func TestBuildEntityBundle_ClassifiesShortRunAsPerson(t *testing.T) {
	bundle := buildEntityBundle("", "A statement was issued by Maria Fernandez earlier today.")
	require.NotNil(t, bundle)
	assert.Contains(t, bundle.Persons, "Maria Fernandez")
}

func TestBuildEntityBundle_DedupesAcrossTitleAndContent(t *testing.T) {
	bundle := buildEntityBundle(
		"Maria Fernandez speaks out",
		"Maria Fernandez gave a statement to reporters.",
	)
	require.NotNil(t, bundle)
	count := 0
	for _, p := range bundle.Persons {
		if p == "Maria Fernandez" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestBuildEntityBundle_ReturnsNilWhenNothingFound(t *testing.T) {
	bundle := buildEntityBundle("", "the quick brown fox jumps over the lazy dog")
	assert.Nil(t, bundle)
}

func TestBuildEntityBundle_TruncatesVeryLongText(t *testing.T) {
	filler := make([]byte, 25000)
	for i := range filler {
		filler[i] = 'a'
	}
	// The only proper-noun run sits well past the 20000-character cutoff, so
	// it must not survive truncation.
	content := string(filler) + " Maria Fernandez spoke today."
	bundle := buildEntityBundle("", content)
	assert.Nil(t, bundle)
}

func TestHasOrgSuffix_MatchesConfiguredSuffixes(t *testing.T) {
	assert.True(t, hasOrgSuffix("Revolutionary Armed Forces"))
	assert.False(t, hasOrgSuffix("Maria Fernandez"))
}

func TestPrecededByLocationMarker_RequiresWordBoundary(t *testing.T) {
	assert.True(t, precededByLocationMarker("protests in Buenos Aires", len("protests in ")))
	assert.False(t, precededByLocationMarker("Buenos Aires", 0))
}
