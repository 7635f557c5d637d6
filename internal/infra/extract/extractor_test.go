package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"catchup-feed/internal/domain/entity"
)

func TestWithSelectors_UsesFirstMatchingFallback(t *testing.T) {
	html := `<html><body>
		<h1 class="headline">Real Title</h1>
		<div class="body"><p>First paragraph here with enough length to count.</p>
		<p>Second paragraph also long enough to be kept in output.</p></div>
	</body></html>`

	sel := entity.SourceSelectors{
		Title:   ".missing, .headline, h1",
		Content: ".body",
	}
	e := New()
	fields := e.WithSelectors(html, sel)

	assert.Equal(t, "Real Title", fields.Title)
	assert.Contains(t, fields.Content, "First paragraph")
	assert.Contains(t, fields.Content, "Second paragraph")
}

func TestWithSelectors_DedupesRepeatedFragments(t *testing.T) {
	html := `<html><body><div class="body">
		<p>Duplicated text appears more than once in this markup sample.</p>
		<p>Duplicated text appears more than once in this markup sample.</p>
	</div></body></html>`

	sel := entity.SourceSelectors{Content: ".body"}
	fields := New().WithSelectors(html, sel)

	assert.Equal(t, 1, countOccurrences(fields.Content, "Duplicated text"))
}

func TestWithSelectors_SkipsShortFragments(t *testing.T) {
	html := `<html><body><div class="body"><p>short</p></div></body></html>`
	sel := entity.SourceSelectors{Content: ".body"}
	fields := New().WithSelectors(html, sel)
	assert.Empty(t, fields.Content)
}

func TestGeneric_FallsBackThroughCommonPatterns(t *testing.T) {
	html := `<html><head><title>Fallback Title</title></head>
	<body><article><p>Paragraph one of the generic article body text.</p>
	<p>Paragraph two of the generic article body text.</p></article></body></html>`

	fields := New().Generic(html)
	assert.Equal(t, "Fallback Title", fields.Title)
	assert.Contains(t, fields.Content, "Paragraph one")
}

func TestCleanText_RemovesBracketArtifactsAndCollapsesSpace(t *testing.T) {
	out := CleanText("Hello   [Sponsored]   world\n\nthere")
	assert.Equal(t, "Hello world there", out)
}

func TestIsValidContent_RejectsShortContent(t *testing.T) {
	assert.False(t, IsValidContent("too short", 100))
}

func TestIsValidContent_AcceptsLongEnoughContent(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "This is a readable sentence with normal punctuation. "
	}
	assert.True(t, IsValidContent(long, 100))
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
		}
	}
	return count
}
