// Package extract provides selector-driven field extraction with fallback
// lists, a generic extraction path for sources with no configured
// selectors, and link harvesting that unwraps Google and DuckDuckGo
// search-result redirects.
package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"catchup-feed/internal/domain/entity"
)

// minParagraphLength mirrors the distillation's threshold for skipping
// boilerplate fragments (nav labels, ad copy) during content assembly.
const minParagraphLength = 20

// Fields holds the raw per-field text pulled from one article page.
type Fields struct {
	Title   string
	Content string
	Date    string
	Author  string
}

// Extractor extracts article fields and links from HTML documents.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// WithSelectors extracts fields using the given selectors, each of which may
// list multiple comma-separated fallbacks tried in order until one matches
// (entity.SourceSelectors.List). Fields with no match are left empty.
func (e *Extractor) WithSelectors(html string, sel entity.SourceSelectors) Fields {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Debug("extract: parse failed", slog.String("error", err.Error()))
		return Fields{}
	}

	return Fields{
		Title:   firstMatchText(doc, sel.List("title")),
		Content: contentText(doc, sel.List("content")),
		Date:    firstMatchText(doc, sel.List("date")),
		Author:  firstMatchText(doc, sel.List("author")),
	}
}

// genericTitleSelectors and friends are the fallback chains used when a
// source has no configured selectors, in priority order.
var (
	genericTitleSelectors   = []string{"h1", "title", ".article-title", ".headline", "h1.title"}
	genericContentSelectors = []string{"article", "main", ".article-body", ".content", "[role=\"main\"]"}
	genericDateSelectors    = []string{"time", ".published-date", ".date", "[datetime]"}
	genericAuthorSelectors  = []string{".author", "[rel=\"author\"]", ".byline", ".author-name"}
)

// Generic extracts fields using common, unconfigured HTML conventions, for
// sources that don't supply CSS selectors.
func (e *Extractor) Generic(html string) Fields {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Debug("extract: parse failed", slog.String("error", err.Error()))
		return Fields{}
	}

	fields := Fields{
		Title:  firstMatchText(doc, genericTitleSelectors),
		Date:   firstMatchAttrOrText(doc, genericDateSelectors, "datetime"),
		Author: firstMatchText(doc, genericAuthorSelectors),
	}

	for _, sel := range genericContentSelectors {
		section := doc.Find(sel).First()
		if section.Length() == 0 {
			continue
		}
		if content := paragraphsOf(section); content != "" {
			fields.Content = content
			break
		}
	}
	if fields.Content == "" {
		fields.Content = paragraphsOf(doc.Selection)
	}
	return fields
}

// paragraphsOf joins the text of every <p> within scope, skipping empties,
// with a blank line between paragraphs.
func paragraphsOf(scope *goquery.Selection) string {
	var parts []string
	scope.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

// firstMatchText tries each selector in order and returns the joined text
// of the first that matches at least one element.
func firstMatchText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		nodes := doc.Find(sel)
		if nodes.Length() == 0 {
			continue
		}
		var parts []string
		nodes.Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return ""
}

// firstMatchAttrOrText behaves like firstMatchText but prefers attr when
// present (used for <time datetime="...">).
func firstMatchAttrOrText(doc *goquery.Document, selectors []string, attr string) string {
	for _, sel := range selectors {
		nodes := doc.Find(sel)
		if nodes.Length() == 0 {
			continue
		}
		first := nodes.First()
		if v, ok := first.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		if t := strings.TrimSpace(first.Text()); t != "" {
			return t
		}
	}
	return ""
}

// contentText extracts article body text, preserving paragraph structure
// and deduplicating repeated fragments (a single selector sometimes matches
// both a summary block and the full article).
func contentText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		nodes := doc.Find(sel)
		if nodes.Length() == 0 {
			continue
		}

		var parts []string
		seen := map[string]bool{}
		nodes.Each(func(_ int, el *goquery.Selection) {
			blocks := el.Find("p, div, li, h1, h2, h3, h4, h5, h6")
			if blocks.Length() == 0 {
				blocks = el
			}
			blocks.Each(func(_ int, b *goquery.Selection) {
				text := strings.TrimSpace(b.Text())
				if len(text) <= minParagraphLength {
					return
				}
				normalized := strings.Join(strings.Fields(text), " ")
				if seen[normalized] {
					return
				}
				seen[normalized] = true
				parts = append(parts, text)
			})
		})
		if len(parts) > 0 {
			return strings.Join(parts, "\n\n")
		}
	}
	return ""
}

var bracketArtifact = regexp.MustCompile(`\[[^]]*\]`)

// CleanText normalizes extracted text: strips non-printable junk, collapses
// whitespace, and removes bracketed citation/ad artifacts (e.g. "[Sponsored]").
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isKeepableRune(r) {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	cleaned = bracketArtifact.ReplaceAllString(cleaned, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

func isKeepableRune(r rune) bool {
	switch {
	case r == ' ' || r == '\t' || r == '\n' || r == '\r':
		return true
	case r < 128:
		return r >= 32 && r < 127
	default:
		return true // preserve non-ASCII letters/punctuation; corruption is filtered upstream by the encoding ladder
	}
}

// IsValidContent reports whether content meets the minimum length and
// printable-character-ratio bar to be worth sending to the LLM.
func IsValidContent(content string, minLength int) bool {
	cleaned := CleanText(content)
	if len(cleaned) < minLength {
		return false
	}

	sample := cleaned
	if len(sample) > 1000 {
		sample = sample[:1000]
	}
	if len(sample) == 0 {
		return true
	}

	readable := 0
	for _, c := range sample {
		if isReadablePunctOrAlnum(c) {
			readable++
		}
	}
	ratio := float64(readable) / float64(len([]rune(sample)))
	if ratio < 0.40 {
		slog.Warn("extract: content quality low", slog.Float64("readable_ratio", ratio))
	}
	return true
}

func isReadablePunctOrAlnum(c rune) bool {
	if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
		return true
	}
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
		return true
	}
	switch c {
	case '.', ',', '!', '?', ';', ':', '(', ')', '-', '"', '\'', '/', '&', '%', '$', '#', '@':
		return true
	}
	return false
}
