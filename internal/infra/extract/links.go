package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractLinks returns every href matched by selector (default "a" when
// empty), unwrapping Google's /url?q= and DuckDuckGo's /l/?uddg= redirect
// formats so downstream discovery sees the real target. Non-http(s) hrefs
// (javascript:, mailto:, tel:, ...) are dropped.
func ExtractLinks(html string, selector string) []string {
	if selector == "" {
		selector = "a"
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		if unwrapped, ok := unwrapDuckDuckGo(href); ok {
			links = append(links, unwrapped)
			return
		}
		if unwrapped, ok := unwrapGoogle(href); ok {
			links = append(links, unwrapped)
			return
		}
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			links = append(links, href)
		}
	})
	return links
}

// unwrapDuckDuckGo extracts the real URL from a
// "//duckduckgo.com/l/?uddg=<encoded>" redirect.
func unwrapDuckDuckGo(href string) (string, bool) {
	if !strings.Contains(href, "duckduckgo.com/l/") || !strings.Contains(href, "uddg=") {
		return "", false
	}
	full := href
	if !strings.HasPrefix(full, "http") {
		full = "https:" + full
	}
	u, err := url.Parse(full)
	if err != nil {
		return "", false
	}
	actual := u.Query().Get("uddg")
	if actual == "" {
		return "", false
	}
	if strings.HasPrefix(actual, "http://") || strings.HasPrefix(actual, "https://") {
		return actual, true
	}
	return "", false
}

// unwrapGoogle extracts the real URL from a "/url?q=<encoded>" redirect.
func unwrapGoogle(href string) (string, bool) {
	if !strings.HasPrefix(href, "/url?q=") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	actual := u.Query().Get("q")
	if actual == "" {
		return "", false
	}
	if strings.HasPrefix(actual, "http://") || strings.HasPrefix(actual, "https://") {
		return actual, true
	}
	return "", false
}
