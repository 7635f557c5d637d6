package httpfetch

import (
	"bytes"
	"io"
	"strings"
	"unicode"

	"github.com/gogs/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ladderEncodings is the fixed fallback ladder tried, in order, when the
// server-declared charset produces a low printable ratio. utf-8 is tried as
// a pass-through (no transform needed); the rest use golang.org/x/text
// charmap decoders.
var ladderEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"utf-8", nil},
	{"iso-8859-1", charmap.ISO8859_1},
	{"windows-1252", charmap.Windows1252},
	{"latin-1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
}

// isTextualContentType reports whether contentType looks like something
// worth text-extracting (HTML, XML, plain text, JSON).
func isTextualContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	if ct == "" {
		return true // many servers omit content-type; assume textual and let the ratio check decide
	}
	for _, prefix := range []string{"text/", "application/xhtml", "application/xml", "application/json"} {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

// printableRatio returns the fraction of the first n runes of s that are
// printable (graphic) characters or common whitespace.
func printableRatio(s string, n int) float64 {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	if len(runes) == 0 {
		return 1.0
	}
	printable := 0
	for _, r := range runes {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	return float64(printable) / float64(len(runes))
}

// decodeResult is one candidate decoding attempt and its resulting quality.
type decodeResult struct {
	text  string
	ratio float64
}

// recoverEncoding decodes with the server-declared charset first; if the
// printable ratio over the first 1000 chars is below 85%, it retries with a
// library charset detector and a fixed fallback ladder, keeping the best
// result.
// Returns empty string when nothing achieves at least 30% printable, and
// strips NULs/replacement characters when the best result is below 60%.
func recoverEncoding(body []byte, contentType string) string {
	if !isTextualContentType(contentType) {
		return ""
	}

	best := decodeWithDeclaredCharset(body, contentType)
	if best.ratio >= 0.85 {
		return best.text
	}

	if detected := decodeWithDetector(body); detected.ratio > best.ratio {
		best = detected
	}

	for _, candidate := range decodeWithLadder(body) {
		if candidate.ratio > best.ratio {
			best = candidate
		}
	}

	if best.ratio < 0.30 {
		return ""
	}
	if best.ratio < 0.60 {
		return stripNulAndReplacement(best.text)
	}
	return best.text
}

// decodeWithDeclaredCharset decodes body using the charset implied by
// contentType (or sniffed from a BOM/meta tag), per golang.org/x/net's
// html/charset determination.
func decodeWithDeclaredCharset(body []byte, contentType string) decodeResult {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return decodeResult{text: string(body), ratio: printableRatio(string(body), 1000)}
	}
	decodedBytes, err := io.ReadAll(reader)
	if err != nil || len(decodedBytes) == 0 {
		return decodeResult{text: string(body), ratio: printableRatio(string(body), 1000)}
	}
	decoded := string(decodedBytes)
	return decodeResult{text: decoded, ratio: printableRatio(decoded, 1000)}
}

// decodeWithDetector uses a library-level charset detector (a Go port of
// the Mozilla universal charset detector) to guess the encoding, then
// decodes with it if the guessed charset maps to a known decoder.
func decodeWithDetector(body []byte) decodeResult {
	det := chardet.NewTextDetector()
	result, err := det.DetectBest(body)
	if err != nil || result == nil {
		return decodeResult{}
	}

	enc, ok := lookupEncoding(result.Charset)
	if !ok {
		return decodeResult{}
	}
	if enc == nil {
		return decodeResult{text: string(body), ratio: printableRatio(string(body), 1000)}
	}

	decoded, err := enc.NewDecoder().String(string(body))
	if err != nil {
		return decodeResult{}
	}
	return decodeResult{text: decoded, ratio: printableRatio(decoded, 1000)}
}

// decodeWithLadder tries every entry in the fixed fallback ladder.
func decodeWithLadder(body []byte) []decodeResult {
	out := make([]decodeResult, 0, len(ladderEncodings))
	for _, l := range ladderEncodings {
		if l.enc == nil {
			out = append(out, decodeResult{text: string(body), ratio: printableRatio(string(body), 1000)})
			continue
		}
		decoded, err := l.enc.NewDecoder().String(string(body))
		if err != nil {
			continue
		}
		out = append(out, decodeResult{text: decoded, ratio: printableRatio(decoded, 1000)})
	}
	return out
}

// lookupEncoding maps a detector-reported charset name to a decoder. A
// recognized-but-unsupported name (e.g. "UTF-8") maps to (nil, true),
// signaling "use the bytes as-is".
func lookupEncoding(name string) (encoding.Encoding, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8", "ascii", "us-ascii":
		return nil, true
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, true
	case "windows-1252", "cp1252":
		return charmap.Windows1252, true
	default:
		return nil, false
	}
}

// stripNulAndReplacement removes NUL bytes and the Unicode replacement
// character from s, used when the best-effort decode is still marginal.
func stripNulAndReplacement(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == 0 || r == unicode.ReplacementChar {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
