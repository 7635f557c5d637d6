package httpfetch

import "errors"

// Sentinel errors surfaced by Fetch. Callers distinguish them with
// errors.Is rather than type assertions.
var (
	// ErrDisallowedByRobots is returned when respectRobots is true and the
	// target host's robots.txt denies the path.
	ErrDisallowedByRobots = errors.New("httpfetch: disallowed by robots.txt")

	// ErrBinaryContent is returned when the response is not textual, or
	// decodes to below the minimum printable-ratio threshold.
	ErrBinaryContent = errors.New("httpfetch: response content is not textual")

	// ErrTooManyRedirects is returned when the redirect chain exceeds the
	// configured maximum.
	ErrTooManyRedirects = errors.New("httpfetch: too many redirects")

	// ErrUnsafeRedirect is returned when a redirect target fails SSRF
	// validation (private IP, non-http(s) scheme).
	ErrUnsafeRedirect = errors.New("httpfetch: redirect target failed validation")
)
