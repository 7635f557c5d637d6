package httpfetch

import "time"

// Config holds the tunable parameters for a Fetcher.
type Config struct {
	// Timeout bounds a single request, including redirects. Default 30s.
	Timeout time.Duration

	// MaxRedirects bounds the redirect chain length. Default 5.
	MaxRedirects int

	// MaxBodySize caps the number of response bytes read. Default 10MB.
	MaxBodySize int64

	// DenyPrivateIPs blocks requests (and redirect targets) resolving to
	// private/loopback/link-local addresses. Default true.
	DenyPrivateIPs bool

	// JitterMin/JitterMax bound the post-acquire pacing jitter. Defaults
	// to 100ms/500ms.
	JitterMin time.Duration
	JitterMax time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		MaxRedirects:   5,
		MaxBodySize:    10 * 1024 * 1024,
		DenyPrivateIPs: true,
		JitterMin:      100 * time.Millisecond,
		JitterMax:      500 * time.Millisecond,
	}
}

// userAgents is the rotation pool of plausible desktop browser strings.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}
