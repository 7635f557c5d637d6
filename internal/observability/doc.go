// Package observability centralizes ambient logging concerns shared across
// searchd's handlers and background jobs.
//
// Subpackages:
//   - logging: Structured logging utilities with slog, request-ID correlation
//
// Example usage:
//
//	import "catchup-feed/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//	}
package observability
