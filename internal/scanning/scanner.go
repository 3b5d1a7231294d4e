package scanning

import "context"

// Route selects which scanner API endpoint a submission targets. Each
// document type maps to exactly one route; there is no fallback route.
type Route string

const (
	RoutePassport   Route = "passport"
	RouteEmiratesID Route = "id"
)

// Scanner defines the interface for document scanning operations
type Scanner interface {
	// Scan submits a document image and returns the extraction envelope
	Scan(ctx context.Context, route Route, filename string, data []byte, contentType string) (*ScanResult, error)
	// Health reports whether the scanner API is responsive
	Health(ctx context.Context) (*Health, error)
	// Close closes the scanner and releases resources
	Close() error
}
