package user

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 100

// PageRequest describes a single page fetch against the remote source.
type PageRequest struct {
	Page  int    // Page number (1-based)
	Size  int    // Number of records per page
	Seed  string // Optional seed that keeps pages stable across calls
	Fresh bool   // Fresh skips any cached copy of the page
}

// NewPageRequest creates a PageRequest, clamping page and size to sane values.
func NewPageRequest(page, size int, seed string) PageRequest {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}

	return PageRequest{
		Page: page,
		Size: size,
		Seed: seed,
	}
}
