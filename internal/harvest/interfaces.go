package harvest

import (
	"context"
	"time"
)

// Searcher maps a free-text query to an ordered list of topics.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// PageFetcher resolves a topic to its page without fuzzy matching.
// Failures are reported as ErrPageNotFound, *DisambiguationError, or any other
// error.
type PageFetcher interface {
	Page(ctx context.Context, topic string) (Page, error)
}

// Client is the full remote collaborator.
type Client interface {
	Searcher
	PageFetcher
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
