package rank

import (
	"context"

	"github.com/use-agent/serprank/models"
)

// Session fetches rendered listing pages for a single query. A session is
// never shared between concurrent queries.
type Session interface {
	// FetchListing returns the listing for query starting at the given
	// zero-based result offset.
	FetchListing(ctx context.Context, query string, offset int) (*models.Listing, error)

	// Close releases the session. It must be safe to call more than once.
	Close() error
}

// SessionProvider hands out query-scoped fetch sessions.
type SessionProvider interface {
	Acquire(ctx context.Context) (Session, error)
}
