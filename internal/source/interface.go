package source

import "context"

// JokeItem represents a joke fetched from a data source, before it is
// normalized into a corpus record.
type JokeItem struct {
	SourceID int    // Unique ID within the source
	Category string // Category name as reported by the source
	Kind     string // "single" or "twopart"
	Joke     string // Full text for single jokes
	Setup    string // Setup line for two-part jokes
	Delivery string // Delivery line for two-part jokes
}

// Source defines the interface for joke data sources.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	// Parameters: none.
	// Returns:
	//   - string: stable source identifier.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	// Parameters: none.
	// Returns:
	//   - string: display-friendly source name.
	GetDisplayName() string

	// FetchBatch fetches a batch of jokes. Sources that sample randomly
	// may return duplicates across calls; callers deduplicate.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - limit: maximum number of items to fetch.
	// Returns:
	//   - items: batch of joke items.
	//   - err: non-nil if fetching fails.
	FetchBatch(ctx context.Context, limit int) (items []JokeItem, err error)
}
