package source

import (
	"context"

	"github.com/timmy/applytrack/internal/domain"
)

// Source defines the interface for bulk import sources.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	// Parameters: none.
	// Returns:
	//   - string: stable source identifier, recorded on the import job.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	// Parameters: none.
	// Returns:
	//   - string: display-friendly source name.
	GetDisplayName() string

	// FetchBatch fetches a batch of candidate rows starting from the given cursor.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - cursor: pagination cursor or empty for first page.
	//   - limit: maximum number of rows to fetch.
	// Returns:
	//   - rows: batch of candidate applications, in source order.
	//   - nextCursor: cursor for the next batch or empty if done.
	//   - err: non-nil if fetching or parsing fails.
	FetchBatch(ctx context.Context, cursor string, limit int) (rows []domain.ApplicationInput, nextCursor string, err error)
}
