package source

import (
	"context"
	"fmt"
	"strconv"

	"github.com/timmy/applytrack/internal/domain"
)

// loadFunc fetches and parses the whole sheet behind an adapter.
type loadFunc func(ctx context.Context) (*Sheet, error)

// SheetAdapter implements Source over a sheet that is loaded once, on the
// first FetchBatch, and then paged by row index.
type SheetAdapter struct {
	id          string
	displayName string
	load        loadFunc
	rows        []domain.ApplicationInput
	blank       int
	loaded      bool
}

func newSheetAdapter(id, displayName string, load loadFunc) *SheetAdapter {
	return &SheetAdapter{id: id, displayName: displayName, load: load}
}

// NewSheetSource wraps an already parsed sheet, such as one posted over HTTP.
func NewSheetSource(id string, sheet *Sheet) *SheetAdapter {
	return newSheetAdapter("sheet:"+id, fmt.Sprintf("Sheet (%s)", id), func(context.Context) (*Sheet, error) {
		return sheet, nil
	})
}

// GetSourceID returns the unique identifier for this source.
func (a *SheetAdapter) GetSourceID() string {
	return a.id
}

// GetDisplayName returns a human-readable name for this source.
func (a *SheetAdapter) GetDisplayName() string {
	return a.displayName
}

// BlankRows is the number of rows without any mapped value. It is known
// after the first FetchBatch.
func (a *SheetAdapter) BlankRows() int {
	return a.blank
}

// FetchBatch returns up to limit mapped rows starting at the row index in cursor.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - cursor: row index as a decimal string, or empty for the first batch.
//   - limit: maximum number of rows; non-positive returns all remaining rows.
//
// Returns:
//   - []domain.ApplicationInput: mapped rows.
//   - string: next cursor or empty if no more rows.
//   - error: non-nil if loading fails or the cursor is malformed.
func (a *SheetAdapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]domain.ApplicationInput, string, error) {
	if !a.loaded {
		sheet, err := a.load(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load %s: %w", a.id, err)
		}
		a.rows, a.blank = MapSheet(sheet)
		a.loaded = true
	}

	start := 0
	if cursor != "" {
		var err error
		start, err = strconv.Atoi(cursor)
		if err != nil || start < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q", cursor)
		}
	}
	if start >= len(a.rows) {
		return []domain.ApplicationInput{}, "", nil
	}

	end := len(a.rows)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	next := ""
	if end < len(a.rows) {
		next = strconv.Itoa(end)
	}
	return a.rows[start:end], next, nil
}
