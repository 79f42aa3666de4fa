package source

import (
	"context"
	"fmt"

	"github.com/timmy/applytrack/internal/storage"
)

// NewObjectSource reads a CSV or JSON sheet stored under key in an
// S3-compatible bucket.
func NewObjectSource(store storage.ObjectStorage, key string) *SheetAdapter {
	return newSheetAdapter("object:"+key, fmt.Sprintf("Object (%s)", key), func(ctx context.Context) (*Sheet, error) {
		exists, err := store.Exists(ctx, key)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("object %q not found", key)
		}
		body, err := store.Download(ctx, key)
		if err != nil {
			return nil, err
		}
		defer body.Close()
		return ParseSheet(DetectFormat(key, ""), body)
	})
}
