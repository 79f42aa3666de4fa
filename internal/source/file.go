package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// NewFileSource reads a CSV or JSON sheet from a local file. The format
// follows the file extension.
func NewFileSource(path string) *SheetAdapter {
	name := filepath.Base(path)
	return newSheetAdapter("file:"+name, fmt.Sprintf("File (%s)", name), func(context.Context) (*Sheet, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseSheet(DetectFormat(path, ""), f)
	})
}
