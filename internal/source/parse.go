package source

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Format is the encoding of a sheet payload.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DetectFormat picks a format from a file name or URL path, falling back to
// the content type and finally to CSV.
func DetectFormat(name, contentType string) Format {
	switch strings.ToLower(path.Ext(strings.SplitN(name, "?", 2)[0])) {
	case ".json":
		return FormatJSON
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	}
	if strings.Contains(strings.ToLower(contentType), "json") {
		return FormatJSON
	}
	return FormatCSV
}

// ParseSheet decodes r in the given format.
func ParseSheet(format Format, r io.Reader) (*Sheet, error) {
	switch format {
	case FormatJSON:
		return ParseJSONSheet(r)
	case FormatCSV, "":
		return ParseCSV(r)
	default:
		return nil, fmt.Errorf("unsupported sheet format %q", format)
	}
}

// ParseCSV reads a CSV document whose first record is the header row.
// Ragged rows are accepted; missing trailing cells read as empty.
func ParseCSV(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Sheet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	sheet := &Sheet{Headers: headers}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", len(sheet.Rows)+1, err)
		}
		row := make([]any, len(record))
		for i, v := range record {
			row[i] = v
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

// ParseJSONSheet reads either {"headers": [...], "rows": [[...]]} or an array
// of objects keyed by header.
func ParseJSONSheet(r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read json sheet: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return &Sheet{}, nil
	}

	if data[0] == '[' {
		var records []map[string]any
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to decode json records: %w", err)
		}
		return SheetFromRecords(records), nil
	}

	var sheet Sheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("failed to decode json sheet: %w", err)
	}
	return &sheet, nil
}
