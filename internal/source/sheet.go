package source

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/timmy/applytrack/internal/domain"
)

// Sheet is a parsed spreadsheet: a header row and positional data rows.
// Cells hold strings, float64 numbers, bools, nil or nested JSON values.
type Sheet struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// Column identifies an application field a header can map to.
type Column string

const (
	ColumnCompany      Column = "company"
	ColumnTitle        Column = "title"
	ColumnStatus       Column = "status"
	ColumnDateApplied  Column = "date_applied"
	ColumnProcessSteps Column = "process_steps"
	ColumnCurrentStep  Column = "current_step_index"
	ColumnOutcome      Column = "outcome"
	ColumnNotes        Column = "notes"
)

// headerAliases maps normalized header text to its column.
var headerAliases = map[string]Column{
	"company":            ColumnCompany,
	"employer":           ColumnCompany,
	"organization":       ColumnCompany,
	"title":              ColumnTitle,
	"position":           ColumnTitle,
	"role":               ColumnTitle,
	"job title":          ColumnTitle,
	"status":             ColumnStatus,
	"stage":              ColumnStatus,
	"date applied":       ColumnDateApplied,
	"applied":            ColumnDateApplied,
	"applied on":         ColumnDateApplied,
	"application date":   ColumnDateApplied,
	"date":               ColumnDateApplied,
	"process steps":      ColumnProcessSteps,
	"steps":              ColumnProcessSteps,
	"current step":       ColumnCurrentStep,
	"current step index": ColumnCurrentStep,
	"outcome":            ColumnOutcome,
	"result":             ColumnOutcome,
	"notes":              ColumnNotes,
	"note":               ColumnNotes,
	"comments":           ColumnNotes,
}

// serialEpoch is day zero of spreadsheet serial dates.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
}

// ResolveHeaders returns, per column, the index of the first header mapping to it.
func ResolveHeaders(headers []string) map[Column]int {
	cols := make(map[Column]int)
	for i, h := range headers {
		col, ok := headerAliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, taken := cols[col]; !taken {
			cols[col] = i
		}
	}
	return cols
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(h))
	return strings.Join(strings.Fields(h), " ")
}

// MapSheet converts sheet rows to candidate applications.
//
// Rows without a single mapped value are dropped and counted in the second
// result. Rows missing a company or title are kept; the importer decides what
// to do with them. An unparseable date leaves DateApplied unset.
func MapSheet(sheet *Sheet) ([]domain.ApplicationInput, int) {
	if sheet == nil {
		return nil, 0
	}
	cols := ResolveHeaders(sheet.Headers)

	rows := make([]domain.ApplicationInput, 0, len(sheet.Rows))
	blank := 0
	for _, row := range sheet.Rows {
		cell := func(c Column) any {
			i, ok := cols[c]
			if !ok || i >= len(row) {
				return nil
			}
			return row[i]
		}

		empty := true
		for c := range cols {
			if !isEmptyCell(cell(c)) {
				empty = false
				break
			}
		}
		if empty {
			blank++
			continue
		}

		in := domain.ApplicationInput{
			Company: cellString(cell(ColumnCompany)),
			Title:   cellString(cell(ColumnTitle)),
			Outcome: cellString(cell(ColumnOutcome)),
			Notes:   cellString(cell(ColumnNotes)),
		}
		if status := cellString(cell(ColumnStatus)); status != "" {
			in.Status = &status
		}
		if d, ok := ParseDate(cell(ColumnDateApplied)); ok {
			in.DateApplied = &d
		}
		in.ProcessSteps = cellSteps(cell(ColumnProcessSteps))
		if n, ok := cellInt(cell(ColumnCurrentStep)); ok {
			in.CurrentStepIndex = n
		}
		rows = append(rows, in)
	}
	return rows, blank
}

// SheetFromRecords builds a sheet from keyed records such as a JSON array of
// objects. Headers are the union of keys, each record's keys in sorted order.
func SheetFromRecords(records []map[string]any) *Sheet {
	index := make(map[string]int)
	var headers []string
	for _, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = len(headers)
				headers = append(headers, k)
			}
		}
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		row := make([]any, len(headers))
		for k, v := range rec {
			row[index[k]] = v
		}
		rows = append(rows, row)
	}
	return &Sheet{Headers: headers, Rows: rows}
}

// ParseDate converts a date cell. Numbers, and strings holding only a number,
// are serial day counts from 1899-12-30 UTC; fractional days carry the time
// of day. Other strings are tried against the known layouts.
func ParseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return x.UTC(), !x.IsZero()
	case float64:
		return fromSerial(x)
	case int:
		return fromSerial(float64(x))
	case int64:
		return fromSerial(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromSerial(f)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromSerial(f)
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func fromSerial(days float64) (time.Time, bool) {
	if math.IsNaN(days) || math.IsInf(days, 0) || days < 0 {
		return time.Time{}, false
	}
	whole := math.Floor(days)
	t := serialEpoch.AddDate(0, 0, int(whole))
	frac := time.Duration(math.Round((days - whole) * 24 * 60 * 60))
	return t.Add(frac * time.Second), true
}

func isEmptyCell(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	}
	return false
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func cellInt(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case json.Number:
		n, err := x.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}

// cellSteps accepts a JSON list or a string separated by ';', '|', '>' or newlines.
func cellSteps(v any) []string {
	var parts []string
	switch x := v.(type) {
	case []any:
		for _, p := range x {
			parts = append(parts, cellString(p))
		}
	case []string:
		parts = x
	case string:
		parts = strings.FieldsFunc(x, func(r rune) bool {
			return r == ';' || r == '|' || r == '>' || r == '\n'
		})
	default:
		return nil
	}

	steps := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			steps = append(steps, p)
		}
	}
	if len(steps) == 0 {
		return nil
	}
	return steps
}
