// Package tabular reads header-addressed CSV tables for the brokerage parsers.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMissingColumns matches any *MissingColumnsError.
var ErrMissingColumns = errors.New("missing required columns")

type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "Missing required columns: " + strings.Join(e.Columns, ", ")
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// Table is a parsed CSV with its header resolved to column positions.
type Table struct {
	Header  []string
	Records []Record
	index   map[string]int
}

// Record is one data row. Line follows the "index + 2" convention: the first
// data row after the header is line 2. Err is set when the row could not be
// tokenized.
type Record struct {
	Line   int
	Err    error
	fields []string
	table  *Table
}

// Has reports whether the table header carries col.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Get returns the trimmed cell for col, or "" if the column or cell is absent.
func (r Record) Get(col string) string {
	i, ok := r.table.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r Record) blank() bool {
	for _, f := range r.fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Read parses CSV text and fails with *MissingColumnsError when any required
// column is absent from the header. Header names are compared after trimming
// whitespace. Rows whose cells are all empty are dropped.
func Read(r io.Reader, required []string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	t := &Table{index: make(map[string]int)}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		t.Header = append(t.Header, name)
		if name == "" {
			continue
		}
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}

	var missing []string
	for _, col := range required {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rec := Record{fields: fields, table: t}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("failed to read CSV records: %w", err)
			}
			rec.Err = fmt.Errorf("malformed CSV line %d: %v", perr.StartLine, perr.Err)
		} else if rec.blank() {
			continue
		}
		rec.Line = len(t.Records) + 2
		t.Records = append(t.Records, rec)
	}
	return t, nil
}
