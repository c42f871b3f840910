package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Table is a source table read through a Schema.
type Table struct {
	Header   []string
	Columns  Columns
	Records  []Record
	Warnings []Warning
}

// Has reports whether the field resolved to a column.
func (t *Table) Has(field string) bool {
	_, ok := t.Columns[field]
	return ok
}

// Record is one data row. Numeric fields are parsed once at read time.
type Record struct {
	Line int
	text map[string]string
	nums map[string]decimal.Decimal
}

// Text returns the trimmed cell for field, or "" when absent.
func (r Record) Text(field string) string {
	return r.text[field]
}

// Decimal returns the parsed value of a numeric field; unparseable cells are zero.
func (r Record) Decimal(field string) decimal.Decimal {
	return r.nums[field]
}

// Int returns a numeric field truncated toward zero.
func (r Record) Int(field string) int {
	return int(r.nums[field].IntPart())
}

// Float returns a numeric field as float64.
func (r Record) Float(field string) float64 {
	f, _ := r.nums[field].Float64()
	return f
}

// Warning records a cell that could not be used as read and was coerced.
type Warning struct {
	Line   int    `json:"line"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s %q: %s", w.Line, w.Field, w.Value, w.Reason)
}

// ReadFile opens path and reads it with Read.
func ReadFile(path string, schema Schema) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f, schema)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// Read parses a CSV header and its rows. Unparseable or missing numeric
// cells become zero and are recorded in Table.Warnings; malformed rows are
// skipped with a warning. Only an unreadable header or an unresolvable
// required field is an error.
func Read(r io.Reader, schema Schema) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty table: no header row")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols, err := schema.Resolve(header)
	if err != nil {
		return nil, err
	}

	t := &Table{Header: header, Columns: cols}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, fmt.Errorf("reading rows: %w", err)
			}
			t.Warnings = append(t.Warnings, Warning{Line: pe.Line, Reason: pe.Err.Error()})
			continue
		}
		if blank(row) {
			continue
		}
		line, _ := cr.FieldPos(0)
		t.Records = append(t.Records, t.parseRow(schema, row, line))
	}
	return t, nil
}

func (t *Table) parseRow(schema Schema, row []string, line int) Record {
	rec := Record{
		Line: line,
		text: make(map[string]string, len(t.Columns)),
		nums: make(map[string]decimal.Decimal),
	}
	for _, f := range schema.Fields {
		name := f.Name
		pos, ok := t.Columns[name]
		if !ok {
			continue
		}
		cell := ""
		if pos < len(row) {
			cell = strings.TrimSpace(row[pos])
		}
		rec.text[name] = cell

		if f.Kind != KindInteger && f.Kind != KindNumber {
			continue
		}
		d, reason := parseNumber(cell)
		if reason == "" && f.Kind == KindInteger && !fitsInt(d) {
			d, reason = decimal.Zero, "out of integer range, using 0"
		}
		if reason != "" {
			t.Warnings = append(t.Warnings, Warning{Line: line, Field: name, Value: cell, Reason: reason})
		}
		rec.nums[name] = d
	}
	return rec
}

// parseNumber accepts plain decimals, exponents and a trailing percent sign.
// It returns zero and a reason when the cell cannot be used.
func parseNumber(cell string) (decimal.Decimal, string) {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(cell), "%"))
	if s == "" {
		return decimal.Zero, "missing value, using 0"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, "not a number, using 0"
	}
	return d, ""
}

var (
	minInt = decimal.NewFromInt(math.MinInt)
	maxInt = decimal.NewFromInt(math.MaxInt)
)

// fitsInt reports whether d truncated toward zero fits in an int.
func fitsInt(d decimal.Decimal) bool {
	t := d.Truncate(0)
	return t.GreaterThanOrEqual(minInt) && t.LessThanOrEqual(maxInt)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
