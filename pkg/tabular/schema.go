// Package tabular reads and writes the small CSV tables the transforms work
// on. Sources are read through a Schema that maps each logical field to the
// header spellings it may appear under; results are written through a Sink.
package tabular

import (
	"fmt"
	"strings"
)

// Kind is the value type of a column.
type Kind string

const (
	KindText    Kind = "text"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
)

// Field is one logical column of a source table.
type Field struct {
	Name     string
	Aliases  []string
	Kind     Kind
	Required bool
}

// Schema declares the logical fields expected in a source table.
type Schema struct {
	Fields []Field
}

// Columns maps logical field names to header positions.
type Columns map[string]int

// MissingFieldError reports a required field none of whose aliases appear
// in the header.
type MissingFieldError struct {
	Field   string
	Aliases []string
	Header  []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("no column for %s: expected one of [%s], header is [%s]",
		e.Field, strings.Join(e.Aliases, ", "), strings.Join(e.Header, ", "))
}

// Resolve finds each field's position in header. Header cells are compared
// after trimming whitespace and lower-casing; aliases are tried in declared
// order and the first present one wins. Optional fields that do not resolve
// are left out of the result.
func (s Schema) Resolve(header []string) (Columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	cols := make(Columns, len(s.Fields))
	for _, f := range s.Fields {
		pos, ok := lookup(index, f)
		if !ok {
			if f.Required {
				return nil, &MissingFieldError{Field: f.Name, Aliases: f.names(), Header: header}
			}
			continue
		}
		cols[f.Name] = pos
	}
	return cols, nil
}

func lookup(index map[string]int, f Field) (int, bool) {
	for _, name := range f.names() {
		if pos, ok := index[normalizeHeader(name)]; ok {
			return pos, true
		}
	}
	return 0, false
}

// names returns the aliases, or the field name when none are declared.
func (f Field) names() []string {
	if len(f.Aliases) == 0 {
		return []string{f.Name}
	}
	return f.Aliases
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}
