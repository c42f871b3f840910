package tabular

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSink writes each dataset to a table of the same name.
type SQLiteSink struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	return &SQLiteSink{db: db}, nil
}

// DB exposes the underlying handle for queries.
func (s *SQLiteSink) DB() *sql.DB {
	return s.db
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Write drops and recreates the dataset's table inside one transaction.
func (s *SQLiteSink) Write(ctx context.Context, ds *Dataset) error {
	if !identRe.MatchString(ds.Name) {
		return fmt.Errorf("invalid table name %q", ds.Name)
	}
	defs := make([]string, len(ds.Columns))
	names := make([]string, len(ds.Columns))
	marks := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		if !identRe.MatchString(c.Name) {
			return fmt.Errorf("invalid column name %q", c.Name)
		}
		defs[i] = fmt.Sprintf("%q %s", c.Name, sqlType(c.Kind))
		names[i] = strconv.Quote(c.Name)
		marks[i] = "?"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, ds.Name)); err != nil {
		return fmt.Errorf("dropping %s: %w", ds.Name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, ds.Name, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("creating %s: %w", ds.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
		ds.Name, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range ds.Rows {
		args, err := rowArgs(ds.Columns, row)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", ds.Name, i+1, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%s row %d: %w", ds.Name, i+1, err)
		}
	}
	return tx.Commit()
}

func sqlType(k Kind) string {
	switch k {
	case KindInteger:
		return "INTEGER"
	case KindNumber:
		return "REAL"
	default:
		return "TEXT"
	}
}

func rowArgs(cols []Column, row []string) ([]any, error) {
	if len(row) != len(cols) {
		return nil, fmt.Errorf("%d cells for %d columns", len(row), len(cols))
	}
	args := make([]any, len(row))
	for i, c := range cols {
		switch c.Kind {
		case KindInteger:
			n, err := strconv.ParseInt(row[i], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name, err)
			}
			args[i] = n
		case KindNumber:
			f, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c.Name, err)
			}
			args[i] = f
		default:
			args[i] = row[i]
		}
	}
	return args, nil
}
