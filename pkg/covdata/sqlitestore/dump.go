package sqlitestore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gocoverage/covdata/pkg/covdata/covdataerrors"
)

// dumpTables lists every table in insertion-safe order: referenced
// tables (file, context) before the tables that reference them.
var dumpTables = []string{"coverage_schema", "meta", "file", "context", "line_bits", "arc", "tracer"}

// Dump renders the database as a self-contained SQL script: the schema
// DDL followed by one INSERT statement per row, sufficient to recreate
// an equivalent database via Load. This stands in for SQLite's
// `.dump`/`iterdump()`, which the database/sql API surface doesn't
// expose; modernc.org/sqlite has no client-side equivalent, so the
// dump is produced here by walking each table directly.
func (s *Store) Dump(ctx context.Context) (string, error) {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(schemaDDL))
	b.WriteString("\n")

	for _, table := range dumpTables {
		if err := dumpTable(ctx, s, table, &b); err != nil {
			return "", err
		}
	}

	return b.String(), nil
}

func dumpTable(ctx context.Context, s *Store, table string, b *strings.Builder) error {
	rows, err := s.conn().QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return wrapDataFileError(s.filename, err)
	}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return wrapDataFileError(s.filename, err)
		}
		fmt.Fprintf(b, "INSERT INTO %s (%s) VALUES (%s);\n", table, strings.Join(cols, ", "), sqlLiterals(vals))
	}
	return wrapDataFileError(s.filename, rows.Err())
}

// sqlLiterals renders a row of scanned values as SQL literals: NULL,
// an integer, or a single-quoted (and quote-escaped) string/BLOB.
func sqlLiterals(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			parts[i] = "NULL"
		case int64:
			parts[i] = strconv.FormatInt(x, 10)
		case float64:
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		case []byte:
			parts[i] = "X'" + fmt.Sprintf("%x", x) + "'"
		case string:
			parts[i] = "'" + strings.ReplaceAll(x, "'", "''") + "'"
		default:
			parts[i] = fmt.Sprintf("'%v'", x)
		}
	}
	return strings.Join(parts, ", ")
}

// Load replaces this store's contents by executing script (the output
// of Dump, or a decompressed dumps() payload) against a fresh, empty
// database.
func (s *Store) Load(ctx context.Context, script string) error {
	return s.WithTx(ctx, func(ex Execer) error {
		for _, stmt := range splitStatements(script) {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := ex.ExecContext(ctx, stmt); err != nil {
				return covdataerrors.NewDataFileError(s.filename, err)
			}
		}
		return nil
	})
}

// splitStatements breaks a script into individual ';'-terminated
// statements. It is deliberately simple: every statement this package
// ever emits (DDL and single-row INSERTs from Dump) has no embedded
// semicolons outside of string literals produced by sqlLiterals, which
// escapes quotes but never introduces a literal "';".
func splitStatements(script string) []string {
	raw := strings.Split(script, ";\n")
	out := make([]string, 0, len(raw))
	for _, stmt := range raw {
		if trimmed := strings.TrimSpace(stmt); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
