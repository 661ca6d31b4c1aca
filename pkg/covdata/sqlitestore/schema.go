package sqlitestore

import (
	"context"
	"database/sql"

	"github.com/gocoverage/covdata/pkg/covdata/covdataerrors"
)

// SchemaVersion is the on-disk compatibility contract: a store whose
// coverage_schema.version doesn't match this value is refused, never
// migrated.
const SchemaVersion = 7

const schemaDDL = `
CREATE TABLE coverage_schema (version INTEGER NOT NULL);

CREATE TABLE meta (
    key   TEXT NOT NULL,
    value TEXT NOT NULL,
    UNIQUE (key)
);

CREATE TABLE file (
    id   INTEGER PRIMARY KEY,
    path TEXT NOT NULL,
    UNIQUE (path)
);

CREATE TABLE context (
    id      INTEGER PRIMARY KEY,
    context TEXT NOT NULL,
    UNIQUE (context)
);

CREATE TABLE line_bits (
    file_id    INTEGER NOT NULL REFERENCES file(id),
    context_id INTEGER NOT NULL REFERENCES context(id),
    numbits    BLOB NOT NULL,
    UNIQUE (file_id, context_id)
);

CREATE TABLE arc (
    file_id    INTEGER NOT NULL REFERENCES file(id),
    context_id INTEGER NOT NULL REFERENCES context(id),
    fromno     INTEGER NOT NULL,
    tono       INTEGER NOT NULL,
    UNIQUE (file_id, context_id, fromno, tono)
);

CREATE TABLE tracer (
    file_id INTEGER PRIMARY KEY REFERENCES file(id),
    tracer  TEXT NOT NULL
);
`

// CreateSchema initializes a freshly-opened, empty database: the table
// definitions above, the schema-version row, and the meta rows
// recorded at creation time.
func (s *Store) CreateSchema(ctx context.Context, sysArgv, version, when string) error {
	return s.WithTx(ctx, func(ex Execer) error {
		if _, err := ex.ExecContext(ctx, schemaDDL); err != nil {
			return wrapDataFileError(s.filename, err)
		}
		if _, err := ex.ExecContext(ctx, "INSERT INTO coverage_schema (version) VALUES (?)", SchemaVersion); err != nil {
			return wrapDataFileError(s.filename, err)
		}
		meta := [][2]string{
			{"sys_argv", sysArgv},
			{"version", version},
			{"when", when},
		}
		for _, kv := range meta {
			if _, err := ex.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
				return wrapDataFileError(s.filename, err)
			}
		}
		return nil
	})
}

// CheckSchemaVersion reads coverage_schema.version and returns a
// DataFileError if the table is missing/empty, or a DataError if the
// version doesn't match SchemaVersion.
func (s *Store) CheckSchemaVersion(ctx context.Context) error {
	var version int
	row := s.conn().QueryRowContext(ctx, "SELECT version FROM coverage_schema")
	if err := row.Scan(&version); err != nil {
		return covdataerrors.NewDataFileError(s.filename, err)
	}
	if version != SchemaVersion {
		return covdataerrors.NewDataError("data file %q has schema version %d, expected %d", s.filename, version, SchemaVersion)
	}
	return nil
}

// ReadHasArcs reads the meta['has_arcs'] flag. ok is false if the key
// has never been written (an empty store whose mode hasn't been
// chosen yet).
func (s *Store) ReadHasArcs(ctx context.Context) (hasArcs bool, ok bool, err error) {
	var value string
	row := s.conn().QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'has_arcs'")
	switch scanErr := row.Scan(&value); scanErr {
	case nil:
		return value == "1", true, nil
	case sql.ErrNoRows:
		return false, false, nil
	default:
		return false, false, wrapDataFileError(s.filename, scanErr)
	}
}

// WriteHasArcs records the store's fixed mode. Called once, the first
// time a store transitions out of "empty": by chooseLinesOrArcs, or by
// Update when data is merged into an empty store.
func (s *Store) WriteHasArcs(ctx context.Context, hasArcs bool) error {
	value := "0"
	if hasArcs {
		value = "1"
	}
	_, err := s.conn().ExecContext(ctx, "INSERT INTO meta (key, value) VALUES ('has_arcs', ?)", value)
	return wrapDataFileError(s.filename, err)
}

// ReadFileMap returns every known path -> file id pair, used by the
// owning Data API to rebuild its in-memory cache after open or reset.
func (s *Store) ReadFileMap(ctx context.Context) (map[string]int64, error) {
	rows, err := s.conn().QueryContext(ctx, "SELECT path, id FROM file")
	if err != nil {
		return nil, wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	fileMap := map[string]int64{}
	for rows.Next() {
		var path string
		var id int64
		if err := rows.Scan(&path, &id); err != nil {
			return nil, wrapDataFileError(s.filename, err)
		}
		fileMap[path] = id
	}
	return fileMap, wrapDataFileError(s.filename, rows.Err())
}
