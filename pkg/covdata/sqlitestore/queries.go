package sqlitestore

import (
	"context"
	"database/sql"
)

// UpsertFile writes a file row for path with INSERT OR REPLACE,
// matching sqldata.py's _file_id(add=True), and returns the id of the
// row written. An existing row for path is replaced, which gives the
// path a new id; the Data API calls this only for paths missing from
// its file-id cache.
func (s *Store) UpsertFile(ctx context.Context, path string) (int64, error) {
	res, err := s.conn().ExecContext(ctx, "INSERT OR REPLACE INTO file (path) VALUES (?)", path)
	if err != nil {
		return 0, wrapDataFileError(s.filename, err)
	}
	id, err := res.LastInsertId()
	return id, wrapDataFileError(s.filename, err)
}

// InsertFileIfAbsent is the insert-or-ignore counterpart used by
// update()'s bulk file creation, which never needs the new id back;
// ids are reloaded afterward in one query.
func (s *Store) InsertFileIfAbsent(ctx context.Context, path string) error {
	_, err := s.conn().ExecContext(ctx, "INSERT OR IGNORE INTO file (path) VALUES (?)", path)
	return wrapDataFileError(s.filename, err)
}

// ContextID looks up an existing context row by name.
func (s *Store) ContextID(ctx context.Context, name string) (id int64, ok bool, err error) {
	row := s.conn().QueryRowContext(ctx, "SELECT id FROM context WHERE context = ?", name)
	switch scanErr := row.Scan(&id); scanErr {
	case nil:
		return id, true, nil
	case sql.ErrNoRows:
		return 0, false, nil
	default:
		return 0, false, wrapDataFileError(s.filename, scanErr)
	}
}

// InsertContext creates a new context row and returns its id.
func (s *Store) InsertContext(ctx context.Context, name string) (int64, error) {
	res, err := s.conn().ExecContext(ctx, "INSERT INTO context (context) VALUES (?)", name)
	if err != nil {
		return 0, wrapDataFileError(s.filename, err)
	}
	id, err := res.LastInsertId()
	return id, wrapDataFileError(s.filename, err)
}

// InsertContextIfAbsent is update()'s insert-or-ignore bulk variant.
func (s *Store) InsertContextIfAbsent(ctx context.Context, name string) error {
	_, err := s.conn().ExecContext(ctx, "INSERT OR IGNORE INTO context (context) VALUES (?)", name)
	return wrapDataFileError(s.filename, err)
}

// ReadContextMap returns every known context name -> id pair.
func (s *Store) ReadContextMap(ctx context.Context) (map[string]int64, error) {
	rows, err := s.conn().QueryContext(ctx, "SELECT context, id FROM context")
	if err != nil {
		return nil, wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return nil, wrapDataFileError(s.filename, err)
		}
		out[name] = id
	}
	return out, wrapDataFileError(s.filename, rows.Err())
}

// LineBits returns the numbits blob stored for (fileID, contextID), if
// any.
func (s *Store) LineBits(ctx context.Context, fileID, contextID int64) ([]byte, bool, error) {
	var numbits []byte
	row := s.conn().QueryRowContext(ctx, "SELECT numbits FROM line_bits WHERE file_id = ? AND context_id = ?", fileID, contextID)
	switch err := row.Scan(&numbits); err {
	case nil:
		return numbits, true, nil
	case sql.ErrNoRows:
		return nil, false, nil
	default:
		return nil, false, wrapDataFileError(s.filename, err)
	}
}

// UpsertLineBits replaces the (fileID, contextID) row with numbits.
// The caller has already unioned in any existing bits.
func (s *Store) UpsertLineBits(ctx context.Context, fileID, contextID int64, numbits []byte) error {
	_, err := s.conn().ExecContext(ctx,
		"INSERT OR REPLACE INTO line_bits (file_id, context_id, numbits) VALUES (?, ?, ?)",
		fileID, contextID, numbits)
	return wrapDataFileError(s.filename, err)
}

// InsertLineBitsIfAbsent is update()'s insert variant: the merge
// algorithm deletes all line_bits rows first (see DeleteAllLineBits)
// and reinserts the fully unioned set, so a plain INSERT suffices
// here.
func (s *Store) InsertLineBitsIfAbsent(ctx context.Context, fileID, contextID int64, numbits []byte) error {
	_, err := s.conn().ExecContext(ctx,
		"INSERT INTO line_bits (file_id, context_id, numbits) VALUES (?, ?, ?)",
		fileID, contextID, numbits)
	return wrapDataFileError(s.filename, err)
}

// DeleteAllLineBits clears every line_bits row, the first half of the
// merge algorithm's delete-and-reinsert strategy.
func (s *Store) DeleteAllLineBits(ctx context.Context) error {
	_, err := s.conn().ExecContext(ctx, "DELETE FROM line_bits")
	return wrapDataFileError(s.filename, err)
}

// LineBitsRow is one (path, context, numbits) triple, used when
// reading an entire store's line data during merge.
type LineBitsRow struct {
	Path    string
	Context string
	Numbits []byte
}

// AllLineBits reads every line_bits row joined to its file path and
// context name.
func (s *Store) AllLineBits(ctx context.Context) ([]LineBitsRow, error) {
	rows, err := s.conn().QueryContext(ctx, `
		SELECT file.path, context.context, line_bits.numbits
		FROM line_bits
		INNER JOIN file ON file.id = line_bits.file_id
		INNER JOIN context ON context.id = line_bits.context_id
	`)
	if err != nil {
		return nil, wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	var out []LineBitsRow
	for rows.Next() {
		var r LineBitsRow
		if err := rows.Scan(&r.Path, &r.Context, &r.Numbits); err != nil {
			return nil, wrapDataFileError(s.filename, err)
		}
		out = append(out, r)
	}
	return out, wrapDataFileError(s.filename, rows.Err())
}

// Arc is one (from, to) transition row.
type Arc struct {
	From int
	To   int
}

// InsertArcs bulk-inserts (fileID, contextID, from, to) rows,
// ignoring duplicates (the unique 4-tuple constraint makes this
// idempotent).
func (s *Store) InsertArcs(ctx context.Context, fileID, contextID int64, arcs []Arc) error {
	for _, a := range arcs {
		_, err := s.conn().ExecContext(ctx,
			"INSERT OR IGNORE INTO arc (file_id, context_id, fromno, tono) VALUES (?, ?, ?, ?)",
			fileID, contextID, a.From, a.To)
		if err != nil {
			return wrapDataFileError(s.filename, err)
		}
	}
	return nil
}

// ArcRow is one arc row joined back to its source path and context
// name, used when reading an entire store's arc data during merge.
type ArcRow struct {
	Path    string
	Context string
	From    int
	To      int
}

// AllArcs reads every arc row joined to its file path and context
// name.
func (s *Store) AllArcs(ctx context.Context) ([]ArcRow, error) {
	rows, err := s.conn().QueryContext(ctx, `
		SELECT file.path, context.context, arc.fromno, arc.tono
		FROM arc
		INNER JOIN file ON file.id = arc.file_id
		INNER JOIN context ON context.id = arc.context_id
	`)
	if err != nil {
		return nil, wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	var out []ArcRow
	for rows.Next() {
		var r ArcRow
		if err := rows.Scan(&r.Path, &r.Context, &r.From, &r.To); err != nil {
			return nil, wrapDataFileError(s.filename, err)
		}
		out = append(out, r)
	}
	return out, wrapDataFileError(s.filename, rows.Err())
}

// ArcsForFile returns the distinct (from, to) pairs for fileID,
// restricted to contextIDs when non-nil.
func (s *Store) ArcsForFile(ctx context.Context, fileID int64, contextIDs []int64) ([]Arc, error) {
	query := "SELECT DISTINCT fromno, tono FROM arc WHERE file_id = ?"
	args := []any{fileID}
	query, args = appendContextFilter(query, args, "context_id", contextIDs)

	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	var out []Arc
	for rows.Next() {
		var a Arc
		if err := rows.Scan(&a.From, &a.To); err != nil {
			return nil, wrapDataFileError(s.filename, err)
		}
		out = append(out, a)
	}
	return out, wrapDataFileError(s.filename, rows.Err())
}

// LineBitsForFile returns every numbits blob stored for fileID,
// restricted to contextIDs when non-nil.
func (s *Store) LineBitsForFile(ctx context.Context, fileID int64, contextIDs []int64) ([][]byte, error) {
	query := "SELECT numbits FROM line_bits WHERE file_id = ?"
	args := []any{fileID}
	query, args = appendContextFilter(query, args, "context_id", contextIDs)

	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var numbits []byte
		if err := rows.Scan(&numbits); err != nil {
			return nil, wrapDataFileError(s.filename, err)
		}
		out = append(out, numbits)
	}
	return out, wrapDataFileError(s.filename, rows.Err())
}

// InsertTracerIfAbsent records fileID's tracer name. Conflict
// detection happens one layer up, in the Data API, which already knows
// whether a tracer exists; this is the raw insert-or-ignore primitive.
func (s *Store) InsertTracerIfAbsent(ctx context.Context, fileID int64, tracer string) error {
	_, err := s.conn().ExecContext(ctx, "INSERT OR IGNORE INTO tracer (file_id, tracer) VALUES (?, ?)", fileID, tracer)
	return wrapDataFileError(s.filename, err)
}

// FileTracer returns the tracer name for fileID, "" if the file has no
// tracer row.
func (s *Store) FileTracer(ctx context.Context, fileID int64) (string, bool, error) {
	var tracer string
	row := s.conn().QueryRowContext(ctx, "SELECT tracer FROM tracer WHERE file_id = ?", fileID)
	switch err := row.Scan(&tracer); err {
	case nil:
		return tracer, true, nil
	case sql.ErrNoRows:
		return "", false, nil
	default:
		return "", false, wrapDataFileError(s.filename, err)
	}
}

// TracerRow pairs a path with its tracer name, used to seed update()'s
// tracer-conflict detection.
type TracerRow struct {
	Path   string
	Tracer string
}

// AllTracers reads every tracer row joined to its file path.
func (s *Store) AllTracers(ctx context.Context) ([]TracerRow, error) {
	rows, err := s.conn().QueryContext(ctx, `
		SELECT file.path, tracer.tracer
		FROM tracer
		INNER JOIN file ON file.id = tracer.file_id
	`)
	if err != nil {
		return nil, wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	var out []TracerRow
	for rows.Next() {
		var r TracerRow
		if err := rows.Scan(&r.Path, &r.Tracer); err != nil {
			return nil, wrapDataFileError(s.filename, err)
		}
		out = append(out, r)
	}
	return out, wrapDataFileError(s.filename, rows.Err())
}

// HasAnyFile reports whether the file table has at least one row, the
// basis for CoverageData.HasData()'s truthiness semantics.
func (s *Store) HasAnyFile(ctx context.Context) (bool, error) {
	var one int
	row := s.conn().QueryRowContext(ctx, "SELECT 1 FROM file LIMIT 1")
	switch err := row.Scan(&one); err {
	case nil:
		return true, nil
	case sql.ErrNoRows:
		return false, nil
	default:
		return false, wrapDataFileError(s.filename, err)
	}
}

// MeasuredContexts returns every distinct context name.
func (s *Store) MeasuredContexts(ctx context.Context) ([]string, error) {
	rows, err := s.conn().QueryContext(ctx, "SELECT DISTINCT context FROM context")
	if err != nil {
		return nil, wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrapDataFileError(s.filename, err)
		}
		out = append(out, name)
	}
	return out, wrapDataFileError(s.filename, rows.Err())
}

// ContextIDsMatching returns the ids of every context row matching any
// of the given regex patterns via the REGEXP hook.
func (s *Store) ContextIDsMatching(ctx context.Context, patterns []string) ([]int64, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	clause := ""
	args := make([]any, 0, len(patterns))
	for i, p := range patterns {
		if i > 0 {
			clause += " OR "
		}
		clause += "context REGEXP ?"
		args = append(args, p)
	}

	rows, err := s.conn().QueryContext(ctx, "SELECT id FROM context WHERE "+clause, args...)
	if err != nil {
		return nil, wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapDataFileError(s.filename, err)
		}
		ids = append(ids, id)
	}
	return ids, wrapDataFileError(s.filename, rows.Err())
}

// ArcContextRow is one (fromno, tono, context) triple.
type ArcContextRow struct {
	From, To int
	Context  string
}

// ArcContextsForFile returns every (fromno, tono, context) triple for
// fileID, restricted to contextIDs when non-nil, the arcs-mode source
// for contexts_by_lineno.
func (s *Store) ArcContextsForFile(ctx context.Context, fileID int64, contextIDs []int64) ([]ArcContextRow, error) {
	query := `
		SELECT arc.fromno, arc.tono, context.context
		FROM arc, context
		WHERE arc.file_id = ? AND arc.context_id = context.id`
	args := []any{fileID}
	query, args = appendContextFilter(query, args, "arc.context_id", contextIDs)

	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	var out []ArcContextRow
	for rows.Next() {
		var row ArcContextRow
		if err := rows.Scan(&row.From, &row.To, &row.Context); err != nil {
			return nil, wrapDataFileError(s.filename, err)
		}
		out = append(out, row)
	}
	return out, wrapDataFileError(s.filename, rows.Err())
}

// LineContextRow is one (numbits, context) pair.
type LineContextRow struct {
	Numbits []byte
	Context string
}

// LineContextsForFile returns every (numbits, context) pair for
// fileID, restricted to contextIDs when non-nil, the lines-mode
// source for contexts_by_lineno.
func (s *Store) LineContextsForFile(ctx context.Context, fileID int64, contextIDs []int64) ([]LineContextRow, error) {
	query := `
		SELECT l.numbits, c.context
		FROM line_bits l, context c
		WHERE l.context_id = c.id AND l.file_id = ?`
	args := []any{fileID}
	query, args = appendContextFilter(query, args, "l.context_id", contextIDs)

	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDataFileError(s.filename, err)
	}
	defer rows.Close()

	var out []LineContextRow
	for rows.Next() {
		var row LineContextRow
		if err := rows.Scan(&row.Numbits, &row.Context); err != nil {
			return nil, wrapDataFileError(s.filename, err)
		}
		out = append(out, row)
	}
	return out, wrapDataFileError(s.filename, rows.Err())
}

// appendContextFilter appends "AND column IN (?, ?, ...)" to query
// when ids is non-nil, returning the extended query and args.
func appendContextFilter(query string, args []any, column string, ids []int64) (string, []any) {
	if ids == nil {
		return query, args
	}
	query += " AND " + column + " IN ("
	for i, id := range ids {
		if i > 0 {
			query += ", "
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"
	return query, args
}
