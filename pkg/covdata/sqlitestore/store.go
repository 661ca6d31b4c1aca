// Package sqlitestore is the persistent store backend for the coverage
// data engine: a single SQLite file accessed through database/sql and
// modernc.org/sqlite, with the connection discipline the engine needs
// (single writer per process per file, nested transactions, fork
// detection, write-throughput pragmas) layered on top.
package sqlitestore

import (
	"context"
	"database/sql"
	"os"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/gocoverage/covdata/internal/logger"
	"github.com/gocoverage/covdata/pkg/covdata/covdataerrors"
)

// driverName is the database/sql driver name modernc.org/sqlite
// registers itself under.
const driverName = "sqlite"

// Execer is satisfied by both *sql.DB and *sql.Tx, letting query code
// in this package run identically whether or not a transaction is
// currently open.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps one SQLite file (or an in-memory database) with the
// nesting-transaction discipline the engine's writers rely on: the
// outermost caller of WithTx begins the transaction and commits or
// rolls it back; callers nested inside another WithTx share it.
type Store struct {
	mu       sync.Mutex
	filename string
	inMemory bool
	db       *sql.DB
	nest     int
	tx       *sql.Tx
	pid      int
}

// Open connects to filename (or an in-memory database when inMemory is
// true), applying the write-throughput pragmas and enforcing a single
// pooled connection so those pragmas and the REGEXP registration stay
// in effect for every statement this Store issues.
func Open(filename string, inMemory bool) (*Store, error) {
	dsn := filename
	if inMemory {
		dsn = ":memory:"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, covdataerrors.NewDataFileError(filename, err)
	}
	// The engine promises single-writer-per-process-per-file discipline;
	// pinning the pool to one connection makes the pragmas below apply
	// uniformly and makes the nesting-transaction discipline meaningful
	// (a second pooled connection could interleave writes SQLite would
	// otherwise serialize with file locks alone).
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=OFF"); err != nil {
		db.Close()
		return nil, covdataerrors.NewDataFileError(filename, err)
	}
	if _, err := db.Exec("PRAGMA synchronous=OFF"); err != nil {
		db.Close()
		return nil, covdataerrors.NewDataFileError(filename, err)
	}

	logger.Debug("sqlitestore: connected", logger.DataFilename(filename), logger.InMemory(inMemory))

	return &Store{
		filename: filename,
		inMemory: inMemory,
		db:       db,
		pid:      os.Getpid(),
	}, nil
}

// Filename returns the path this Store was opened with ("" for an
// in-memory store).
func (s *Store) Filename() string {
	return s.filename
}

// Pid returns the process id that opened this Store.
func (s *Store) Pid() int {
	return s.pid
}

// Close releases the underlying connection. Closing an in-memory store
// discards its data.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	logger.Debug("sqlitestore: closed", logger.DataFilename(s.filename))
	return err
}

// conn returns whatever Execer is currently in scope: the open
// transaction if WithTx has been entered, otherwise the raw *sql.DB.
func (s *Store) conn() Execer {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// WithTx runs fn against this Store's connection, wrapped in a
// transaction. Calls nest: entering at depth 0 begins the transaction
// and commits it (or rolls back on error) when the outermost call
// returns; a call made while already inside WithTx reuses the open
// transaction and does not start a new one.
func (s *Store) WithTx(ctx context.Context, fn func(ex Execer) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nest == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return covdataerrors.NewDataFileError(s.filename, err)
		}
		s.tx = tx
	}
	s.nest++

	err := fn(s.conn())

	s.nest--
	if s.nest == 0 {
		tx := s.tx
		s.tx = nil
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Warn("sqlitestore: rollback failed", logger.DataFilename(s.filename), logger.Err(rbErr))
			}
			return err
		}
		if cErr := tx.Commit(); cErr != nil {
			return covdataerrors.NewDataFileError(s.filename, cErr)
		}
	}

	return err
}

// wrapDataFileError is the uniform conversion point between a driver
// error and the engine's DataFileError, matching sqldata.py's
// SqliteDb.execute wrapping every sqlite3.Error in a CoverageException.
func wrapDataFileError(filename string, err error) error {
	if err == nil {
		return nil
	}
	return covdataerrors.NewDataFileError(filename, err)
}
