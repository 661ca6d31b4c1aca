// Package covdata implements the coverage data engine's Data API: the
// object that owns a persistent store, ingests executed lines and
// arcs, merges other stores in, and answers the queries the analysis
// layer and report generators need.
package covdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gocoverage/covdata/internal/logger"
	"github.com/gocoverage/covdata/pkg/covdata/covdataerrors"
	"github.com/gocoverage/covdata/pkg/covdata/sqlitestore"
)

// version is reported in the meta table of newly created stores; this
// package has no release process of its own, so it's a fixed marker
// rather than a build-injected value.
const version = "covdata-engine"

// CoverageData is a scoped owner of one persistent coverage store: it
// tracks the current ingestion context, the store's fixed lines/arcs
// mode, and in-memory caches of file and context ids, all invalidated
// together by reset().
type CoverageData struct {
	mu sync.Mutex

	basename string
	suffix   Suffix
	noDisk   bool
	warn     func(string)
	debug    func(string)
	metrics  *sqlitestore.Metrics

	filename string
	store    *sqlitestore.Store
	pid      int

	fileMap map[string]int64

	haveUsed bool
	hasLines bool
	hasArcs  bool

	currentContext   string
	currentContextID *int64
	queryContextIDs  *[]int64
}

// New constructs a CoverageData. No store is opened until the first
// operation that needs one (matching sqldata.py's lazy _connect()).
func New(opts ...Option) (*CoverageData, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	basename, err := filepath.Abs(cfg.Basename)
	if err != nil {
		return nil, covdataerrors.NewConfigError("couldn't resolve basename %q: %s", cfg.Basename, err)
	}

	c := &CoverageData{
		basename: basename,
		suffix:   cfg.Suffix,
		noDisk:   cfg.NoDisk,
		warn:     cfg.Warn,
		debug:    cfg.Debug,
		metrics:  cfg.Metrics,
		pid:      os.Getpid(),
	}
	c.chooseFilename()
	return c, nil
}

func (c *CoverageData) logDebug(format string, args ...any) {
	if c.debug != nil {
		c.debug(fmt.Sprintf(format, args...))
	}
}

func (c *CoverageData) logWarn(format string, args ...any) {
	if c.warn != nil {
		c.warn(fmt.Sprintf(format, args...))
	}
}

// chooseFilename sets c.filename from the basename and suffix,
// matching sqldata.py's _choose_filename.
func (c *CoverageData) chooseFilename() {
	if c.noDisk {
		c.filename = ""
		return
	}
	c.filename = c.basename
	if suffix := c.computeSuffix(); suffix != "" {
		c.filename += "." + suffix
	}
}

func (c *CoverageData) computeSuffix() string {
	switch c.suffix.Kind {
	case SuffixLiteral:
		return c.suffix.Value
	case SuffixAuto:
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}
		random := strings.ToLower(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
		return fmt.Sprintf("%s.%d.%s", host, os.Getpid(), random)
	default:
		return ""
	}
}

// BaseFilename returns the configured base name.
func (c *CoverageData) BaseFilename() string {
	return c.basename
}

// DataFilename returns the actual on-disk filename in use (empty for
// an in-memory store).
func (c *CoverageData) DataFilename() string {
	return c.filename
}

// HasArcs reflects the store's fixed mode. It never touches the
// store.
func (c *CoverageData) HasArcs() bool {
	return c.hasArcs
}

// reset discards in-memory state and closes the store handle, without
// touching the on-disk file.
func (c *CoverageData) reset() {
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.logWarn("error closing data file %q: %s", c.filename, err)
		}
		c.store = nil
	}
	c.fileMap = nil
	c.haveUsed = false
	c.hasLines = false
	c.hasArcs = false
	c.currentContextID = nil
}

// connect lazily opens the store, creating it if the file doesn't
// exist yet.
func (c *CoverageData) connect(ctx context.Context) (*sqlitestore.Store, error) {
	if c.store != nil {
		return c.store, nil
	}

	exists := !c.noDisk && fileExists(c.filename)
	store, err := sqlitestore.Open(c.filename, c.noDisk)
	if err != nil {
		return nil, err
	}
	c.store = store
	if c.metrics != nil {
		c.metrics.StoresOpened.Inc()
	}

	if exists {
		c.logDebug("opening data file %q", c.filename)
		if err := c.readDB(ctx); err != nil {
			return nil, err
		}
	} else {
		c.logDebug("creating data file %q", c.filename)
		when := time.Now().UTC().Format("2006-01-02 15:04:05")
		if err := store.CreateSchema(ctx, fmt.Sprintf("%v", os.Args), version, when); err != nil {
			return nil, err
		}
	}

	return c.store, nil
}

// readDB loads the schema-version check, mode flags, and file-id
// cache from an already-opened store.
func (c *CoverageData) readDB(ctx context.Context) error {
	store := c.store
	if err := store.CheckSchemaVersion(ctx); err != nil {
		return err
	}
	logger.Debug("covdata: schema check passed", logger.SchemaVersion(sqlitestore.SchemaVersion))

	hasArcs, ok, err := store.ReadHasArcs(ctx)
	if err != nil {
		return err
	}
	if ok {
		c.hasArcs = hasArcs
		c.hasLines = !hasArcs
	}

	fileMap, err := store.ReadFileMap(ctx)
	if err != nil {
		return err
	}
	c.fileMap = fileMap
	return nil
}

func fileExists(filename string) bool {
	if filename == "" {
		return false
	}
	_, err := os.Stat(filename)
	return err == nil
}

// startUsing must be called before any operation that touches the
// store. It detects a fork (pid mismatch), resets onto a fresh file
// when one is found, and lazily erases a not-yet-used store the first
// time it's touched in this process, matching sqldata.py's
// _start_using.
func (c *CoverageData) startUsing(ctx context.Context) error {
	if c.pid != os.Getpid() {
		logger.Debug("covdata: fork detected, switching to a fresh data file",
			logger.Pid(c.pid), logger.Basename(c.basename))
		c.reset()
		c.chooseFilename()
		c.pid = os.Getpid()
	}
	if !c.haveUsed {
		if err := c.Erase(ctx, false); err != nil {
			return err
		}
	}
	c.haveUsed = true
	return nil
}

// HasData reports whether this store has any measured file, i.e.
// "has any measured data at all": contexts or meta rows with no file
// rows still count as false. Unlike most operations, it does not call
// startUsing first, so it neither fork-detects nor lazily erases a
// not-yet-used store; harmless for its read-only purpose, but callers
// wanting fork-safe behavior should call Open first.
func (c *CoverageData) HasData(ctx context.Context) bool {
	if c.store == nil && !fileExists(c.filename) {
		return false
	}
	store, err := c.connect(ctx)
	if err != nil {
		return false
	}
	has, err := store.HasAnyFile(ctx)
	if err != nil {
		return false
	}
	return has
}

// SysInfo reports diagnostic key/value pairs, mirroring
// CoverageData.sys_info().
func (c *CoverageData) SysInfo(ctx context.Context) ([][2]string, error) {
	store, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	sqliteVersion, err := store.SysInfo(ctx)
	if err != nil {
		return nil, err
	}
	return [][2]string{{"sqlite_version", sqliteVersion}}, nil
}

// Open forces the store open without mutating it, mirroring
// sqldata.py's read(): safe to call before any read-only use.
func (c *CoverageData) Open(ctx context.Context) error {
	if c.pid == os.Getpid() && fileExists(c.filename) {
		c.haveUsed = true
	}
	if err := c.startUsing(ctx); err != nil {
		return err
	}
	_, err := c.connect(ctx)
	return err
}

// Flush is a documented no-op: every write this package performs is
// already transactionally durable by the time the call returns, so
// there is nothing left to flush.
func (c *CoverageData) Flush() {}

// Erase discards in-memory state and deletes the main on-disk file.
// With parallel set, it also deletes sibling files matching this
// store's parallel-suffix pattern.
func (c *CoverageData) Erase(ctx context.Context, parallel bool) error {
	c.reset()
	if c.noDisk {
		return nil
	}
	c.logDebug("erasing data file %q", c.filename)
	if err := os.Remove(c.filename); err != nil && !os.IsNotExist(err) {
		return covdataerrors.NewDataFileError(c.filename, err)
	}
	if parallel {
		dir, local := filepath.Split(c.filename)
		matches, err := filepath.Glob(filepath.Join(dir, local+".*"))
		if err != nil {
			return covdataerrors.NewDataFileError(c.filename, err)
		}
		for _, match := range matches {
			c.logDebug("erasing parallel data file %q", match)
			if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
				return covdataerrors.NewDataFileError(match, err)
			}
		}
	}
	return nil
}
