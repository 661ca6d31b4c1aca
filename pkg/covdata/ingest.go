package covdata

import (
	"context"
	"sort"

	"github.com/gocoverage/covdata/internal/logger"
	"github.com/gocoverage/covdata/pkg/covdata/covdataerrors"
	"github.com/gocoverage/covdata/pkg/covdata/sqlitestore"
	"github.com/gocoverage/covdata/pkg/numbits"
)

// Arc is an observed transition from one source line to another. A
// negative From denotes entry to the code object anchored at |From|; a
// negative To denotes exit from the code object anchored at |To|.
type Arc struct {
	From int
	To   int
}

// chooseLinesOrArcs enforces the mode lock: the first successful
// ingest on an empty store fixes the mode forever.
func (c *CoverageData) chooseLinesOrArcs(ctx context.Context, lines bool) error {
	if lines && c.hasArcs {
		return covdataerrors.NewDataError("Can't add lines to existing arc data")
	}
	if !lines && c.hasLines {
		return covdataerrors.NewDataError("Can't add arcs to existing line data")
	}
	if !c.hasArcs && !c.hasLines {
		c.hasLines = lines
		c.hasArcs = !lines
		store, err := c.connect(ctx)
		if err != nil {
			return err
		}
		if err := store.WriteHasArcs(ctx, !lines); err != nil {
			return err
		}
	}
	return nil
}

// fileID returns the cached id for filename, inserting a new file row
// when add is true and the file is unknown. It returns (0, false) when
// the file is unknown and add is false.
func (c *CoverageData) fileID(ctx context.Context, store *sqlitestore.Store, filename string, add bool) (int64, bool, error) {
	if id, ok := c.fileMap[filename]; ok {
		return id, true, nil
	}
	if !add {
		return 0, false, nil
	}
	id, err := store.UpsertFile(ctx, filename)
	if err != nil {
		return 0, false, err
	}
	if c.fileMap == nil {
		c.fileMap = map[string]int64{}
	}
	c.fileMap[filename] = id
	return id, true, nil
}

// setContextID resolves c.currentContext to an id, creating the
// context row lazily on first use.
func (c *CoverageData) setContextID(ctx context.Context, store *sqlitestore.Store) error {
	if c.currentContextID != nil {
		return nil
	}
	name := c.currentContext
	if id, ok, err := store.ContextID(ctx, name); err != nil {
		return err
	} else if ok {
		c.currentContextID = &id
		return nil
	}
	id, err := store.InsertContext(ctx, name)
	if err != nil {
		return err
	}
	c.currentContextID = &id
	return nil
}

// SetContext sets the current context for subsequent ingests. The
// context persists until the next SetContext call.
func (c *CoverageData) SetContext(name string) {
	c.logDebug("setting context: %q", name)
	c.currentContext = name
	c.currentContextID = nil
}

// AddLines adds measured line data: lineData maps a filename to the
// set of line numbers executed in it.
func (c *CoverageData) AddLines(ctx context.Context, lineData map[string][]int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logDebug("adding lines: %d files", len(lineData))
	if err := c.startUsing(ctx); err != nil {
		return err
	}
	if err := c.chooseLinesOrArcs(ctx, true); err != nil {
		return err
	}
	if len(lineData) == 0 {
		return nil
	}

	store, err := c.connect(ctx)
	if err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.Ingests.WithLabelValues("lines").Inc()
	}

	lineCount := 0
	for _, linenos := range lineData {
		lineCount += len(linenos)
	}
	logger.Debug("covdata: ingesting lines", logger.FileCount(len(lineData)), logger.LineCount(lineCount))

	return store.WithTx(ctx, func(sqlitestore.Execer) error {
		if err := c.setContextID(ctx, store); err != nil {
			return err
		}
		for filename, linenos := range lineData {
			encoded := numbits.Encode(linenos)
			fileID, _, err := c.fileID(ctx, store, filename, true)
			if err != nil {
				return err
			}
			existing, ok, err := store.LineBits(ctx, fileID, *c.currentContextID)
			if err != nil {
				return err
			}
			if ok {
				encoded = numbits.Union(encoded, existing)
			}
			if err := store.UpsertLineBits(ctx, fileID, *c.currentContextID, encoded); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddArcs adds measured arc data: arcData maps a filename to the set
// of (from, to) transitions executed in it.
func (c *CoverageData) AddArcs(ctx context.Context, arcData map[string][]Arc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logDebug("adding arcs: %d files", len(arcData))
	if err := c.startUsing(ctx); err != nil {
		return err
	}
	if err := c.chooseLinesOrArcs(ctx, false); err != nil {
		return err
	}
	if len(arcData) == 0 {
		return nil
	}

	store, err := c.connect(ctx)
	if err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.Ingests.WithLabelValues("arcs").Inc()
	}

	arcCount := 0
	for _, arcs := range arcData {
		arcCount += len(arcs)
	}
	logger.Debug("covdata: ingesting arcs", logger.FileCount(len(arcData)), logger.ArcCount(arcCount))

	return store.WithTx(ctx, func(sqlitestore.Execer) error {
		if err := c.setContextID(ctx, store); err != nil {
			return err
		}
		for filename, arcs := range arcData {
			fileID, _, err := c.fileID(ctx, store, filename, true)
			if err != nil {
				return err
			}
			storeArcs := make([]sqlitestore.Arc, len(arcs))
			for i, a := range arcs {
				storeArcs[i] = sqlitestore.Arc{From: a.From, To: a.To}
			}
			if err := store.InsertArcs(ctx, fileID, *c.currentContextID, storeArcs); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddFileTracers records, for each filename, the plugin name
// responsible for it. An empty plugin name is a no-op; a conflicting
// non-empty name already on record is a DataError.
func (c *CoverageData) AddFileTracers(ctx context.Context, fileTracers map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addFileTracersLocked(ctx, fileTracers)
}

func (c *CoverageData) addFileTracersLocked(ctx context.Context, fileTracers map[string]string) error {
	c.logDebug("adding file tracers: %d files", len(fileTracers))
	if len(fileTracers) == 0 {
		return nil
	}
	if err := c.startUsing(ctx); err != nil {
		return err
	}
	store, err := c.connect(ctx)
	if err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.Ingests.WithLabelValues("file_tracers").Inc()
	}

	return store.WithTx(ctx, func(sqlitestore.Execer) error {
		for filename, pluginName := range fileTracers {
			fileID, ok, err := c.fileID(ctx, store, filename, false)
			if err != nil {
				return err
			}
			if !ok {
				return covdataerrors.NewDataError("Can't add file tracer data for unmeasured file %q", filename)
			}

			existing, hasTracer, err := store.FileTracer(ctx, fileID)
			if err != nil {
				return err
			}
			switch {
			case hasTracer && existing != "":
				if pluginName != "" && existing != pluginName {
					return covdataerrors.NewDataError("Conflicting file tracer name for %q: %q vs %q", filename, existing, pluginName)
				}
			case pluginName != "":
				if err := store.InsertTracerIfAbsent(ctx, fileID, pluginName); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// TouchFile ensures filename appears in the data, with no lines/arcs
// recorded if it wasn't already measured. Requires a mode (lines or
// arcs) to already be chosen.
func (c *CoverageData) TouchFile(ctx context.Context, filename, pluginName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logDebug("touching %q", filename)
	logger.Debug("covdata: touching file", logger.Path(filename))
	if err := c.startUsing(ctx); err != nil {
		return err
	}
	if !c.hasArcs && !c.hasLines {
		return covdataerrors.NewDataError("Can't touch files in an empty CoverageData")
	}

	store, err := c.connect(ctx)
	if err != nil {
		return err
	}
	if err := store.WithTx(ctx, func(sqlitestore.Execer) error {
		_, _, err := c.fileID(ctx, store, filename, true)
		return err
	}); err != nil {
		return err
	}

	if pluginName != "" {
		return c.addFileTracersLocked(ctx, map[string]string{filename: pluginName})
	}
	return nil
}

// sortedInts is a small helper used by the query layer to present
// stable, human-friendly output from map-backed sets.
func sortedInts(nums []int) []int {
	out := append([]int(nil), nums...)
	sort.Ints(out)
	return out
}
