package covdata

import (
	"context"

	"github.com/gocoverage/covdata/internal/logger"
	"github.com/gocoverage/covdata/pkg/covdata/covdataerrors"
	"github.com/gocoverage/covdata/pkg/covdata/sqlitestore"
	"github.com/gocoverage/covdata/pkg/numbits"
)

// Update merges every file, context, line, arc, and tracer recorded in
// other into c, applying aliases (if non-nil) to every path read from
// other before it touches c. Merging line data with arc data, in either
// direction, is a DataError; a store that has not chosen a mode yet can
// be merged with either kind.
func (c *CoverageData) Update(ctx context.Context, other *CoverageData, aliases *PathAliases) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	other.mu.Lock()
	defer other.mu.Unlock()

	if other.hasLines && c.hasArcs {
		return covdataerrors.NewDataError("Can't combine line data with arc data")
	}
	if other.hasArcs && c.hasLines {
		return covdataerrors.NewDataError("Can't combine arc data with line data")
	}

	otherStore, err := other.connect(ctx)
	if err != nil {
		return err
	}
	selfStore, err := c.connect(ctx)
	if err != nil {
		return err
	}

	if c.metrics != nil {
		c.metrics.Merges.Inc()
	}
	logger.Debug("covdata: merging store", logger.Operation("update"), logger.DataFilename(other.filename))

	aliasPath := func(path string) string {
		if aliases == nil {
			return path
		}
		return aliases.Map(path)
	}

	otherTracers, err := otherStore.AllTracers(ctx)
	if err != nil {
		return err
	}
	otherLineBits, err := otherStore.AllLineBits(ctx)
	if err != nil {
		return err
	}
	otherArcs, err := otherStore.AllArcs(ctx)
	if err != nil {
		return err
	}

	wantsArcs := other.hasArcs || c.hasArcs
	wantsLines := other.hasLines || c.hasLines
	if wantsArcs && wantsLines {
		return covdataerrors.NewDataError("Can't combine line data with arc data")
	}

	txErr := selfStore.WithTx(ctx, func(sqlitestore.Execer) error {
		if wantsArcs && !c.hasArcs {
			c.hasArcs = true
			if err := selfStore.WriteHasArcs(ctx, true); err != nil {
				return err
			}
		}
		if wantsLines && !c.hasLines && !c.hasArcs {
			c.hasLines = true
			if err := selfStore.WriteHasArcs(ctx, false); err != nil {
				return err
			}
		}

		existingTracers := map[string]string{}
		for path, fileID := range c.fileMap {
			tracer, ok, err := selfStore.FileTracer(ctx, fileID)
			if err != nil {
				return err
			}
			if ok {
				existingTracers[path] = tracer
			} else {
				existingTracers[path] = ""
			}
		}

		paths := map[string]struct{}{}
		for _, t := range otherTracers {
			paths[aliasPath(t.Path)] = struct{}{}
		}
		for _, r := range otherLineBits {
			paths[aliasPath(r.Path)] = struct{}{}
		}
		for _, r := range otherArcs {
			paths[aliasPath(r.Path)] = struct{}{}
		}
		for path := range paths {
			if _, ok := c.fileMap[path]; ok {
				continue
			}
			if err := selfStore.InsertFileIfAbsent(ctx, path); err != nil {
				return err
			}
		}

		contexts := map[string]struct{}{}
		for _, r := range otherLineBits {
			contexts[r.Context] = struct{}{}
		}
		for _, r := range otherArcs {
			contexts[r.Context] = struct{}{}
		}
		for name := range contexts {
			if err := selfStore.InsertContextIfAbsent(ctx, name); err != nil {
				return err
			}
		}

		fileMap, err := selfStore.ReadFileMap(ctx)
		if err != nil {
			return err
		}
		c.fileMap = fileMap
		contextMap, err := selfStore.ReadContextMap(ctx)
		if err != nil {
			return err
		}

		for _, t := range otherTracers {
			path := aliasPath(t.Path)
			if existing, ok := existingTracers[path]; ok && existing != "" {
				if t.Tracer != "" && existing != t.Tracer {
					return covdataerrors.NewDataError("Conflicting file tracer name for %q: %q vs %q", path, existing, t.Tracer)
				}
				continue
			}
			if t.Tracer == "" {
				continue
			}
			if err := selfStore.InsertTracerIfAbsent(ctx, fileMap[path], t.Tracer); err != nil {
				return err
			}
		}

		if wantsLines {
			selfLineBits, err := selfStore.AllLineBits(ctx)
			if err != nil {
				return err
			}
			type key struct{ path, context string }
			merged := map[key][]byte{}
			for _, r := range selfLineBits {
				k := key{r.Path, r.Context}
				merged[k] = numbits.Union(merged[k], r.Numbits)
			}
			for _, r := range otherLineBits {
				k := key{aliasPath(r.Path), r.Context}
				merged[k] = numbits.Union(merged[k], r.Numbits)
			}

			if err := selfStore.DeleteAllLineBits(ctx); err != nil {
				return err
			}
			for k, bits := range merged {
				fileID, ok := fileMap[k.path]
				if !ok {
					continue
				}
				contextID, ok := contextMap[k.context]
				if !ok {
					continue
				}
				if err := selfStore.InsertLineBitsIfAbsent(ctx, fileID, contextID, bits); err != nil {
					return err
				}
			}
		}

		if wantsArcs {
			for _, r := range otherArcs {
				path := aliasPath(r.Path)
				fileID, ok := fileMap[path]
				if !ok {
					continue
				}
				contextID, ok := contextMap[r.Context]
				if !ok {
					continue
				}
				if err := selfStore.InsertArcs(ctx, fileID, contextID, []sqlitestore.Arc{{From: r.From, To: r.To}}); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if txErr != nil {
		return txErr
	}

	c.reset()
	if _, err := c.connect(ctx); err != nil {
		return err
	}
	c.haveUsed = true
	return nil
}
