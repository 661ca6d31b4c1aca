package covdata

import (
	"context"
	"sort"

	"github.com/gocoverage/covdata/pkg/numbits"
)

// Lines returns the sorted set of line numbers measured for filename,
// and whether the file is known at all. It reflects the current query
// context filter (SetQueryContext/SetQueryContexts).
func (c *CoverageData) Lines(ctx context.Context, filename string) ([]int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	store, err := c.connect(ctx)
	if err != nil {
		return nil, false, err
	}
	fileID, ok := c.fileMap[filename]
	if !ok {
		return nil, false, nil
	}

	var contextIDs []int64
	if c.queryContextIDs != nil {
		contextIDs = *c.queryContextIDs
	}

	if c.hasArcs {
		arcs, err := store.ArcsForFile(ctx, fileID, contextIDs)
		if err != nil {
			return nil, true, err
		}
		seen := map[int]struct{}{}
		for _, a := range arcs {
			if a.From > 0 {
				seen[a.From] = struct{}{}
			}
			if a.To > 0 {
				seen[a.To] = struct{}{}
			}
		}
		out := make([]int, 0, len(seen))
		for n := range seen {
			out = append(out, n)
		}
		return sortedInts(out), true, nil
	}

	blobs, err := store.LineBitsForFile(ctx, fileID, contextIDs)
	if err != nil {
		return nil, true, err
	}
	merged := []byte(nil)
	for _, b := range blobs {
		merged = numbits.Union(merged, b)
	}
	return sortedInts(numbits.Decode(merged)), true, nil
}

// Arcs returns the distinct (from, to) pairs measured for filename,
// and whether the file is known at all. Empty when the store is in
// lines mode.
func (c *CoverageData) Arcs(ctx context.Context, filename string) ([]Arc, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	store, err := c.connect(ctx)
	if err != nil {
		return nil, false, err
	}
	fileID, ok := c.fileMap[filename]
	if !ok {
		return nil, false, nil
	}
	if !c.hasArcs {
		return nil, true, nil
	}

	var contextIDs []int64
	if c.queryContextIDs != nil {
		contextIDs = *c.queryContextIDs
	}
	rows, err := store.ArcsForFile(ctx, fileID, contextIDs)
	if err != nil {
		return nil, true, err
	}
	out := make([]Arc, len(rows))
	for i, r := range rows {
		out[i] = Arc{From: r.From, To: r.To}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out, true, nil
}

// MeasuredFiles returns every filename this store has any data for,
// sorted.
func (c *CoverageData) MeasuredFiles(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.connect(ctx); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(c.fileMap))
	for path := range c.fileMap {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

// MeasuredContexts returns every distinct context name recorded,
// sorted.
func (c *CoverageData) MeasuredContexts(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	store, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	names, err := store.MeasuredContexts(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// FileTracer returns the plugin name responsible for filename, and
// whether the file is measured at all. An empty string with measured
// true means the file was recorded with the default (no) tracer.
func (c *CoverageData) FileTracer(ctx context.Context, filename string) (tracer string, measured bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	store, err := c.connect(ctx)
	if err != nil {
		return "", false, err
	}
	fileID, ok := c.fileMap[filename]
	if !ok {
		return "", false, nil
	}
	tracer, _, err = store.FileTracer(ctx, fileID)
	if err != nil {
		return "", false, err
	}
	return tracer, true, nil
}

// SetQueryContext restricts subsequent queries to the single named
// context. An unknown name restricts to no data at all, matching
// sqldata.py's set_query_context (an empty, non-nil id list).
func (c *CoverageData) SetQueryContext(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	store, err := c.connect(ctx)
	if err != nil {
		return err
	}
	id, ok, err := store.ContextID(ctx, name)
	if err != nil {
		return err
	}
	ids := []int64{}
	if ok {
		ids = []int64{id}
	}
	c.queryContextIDs = &ids
	return nil
}

// SetQueryContexts restricts subsequent queries to contexts matching
// any of the given regular expressions. A nil/empty patterns list
// clears the filter, returning to the unfiltered state.
func (c *CoverageData) SetQueryContexts(ctx context.Context, patterns []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(patterns) == 0 {
		c.queryContextIDs = nil
		return nil
	}
	store, err := c.connect(ctx)
	if err != nil {
		return err
	}
	ids, err := store.ContextIDsMatching(ctx, patterns)
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []int64{}
	}
	c.queryContextIDs = &ids
	return nil
}

// ContextsByLineno returns, for each executed line number (or each
// line belonging to an executed arc endpoint in arcs mode), the sorted
// set of context names that touched it.
func (c *CoverageData) ContextsByLineno(ctx context.Context, filename string) (map[int][]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	store, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	fileID, ok := c.fileMap[filename]
	if !ok {
		return nil, nil
	}

	var contextIDs []int64
	if c.queryContextIDs != nil {
		contextIDs = *c.queryContextIDs
	}

	out := map[int][]string{}
	add := func(line int, context string) {
		for _, existing := range out[line] {
			if existing == context {
				return
			}
		}
		out[line] = append(out[line], context)
	}

	if c.hasArcs {
		rows, err := store.ArcContextsForFile(ctx, fileID, contextIDs)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if r.From > 0 {
				add(r.From, r.Context)
			}
			if r.To > 0 {
				add(r.To, r.Context)
			}
		}
	} else {
		rows, err := store.LineContextsForFile(ctx, fileID, contextIDs)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			for _, line := range numbits.Decode(r.Numbits) {
				add(line, r.Context)
			}
		}
	}

	for line := range out {
		sort.Strings(out[line])
	}
	return out, nil
}
