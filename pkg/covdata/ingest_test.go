package covdata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocoverage/covdata/pkg/covdata"
)

func TestAddLinesUnionsAcrossCalls(t *testing.T) {
	c, ctx := newData(t)

	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1, 2, 5}}))
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {5, 6}}))

	lines, ok, err := c.Lines(ctx, "a.go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 5, 6}, lines)
}

func TestAddLinesIsIdempotent(t *testing.T) {
	c, ctx := newData(t)

	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1, 2, 3}}))
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1, 2, 3}}))

	lines, _, err := c.Lines(ctx, "a.go")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, lines)
}

func TestAddArcsAfterLinesIsRejected(t *testing.T) {
	c, ctx := newData(t)

	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1}}))
	err := c.AddArcs(ctx, map[string][]covdata.Arc{"a.go": {{From: 1, To: 2}}})
	assert.ErrorContains(t, err, "Can't add arcs to existing line data")
}

func TestAddLinesAfterArcsIsRejected(t *testing.T) {
	c, ctx := newData(t)

	require.NoError(t, c.AddArcs(ctx, map[string][]covdata.Arc{"a.go": {{From: -1, To: 1}}}))
	err := c.AddLines(ctx, map[string][]int{"a.go": {1}})
	assert.ErrorContains(t, err, "Can't add lines to existing arc data")
}

func TestAddArcsIsIdempotent(t *testing.T) {
	c, ctx := newData(t)

	arcs := map[string][]covdata.Arc{"a.go": {{From: -1, To: 1}, {From: 1, To: 2}, {From: 2, To: -1}}}
	require.NoError(t, c.AddArcs(ctx, arcs))
	require.NoError(t, c.AddArcs(ctx, arcs))

	got, ok, err := c.Arcs(ctx, "a.go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.ElementsMatch(t, arcs["a.go"], got)
}

func TestContextIsolation(t *testing.T) {
	c, ctx := newData(t)

	c.SetContext("run1")
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1, 2}}))
	c.SetContext("run2")
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {3, 4}}))

	require.NoError(t, c.SetQueryContext(ctx, "run1"))
	lines, _, err := c.Lines(ctx, "a.go")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, lines)

	require.NoError(t, c.SetQueryContexts(ctx, nil))
	lines, _, err = c.Lines(ctx, "a.go")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, lines)
}

func TestAddFileTracersConflict(t *testing.T) {
	c, ctx := newData(t)

	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1}}))
	require.NoError(t, c.AddFileTracers(ctx, map[string]string{"a.go": "plugin.A"}))

	err := c.AddFileTracers(ctx, map[string]string{"a.go": "plugin.B"})
	assert.ErrorContains(t, err, "Conflicting file tracer name")

	tracer, measured, err := c.FileTracer(ctx, "a.go")
	require.NoError(t, err)
	assert.True(t, measured)
	assert.Equal(t, "plugin.A", tracer)
}

func TestAddFileTracersSameNameIsNotAConflict(t *testing.T) {
	c, ctx := newData(t)

	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1}}))
	require.NoError(t, c.AddFileTracers(ctx, map[string]string{"a.go": "plugin.A"}))
	require.NoError(t, c.AddFileTracers(ctx, map[string]string{"a.go": "plugin.A"}))
}

func TestTouchFileRecordsAnEmptyFile(t *testing.T) {
	c, ctx := newData(t)

	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1}}))
	require.NoError(t, c.TouchFile(ctx, "b.go", ""))

	files, err := c.MeasuredFiles(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, files)

	lines, ok, err := c.Lines(ctx, "b.go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, lines)
}

func TestTouchFileWithoutModeChosenFails(t *testing.T) {
	c, ctx := newData(t)
	err := c.TouchFile(ctx, "a.go", "")
	assert.ErrorContains(t, err, "Can't touch files in an empty CoverageData")
}
