package covdata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocoverage/covdata/pkg/covdata"
)

func TestMeasuredFilesAndContexts(t *testing.T) {
	c, ctx := newData(t)

	c.SetContext("unit")
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1}, "b.go": {2}}))
	c.SetContext("integration")
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {3}}))

	files, err := c.MeasuredFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b.go"}, files)

	contexts, err := c.MeasuredContexts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"integration", "unit"}, contexts)
}

func TestSetQueryContextUnknownNameMatchesNothing(t *testing.T) {
	c, ctx := newData(t)

	c.SetContext("unit")
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1, 2}}))

	require.NoError(t, c.SetQueryContext(ctx, "does-not-exist"))
	lines, ok, err := c.Lines(ctx, "a.go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, lines)
}

func TestSetQueryContextsMatchesByRegex(t *testing.T) {
	c, ctx := newData(t)

	c.SetContext("unit.TestA")
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1}}))
	c.SetContext("unit.TestB")
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {2}}))
	c.SetContext("integration.TestC")
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {3}}))

	require.NoError(t, c.SetQueryContexts(ctx, []string{"^unit\\."}))
	lines, _, err := c.Lines(ctx, "a.go")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, lines)
}

func TestContextsByLinenoLinesMode(t *testing.T) {
	c, ctx := newData(t)

	c.SetContext("run1")
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1, 2}}))
	c.SetContext("run2")
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {2, 3}}))

	byLine, err := c.ContextsByLineno(ctx, "a.go")
	require.NoError(t, err)
	assert.Equal(t, map[int][]string{
		1: {"run1"},
		2: {"run1", "run2"},
		3: {"run2"},
	}, byLine)
}

func TestContextsByLinenoArcsMode(t *testing.T) {
	c, ctx := newData(t)

	c.SetContext("run1")
	require.NoError(t, c.AddArcs(ctx, map[string][]covdata.Arc{"a.go": {{From: -1, To: 1}, {From: 1, To: -1}}}))

	byLine, err := c.ContextsByLineno(ctx, "a.go")
	require.NoError(t, err)
	assert.Equal(t, map[int][]string{1: {"run1"}}, byLine)
}

func TestUnknownFileQueriesReturnNotOK(t *testing.T) {
	c, ctx := newData(t)
	require.NoError(t, c.AddLines(ctx, map[string][]int{"a.go": {1}}))

	_, ok, err := c.Lines(ctx, "missing.go")
	require.NoError(t, err)
	assert.False(t, ok)
}
