package covdata_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gocoverage/covdata/pkg/covdata"
)

// newData constructs a CoverageData rooted at a fresh temp directory,
// the shared fixture for every test in this package.
func newData(t *testing.T) (*covdata.CoverageData, context.Context) {
	t.Helper()
	basename := filepath.Join(t.TempDir(), ".coverage")
	c, err := covdata.New(covdata.WithBasename(basename))
	require.NoError(t, err)
	return c, context.Background()
}
