package covdata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gocoverage/covdata/pkg/covdata"
)

func TestPathAliasesFirstMatchWins(t *testing.T) {
	aliases := covdata.NewPathAliases()
	aliases.Add("/ci/build/src", "/home/dev/src")
	aliases.Add("/ci/build", "/home/dev/other")

	assert.Equal(t, "/home/dev/src/pkg/mod.py", aliases.Map("/ci/build/src/pkg/mod.py"))
}

func TestPathAliasesUnmatchedPathIsUnchanged(t *testing.T) {
	aliases := covdata.NewPathAliases()
	aliases.Add("/ci/build", "/home/dev")

	assert.Equal(t, "/other/tree/mod.py", aliases.Map("/other/tree/mod.py"))
}

func TestPathAliasesRequiresSegmentBoundary(t *testing.T) {
	aliases := covdata.NewPathAliases()
	aliases.Add("/ci/build", "/home/dev")

	// "/ci/buildtools/x.py" must not match the "/ci/build" prefix rule:
	// "buildtools" is not a continuation of the "build" segment.
	assert.Equal(t, "/ci/buildtools/x.py", aliases.Map("/ci/buildtools/x.py"))
}

func TestPathAliasesWildcardSegment(t *testing.T) {
	aliases := covdata.NewPathAliases()
	aliases.Add("/home/*/project", "/srv/project")

	assert.Equal(t, "/srv/project/pkg/mod.py", aliases.Map("/home/alice/project/pkg/mod.py"))
	assert.Equal(t, "/srv/project/pkg/mod.py", aliases.Map("/home/bob/project/pkg/mod.py"))
}
