package covdata

import (
	"regexp"
	"strings"
)

// alias is one (pattern -> result) rewrite rule, along with the
// compiled matcher derived from pattern. The pattern may contain '*'
// as a single-path-segment wildcard (no '/'), mirroring shell glob
// semantics; matching is anchored at the start of the path and
// requires either an exact match or a match up to a path separator.
type alias struct {
	pattern string
	result  string
	match   *regexp.Regexp
}

// PathAliases holds an ordered set of path rewrite rules, applied
// during merge to re-home paths recorded on a different machine onto
// this machine's source layout. Rules are tried in the order they were
// added; the first match wins.
type PathAliases struct {
	aliases []alias
}

// NewPathAliases returns an empty set of aliases.
func NewPathAliases() *PathAliases {
	return &PathAliases{}
}

// Add appends a pattern -> result rewrite rule.
func (p *PathAliases) Add(pattern, result string) {
	pattern = strings.TrimRight(pattern, `/\`)
	result = strings.TrimRight(result, `/\`)

	p.aliases = append(p.aliases, alias{
		pattern: pattern,
		result:  result,
		match:   compileGlobPrefix(pattern),
	})
}

// Map returns the result of applying the first matching rule to path,
// or path unchanged if no rule matches.
func (p *PathAliases) Map(path string) string {
	for _, a := range p.aliases {
		loc := a.match.FindStringIndex(path)
		if loc == nil || loc[0] != 0 {
			continue
		}
		rest := path[loc[1]:]
		if rest != "" && rest[0] != '/' && rest[0] != '\\' {
			continue
		}
		return a.result + rest
	}
	return path
}

// compileGlobPrefix turns a pattern containing '*' wildcards (each
// matching a single path segment, i.e. no '/') into a regexp that
// matches a prefix of a path string.
func compileGlobPrefix(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, part := range strings.Split(pattern, "*") {
		b.WriteString(regexp.QuoteMeta(part))
		b.WriteString(`[^/\\]*`)
	}
	expr := strings.TrimSuffix(b.String(), `[^/\\]*`)
	return regexp.MustCompile(expr)
}
