package analysis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type lineRange struct {
	start, end int
}

// lineRanges coalesces lines (a subset of statements) into runs of
// consecutive statements. "Consecutive" means adjacent entries in the
// sorted statements list, not adjacent integers: a gap in statement
// numbers (e.g. a multi-line string) does not break a run; a run ends
// only at a statement that is not in lines.
func lineRanges(statements, lines map[int]struct{}) []lineRange {
	sortedStatements := sortedKeys(statements)
	sortedLines := sortedKeys(lines)

	var ranges []lineRange
	lidx := 0
	start, end := 0, 0
	haveStart := false
	for _, stmt := range sortedStatements {
		if lidx >= len(sortedLines) {
			break
		}
		if stmt == sortedLines[lidx] {
			lidx++
			if !haveStart {
				start = stmt
				haveStart = true
			}
			end = stmt
		} else if haveStart {
			ranges = append(ranges, lineRange{start, end})
			haveStart = false
		}
	}
	if haveStart {
		ranges = append(ranges, lineRange{start, end})
	}
	return ranges
}

func nicePair(r lineRange) string {
	if r.start == r.end {
		return strconv.Itoa(r.start)
	}
	return fmt.Sprintf("%d-%d", r.start, r.end)
}

// FormatLines renders a compact "1-2, 5-11, 13-14" style string for
// the given missing lines (a subset of statements). If arcs is
// non-nil, it maps a branch line to its missed destination lines;
// entries are appended as "line->dest" (or "line->exit" for a negative
// destination) unless either endpoint is already in lines.
func FormatLines(statements, lines map[int]struct{}, arcs map[int][]int) string {
	type item struct {
		line int
		text string
	}
	var items []item
	for _, r := range lineRanges(statements, lines) {
		items = append(items, item{r.start, nicePair(r)})
	}

	if arcs != nil {
		origins := sortedKeys(arcsKeys(arcs))
		for _, line := range origins {
			dests := append([]int(nil), arcs[line]...)
			sort.Ints(dests)
			for _, dest := range dests {
				if _, lineMissing := lines[line]; lineMissing {
					continue
				}
				if _, destMissing := lines[dest]; destMissing {
					continue
				}
				destText := strconv.Itoa(dest)
				if dest < 0 {
					destText = "exit"
				}
				items = append(items, item{line, fmt.Sprintf("%d->%s", line, destText)})
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].line != items[j].line {
			return items[i].line < items[j].line
		}
		return items[i].text < items[j].text
	})

	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.text
	}
	return strings.Join(texts, ", ")
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func arcsKeys(m map[int][]int) map[int]struct{} {
	out := make(map[int]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
