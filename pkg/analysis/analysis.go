// Package analysis turns a file's executed data, sourced from the
// coverage data engine, plus a source-statement model supplied by an
// external file reporter, into per-file statistics: missing lines,
// missing/unpredicted arcs, branch counts, and a Numbers aggregate.
package analysis

import (
	"sort"

	"github.com/gocoverage/covdata/pkg/numbers"
)

// Arc is an observed or possible transition from one source line to
// another. A negative endpoint in the From position denotes entry to
// the code object anchored at |From|; a negative To denotes exit from
// the code object anchored at |To|.
type Arc struct {
	From int
	To   int
}

// CoverageData is the subset of the data API's query surface the
// analysis layer consumes. Defined here, rather than imported from
// pkg/covdata, to keep this package free of a dependency on the
// persistence layer; any store implementing this interface can feed
// an Analysis.
type CoverageData interface {
	Lines(file string) ([]int, bool)
	Arcs(file string) ([]Arc, bool)
	HasArcs() bool
}

// FileReporter is the external collaborator that enumerates a
// source file's statements, exclusions, and possible arcs. Its
// implementation (parsing source files) is out of scope for this
// module; only the interface it must satisfy is defined here.
type FileReporter interface {
	Filename() string
	Statements() map[int]struct{}
	ExcludedLines() map[int]struct{}
	ArcPossibilities() []Arc
	ExitCounts() map[int]int
	NoBranchLines() map[int]struct{}
	TranslateLines(executed []int) map[int]struct{}
	TranslateArcs(executed []Arc) []Arc
}

// Analysis holds the results of analyzing one file against one
// CoverageData.
type Analysis struct {
	filename    string
	reporter    FileReporter
	data        CoverageData
	statements  map[int]struct{}
	excluded    map[int]struct{}
	executed    map[int]struct{}
	missing     map[int]struct{}
	arcPossible []Arc
	exitCounts  map[int]int
	noBranch    map[int]struct{}
	numbers     numbers.Numbers
}

// New computes an Analysis for reporter's file against data, at the
// given display precision.
func New(data CoverageData, reporter FileReporter, precision int) (*Analysis, error) {
	n, err := numbers.New(precision)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		filename:   reporter.Filename(),
		reporter:   reporter,
		data:       data,
		statements: reporter.Statements(),
		excluded:   reporter.ExcludedLines(),
	}

	executedLines, _ := data.Lines(a.filename)
	a.executed = reporter.TranslateLines(executedLines)

	a.missing = map[int]struct{}{}
	for line := range a.statements {
		if _, ok := a.executed[line]; !ok {
			a.missing[line] = struct{}{}
		}
	}

	var nBranches, nPartialBranches, nMissingBranches int
	if data.HasArcs() {
		a.arcPossible = append([]Arc(nil), reporter.ArcPossibilities()...)
		sortArcs(a.arcPossible)
		a.exitCounts = reporter.ExitCounts()
		a.noBranch = reporter.NoBranchLines()

		nBranches = a.totalBranches()
		mba := a.MissingBranchArcs()
		for line, dests := range mba {
			nMissingBranches += len(dests)
			if _, isMissing := a.missing[line]; !isMissing {
				nPartialBranches += len(dests)
			}
		}
	} else {
		a.exitCounts = map[int]int{}
		a.noBranch = map[int]struct{}{}
	}

	n.NFiles = 1
	n.NStatements = len(a.statements)
	n.NExcluded = len(a.excluded)
	n.NMissing = len(a.missing)
	n.NBranches = nBranches
	n.NPartialBranches = nPartialBranches
	n.NMissingBranches = nMissingBranches
	a.numbers = n

	return a, nil
}

// Numbers returns the Numbers aggregate computed for this file.
func (a *Analysis) Numbers() numbers.Numbers {
	return a.numbers
}

// HasArcs reports whether arcs were measured for this analysis.
func (a *Analysis) HasArcs() bool {
	return a.data.HasArcs()
}

// Missing returns the set of statement lines that were not executed.
func (a *Analysis) Missing() map[int]struct{} {
	return a.missing
}

// ArcPossibilities returns the sorted list of statically possible arcs.
func (a *Analysis) ArcPossibilities() []Arc {
	return a.arcPossible
}

// ArcsExecuted returns the sorted list of arcs actually executed.
func (a *Analysis) ArcsExecuted() []Arc {
	raw, _ := a.data.Arcs(a.filename)
	executed := a.reporter.TranslateArcs(raw)
	sortArcs(executed)
	return executed
}

// ArcsMissing returns the sorted list of possible arcs that were never
// executed, excluding arcs whose origin is a no-branch line or whose
// destination is an excluded line.
func (a *Analysis) ArcsMissing() []Arc {
	executed := arcSet(a.ArcsExecuted())
	var missing []Arc
	for _, p := range a.arcPossible {
		if executed[p] {
			continue
		}
		if _, noBranch := a.noBranch[p.From]; noBranch {
			continue
		}
		if _, excluded := a.excluded[p.To]; excluded {
			continue
		}
		missing = append(missing, p)
	}
	sortArcs(missing)
	return missing
}

// ArcsUnpredicted returns the sorted list of executed arcs that were
// not in the statically enumerated possible set. Self-loops and the
// (0,0) pair are excluded: generators can produce spurious enter->exit
// arcs that would otherwise show up here.
func (a *Analysis) ArcsUnpredicted() []Arc {
	possible := arcSet(a.arcPossible)
	var unpredicted []Arc
	for _, e := range a.ArcsExecuted() {
		if possible[e] {
			continue
		}
		if e.From == e.To {
			continue
		}
		if e.From <= 0 && e.To <= 0 {
			continue
		}
		unpredicted = append(unpredicted, e)
	}
	sortArcs(unpredicted)
	return unpredicted
}

// branchLines returns the line numbers that have more than one
// possible exit.
func (a *Analysis) branchLines() map[int]struct{} {
	lines := map[int]struct{}{}
	for line, count := range a.exitCounts {
		if count > 1 {
			lines[line] = struct{}{}
		}
	}
	return lines
}

func (a *Analysis) totalBranches() int {
	total := 0
	for _, count := range a.exitCounts {
		if count > 1 {
			total += count
		}
	}
	return total
}

// MissingBranchArcs groups ArcsMissing by origin line, restricted to
// branch lines.
func (a *Analysis) MissingBranchArcs() map[int][]int {
	branchLines := a.branchLines()
	mba := map[int][]int{}
	for _, arc := range a.ArcsMissing() {
		if _, ok := branchLines[arc.From]; ok {
			mba[arc.From] = append(mba[arc.From], arc.To)
		}
	}
	return mba
}

// ExecutedBranchArcs groups ArcsExecuted by origin line, restricted to
// branch lines.
func (a *Analysis) ExecutedBranchArcs() map[int][]int {
	branchLines := a.branchLines()
	eba := map[int][]int{}
	for _, arc := range a.ArcsExecuted() {
		if _, ok := branchLines[arc.From]; ok {
			eba[arc.From] = append(eba[arc.From], arc.To)
		}
	}
	return eba
}

// BranchStats returns, per branch line, the total number of exits and
// the number of those exits that were taken.
func (a *Analysis) BranchStats() map[int][2]int {
	missing := a.MissingBranchArcs()
	stats := map[int][2]int{}
	for line := range a.branchLines() {
		exits := a.exitCounts[line]
		stats[line] = [2]int{exits, exits - len(missing[line])}
	}
	return stats
}

// MissingFormatted renders the missing line numbers as a compact,
// comma-separated range string, e.g. "1-2, 5-11, 13-14". When branches
// is true, missing branch destinations are appended as "line->dest" (or
// "line->exit" for a negative destination), skipping any pair where
// either endpoint is already reported missing.
func (a *Analysis) MissingFormatted(branches bool) string {
	var arcs map[int][]int
	if branches && a.HasArcs() {
		arcs = a.MissingBranchArcs()
	}
	return FormatLines(a.statements, a.missing, arcs)
}

func arcSet(arcs []Arc) map[Arc]bool {
	set := make(map[Arc]bool, len(arcs))
	for _, a := range arcs {
		set[a] = true
	}
	return set
}

func sortArcs(arcs []Arc) {
	sort.Slice(arcs, func(i, j int) bool {
		if arcs[i].From != arcs[j].From {
			return arcs[i].From < arcs[j].From
		}
		return arcs[i].To < arcs[j].To
	})
}
