// Package numbers implements the additive coverage statistics value
// type and its boundary-preserving percentage display.
package numbers

import (
	"fmt"
	"math"

	"github.com/gocoverage/covdata/pkg/covdata/covdataerrors"
)

// Numbers holds the basic statistics from an Analysis, and rolls up
// additively across files.
type Numbers struct {
	Precision        int
	NFiles           int
	NStatements      int
	NExcluded        int
	NMissing         int
	NBranches        int
	NPartialBranches int
	NMissingBranches int
}

// New validates precision and constructs a zero-valued Numbers.
func New(precision int) (Numbers, error) {
	if precision < 0 || precision >= 10 {
		return Numbers{}, covdataerrors.NewConfigError("precision must be between 0 and 9, got %d", precision)
	}
	return Numbers{Precision: precision}, nil
}

// NExecuted returns the number of executed statements.
func (n Numbers) NExecuted() int {
	return n.NStatements - n.NMissing
}

// NExecutedBranches returns the number of executed branches.
func (n Numbers) NExecutedBranches() int {
	return n.NBranches - n.NMissingBranches
}

// RatioCovered returns the numerator and denominator of the coverage ratio.
func (n Numbers) RatioCovered() (numerator, denominator int) {
	return n.NExecuted() + n.NExecutedBranches(), n.NStatements + n.NBranches
}

// PcCovered returns the percentage of statements+branches covered.
func (n Numbers) PcCovered() float64 {
	if n.NStatements <= 0 {
		return 100.0
	}
	numerator, denominator := n.RatioCovered()
	return (100.0 * float64(numerator)) / float64(denominator)
}

// near0 and near100 are the boundary thresholds display_covered uses
// to avoid ever rounding a non-zero value down to "0" or a non-100
// value up to "100".
func (n Numbers) near0() float64 {
	return 1.0 / math.Pow(10, float64(n.Precision))
}

func (n Numbers) near100() float64 {
	return 100.0 - n.near0()
}

// DisplayCovered renders pc at this Numbers' precision, preserving the
// 0% and 100% boundaries: a non-zero input never displays as "0", and
// a sub-100 input never displays as "100".
func (n Numbers) DisplayCovered(pc float64) string {
	near0, near100 := n.near0(), n.near100()
	switch {
	case pc > 0 && pc < near0:
		pc = near0
	case pc > near100 && pc < 100:
		pc = near100
	default:
		pc = roundHalfEven(pc, n.Precision)
	}
	return fmt.Sprintf("%.*f", n.Precision, pc)
}

// PcCoveredStr is DisplayCovered applied to PcCovered.
func (n Numbers) PcCoveredStr() string {
	return n.DisplayCovered(n.PcCovered())
}

// PcStrWidth returns the maximum rendered width of PcCoveredStr at
// this precision (e.g. "100" is 3 chars; "100.00" is 6).
func (n Numbers) PcStrWidth() int {
	width := 3
	if n.Precision > 0 {
		width += 1 + n.Precision
	}
	return width
}

// Add combines two Numbers field-wise. Precision is taken from the
// receiver.
func (n Numbers) Add(other Numbers) Numbers {
	return Numbers{
		Precision:        n.Precision,
		NFiles:           n.NFiles + other.NFiles,
		NStatements:      n.NStatements + other.NStatements,
		NExcluded:        n.NExcluded + other.NExcluded,
		NMissing:         n.NMissing + other.NMissing,
		NBranches:        n.NBranches + other.NBranches,
		NPartialBranches: n.NPartialBranches + other.NPartialBranches,
		NMissingBranches: n.NMissingBranches + other.NMissingBranches,
	}
}

// Sum reduces a slice of Numbers to their field-wise total. An empty
// slice returns the zero value, mirroring Python's `0 + Numbers(...)`
// reduction trick used to sum() a list of Numbers.
func Sum(all []Numbers) Numbers {
	var total Numbers
	for i, n := range all {
		if i == 0 {
			total = n
			continue
		}
		total = total.Add(n)
	}
	return total
}

// roundHalfEven rounds v to the given number of decimal places using
// round-half-to-even, matching Python's round() builtin that
// should_fail_under and display_covered rely on.
func roundHalfEven(v float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	scaled := v * scale
	floor := math.Floor(scaled)
	diff := scaled - floor
	switch {
	case diff < 0.5:
		scaled = floor
	case diff > 0.5:
		scaled = floor + 1
	default:
		if math.Mod(floor, 2) == 0 {
			scaled = floor
		} else {
			scaled = floor + 1
		}
	}
	return scaled / scale
}

// ShouldFailUnder determines if total should fail the fail_under
// threshold. fail_under must be in [0,100]; if it's exactly 100, total
// must be exactly 100 too, or failure is forced regardless of
// rounding.
func ShouldFailUnder(total, failUnder float64, precision int) (bool, error) {
	if failUnder < 0 || failUnder > 100.0 {
		return false, covdataerrors.NewConfigError("fail_under=%v is invalid. Must be between 0 and 100.", failUnder)
	}
	if failUnder == 100.0 && total != 100.0 {
		return true, nil
	}
	return roundHalfEven(total, precision) < failUnder, nil
}
