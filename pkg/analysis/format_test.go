package analysis

import "testing"

func ints(nums ...int) map[int]struct{} {
	s := make(map[int]struct{}, len(nums))
	for _, n := range nums {
		s[n] = struct{}{}
	}
	return s
}

func TestFormatLinesCoalescesRanges(t *testing.T) {
	statements := ints(1, 2, 3, 4, 5, 10, 11, 12, 13, 14)
	missing := ints(1, 2, 5, 10, 11, 13, 14)

	got := FormatLines(statements, missing, nil)
	want := "1-2, 5-11, 13-14"
	if got != want {
		t.Fatalf("FormatLines() = %q, want %q", got, want)
	}
}

func TestFormatLinesSingleton(t *testing.T) {
	statements := ints(1, 2, 3)
	missing := ints(2)

	got := FormatLines(statements, missing, nil)
	if got != "2" {
		t.Fatalf("FormatLines() = %q, want %q", got, "2")
	}
}

func TestFormatLinesWithBranchArcs(t *testing.T) {
	statements := ints(1, 2, 3)
	missing := ints(2)
	arcs := map[int][]int{
		1: {3, -1},
	}

	got := FormatLines(statements, missing, arcs)
	want := "1->3, 1->exit, 2"
	if got != want {
		t.Fatalf("FormatLines() = %q, want %q", got, want)
	}
}

func TestFormatLinesSkipsArcWhenEndpointAlreadyMissing(t *testing.T) {
	statements := ints(1, 2, 3)
	missing := ints(3)
	arcs := map[int][]int{
		1: {3},
	}

	got := FormatLines(statements, missing, arcs)
	if got != "3" {
		t.Fatalf("FormatLines() = %q, want %q", got, "3")
	}
}

func TestFormatLinesEmpty(t *testing.T) {
	statements := ints(1, 2, 3)
	missing := ints()

	got := FormatLines(statements, missing, nil)
	if got != "" {
		t.Fatalf("FormatLines() = %q, want empty", got)
	}
}
