package trim

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// SplitLines splits text on "\n". A trailing newline yields a final empty
// line, and empty text is a single empty line.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// ChangedLines returns, in ascending order, the indices of lines in current
// that are not covered by any matching block between the lines of old and
// current.
//
// Matching blocks come from a Ratcliff/Obershelp sequence matcher with
// automatic junk detection, so insertions and deletions that shift line
// numbers do not mark the shifted lines as changed. A changed line whose
// content happens to equal some unchanged line elsewhere still counts as
// changed.
func ChangedLines(old, current string) []int {
	return changedLines(SplitLines(old), SplitLines(current))
}

func changedLines(old, current []string) []int {
	covered := make([]bool, len(current))
	m := difflib.NewMatcher(old, current)
	for _, block := range m.GetMatchingBlocks() {
		for k := block.B; k < block.B+block.Size; k++ {
			covered[k] = true
		}
	}

	var changed []int
	for i, ok := range covered {
		if !ok {
			changed = append(changed, i)
		}
	}
	return changed
}

// TrimRight removes trailing spaces and tabs.
func TrimRight(line string) string {
	return strings.TrimRight(line, " \t")
}
