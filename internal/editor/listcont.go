package editor

import (
	"regexp"
	"strconv"
)

var (
	unorderedRe = regexp.MustCompile(`^(\s*)([-*+])( \[[ xX]\])? (.*)$`)
	orderedRe   = regexp.MustCompile(`^(\s*)(\d+)([.)]) (.*)$`)
)

// Continuation describes what pressing Enter at the end of a list line does.
type Continuation struct {
	// Next is the marker prefix for the new line.
	Next string
	// ClearCurrent is set when the item was empty: instead of continuing,
	// the marker is removed from the current line entirely.
	ClearCurrent bool
}

// ContinueList implements list auto-continuation for ordered and unordered
// items, including task checkboxes. It reports false for non-list lines.
func ContinueList(line string) (Continuation, bool) {
	if m := unorderedRe.FindStringSubmatch(line); m != nil {
		if m[4] == "" {
			return Continuation{ClearCurrent: true}, true
		}
		marker := m[1] + m[2] + " "
		if m[3] != "" {
			marker = m[1] + m[2] + " [ ] "
		}
		return Continuation{Next: marker}, true
	}
	if m := orderedRe.FindStringSubmatch(line); m != nil {
		if m[4] == "" {
			return Continuation{ClearCurrent: true}, true
		}
		num, err := strconv.Atoi(m[2])
		if err != nil {
			return Continuation{}, false
		}
		return Continuation{Next: m[1] + strconv.Itoa(num+1) + m[3] + " "}, true
	}
	return Continuation{}, false
}
