package apply

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// UnifiedDiff renders a unified diff between old and new with contextLines
// of surrounding context, the way the Executor reports an UpdateTemplate
// before committing it when verbosity is at least 1. Line-mode diffing
// comes from diffmatchpatch; the unified-diff assembly on top of it is
// Dotter's own, since diffmatchpatch only emits an inline run list, not
// file-style hunks.
func UnifiedDiff(oldName, newName string, oldBytes, newBytes []byte, contextLines int) string {
	if contextLines <= 0 {
		contextLines = 3
	}

	dmp := diffmatchpatch.New()
	oldText, newText := string(oldBytes), string(newBytes)

	wrapped1, wrapped2, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(wrapped1, wrapped2, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	type entry struct {
		op   diffmatchpatch.Operation
		text string
	}
	var entries []entry
	for _, d := range diffs {
		for _, line := range splitKeepEmpty(d.Text) {
			entries = append(entries, entry{op: d.Type, text: line})
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", oldName)
	fmt.Fprintf(&b, "+++ %s\n", newName)

	i := 0
	for i < len(entries) {
		if entries[i].op == diffmatchpatch.DiffEqual {
			i++
			continue
		}
		start := i
		for i < len(entries) && entries[i].op != diffmatchpatch.DiffEqual {
			i++
		}
		hunkStart := max(0, start-contextLines)
		hunkEnd := min(len(entries), i+contextLines)

		b.WriteString("@@\n")
		for j := hunkStart; j < hunkEnd; j++ {
			switch entries[j].op {
			case diffmatchpatch.DiffDelete:
				fmt.Fprintf(&b, "-%s\n", entries[j].text)
			case diffmatchpatch.DiffInsert:
				fmt.Fprintf(&b, "+%s\n", entries[j].text)
			default:
				fmt.Fprintf(&b, " %s\n", entries[j].text)
			}
		}
	}

	return b.String()
}

func splitKeepEmpty(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
