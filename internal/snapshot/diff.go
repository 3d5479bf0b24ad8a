package snapshot

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/loomkit/loom/internal/core/serialize"
)

// DiffRecords renders a line diff between two record sets. Both sides
// are encoded canonically first, so equal sets diff to nothing and
// unchanged records produce unchanged lines. Removed lines are prefixed
// with "-", added lines with "+", context with two spaces.
func DiffRecords(before, after []serialize.Record) (string, error) {
	left, err := serialize.EncodeRecords(before)
	if err != nil {
		return "", fmt.Errorf("encoding left side: %w", err)
	}
	right, err := serialize.EncodeRecords(after)
	if err != nil {
		return "", fmt.Errorf("encoding right side: %w", err)
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(left), string(right))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			out.WriteString(prefix)
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	return out.String(), nil
}

// DiffSnapshots diffs the record sets of two snapshots.
func DiffSnapshots(before, after *Snapshot) (string, error) {
	return DiffRecords(before.Records, after.Records)
}

// Changed reports whether two record sets differ at all.
func Changed(before, after []serialize.Record) (bool, error) {
	left, err := serialize.EncodeRecords(before)
	if err != nil {
		return false, err
	}
	right, err := serialize.EncodeRecords(after)
	if err != nil {
		return false, err
	}
	return string(left) != string(right), nil
}
