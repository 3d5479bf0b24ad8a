package snapshot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiffRecords_EqualSets(t *testing.T) {
	out, err := DiffRecords(testRecords("Alice"), testRecords("Alice"))
	require.NoError(t, err)

	for _, line := range strings.Split(out, "\n") {
		require.False(t, strings.HasPrefix(line, "+ "), "no additions expected: %s", line)
		require.False(t, strings.HasPrefix(line, "- "), "no removals expected: %s", line)
	}

	changed, err := Changed(testRecords("Alice"), testRecords("Alice"))
	require.NoError(t, err)
	require.False(t, changed)
}

func TestDiffRecords_PropertyChange(t *testing.T) {
	out, err := DiffRecords(testRecords("Alice"), testRecords("Bob"))
	require.NoError(t, err)

	require.Contains(t, out, "- ")
	require.Contains(t, out, "+ ")
	require.Contains(t, out, "Alice")
	require.Contains(t, out, "Bob")

	changed, err := Changed(testRecords("Alice"), testRecords("Bob"))
	require.NoError(t, err)
	require.True(t, changed)
}

func TestDiffSnapshots(t *testing.T) {
	before := &Snapshot{Name: "a", Records: testRecords("Alice")}
	after := &Snapshot{Name: "b", Records: testRecords("Bob")}

	out, err := DiffSnapshots(before, after)
	require.NoError(t, err)
	require.Contains(t, out, "Bob")
}
