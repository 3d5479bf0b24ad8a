package command

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistory_PushClearsUndone(t *testing.T) {
	h := NewHistory()
	h.PushExecuted(newStub("a"))
	_, ok := h.MoveToUndone()
	require.True(t, ok)
	require.True(t, h.CanRedo())

	h.PushExecuted(newStub("b"))
	require.False(t, h.CanRedo())
	require.Equal(t, 1, h.ExecutedLen())
}

func TestHistory_MoveRoundTrip(t *testing.T) {
	h := NewHistory()
	a, b := newStub("a"), newStub("b")
	h.PushExecuted(a)
	h.PushExecuted(b)

	moved, ok := h.MoveToUndone()
	require.True(t, ok)
	require.Same(t, Command(b), moved, "undo pops in reverse execution order")

	top, ok := h.PeekExecuted()
	require.True(t, ok)
	require.Same(t, Command(a), top)

	back, ok := h.MoveToExecuted()
	require.True(t, ok)
	require.Same(t, Command(b), back)
	require.Equal(t, 2, h.ExecutedLen())
	require.Zero(t, h.UndoneLen())
}

func TestHistory_MoveToExecutedKeepsUndoneChain(t *testing.T) {
	h := NewHistory()
	h.PushExecuted(newStub("a"))
	h.PushExecuted(newStub("b"))
	h.MoveToUndone()
	h.MoveToUndone()
	require.Equal(t, 2, h.UndoneLen())

	h.MoveToExecuted()
	require.Equal(t, 1, h.UndoneLen(), "redo must not clear the remaining chain")
}

func TestHistory_EmptyMoves(t *testing.T) {
	h := NewHistory()
	_, ok := h.MoveToUndone()
	require.False(t, ok)
	_, ok = h.MoveToExecuted()
	require.False(t, ok)
	_, ok = h.PeekExecuted()
	require.False(t, ok)
	_, ok = h.PeekUndone()
	require.False(t, ok)
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory()
	h.PushExecuted(newStub("a"))
	h.PushExecuted(newStub("b"))
	h.MoveToUndone()

	h.Clear()
	require.False(t, h.CanUndo())
	require.False(t, h.CanRedo())
}
