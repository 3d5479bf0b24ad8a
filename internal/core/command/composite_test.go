package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposite_ExecutesInOrder(t *testing.T) {
	m, _ := newManager(t)
	a, b, c := newStub("a"), newStub("b"), newStub("c")

	group := NewComposite("group", a, b, c)
	require.Equal(t, 3, group.Len())
	require.NoError(t, m.Execute(group))
	require.Equal(t, 1, a.executes)
	require.Equal(t, 1, b.executes)
	require.Equal(t, 1, c.executes)
	require.Equal(t, 1, m.History().ExecutedLen(), "group occupies one history slot")
}

func TestComposite_RollsBackOnChildFailure(t *testing.T) {
	m, _ := newManager(t)
	a, b, c := newStub("a"), newStub("b"), newStub("c")
	b.executeErr = errors.New("boom")

	err := m.Execute(NewComposite("group", a, b, c))
	require.ErrorIs(t, err, ErrExecuteFailed)
	require.Equal(t, 1, a.undos, "executed prefix is rolled back")
	require.Zero(t, c.executes, "children after the failure never run")
	require.False(t, m.CanUndo())
}

func TestComposite_UndoReversesOrder(t *testing.T) {
	m, _ := newManager(t)

	var order []string
	mk := func(name string) *orderedCommand {
		return &orderedCommand{Base: NewBase(name), order: &order}
	}
	group := NewComposite("group", mk("a"), mk("b"))

	require.NoError(t, m.Execute(group))
	require.NoError(t, m.Undo())
	require.Equal(t, []string{"exec:a", "exec:b", "undo:b", "undo:a"}, order)
}

func TestComposite_UndoFailureRollsForward(t *testing.T) {
	m, _ := newManager(t)
	a, b, c := newStub("a"), newStub("b"), newStub("c")
	a.undoErr = errors.New("stuck")

	require.NoError(t, m.Execute(NewComposite("group", a, b, c)))
	err := m.Undo()
	require.ErrorIs(t, err, ErrUndoFailed)
	require.Equal(t, 2, b.executes, "undone suffix re-executed")
	require.Equal(t, 2, c.executes)
	require.True(t, m.CanUndo(), "group stays on the executed stack")
}

func TestComposite_TriggerFromFirstChild(t *testing.T) {
	first := newStub("first")
	first.SetTrigger("node::aaaa1111::-::-")
	group := NewComposite("group", newStub("no-trigger"), first)
	require.Equal(t, first.TriggerID(), group.TriggerID())
}

type orderedCommand struct {
	Base
	order *[]string
}

func (c *orderedCommand) Execute() error {
	*c.order = append(*c.order, "exec:"+c.Name())
	return nil
}

func (c *orderedCommand) Undo() error {
	*c.order = append(*c.order, "undo:"+c.Name())
	return nil
}
