package command

import (
	"fmt"

	"github.com/loomkit/loom/internal/log"
)

// Composite groups commands into one atomic undoable unit.
// Execute runs the children in order; if one fails, the already-executed
// prefix is rolled back in reverse so the group either fully applies or
// not at all. Undo reverses the children back-to-front with the mirrored
// guarantee.
type Composite struct {
	Base
	cmds []Command
}

// NewComposite creates a composite over the given commands.
// The first child's trigger becomes the composite's trigger unless
// overridden with SetTrigger.
func NewComposite(name string, cmds ...Command) *Composite {
	c := &Composite{
		Base: NewBase(name),
		cmds: cmds,
	}
	for _, cmd := range cmds {
		if trigger := cmd.TriggerID(); trigger != "" {
			c.SetTrigger(trigger)
			break
		}
	}
	return c
}

// Len returns the number of grouped commands.
func (c *Composite) Len() int {
	return len(c.cmds)
}

// Execute runs every child in order, rolling back the executed prefix on
// the first failure.
func (c *Composite) Execute() error {
	for i, cmd := range c.cmds {
		if err := cmd.Execute(); err != nil {
			c.rollback(i - 1)
			return fmt.Errorf("composite %s: child %s: %w", c.Name(), cmd.Name(), err)
		}
	}
	return nil
}

// Undo reverses every child back-to-front. On failure the already-undone
// suffix is re-executed so the graph never lands between states.
func (c *Composite) Undo() error {
	for i := len(c.cmds) - 1; i >= 0; i-- {
		if err := c.cmds[i].Undo(); err != nil {
			c.rollforward(i + 1)
			return fmt.Errorf("composite %s: child %s: %w", c.Name(), c.cmds[i].Name(), err)
		}
	}
	return nil
}

// rollback undoes children [0..last] in reverse after a failed Execute.
func (c *Composite) rollback(last int) {
	for i := last; i >= 0; i-- {
		if err := c.cmds[i].Undo(); err != nil {
			// Nothing sensible left to do but record it.
			log.ErrorErr(log.CatCommand, "composite rollback failed", err,
				"composite", c.Name(), "child", c.cmds[i].Name())
		}
	}
}

// rollforward re-executes children [first..end] after a failed Undo.
func (c *Composite) rollforward(first int) {
	for i := first; i < len(c.cmds); i++ {
		var err error
		if redoer, ok := c.cmds[i].(Redoer); ok {
			err = redoer.Redo()
		} else {
			err = c.cmds[i].Execute()
		}
		if err != nil {
			log.ErrorErr(log.CatCommand, "composite roll-forward failed", err,
				"composite", c.Name(), "child", c.cmds[i].Name())
		}
	}
}
