package command

import (
	"errors"
	"fmt"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/core/observable"
	"github.com/loomkit/loom/internal/core/registry"
)

// ErrNotPropertyOwner is returned when a property command targets a
// component that does not expose properties.
var ErrNotPropertyOwner = errors.New("target component owns no properties")

// propertyAccessor is the slice of the observable API the command needs.
type propertyAccessor interface {
	Property(name string) (*observable.Property, error)
}

// PropertyCommand sets a single observable property to a new value.
// The previous value is captured at first execution, after which the
// command is logically immutable; Undo restores it and redo re-applies
// the new value.
type PropertyCommand struct {
	Base
	reg      *registry.Registry
	target   ident.ID
	property string
	newValue any
	oldValue any
	captured bool
}

// NewPropertyCommand creates a command setting target's named property to
// value. The target doubles as the navigation trigger.
func NewPropertyCommand(reg *registry.Registry, target ident.ID, property string, value any) *PropertyCommand {
	cmd := &PropertyCommand{
		Base:     NewBase(fmt.Sprintf("set %s.%s", target, property)),
		reg:      reg,
		target:   target,
		property: property,
		newValue: value,
	}
	cmd.SetTrigger(target)
	return cmd
}

// Execute captures the old value on first run and applies the new one.
func (c *PropertyCommand) Execute() error {
	prop, err := c.resolve()
	if err != nil {
		return err
	}
	if !c.captured {
		c.oldValue = prop.Get()
		c.captured = true
	}
	return prop.Set(c.newValue)
}

// Undo restores the captured previous value.
func (c *PropertyCommand) Undo() error {
	if !c.captured {
		return fmt.Errorf("undo before execute: %s", c.Name())
	}
	prop, err := c.resolve()
	if err != nil {
		return err
	}
	return prop.Set(c.oldValue)
}

func (c *PropertyCommand) resolve() (*observable.Property, error) {
	component, err := c.reg.Get(c.target)
	if err != nil {
		return nil, err
	}
	accessor, ok := component.(propertyAccessor)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotPropertyOwner, c.target)
	}
	return accessor.Property(c.property)
}
