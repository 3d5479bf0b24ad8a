// Package command provides encapsulated, undoable mutations and the
// manager that runs them.
//
// A Command captures everything needed to execute and reverse a mutation,
// either at construction or at first execution; once executed it is
// logically immutable. The Manager owns the executed/undone stacks and an
// explicit state machine (Idle/Executing/Undoing/Redoing/Initializing)
// that rejects nested execute/undo/redo calls instead of corrupting
// history.
package command

import (
	"time"

	"github.com/google/uuid"

	"github.com/loomkit/loom/internal/core/ident"
)

// Command represents an undoable mutation.
type Command interface {
	// ID returns the unique command identifier for tracing/correlation.
	ID() string
	// Name returns a short human-readable label for logs and spans.
	Name() string
	// TriggerID returns the identifier of the component that triggered
	// the command, or "" when there is none. The manager resolves it
	// through the registry before undo/redo to bring it into view.
	TriggerID() ident.ID
	// Execute applies the mutation. A failing Execute must leave the
	// target state unchanged.
	Execute() error
	// Undo reverses a previously executed mutation.
	Undo() error
}

// Redoer is implemented by commands whose redo differs from re-executing.
// The manager calls Execute again for commands that do not implement it.
type Redoer interface {
	Redo() error
}

// Base provides the common identity fields for commands.
// Concrete command types embed it and implement Execute/Undo.
type Base struct {
	id        string
	name      string
	trigger   ident.ID
	createdAt time.Time
}

// NewBase creates a Base with a generated UUID and current timestamp.
func NewBase(name string) Base {
	return Base{
		id:        uuid.New().String(),
		name:      name,
		createdAt: time.Now(),
	}
}

// ID returns the unique command identifier.
func (b *Base) ID() string {
	return b.id
}

// Name returns the command label.
func (b *Base) Name() string {
	return b.name
}

// TriggerID returns the stored trigger identifier.
func (b *Base) TriggerID() ident.ID {
	return b.trigger
}

// SetTrigger stores the identifier of the component that triggered this
// command.
func (b *Base) SetTrigger(id ident.ID) {
	b.trigger = id
}

// CreatedAt returns when the command was constructed.
func (b *Base) CreatedAt() time.Time {
	return b.createdAt
}
