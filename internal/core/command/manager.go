package command

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/loomkit/loom/internal/core/ident"
	"github.com/loomkit/loom/internal/core/registry"
	"github.com/loomkit/loom/internal/log"
	"github.com/loomkit/loom/internal/tracing"
)

// Manager errors.
var (
	ErrReentrantMutation = errors.New("nested command operation rejected")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrNothingToRedo     = errors.New("nothing to redo")
	ErrExecuteFailed     = errors.New("command execute failed")
	ErrUndoFailed        = errors.New("command undo failed")
	ErrRedoFailed        = errors.New("command redo failed")
)

// State is the manager's execution state.
type State int

const (
	StateIdle State = iota
	StateExecuting
	StateUndoing
	StateRedoing
	StateInitializing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExecuting:
		return "executing"
	case StateUndoing:
		return "undoing"
	case StateRedoing:
		return "redoing"
	case StateInitializing:
		return "initializing"
	default:
		return "unknown"
	}
}

// Hook runs before a command operation.
type Hook func(cmd Command)

// ResultHook runs after a command operation with its outcome.
type ResultHook func(cmd Command, err error)

// NavigationFunc brings the component behind an identifier into view.
// It is the manager's only coupling to any presentation layer.
type NavigationFunc func(id ident.ID)

// Manager executes commands against a registry and maintains undo/redo
// history. Like the registry it is single-threaded: the state machine,
// not locking, protects history from reentrant mutation.
type Manager struct {
	reg     *registry.Registry
	history *History
	state   State

	navigate NavigationFunc
	tracer   trace.Tracer

	beforeExecute []Hook
	afterExecute  []ResultHook
	beforeUndo    []Hook
	afterUndo     []ResultHook
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTracer attaches an OpenTelemetry tracer; spans wrap every
// execute/undo/redo.
func WithTracer(tracer trace.Tracer) ManagerOption {
	return func(m *Manager) { m.tracer = tracer }
}

// WithNavigation sets the bring-into-view callback.
func WithNavigation(fn NavigationFunc) ManagerOption {
	return func(m *Manager) { m.navigate = fn }
}

// NewManager creates an idle manager bound to a registry.
func NewManager(reg *registry.Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		reg:     reg,
		history: NewHistory(),
		state:   StateIdle,
		tracer:  noop.NewTracerProvider().Tracer("loom"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetNavigationCallback replaces the bring-into-view callback.
func (m *Manager) SetNavigationCallback(fn NavigationFunc) {
	m.navigate = fn
}

// State returns the current execution state.
func (m *Manager) State() State {
	return m.state
}

// History exposes the underlying stacks, mainly for inspection in tests.
func (m *Manager) History() *History {
	return m.history
}

// CanUndo reports whether an undo is available.
func (m *Manager) CanUndo() bool {
	return m.history.CanUndo()
}

// CanRedo reports whether a redo is available.
func (m *Manager) CanRedo() bool {
	return m.history.CanRedo()
}

// OnBeforeExecute registers a hook run before each tracked execute.
func (m *Manager) OnBeforeExecute(h Hook) {
	m.beforeExecute = append(m.beforeExecute, h)
}

// OnAfterExecute registers a hook run after each tracked execute.
func (m *Manager) OnAfterExecute(h ResultHook) {
	m.afterExecute = append(m.afterExecute, h)
}

// OnBeforeUndo registers a hook run before each undo and redo.
func (m *Manager) OnBeforeUndo(h Hook) {
	m.beforeUndo = append(m.beforeUndo, h)
}

// OnAfterUndo registers a hook run after each undo and redo.
func (m *Manager) OnAfterUndo(h ResultHook) {
	m.afterUndo = append(m.afterUndo, h)
}

// BeginInitialization suspends history tracking: commands executed until
// EndInitialization run but are not recorded. Only legal from Idle.
func (m *Manager) BeginInitialization() error {
	if m.state != StateIdle {
		return fmt.Errorf("%w: cannot initialize while %s", ErrReentrantMutation, m.state)
	}
	m.state = StateInitializing
	return nil
}

// EndInitialization resumes normal history tracking.
func (m *Manager) EndInitialization() {
	if m.state == StateInitializing {
		m.state = StateIdle
	}
}

// Execute runs a command. In Initializing state the command runs without
// touching history. Otherwise the command executes under the Executing
// state; on success it is pushed onto the executed stack and the undone
// stack is cleared. A failing command leaves history unchanged. A call
// issued from inside another command's Execute/Undo is rejected with
// ErrReentrantMutation.
func (m *Manager) Execute(cmd Command) error {
	if m.state == StateInitializing {
		return cmd.Execute()
	}
	if m.state != StateIdle {
		return fmt.Errorf("%w: execute during %s", ErrReentrantMutation, m.state)
	}

	m.state = StateExecuting
	defer func() { m.state = StateIdle }()

	_, span := m.startSpan(tracing.SpanCommandExecute, cmd)
	defer span.End()

	for _, h := range m.beforeExecute {
		h(cmd)
	}

	err := cmd.Execute()
	if err == nil {
		m.history.PushExecuted(cmd)
	} else {
		err = fmt.Errorf("%w: %s: %w", ErrExecuteFailed, cmd.Name(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatCommand, "execute failed", err, "command", cmd.Name())
	}

	for _, h := range m.afterExecute {
		h(cmd, err)
	}
	return err
}

// Undo reverses the most recently executed command. The command's trigger
// identifier is resolved through the registry and handed to the
// navigation callback before undoing. A failing Undo leaves the command
// on the executed stack and is surfaced as an error.
func (m *Manager) Undo() error {
	if m.state != StateIdle {
		return fmt.Errorf("%w: undo during %s", ErrReentrantMutation, m.state)
	}
	cmd, ok := m.history.PeekExecuted()
	if !ok {
		return ErrNothingToUndo
	}

	m.bringIntoView(cmd)

	m.state = StateUndoing
	defer func() { m.state = StateIdle }()

	_, span := m.startSpan(tracing.SpanCommandUndo, cmd)
	defer span.End()

	for _, h := range m.beforeUndo {
		h(cmd)
	}

	err := cmd.Undo()
	if err == nil {
		m.history.MoveToUndone()
	} else {
		err = fmt.Errorf("%w: %s: %w", ErrUndoFailed, cmd.Name(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatCommand, "undo failed", err, "command", cmd.Name())
	}

	for _, h := range m.afterUndo {
		h(cmd, err)
	}
	return err
}

// Redo re-applies the most recently undone command, via Redoer when
// implemented and Execute otherwise. A failing redo leaves the command on
// the undone stack.
func (m *Manager) Redo() error {
	if m.state != StateIdle {
		return fmt.Errorf("%w: redo during %s", ErrReentrantMutation, m.state)
	}
	cmd, ok := m.history.PeekUndone()
	if !ok {
		return ErrNothingToRedo
	}

	m.bringIntoView(cmd)

	m.state = StateRedoing
	defer func() { m.state = StateIdle }()

	_, span := m.startSpan(tracing.SpanCommandRedo, cmd)
	defer span.End()

	for _, h := range m.beforeUndo {
		h(cmd)
	}

	var err error
	if redoer, ok := cmd.(Redoer); ok {
		err = redoer.Redo()
	} else {
		err = cmd.Execute()
	}
	if err == nil {
		m.history.MoveToExecuted()
	} else {
		err = fmt.Errorf("%w: %s: %w", ErrRedoFailed, cmd.Name(), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorErr(log.CatCommand, "redo failed", err, "command", cmd.Name())
	}

	for _, h := range m.afterUndo {
		h(cmd, err)
	}
	return err
}

// bringIntoView resolves the command's trigger through the registry and
// invokes the navigation callback when both exist. A trigger that has
// since been unregistered is skipped silently: navigation is best-effort.
func (m *Manager) bringIntoView(cmd Command) {
	trigger := cmd.TriggerID()
	if trigger == "" || m.navigate == nil || m.reg == nil {
		return
	}
	if _, err := m.reg.Get(trigger); err != nil {
		log.Debug(log.CatCommand, "navigation trigger no longer registered", "id", trigger)
		return
	}
	m.navigate(trigger)
}

func (m *Manager) startSpan(op string, cmd Command) (context.Context, trace.Span) {
	return m.tracer.Start(context.Background(), op, trace.WithAttributes(
		attribute.String(tracing.AttrCommandID, cmd.ID()),
		attribute.String(tracing.AttrCommandName, cmd.Name()),
		attribute.String(tracing.AttrCommandTrigger, string(cmd.TriggerID())),
	))
}
