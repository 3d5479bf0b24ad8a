package command

// History holds the ordered executed and undone stacks.
// It records what happened; the Manager decides when.
type History struct {
	executed []Command
	undone   []Command
}

// NewHistory creates empty stacks.
func NewHistory() *History {
	return &History{}
}

// PushExecuted records a freshly executed command and clears the undone
// stack: executing anything new invalidates the redo chain.
func (h *History) PushExecuted(cmd Command) {
	h.executed = append(h.executed, cmd)
	h.undone = h.undone[:0]
}

// PeekExecuted returns the most recently executed command without
// removing it.
func (h *History) PeekExecuted() (Command, bool) {
	if len(h.executed) == 0 {
		return nil, false
	}
	return h.executed[len(h.executed)-1], true
}

// PeekUndone returns the most recently undone command without removing it.
func (h *History) PeekUndone() (Command, bool) {
	if len(h.undone) == 0 {
		return nil, false
	}
	return h.undone[len(h.undone)-1], true
}

// MoveToUndone pops the executed top onto the undone stack.
func (h *History) MoveToUndone() (Command, bool) {
	if len(h.executed) == 0 {
		return nil, false
	}
	cmd := h.executed[len(h.executed)-1]
	h.executed = h.executed[:len(h.executed)-1]
	h.undone = append(h.undone, cmd)
	return cmd, true
}

// MoveToExecuted pops the undone top back onto the executed stack.
// Unlike PushExecuted it does not clear the undone stack: redo walks the
// chain without destroying it.
func (h *History) MoveToExecuted() (Command, bool) {
	if len(h.undone) == 0 {
		return nil, false
	}
	cmd := h.undone[len(h.undone)-1]
	h.undone = h.undone[:len(h.undone)-1]
	h.executed = append(h.executed, cmd)
	return cmd, true
}

// CanUndo reports whether the executed stack is non-empty.
func (h *History) CanUndo() bool {
	return len(h.executed) > 0
}

// CanRedo reports whether the undone stack is non-empty.
func (h *History) CanRedo() bool {
	return len(h.undone) > 0
}

// ExecutedLen returns the executed stack depth.
func (h *History) ExecutedLen() int {
	return len(h.executed)
}

// UndoneLen returns the undone stack depth.
func (h *History) UndoneLen() int {
	return len(h.undone)
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.executed = h.executed[:0]
	h.undone = h.undone[:0]
}
