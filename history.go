package deck

// Observer is notified with the new present state after every transition.
type Observer func(EditorState)

// History is a linear undo/redo stack of editor snapshots. Dispatching a
// command after an undo discards the redo branch.
//
// History is not safe for concurrent use.
type History struct {
	past      []EditorState
	present   EditorState
	future    []EditorState
	max       int // Maximum number of past states to keep, 0 = unbounded
	observers map[int]Observer
	nextObs   int
}

// NewHistory creates a history whose present is initial. maxDepth bounds the
// number of undo steps; zero or less keeps every step.
func NewHistory(initial EditorState, maxDepth int) *History {
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &History{
		present:   initial,
		max:       maxDepth,
		observers: make(map[int]Observer),
	}
}

// Present returns the current editor state.
func (h *History) Present() EditorState {
	return h.present
}

// Dispatch applies cmd to the present state, pushes the old present onto the
// undo stack and clears the redo stack. Every dispatch is recorded, including
// commands that turn out to be no-ops.
func (h *History) Dispatch(cmd Command) EditorState {
	next := cmd.Apply(h.present)

	h.past = append(h.past, h.present)
	// If we exceed max, remove oldest
	if h.max > 0 && len(h.past) > h.max {
		h.past = append([]EditorState(nil), h.past[len(h.past)-h.max:]...)
	}
	h.future = nil
	h.present = next

	h.notify()
	return next
}

// CanUndo returns true if we can undo
func (h *History) CanUndo() bool {
	return len(h.past) > 0
}

// CanRedo returns true if we can redo
func (h *History) CanRedo() bool {
	return len(h.future) > 0
}

// Undo steps back one state. It reports false when there is nothing to undo.
func (h *History) Undo() bool {
	if !h.CanUndo() {
		return false
	}
	last := len(h.past) - 1
	prev := h.past[last]
	h.past = h.past[:last:last]

	h.future = append([]EditorState{h.present}, h.future...)
	h.present = prev

	h.notify()
	return true
}

// Redo steps forward one state. It reports false when there is nothing to redo.
func (h *History) Redo() bool {
	if !h.CanRedo() {
		return false
	}
	next := h.future[0]
	h.future = h.future[1:]

	h.past = append(h.past, h.present)
	h.present = next

	h.notify()
	return true
}

// Load replaces the whole editor state, e.g. after opening a document, and
// clears both stacks.
func (h *History) Load(state EditorState) {
	h.past = nil
	h.future = nil
	h.present = state
	h.notify()
}

// Select replaces the selection of the present state without recording a
// history entry.
func (h *History) Select(sel *Selection) {
	h.present = h.present.withSelection(sel)
	h.notify()
}

// Apply handles a decoded action envelope, including the history
// transitions UNDO, REDO and LOAD_EDITOR.
func (h *History) Apply(a Action) error {
	switch a.Type {
	case ActionUndo:
		h.Undo()
		return nil
	case ActionRedo:
		h.Redo()
		return nil
	case ActionLoadEditor:
		state, err := DecodeEditorStateBytes(a.Payload)
		if err != nil {
			return err
		}
		h.Load(state)
		return nil
	}
	cmd, err := DecodeCommand(a)
	if err != nil {
		return err
	}
	h.Dispatch(cmd)
	return nil
}

// Stats returns the number of undo and redo steps available.
func (h *History) Stats() (past, future int) {
	return len(h.past), len(h.future)
}

// Subscribe registers fn and returns a function that removes it again.
func (h *History) Subscribe(fn Observer) (unsubscribe func()) {
	id := h.nextObs
	h.nextObs++
	h.observers[id] = fn
	return func() { delete(h.observers, id) }
}

func (h *History) notify() {
	for _, fn := range h.observers {
		fn(h.present)
	}
}
