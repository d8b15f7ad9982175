package deck

import (
	"errors"
)

// GestureState is the phase of an interactive pointer gesture.
type GestureState int

const (
	GestureIdle GestureState = iota
	GestureDragging
	GestureResizing
)

func (s GestureState) String() string {
	switch s {
	case GestureDragging:
		return "dragging"
	case GestureResizing:
		return "resizing"
	default:
		return "idle"
	}
}

// ErrGestureActive is returned when a gesture is started while another one
// is still in progress.
var ErrGestureActive = errors.New("gesture already in progress")

// Gesture tracks one drag or resize of an element. Each Move carries the
// cumulative pointer delta since the gesture began and the working box is
// recomputed from the start box, so clamping never accumulates drift.
// Only End produces a command; intermediate boxes are preview only.
type Gesture struct {
	state     GestureState
	dir       ResizeDirection
	slideID   string
	elementID string
	start     Box
	working   Box
}

// BeginDrag starts moving el.
func (g *Gesture) BeginDrag(slideID string, el Element) error {
	return g.begin(GestureDragging, ResizeNone, slideID, el)
}

// BeginResize starts resizing el from the handle dir.
func (g *Gesture) BeginResize(slideID string, el Element, dir ResizeDirection) error {
	if dir == ResizeNone {
		return errors.New("resize needs a direction")
	}
	return g.begin(GestureResizing, dir, slideID, el)
}

func (g *Gesture) begin(state GestureState, dir ResizeDirection, slideID string, el Element) error {
	if g.state != GestureIdle {
		return ErrGestureActive
	}
	if el == nil {
		return errors.New("gesture needs an element")
	}
	*g = Gesture{
		state:     state,
		dir:       dir,
		slideID:   slideID,
		elementID: el.GetID(),
		start:     el.Box(),
		working:   el.Box(),
	}
	return nil
}

// Move updates the working box from the total pointer delta (dx, dy) since
// the gesture began. It is ignored while idle.
func (g *Gesture) Move(dx, dy float64) Box {
	switch g.state {
	case GestureDragging:
		g.working = Drag(g.start, dx, dy)
	case GestureResizing:
		g.working = Resize(g.start, g.dir, dx, dy)
	}
	return g.working
}

// State returns the current phase.
func (g *Gesture) State() GestureState { return g.state }

// Direction returns the resize handle, or ResizeNone while not resizing.
func (g *Gesture) Direction() ResizeDirection { return g.dir }

// Working returns the box to preview while the gesture is in progress.
func (g *Gesture) Working() Box { return g.working }

// End finishes the gesture and returns the single command that commits it.
// ok is false when the gesture was idle or the box did not change.
func (g *Gesture) End() (cmd Command, ok bool) {
	if g.state == GestureIdle {
		return nil, false
	}
	start, working := g.start, g.working
	slideID, elementID := g.slideID, g.elementID
	g.Cancel()

	if start == working {
		return nil, false
	}
	return UpdateElement{
		SlideID:   slideID,
		ElementID: elementID,
		Patch:     ElementPatch{Position: &working.Position, Size: &working.Size},
	}, true
}

// Cancel drops the gesture without committing anything.
func (g *Gesture) Cancel() {
	*g = Gesture{}
}
