package deck

import (
	"fmt"
	"math"
)

// MinElementSize is the smallest width or height, in pixels, an element can
// be resized to.
const MinElementSize = 10

// Point is a slide-local position in pixels. The origin is the top-left
// corner of the slide and y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is an element size in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box is the position and size shared by every element.
type Box struct {
	Position Point
	Size     Size
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.Position.X + b.Size.Width }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Position.Y + b.Size.Height }

// ResizeDirection names the handle a resize gesture was started from.
type ResizeDirection int

const (
	ResizeNone ResizeDirection = iota
	ResizeTop
	ResizeBottom
	ResizeLeft
	ResizeRight
	ResizeTopLeft
	ResizeTopRight
	ResizeBottomLeft
	ResizeBottomRight
)

var resizeDirectionNames = map[ResizeDirection]string{
	ResizeTop:         "top",
	ResizeBottom:      "bottom",
	ResizeLeft:        "left",
	ResizeRight:       "right",
	ResizeTopLeft:     "top-left",
	ResizeTopRight:    "top-right",
	ResizeBottomLeft:  "bottom-left",
	ResizeBottomRight: "bottom-right",
}

// ParseResizeDirection parses a handle name such as "top" or "bottom-left".
func ParseResizeDirection(s string) (ResizeDirection, error) {
	for d, name := range resizeDirectionNames {
		if name == s {
			return d, nil
		}
	}
	return ResizeNone, fmt.Errorf("unknown resize direction %q", s)
}

func (d ResizeDirection) String() string {
	if name, ok := resizeDirectionNames[d]; ok {
		return name
	}
	return "none"
}

// edges reports which edges of the box follow the pointer.
func (d ResizeDirection) edges() (left, right, top, bottom bool) {
	switch d {
	case ResizeTop:
		top = true
	case ResizeBottom:
		bottom = true
	case ResizeLeft:
		left = true
	case ResizeRight:
		right = true
	case ResizeTopLeft:
		top, left = true, true
	case ResizeTopRight:
		top, right = true, true
	case ResizeBottomLeft:
		bottom, left = true, true
	case ResizeBottomRight:
		bottom, right = true, true
	}
	return
}

// Drag moves the box by the pointer delta without changing its size.
func Drag(b Box, dx, dy float64) Box {
	b.Position.X += dx
	b.Position.Y += dy
	return b
}

// Resize applies a pointer delta to the edges selected by dir. Sizes are
// floored at MinElementSize. When the left or top edge moves, the position
// shifts by the size actually lost or gained, so the opposite edge stays put
// even when the floor kicks in.
func Resize(b Box, dir ResizeDirection, dx, dy float64) Box {
	left, right, top, bottom := dir.edges()
	out := b

	switch {
	case left:
		w := clampSize(b.Size.Width - dx)
		out.Position.X = b.Position.X + (b.Size.Width - w)
		out.Size.Width = w
	case right:
		out.Size.Width = clampSize(b.Size.Width + dx)
	}

	switch {
	case top:
		h := clampSize(b.Size.Height - dy)
		out.Position.Y = b.Position.Y + (b.Size.Height - h)
		out.Size.Height = h
	case bottom:
		out.Size.Height = clampSize(b.Size.Height + dy)
	}

	return out
}

// FitWithin scales s down, preserving its aspect ratio, until it fits inside
// maxW x maxH. Sizes that already fit are returned unchanged apart from the
// MinElementSize floor.
func FitWithin(s Size, maxW, maxH float64) Size {
	if s.Width > maxW || s.Height > maxH {
		ratio := math.Min(maxW/s.Width, maxH/s.Height)
		s.Width *= ratio
		s.Height *= ratio
	}
	return clampElementSize(s)
}

func clampSize(v float64) float64 {
	if math.IsNaN(v) || v < MinElementSize {
		return MinElementSize
	}
	return v
}

func clampElementSize(s Size) Size {
	return Size{Width: clampSize(s.Width), Height: clampSize(s.Height)}
}
