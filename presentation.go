// Package deck is the editing core of a slide-deck editor.
//
// It provides an immutable presentation model whose mutations are pure
// functions, a linear undo/redo history built on typed commands, the drag and
// resize geometry used by interactive gestures, and an export renderer that
// turns a presentation into fixed-size PDF pages.
//
// Every mutation returns a new Presentation and leaves its input untouched,
// so history snapshots share structure by reference. Mutations are total:
// referencing a slide or element id that does not exist returns the input
// unchanged.
package deck

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Presentation is the full slide deck being edited. Slide order is playback
// and export order.
type Presentation struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

// NewPresentation returns an empty presentation with the given title.
func NewPresentation(title string) Presentation {
	return Presentation{Title: title, Slides: []Slide{}}
}

// MarshalJSON always writes slides as an array, never null.
func (p Presentation) MarshalJSON() ([]byte, error) {
	type alias Presentation
	a := alias(p)
	if a.Slides == nil {
		a.Slides = []Slide{}
	}
	return json.Marshal(a)
}

// Slide is one page of the deck. Element order is z-order: later elements
// are drawn on top.
type Slide struct {
	ID         string
	Background Background
	Elements   []Element
}

// NewSlide returns a slide with a fresh id, the default white background and
// no elements.
func NewSlide() Slide {
	return Slide{
		ID:         uuid.NewString(),
		Background: DefaultBackground(),
		Elements:   []Element{},
	}
}

type slideJSON struct {
	ID         string            `json:"id"`
	Background json.RawMessage   `json:"background"`
	Elements   []json.RawMessage `json:"elements"`
}

// MarshalJSON writes the tagged background and element forms. A nil
// background is written as the default white background.
func (s Slide) MarshalJSON() ([]byte, error) {
	bg := s.Background
	if bg == nil {
		bg = DefaultBackground()
	}
	elements := s.Elements
	if elements == nil {
		elements = []Element{}
	}
	return json.Marshal(struct {
		ID         string     `json:"id"`
		Background Background `json:"background"`
		Elements   []Element  `json:"elements"`
	}{s.ID, bg, elements})
}

// UnmarshalJSON decodes the tagged background and element forms.
func (s *Slide) UnmarshalJSON(data []byte) error {
	var raw slideJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	bg, err := DecodeBackground(raw.Background)
	if err != nil {
		return fmt.Errorf("slide %q: %w", raw.ID, err)
	}
	elements := make([]Element, 0, len(raw.Elements))
	for i, re := range raw.Elements {
		el, err := DecodeElement(re)
		if err != nil {
			return fmt.Errorf("slide %q element %d: %w", raw.ID, i, err)
		}
		elements = append(elements, el)
	}
	*s = Slide{ID: raw.ID, Background: bg, Elements: elements}
	return nil
}

// ElementIndex returns the index of the element with the given id, or -1.
func (s Slide) ElementIndex(id string) int {
	for i, el := range s.Elements {
		if el.GetID() == id {
			return i
		}
	}
	return -1
}

// FindElement returns the element with the given id.
func (s Slide) FindElement(id string) (Element, bool) {
	if i := s.ElementIndex(id); i >= 0 {
		return s.Elements[i], true
	}
	return nil, false
}

// GetSlideCount returns the number of slides.
func (p Presentation) GetSlideCount() int {
	return len(p.Slides)
}

// SlideIndex returns the index of the slide with the given id, or -1.
func (p Presentation) SlideIndex(id string) int {
	for i, s := range p.Slides {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// FindSlide returns the slide with the given id.
func (p Presentation) FindSlide(id string) (Slide, bool) {
	if i := p.SlideIndex(id); i >= 0 {
		return p.Slides[i], true
	}
	return Slide{}, false
}

// FindElement searches every slide for the element with the given id and
// returns it together with the id of the slide that owns it.
func (p Presentation) FindElement(elementID string) (string, Element, bool) {
	for _, s := range p.Slides {
		if el, ok := s.FindElement(elementID); ok {
			return s.ID, el, true
		}
	}
	return "", nil, false
}

// RenameTitle returns a copy of p with a new title.
func (p Presentation) RenameTitle(title string) Presentation {
	p.Title = title
	return p
}

// AddSlide appends a slide. The caller supplies the id and background.
func (p Presentation) AddSlide(s Slide) Presentation {
	slides := make([]Slide, len(p.Slides), len(p.Slides)+1)
	copy(slides, p.Slides)
	p.Slides = append(slides, s)
	return p
}

// DeleteSlide removes the slide with the given id along with its elements.
func (p Presentation) DeleteSlide(id string) Presentation {
	i := p.SlideIndex(id)
	if i < 0 {
		return p
	}
	slides := make([]Slide, 0, len(p.Slides)-1)
	slides = append(slides, p.Slides[:i]...)
	p.Slides = append(slides, p.Slides[i+1:]...)
	return p
}

// MoveSlide relocates the slide at fromIndex to toIndex; the other slides
// keep their relative order. Out-of-range indices leave p unchanged.
func (p Presentation) MoveSlide(fromIndex, toIndex int) Presentation {
	n := len(p.Slides)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n || fromIndex == toIndex {
		return p
	}
	moved := p.Slides[fromIndex]
	slides := make([]Slide, 0, n)
	slides = append(slides, p.Slides[:fromIndex]...)
	slides = append(slides, p.Slides[fromIndex+1:]...)
	// Insert at the new position using copy to avoid an intermediate allocation
	slides = append(slides, Slide{})
	copy(slides[toIndex+1:], slides[toIndex:])
	slides[toIndex] = moved
	p.Slides = slides
	return p
}

// ReplaceSlides swaps in a whole new slide list, e.g. after a drag-and-drop
// reorder in the slide panel.
func (p Presentation) ReplaceSlides(slides []Slide) Presentation {
	p.Slides = append([]Slide{}, slides...)
	return p
}

// AddElement appends el to the top of the named slide's z-order.
func (p Presentation) AddElement(slideID string, el Element) Presentation {
	if el == nil {
		return p
	}
	return p.updateSlide(slideID, func(s Slide) (Slide, bool) {
		elements := make([]Element, len(s.Elements), len(s.Elements)+1)
		copy(elements, s.Elements)
		s.Elements = append(elements, el)
		return s, true
	})
}

// RemoveElement removes the element with the given id from the named slide.
func (p Presentation) RemoveElement(slideID, elementID string) Presentation {
	return p.updateSlide(slideID, func(s Slide) (Slide, bool) {
		i := s.ElementIndex(elementID)
		if i < 0 {
			return s, false
		}
		elements := make([]Element, 0, len(s.Elements)-1)
		elements = append(elements, s.Elements[:i]...)
		s.Elements = append(elements, s.Elements[i+1:]...)
		return s, true
	})
}

// UpdateElement merges the applicable fields of patch into one element.
func (p Presentation) UpdateElement(slideID, elementID string, patch ElementPatch) Presentation {
	if patch.IsEmpty() {
		return p
	}
	return p.updateSlide(slideID, func(s Slide) (Slide, bool) {
		i := s.ElementIndex(elementID)
		if i < 0 {
			return s, false
		}
		elements := make([]Element, len(s.Elements))
		copy(elements, s.Elements)
		elements[i] = elements[i].patch(patch)
		s.Elements = elements
		return s, true
	})
}

// ChangeBackground replaces the background of the named slide.
func (p Presentation) ChangeBackground(slideID string, bg Background) Presentation {
	if bg == nil {
		return p
	}
	return p.updateSlide(slideID, func(s Slide) (Slide, bool) {
		s.Background = bg
		return s, true
	})
}

// updateSlide copies the slide list only when fn reports a change, so no-op
// edits hand back the original value.
func (p Presentation) updateSlide(id string, fn func(Slide) (Slide, bool)) Presentation {
	i := p.SlideIndex(id)
	if i < 0 {
		return p
	}
	s, changed := fn(p.Slides[i])
	if !changed {
		return p
	}
	slides := make([]Slide, len(p.Slides))
	copy(slides, p.Slides)
	slides[i] = s
	p.Slides = slides
	return p
}
