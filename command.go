package deck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Command is one undoable edit. Apply must be pure: it returns the next
// editor state and never modifies its argument.
type Command interface {
	Apply(EditorState) EditorState
}

// RenameTitle sets the presentation title.
type RenameTitle struct {
	Title string
}

func (c RenameTitle) Apply(s EditorState) EditorState {
	s.Presentation = s.Presentation.RenameTitle(c.Title)
	return s
}

// AddSlide appends a slide and selects it.
type AddSlide struct {
	Slide Slide
}

func (c AddSlide) Apply(s EditorState) EditorState {
	s.Presentation = s.Presentation.AddSlide(c.Slide)
	return s.withSelection(SelectSlide(c.Slide.ID))
}

// DeleteSlide removes a slide. The selection falls back to the first
// remaining slide, or to nil once the deck is empty.
type DeleteSlide struct {
	SlideID string
}

func (c DeleteSlide) Apply(s EditorState) EditorState {
	if s.Presentation.SlideIndex(c.SlideID) < 0 {
		return s
	}
	s.Presentation = s.Presentation.DeleteSlide(c.SlideID)
	if len(s.Presentation.Slides) == 0 {
		return s.withSelection(nil)
	}
	return s.withSelection(SelectSlide(s.Presentation.Slides[0].ID))
}

// MoveSlide relocates one slide in the deck.
type MoveSlide struct {
	FromIndex int
	ToIndex   int
}

func (c MoveSlide) Apply(s EditorState) EditorState {
	s.Presentation = s.Presentation.MoveSlide(c.FromIndex, c.ToIndex)
	return s
}

// ReplaceSlides installs a reordered slide list.
type ReplaceSlides struct {
	Slides []Slide
}

func (c ReplaceSlides) Apply(s EditorState) EditorState {
	s.Presentation = s.Presentation.ReplaceSlides(c.Slides)
	return s
}

// AddElement puts an element on top of a slide.
type AddElement struct {
	SlideID string
	Element Element
}

func (c AddElement) Apply(s EditorState) EditorState {
	s.Presentation = s.Presentation.AddElement(c.SlideID, c.Element)
	return s
}

// RemoveElement deletes an element and drops it from the selection.
type RemoveElement struct {
	SlideID   string
	ElementID string
}

func (c RemoveElement) Apply(s EditorState) EditorState {
	next := s.Presentation.RemoveElement(c.SlideID, c.ElementID)
	s.Presentation = next
	if s.Selection != nil && c.ElementID != "" && s.Selection.ElementID() == c.ElementID {
		sel := *s.Selection
		sel.SelectedElementID = nil
		s.Selection = &sel
	}
	return s
}

// UpdateElement merges a partial update into one element.
type UpdateElement struct {
	SlideID   string
	ElementID string
	Patch     ElementPatch
}

func (c UpdateElement) Apply(s EditorState) EditorState {
	s.Presentation = s.Presentation.UpdateElement(c.SlideID, c.ElementID, c.Patch)
	return s
}

// ChangeBackground sets a slide background.
type ChangeBackground struct {
	SlideID    string
	Background Background
}

func (c ChangeBackground) Apply(s EditorState) EditorState {
	s.Presentation = s.Presentation.ChangeBackground(c.SlideID, c.Background)
	return s
}

// ChangeFontFamily, ChangeFontSize and ChangeFontColor restyle a text
// element. When SlideID is empty the owning slide is looked up by element id.
type ChangeFontFamily struct {
	SlideID    string
	ElementID  string
	FontFamily string
}

func (c ChangeFontFamily) Apply(s EditorState) EditorState {
	return updateOwned(s, c.SlideID, c.ElementID, ElementPatch{FontFamily: &c.FontFamily})
}

type ChangeFontSize struct {
	SlideID   string
	ElementID string
	FontSize  float64
}

func (c ChangeFontSize) Apply(s EditorState) EditorState {
	return updateOwned(s, c.SlideID, c.ElementID, ElementPatch{FontSize: &c.FontSize})
}

type ChangeFontColor struct {
	SlideID   string
	ElementID string
	FontColor string
}

func (c ChangeFontColor) Apply(s EditorState) EditorState {
	return updateOwned(s, c.SlideID, c.ElementID, ElementPatch{FontColor: &c.FontColor})
}

func updateOwned(s EditorState, slideID, elementID string, patch ElementPatch) EditorState {
	if slideID == "" {
		owner, _, ok := s.Presentation.FindElement(elementID)
		if !ok {
			return s
		}
		slideID = owner
	}
	s.Presentation = s.Presentation.UpdateElement(slideID, elementID, patch)
	return s
}

// Action names of the JSON command protocol.
const (
	ActionRenameTitle      = "RENAME_PRESENTATION_TITLE"
	ActionAddSlide         = "ADD_SLIDE"
	ActionDeleteSlide      = "DELETE_SLIDE"
	ActionAddElement       = "ADD_ELEMENT"
	ActionRemoveElement    = "REMOVE_ELEMENT"
	ActionChangeBackground = "CHANGE_BACKGROUND"
	ActionMoveSlide        = "MOVE_SLIDE"
	ActionUpdateSlides     = "UPDATE_SLIDES"
	ActionUpdateElement    = "UPDATE_ELEMENT"
	ActionChangeFontFamily = "CHANGE_FONT_FAMILY"
	ActionChangeFontSize   = "CHANGE_FONT_SIZE"
	ActionChangeFontColor  = "CHANGE_FONT_COLOR"
	ActionUndo             = "UNDO"
	ActionRedo             = "REDO"
	ActionLoadEditor       = "LOAD_EDITOR"
)

// ErrUnknownAction is returned for action types that do not map to a Command.
var ErrUnknownAction = errors.New("unknown action type")

// Action is the JSON envelope of one user intent.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParseAction reads one action envelope.
func ParseAction(data []byte) (Action, error) {
	var a Action
	if err := json.Unmarshal(data, &a); err != nil {
		return Action{}, fmt.Errorf("parse action: %w", err)
	}
	if a.Type == "" {
		return Action{}, fmt.Errorf("parse action: %w", errMissingType)
	}
	return a, nil
}

// IsHistoryAction reports whether the action is a history transition rather
// than an edit.
func (a Action) IsHistoryAction() bool {
	return a.Type == ActionUndo || a.Type == ActionRedo || a.Type == ActionLoadEditor
}

// DecodeCommand turns an action into a Command. History transitions (UNDO,
// REDO, LOAD_EDITOR) are not commands and yield ErrUnknownAction; callers
// handle them before decoding.
func DecodeCommand(a Action) (Command, error) {
	cmd, err := decodeCommand(a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Type, err)
	}
	return cmd, nil
}

type elementRef struct {
	SlideID   string `json:"slideId"`
	ElementID string `json:"elementId"`
}

func decodeCommand(a Action) (Command, error) {
	switch a.Type {
	case ActionRenameTitle:
		var title string
		if err := json.Unmarshal(a.Payload, &title); err != nil {
			return nil, err
		}
		return RenameTitle{Title: title}, nil

	case ActionAddSlide:
		if isEmptyPayload(a.Payload) {
			return AddSlide{Slide: NewSlide()}, nil
		}
		var s Slide
		if err := json.Unmarshal(a.Payload, &s); err != nil {
			return nil, err
		}
		return AddSlide{Slide: s}, nil

	case ActionDeleteSlide:
		var id string
		if err := json.Unmarshal(a.Payload, &id); err != nil {
			return nil, err
		}
		return DeleteSlide{SlideID: id}, nil

	case ActionAddElement:
		var p struct {
			SlideID string          `json:"slideId"`
			Element json.RawMessage `json:"element"`
		}
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return nil, err
		}
		el, err := DecodeElement(p.Element)
		if err != nil {
			return nil, err
		}
		return AddElement{SlideID: p.SlideID, Element: el}, nil

	case ActionRemoveElement:
		var p elementRef
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return nil, err
		}
		return RemoveElement{SlideID: p.SlideID, ElementID: p.ElementID}, nil

	case ActionChangeBackground:
		var p struct {
			SlideID    string          `json:"slideId"`
			Background json.RawMessage `json:"background"`
		}
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return nil, err
		}
		bg, err := DecodeBackground(p.Background)
		if err != nil {
			return nil, err
		}
		return ChangeBackground{SlideID: p.SlideID, Background: bg}, nil

	case ActionMoveSlide:
		var p struct {
			FromIndex int `json:"fromIndex"`
			ToIndex   int `json:"toIndex"`
		}
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return nil, err
		}
		return MoveSlide{FromIndex: p.FromIndex, ToIndex: p.ToIndex}, nil

	case ActionUpdateSlides:
		var slides []Slide
		if err := json.Unmarshal(a.Payload, &slides); err != nil {
			return nil, err
		}
		return ReplaceSlides{Slides: slides}, nil

	case ActionUpdateElement:
		var p struct {
			elementRef
			UpdatedElement ElementPatch `json:"updatedElement"`
		}
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return nil, err
		}
		return UpdateElement{SlideID: p.SlideID, ElementID: p.ElementID, Patch: p.UpdatedElement}, nil

	case ActionChangeFontFamily:
		var p struct {
			elementRef
			FontFamily string `json:"fontFamily"`
		}
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return nil, err
		}
		return ChangeFontFamily{SlideID: p.SlideID, ElementID: p.ElementID, FontFamily: p.FontFamily}, nil

	case ActionChangeFontSize:
		var p struct {
			elementRef
			FontSize float64 `json:"fontSize"`
		}
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return nil, err
		}
		return ChangeFontSize{SlideID: p.SlideID, ElementID: p.ElementID, FontSize: p.FontSize}, nil

	case ActionChangeFontColor:
		var p struct {
			elementRef
			FontColor string `json:"fontColor"`
		}
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return nil, err
		}
		return ChangeFontColor{SlideID: p.SlideID, ElementID: p.ElementID, FontColor: p.FontColor}, nil
	}
	return nil, ErrUnknownAction
}

func isEmptyPayload(p json.RawMessage) bool {
	p = bytes.TrimSpace(p)
	return len(p) == 0 || bytes.Equal(p, []byte("null"))
}
