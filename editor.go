package deck

// Selection is transient UI state: which slide and element the user is
// working on. It travels with history snapshots but carries no invariant.
type Selection struct {
	SelectedSlideID    *string  `json:"selectedSlideId"`
	SelectedElementID  *string  `json:"selectedElementId"`
	SelectedSlideIDs   []string `json:"selectedSlidesIdList"`
	SelectedElementIDs []string `json:"selectedElementsIdList"`
}

// SelectSlide returns a selection pointing at one slide and no element.
func SelectSlide(slideID string) *Selection {
	return &Selection{SelectedSlideID: &slideID}
}

// SelectElement returns a selection pointing at an element on a slide.
func SelectElement(slideID, elementID string) *Selection {
	return &Selection{SelectedSlideID: &slideID, SelectedElementID: &elementID}
}

// SlideID returns the selected slide id, or "" when nothing is selected.
func (s *Selection) SlideID() string {
	if s == nil || s.SelectedSlideID == nil {
		return ""
	}
	return *s.SelectedSlideID
}

// ElementID returns the selected element id, or "".
func (s *Selection) ElementID() string {
	if s == nil || s.SelectedElementID == nil {
		return ""
	}
	return *s.SelectedElementID
}

// ModalFlags records which editor dialogs are open.
type ModalFlags struct {
	SetBackground bool `json:"showModalWindowSetBackground"`
	AddElement    bool `json:"showModalWindowAddElement"`
}

// EditorState is one snapshot of everything the editor shows. It is the unit
// stored in history and the persisted and exchanged document format.
type EditorState struct {
	Presentation Presentation `json:"presentation"`
	Selection    *Selection   `json:"selection"`
	ShowModal    ModalFlags   `json:"showModal"`
}

// NewEditorState returns an editor holding an empty presentation.
func NewEditorState(title string) EditorState {
	return EditorState{
		Presentation: NewPresentation(title),
		Selection:    &Selection{SelectedSlideIDs: []string{}, SelectedElementIDs: []string{}},
	}
}

// withSelection returns a copy of s whose selection has been replaced.
func (s EditorState) withSelection(sel *Selection) EditorState {
	s.Selection = sel
	return s
}
