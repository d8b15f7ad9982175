package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory(NewEditorState("A"), 0)

	h.Dispatch(RenameTitle{Title: "B"})
	h.Dispatch(RenameTitle{Title: "C"})

	past, future := h.Stats()
	assert.Equal(t, 2, past)
	assert.Equal(t, 0, future)

	require.True(t, h.Undo())
	assert.Equal(t, "B", h.Present().Presentation.Title)
	require.True(t, h.Undo())
	assert.Equal(t, "A", h.Present().Presentation.Title)
	assert.False(t, h.Undo(), "nothing left to undo")

	require.True(t, h.Redo())
	assert.Equal(t, "B", h.Present().Presentation.Title)
	assert.True(t, h.CanRedo())
}

func TestHistoryDispatchClearsFuture(t *testing.T) {
	h := NewHistory(NewEditorState("A"), 0)
	h.Dispatch(RenameTitle{Title: "B"})
	h.Undo()
	require.True(t, h.CanRedo())

	h.Dispatch(RenameTitle{Title: "X"})
	assert.False(t, h.CanRedo())
	assert.False(t, h.Redo())
	assert.Equal(t, "X", h.Present().Presentation.Title)

	h.Undo()
	assert.Equal(t, "A", h.Present().Presentation.Title)
}

func TestHistoryUndoRestoresPreviousSnapshot(t *testing.T) {
	h := NewHistory(testEditor(), 0)
	before := h.Present()

	h.Dispatch(DeleteSlide{SlideID: "s1"})
	h.Dispatch(AddElement{SlideID: "s2", Element: testText("e9")})
	h.Undo()
	h.Undo()

	assert.Equal(t, before, h.Present())
}

func TestHistoryMaxDepth(t *testing.T) {
	h := NewHistory(NewEditorState("0"), 2)
	for _, title := range []string{"1", "2", "3", "4"} {
		h.Dispatch(RenameTitle{Title: title})
	}

	past, _ := h.Stats()
	assert.Equal(t, 2, past)

	h.Undo()
	h.Undo()
	assert.False(t, h.CanUndo())
	assert.Equal(t, "2", h.Present().Presentation.Title)
}

func TestHistoryRecordsNoOpCommands(t *testing.T) {
	h := NewHistory(NewEditorState("A"), 0)
	h.Dispatch(DeleteSlide{SlideID: "missing"})
	assert.True(t, h.CanUndo())
}

func TestHistoryLoadClearsStacks(t *testing.T) {
	h := NewHistory(NewEditorState("A"), 0)
	h.Dispatch(RenameTitle{Title: "B"})
	h.Dispatch(RenameTitle{Title: "C"})
	h.Undo()

	h.Load(testEditor())
	past, future := h.Stats()
	assert.Zero(t, past)
	assert.Zero(t, future)
	assert.Equal(t, "Deck", h.Present().Presentation.Title)
}

func TestHistorySelectIsNotRecorded(t *testing.T) {
	h := NewHistory(testEditor(), 0)
	h.Select(SelectSlide("s2"))

	assert.Equal(t, "s2", h.Present().Selection.SlideID())
	assert.False(t, h.CanUndo())
}

func TestHistoryApplyAction(t *testing.T) {
	h := NewHistory(NewEditorState("A"), 0)

	require.NoError(t, h.Apply(Action{Type: ActionRenameTitle, Payload: []byte(`"B"`)}))
	require.NoError(t, h.Apply(Action{Type: ActionUndo}))
	assert.Equal(t, "A", h.Present().Presentation.Title)
	require.NoError(t, h.Apply(Action{Type: ActionRedo}))
	assert.Equal(t, "B", h.Present().Presentation.Title)

	assert.ErrorIs(t, h.Apply(Action{Type: "NOPE"}), ErrUnknownAction)
	assert.Equal(t, "B", h.Present().Presentation.Title)
}

func TestHistoryApplyLoadEditorRejectsInvalid(t *testing.T) {
	h := NewHistory(NewEditorState("A"), 0)
	h.Dispatch(RenameTitle{Title: "B"})

	err := h.Apply(Action{Type: ActionLoadEditor, Payload: []byte(`{"presentation":{"title":1}}`)})
	require.Error(t, err)
	assert.Equal(t, "B", h.Present().Presentation.Title)
	assert.True(t, h.CanUndo())
}

func TestHistorySubscribe(t *testing.T) {
	h := NewHistory(NewEditorState("A"), 0)
	var seen []string
	unsubscribe := h.Subscribe(func(s EditorState) {
		seen = append(seen, s.Presentation.Title)
	})

	h.Dispatch(RenameTitle{Title: "B"})
	h.Undo()
	h.Redo()
	unsubscribe()
	h.Dispatch(RenameTitle{Title: "C"})

	assert.Equal(t, []string{"B", "A", "B"}, seen)
}
