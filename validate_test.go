package deck

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEditorStateRoundTrip(t *testing.T) {
	s := testEditor()
	s.Selection = SelectElement("s1", "e1")
	s.ShowModal.AddElement = true

	data, err := json.Marshal(s)
	require.NoError(t, err)

	back, err := DecodeEditorStateBytes(data)
	require.NoError(t, err)
	assert.Equal(t, s.Presentation, back.Presentation)
	assert.Equal(t, "e1", back.Selection.ElementID())
	assert.True(t, back.ShowModal.AddElement)
}

func TestDecodeEditorStateNullSelection(t *testing.T) {
	doc := `{"presentation":{"title":"T","slides":[]},"selection":null,
		"showModal":{"showModalWindowSetBackground":false,"showModalWindowAddElement":false}}`
	s, err := DecodeEditorState(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Nil(t, s.Selection)
	assert.Equal(t, "T", s.Presentation.Title)
}

func TestDecodeEditorStateSchemaFailures(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not json", `{`, "invalid JSON"},
		{"missing showModal", `{"presentation":{"title":"T","slides":[]},"selection":null}`, "showModal"},
		{"title type", `{"presentation":{"title":1,"slides":[]},"selection":null,"showModal":{"showModalWindowSetBackground":false,"showModalWindowAddElement":false}}`, "/presentation/title"},
		{
			"text without font",
			`{"presentation":{"title":"T","slides":[{"id":"s","background":{"type":"color","color":"#FFFFFF"},
			"elements":[{"id":"e","type":"text","position":{"x":0,"y":0},"size":{"width":10,"height":10},"content":"x"}]}]},
			"selection":null,"showModal":{"showModalWindowSetBackground":false,"showModalWindowAddElement":false}}`,
			"/presentation/slides/0/elements/0",
		},
		{
			"unknown background",
			`{"presentation":{"title":"T","slides":[{"id":"s","background":{"type":"gradient"},"elements":[]}]},
			"selection":null,"showModal":{"showModalWindowSetBackground":false,"showModalWindowAddElement":false}}`,
			"/presentation/slides/0/background",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEditorStateBytes([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDocument)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Error(), tt.want)
		})
	}
}

func TestPresentationValidate(t *testing.T) {
	assert.NoError(t, testDeck().Validate())

	small := testText("e1")
	small.Size = Size{Width: 5, Height: 50}
	small.FontSize = 0
	small.FontColor = "black"

	p := NewPresentation("Deck").
		AddSlide(testSlide("s1", small)).
		AddSlide(testSlide("s1", testText("e1"))).
		AddSlide(Slide{ID: "s3"})

	err := p.Validate()
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Problems, 6)
	msg := err.Error()
	assert.Contains(t, msg, "below 10")
	assert.Contains(t, msg, "font size 0 must be positive")
	assert.Contains(t, msg, `font color "black"`)
	assert.Contains(t, msg, `duplicate slide id "s1"`)
	assert.Contains(t, msg, `duplicate element id "e1"`)
	assert.Contains(t, msg, "slide 3: background is missing")
}

func TestDecodeEditorStateRejectsInvariantViolations(t *testing.T) {
	s := testEditor()
	s.Presentation = s.Presentation.AddSlide(testSlide("s1"))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	_, err = DecodeEditorStateBytes(data)
	assert.ErrorContains(t, err, "duplicate slide id")
}
