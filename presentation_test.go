package deck

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testText(id string) TextElement {
	el := NewTextElement("hello")
	el.ID = id
	return el
}

func testSlide(id string, elements ...Element) Slide {
	s := NewSlide()
	s.ID = id
	s.Elements = append(s.Elements, elements...)
	return s
}

func testDeck() Presentation {
	p := NewPresentation("Deck")
	p = p.AddSlide(testSlide("s1", testText("e1"), testText("e2")))
	p = p.AddSlide(testSlide("s2"))
	p = p.AddSlide(testSlide("s3"))
	return p
}

func slideIDs(p Presentation) []string {
	ids := make([]string, 0, len(p.Slides))
	for _, s := range p.Slides {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestNewSlide(t *testing.T) {
	a, b := NewSlide(), NewSlide()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, ColorBackground{Color: "#FFFFFF"}, a.Background)
	assert.Empty(t, a.Elements)
}

func TestAddSlideLeavesInputUntouched(t *testing.T) {
	p := NewPresentation("Deck")
	next := p.AddSlide(testSlide("s1"))

	assert.Equal(t, 0, p.GetSlideCount())
	assert.Equal(t, 1, next.GetSlideCount())
}

func TestDeleteSlide(t *testing.T) {
	p := testDeck()
	next := p.DeleteSlide("s2")

	assert.Equal(t, []string{"s1", "s3"}, slideIDs(next))
	assert.Equal(t, []string{"s1", "s2", "s3"}, slideIDs(p))

	same := p.DeleteSlide("missing")
	assert.Equal(t, slideIDs(p), slideIDs(same))
}

func TestMoveSlide(t *testing.T) {
	p := testDeck()

	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 2, []string{"s2", "s3", "s1"}},
		{"backward", 2, 0, []string{"s3", "s1", "s2"}},
		{"adjacent", 1, 2, []string{"s1", "s3", "s2"}},
		{"same index", 1, 1, []string{"s1", "s2", "s3"}},
		{"from out of range", 3, 0, []string{"s1", "s2", "s3"}},
		{"to out of range", 0, 3, []string{"s1", "s2", "s3"}},
		{"negative", -1, 0, []string{"s1", "s2", "s3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.MoveSlide(tt.from, tt.to)
			assert.Equal(t, tt.want, slideIDs(got))
		})
	}
	assert.Equal(t, []string{"s1", "s2", "s3"}, slideIDs(p), "input must not change")
}

func TestAddAndRemoveElement(t *testing.T) {
	p := testDeck()
	next := p.AddElement("s2", testText("e3"))

	s2, ok := next.FindSlide("s2")
	require.True(t, ok)
	require.Len(t, s2.Elements, 1)
	assert.Equal(t, "e3", s2.Elements[0].GetID())

	orig, _ := p.FindSlide("s2")
	assert.Empty(t, orig.Elements)

	next = next.RemoveElement("s1", "e1")
	s1, _ := next.FindSlide("s1")
	require.Len(t, s1.Elements, 1)
	assert.Equal(t, "e2", s1.Elements[0].GetID())

	unchanged := next.RemoveElement("s1", "missing")
	assert.Equal(t, next, unchanged)

	assert.Equal(t, p, p.AddElement("missing", testText("x")))
	assert.Equal(t, p, p.AddElement("s1", nil))
}

func TestUpdateElementPatch(t *testing.T) {
	p := testDeck()
	pos := Point{X: 10, Y: 20}
	size := Size{Width: 3, Height: 40}
	content := "changed"
	fontSize := -4.0
	color := "#FF00AA"

	next := p.UpdateElement("s1", "e1", ElementPatch{
		Position:  &pos,
		Size:      &size,
		Content:   &content,
		FontSize:  &fontSize,
		FontColor: &color,
	})

	_, el, ok := next.FindElement("e1")
	require.True(t, ok)
	text := el.(TextElement)
	assert.Equal(t, pos, text.Position)
	assert.Equal(t, Size{Width: MinElementSize, Height: 40}, text.Size)
	assert.Equal(t, "changed", text.Content)
	assert.Equal(t, float64(DefaultFontSize), text.FontSize, "non-positive font size is ignored")
	assert.Equal(t, "#FF00AA", text.FontColor)

	_, before, _ := p.FindElement("e1")
	assert.Equal(t, "hello", before.GetContent())

	assert.Equal(t, p, p.UpdateElement("s1", "e1", ElementPatch{}))
}

func TestUpdateImageIgnoresFontFields(t *testing.T) {
	img := NewImageElement("data:image/png;base64,AA==", Size{Width: 100, Height: 50})
	p := NewPresentation("Deck").AddSlide(testSlide("s1", img))
	family := "Times"

	next := p.UpdateElement("s1", img.ID, ElementPatch{FontFamily: &family})
	_, el, _ := next.FindElement(img.ID)
	assert.Equal(t, img, el)
}

func TestChangeBackground(t *testing.T) {
	p := testDeck()
	next := p.ChangeBackground("s3", ImageBackground{ImageURL: "https://example.com/bg.png"})

	s3, _ := next.FindSlide("s3")
	assert.Equal(t, BackgroundImage, s3.Background.GetType())
	assert.Equal(t, p, p.ChangeBackground("s3", nil))
}

func TestNewImageElementFits(t *testing.T) {
	el := NewImageElement("x.png", Size{Width: 1000, Height: 250})
	assert.Equal(t, Size{Width: 500, Height: 125}, el.Size)

	small := NewImageElement("x.png", Size{Width: 4, Height: 300})
	assert.Equal(t, Size{Width: MinElementSize, Height: 300}, small.Size)
}

func TestPresentationJSONRoundTrip(t *testing.T) {
	p := testDeck().ChangeBackground("s2", ImageBackground{ImageURL: "bg.jpg"})
	p = p.AddElement("s3", NewImageElement("img.png", Size{Width: 20, Height: 30}))

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"text"`)
	assert.Contains(t, string(data), `"imageUrl":"bg.jpg"`)

	var back Presentation
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)
}

func TestDecodeElementErrors(t *testing.T) {
	_, err := DecodeElement([]byte(`{"id":"x"}`))
	assert.ErrorIs(t, err, errMissingType)

	_, err = DecodeElement([]byte(`{"type":"shape","id":"x"}`))
	assert.Error(t, err)

	_, err = DecodeBackground([]byte(`{"type":"gradient"}`))
	assert.Error(t, err)
}

func TestEmptyPresentationMarshalsSlideArray(t *testing.T) {
	data, err := json.Marshal(Presentation{Title: "t"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"t","slides":[]}`, string(data))
}
