package deck

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ElementType identifies the kind of a slide element.
type ElementType string

const (
	ElementText  ElementType = "text"
	ElementImage ElementType = "image"
)

// Element is a positioned object owned by exactly one slide. The only
// implementations are TextElement and ImageElement.
type Element interface {
	GetType() ElementType
	GetID() string
	GetPosition() Point
	GetSize() Size
	GetContent() string
	Box() Box
	// patch returns a copy of the element with the applicable fields of p merged in.
	patch(p ElementPatch) Element
}

// Default geometry and styling for newly inserted elements.
const (
	DefaultElementX     = 50
	DefaultElementY     = 50
	DefaultTextWidth    = 200
	DefaultTextHeight   = 50
	DefaultFontFamily   = "Arial"
	DefaultFontSize     = 16
	DefaultFontColor    = "#000000"
	MaxInsertedImageDim = 500
)

// BaseElement holds the geometry common to all elements.
type BaseElement struct {
	ID       string `json:"id"`
	Position Point  `json:"position"`
	Size     Size   `json:"size"`
}

func (b BaseElement) GetID() string      { return b.ID }
func (b BaseElement) GetPosition() Point { return b.Position }
func (b BaseElement) GetSize() Size      { return b.Size }
func (b BaseElement) Box() Box           { return Box{Position: b.Position, Size: b.Size} }

func (b BaseElement) withPatch(p ElementPatch) BaseElement {
	if p.Position != nil {
		b.Position = *p.Position
	}
	if p.Size != nil {
		b.Size = clampElementSize(*p.Size)
	}
	return b
}

// TextElement draws a single string with one font, size and color.
type TextElement struct {
	BaseElement
	Content    string  `json:"content"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	FontColor  string  `json:"fontColor"`
}

func (e TextElement) GetType() ElementType { return ElementText }
func (e TextElement) GetContent() string   { return e.Content }

func (e TextElement) patch(p ElementPatch) Element {
	e.BaseElement = e.BaseElement.withPatch(p)
	if p.Content != nil {
		e.Content = *p.Content
	}
	if p.FontFamily != nil {
		e.FontFamily = *p.FontFamily
	}
	if p.FontSize != nil && *p.FontSize > 0 {
		e.FontSize = *p.FontSize
	}
	if p.FontColor != nil {
		e.FontColor = *p.FontColor
	}
	return e
}

// MarshalJSON adds the "type" discriminator.
func (e TextElement) MarshalJSON() ([]byte, error) {
	type alias TextElement
	return json.Marshal(struct {
		Type ElementType `json:"type"`
		alias
	}{ElementText, alias(e)})
}

// ImageElement draws a PNG or JPEG image referenced by URL or data URI.
type ImageElement struct {
	BaseElement
	Content string `json:"content"`
}

func (e ImageElement) GetType() ElementType { return ElementImage }
func (e ImageElement) GetContent() string   { return e.Content }

func (e ImageElement) patch(p ElementPatch) Element {
	e.BaseElement = e.BaseElement.withPatch(p)
	if p.Content != nil {
		e.Content = *p.Content
	}
	return e
}

// MarshalJSON adds the "type" discriminator.
func (e ImageElement) MarshalJSON() ([]byte, error) {
	type alias ImageElement
	return json.Marshal(struct {
		Type ElementType `json:"type"`
		alias
	}{ElementImage, alias(e)})
}

// ElementPatch is a partial element update. Nil fields are left alone.
// Position, Size and Content apply to every element; the font fields only
// apply to text elements and are ignored for images.
type ElementPatch struct {
	Position   *Point   `json:"position,omitempty"`
	Size       *Size    `json:"size,omitempty"`
	Content    *string  `json:"content,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	FontColor  *string  `json:"fontColor,omitempty"`
}

// IsEmpty reports whether the patch sets no field at all.
func (p ElementPatch) IsEmpty() bool {
	return p.Position == nil && p.Size == nil && p.Content == nil &&
		p.FontFamily == nil && p.FontSize == nil && p.FontColor == nil
}

// NewTextElement returns a text element with the editor defaults and a fresh id.
func NewTextElement(content string) TextElement {
	return TextElement{
		BaseElement: BaseElement{
			ID:       uuid.NewString(),
			Position: Point{X: DefaultElementX, Y: DefaultElementY},
			Size:     Size{Width: DefaultTextWidth, Height: DefaultTextHeight},
		},
		Content:    content,
		FontFamily: DefaultFontFamily,
		FontSize:   DefaultFontSize,
		FontColor:  DefaultFontColor,
	}
}

// NewImageElement returns an image element sized from the image's natural
// dimensions, scaled down to fit inside MaxInsertedImageDim on each side.
func NewImageElement(src string, natural Size) ImageElement {
	return ImageElement{
		BaseElement: BaseElement{
			ID:       uuid.NewString(),
			Position: Point{X: DefaultElementX, Y: DefaultElementY},
			Size:     FitWithin(natural, MaxInsertedImageDim, MaxInsertedImageDim),
		},
		Content: src,
	}
}

var errMissingType = errors.New("missing type")

// DecodeElement decodes a single element from its tagged JSON form.
func DecodeElement(data []byte) (Element, error) {
	var head struct {
		Type ElementType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode element: %w", err)
	}
	switch head.Type {
	case ElementText:
		var e TextElement
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode text element: %w", err)
		}
		return e, nil
	case ElementImage:
		var e ImageElement
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode image element: %w", err)
		}
		return e, nil
	case "":
		return nil, fmt.Errorf("decode element: %w", errMissingType)
	default:
		return nil, fmt.Errorf("decode element: unknown type %q", head.Type)
	}
}
