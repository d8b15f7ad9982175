package deck

import (
	"encoding/json"
	"fmt"
)

// BackgroundType identifies the active background variant of a slide.
type BackgroundType string

const (
	BackgroundColor BackgroundType = "color"
	BackgroundImage BackgroundType = "image"
)

// DefaultBackgroundColor is the fill of newly created slides.
const DefaultBackgroundColor = "#FFFFFF"

// Background is either a ColorBackground or an ImageBackground.
type Background interface {
	GetType() BackgroundType
	isBackground()
}

// ColorBackground fills the slide with a single "#RRGGBB" color.
type ColorBackground struct {
	Color string `json:"color"`
}

func (ColorBackground) GetType() BackgroundType { return BackgroundColor }
func (ColorBackground) isBackground()           {}

// MarshalJSON adds the "type" discriminator.
func (b ColorBackground) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  BackgroundType `json:"type"`
		Color string         `json:"color"`
	}{BackgroundColor, b.Color})
}

// ImageBackground stretches an image, given as URL or data URI, over the slide.
type ImageBackground struct {
	ImageURL string `json:"imageUrl"`
}

func (ImageBackground) GetType() BackgroundType { return BackgroundImage }
func (ImageBackground) isBackground()           {}

// MarshalJSON adds the "type" discriminator.
func (b ImageBackground) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     BackgroundType `json:"type"`
		ImageURL string         `json:"imageUrl"`
	}{BackgroundImage, b.ImageURL})
}

// DefaultBackground returns the white background new slides start with.
func DefaultBackground() Background {
	return ColorBackground{Color: DefaultBackgroundColor}
}

// DecodeBackground decodes a background from its tagged JSON form.
func DecodeBackground(data []byte) (Background, error) {
	var head struct {
		Type BackgroundType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode background: %w", err)
	}
	switch head.Type {
	case BackgroundColor:
		var b ColorBackground
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode color background: %w", err)
		}
		return b, nil
	case BackgroundImage:
		var b ImageBackground
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decode image background: %w", err)
		}
		return b, nil
	case "":
		return nil, fmt.Errorf("decode background: %w", errMissingType)
	default:
		return nil, fmt.Errorf("decode background: unknown type %q", head.Type)
	}
}
