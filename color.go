package deck

import (
	"fmt"
	"image/color"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// RGB is a color with channels in 0..1.
type RGB struct {
	R, G, B float64
}

// Predefined fallback colors.
var (
	White = RGB{R: 1, G: 1, B: 1}
	Black = RGB{}
)

// IsHexColor reports whether s has the "#RRGGBB" document form.
func IsHexColor(s string) bool {
	return hexColorRegex.MatchString(s)
}

// ParseHexColor decodes a six-digit hex color. The leading "#" is optional.
func ParseHexColor(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if !IsHexColor(s) {
		return Black, fmt.Errorf("invalid color %q", s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Black, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB{R: c.R, G: c.G, B: c.B}, nil
}

// ParseHexColorOr decodes s, returning fallback when s is not a valid color.
func ParseHexColorOr(s string, fallback RGB) RGB {
	c, err := ParseHexColor(s)
	if err != nil {
		return fallback
	}
	return c
}

// RGB255 returns the channels scaled to 0..255.
func (c RGB) RGB255() (r, g, b uint8) {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().RGB255()
}

// RGBA converts c to an opaque image/color value.
func (c RGB) RGBA() color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

// Hex returns the "#rrggbb" form.
func (c RGB) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}
