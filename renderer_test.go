package deck

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
)

func testRenderer(loader AssetLoader) *PreviewRenderer {
	opts := DefaultRenderOptions()
	opts.Width = 500
	opts.Loader = loader
	opts.Logger = quietLogger()
	return NewPreviewRenderer(opts)
}

func TestSlideToImage_BlankSlide(t *testing.T) {
	img := testRenderer(stubLoader{}).SlideToImage(context.Background(), testSlide("s1"))

	assert.Equal(t, image.Rect(0, 0, 500, 300), img.Bounds())
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(10, 10))
}

func TestSlideToImage_ColorBackground(t *testing.T) {
	s := testSlide("s1")
	s.Background = ColorBackground{Color: "#FF00AA"}

	img := testRenderer(stubLoader{}).SlideToImage(context.Background(), s)
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 170, A: 255}, img.RGBAAt(250, 150))
}

func TestSlideToImage_ImageElement(t *testing.T) {
	a, err := DecodeAsset(testPNG(t, 2, 2), "")
	require.NoError(t, err)
	el := ImageElement{
		BaseElement: BaseElement{ID: "i1", Position: Point{X: 100, Y: 100}, Size: Size{Width: 200, Height: 100}},
		Content:     "red.png",
	}
	s := testSlide("s1", el)

	img := testRenderer(stubLoader{"red.png": a}).SlideToImage(context.Background(), s)
	// The element covers (50,50)-(150,100) at half scale.
	got := img.RGBAAt(100, 75)
	assert.InDelta(t, 200, int(got.R), 2)
	assert.InDelta(t, 0, int(got.G), 2)
	assert.InDelta(t, 0, int(got.B), 2)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(10, 10))
}

func TestSlideToImage_TextIsDrawn(t *testing.T) {
	s := testSlide("s1", textAt("Hello", 10, 10, 300, 60))
	img := testRenderer(stubLoader{}).SlideToImage(context.Background(), s)

	dark := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 200; x++ {
			if c := img.RGBAAt(x, y); c.R < 128 {
				dark++
			}
		}
	}
	assert.Positive(t, dark)
}

func TestSlideToImage_BrokenBackgroundFallsBackToWhite(t *testing.T) {
	s := testSlide("s1")
	s.Background = ImageBackground{ImageURL: "missing.png"}

	img := testRenderer(stubLoader{}).SlideToImage(context.Background(), s)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(0, 0))
}

func TestSaveSlidesAsImages(t *testing.T) {
	dir := t.TempDir()
	p := NewPresentation("Deck").AddSlide(testSlide("s1")).AddSlide(testSlide("s2"))

	r := testRenderer(stubLoader{})
	require.NoError(t, r.SaveSlidesAsImages(context.Background(), p, filepath.Join(dir, "out", "slide_%d.png")))

	data, err := os.ReadFile(filepath.Join(dir, "out", "slide_2.png"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())
}

func TestWithWidth(t *testing.T) {
	r := testRenderer(stubLoader{})
	small := r.WithWidth(100)
	assert.Equal(t, 60, small.SlideToImage(context.Background(), testSlide("s1")).Bounds().Dy())
	assert.Same(t, r, r.WithWidth(0))
}

func TestFontCacheFallsBackToDefault(t *testing.T) {
	fc := NewFontCache(t.TempDir())
	face := fc.Face("No Such Family", 16)
	require.NotNil(t, face)
	assert.Positive(t, font.MeasureString(face, "Привет").Ceil())

	data, ok := fc.FontData(DefaultFontName)
	require.True(t, ok)
	assert.Equal(t, DefaultFontData(), data)

	_, ok = fc.FontData("No Such Family")
	assert.False(t, ok)
}

func TestFontCacheLoadFontData(t *testing.T) {
	fc := NewFontCache(t.TempDir())
	require.NoError(t, fc.LoadFontData("Corporate Sans", DefaultFontData()))

	data, ok := fc.FontData("corporate sans")
	require.True(t, ok)
	assert.NotEmpty(t, data)
	assert.Same(t, fc.Face("Corporate Sans", 12), fc.Face("corporate sans", 12))

	assert.Error(t, fc.LoadFontData("broken", []byte("nope")))
}
