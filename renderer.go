package deck

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// RenderOptions configures slide-to-image rendering.
type RenderOptions struct {
	// Width is the output image width in pixels. Height follows the page
	// aspect ratio. Default: 960
	Width int
	// Format is the output image format (PNG or JPEG).
	Format ImageFormat
	// JPEGQuality is the JPEG quality (1-100). Default: 90.
	JPEGQuality int
	// BackgroundColor overrides the slide background. Nil means use slide background or white.
	BackgroundColor *color.RGBA
	// PageWidth and PageHeight are the slide size in document pixels.
	// Default: 1000x600.
	PageWidth  float64
	PageHeight float64
	// FontDirs specifies additional directories to search for TrueType/OpenType fonts.
	// System font directories are always searched automatically.
	FontDirs []string
	// FontCache allows sharing a pre-configured FontCache across multiple renders.
	// If nil, a new FontCache is created using FontDirs.
	FontCache *FontCache
	// Loader resolves image sources. Default: a URLLoader.
	Loader AssetLoader
	Logger *slog.Logger
}

// DefaultRenderOptions returns default rendering options.
func DefaultRenderOptions() *RenderOptions {
	return &RenderOptions{
		Width:       960,
		Format:      ImageFormatPNG,
		JPEGQuality: 90,
		PageWidth:   DefaultPageWidth,
		PageHeight:  DefaultPageHeight,
	}
}

// PreviewRenderer rasterizes slides for thumbnails and playback frames. It
// draws the same content as the export: background, then elements in
// z-order, with text baselines on the bottom edge of their box.
type PreviewRenderer struct {
	opts   RenderOptions
	fonts  *FontCache
	loader AssetLoader
	log    *slog.Logger
}

// NewPreviewRenderer creates a renderer. A nil opts uses DefaultRenderOptions.
func NewPreviewRenderer(opts *RenderOptions) *PreviewRenderer {
	if opts == nil {
		opts = DefaultRenderOptions()
	}
	r := &PreviewRenderer{opts: *opts, fonts: opts.FontCache, loader: opts.Loader, log: opts.Logger}
	if r.opts.Width <= 0 {
		r.opts.Width = 960
	}
	if r.opts.PageWidth <= 0 {
		r.opts.PageWidth = DefaultPageWidth
	}
	if r.opts.PageHeight <= 0 {
		r.opts.PageHeight = DefaultPageHeight
	}
	if r.fonts == nil {
		r.fonts = NewFontCache(opts.FontDirs...)
	}
	if r.loader == nil {
		r.loader = NewURLLoader(DefaultFetchTimeout)
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// WithWidth returns a renderer sharing fonts and loader that renders at width.
func (r *PreviewRenderer) WithWidth(width int) *PreviewRenderer {
	if width <= 0 || width == r.opts.Width {
		return r
	}
	c := *r
	c.opts.Width = width
	return &c
}

// SlideToImage renders a single slide to an image.
func (r *PreviewRenderer) SlideToImage(ctx context.Context, s Slide) *image.RGBA {
	imgW := r.opts.Width
	imgH := int(math.Round(float64(imgW) * r.opts.PageHeight / r.opts.PageWidth))
	scale := float64(imgW) / r.opts.PageWidth

	img := image.NewRGBA(image.Rect(0, 0, imgW, imgH))
	rr := &rasterizer{img: img, scale: scale}

	// Fill background
	bgColor := White.RGBA()
	switch bg := s.Background.(type) {
	case ColorBackground:
		bgColor = ParseHexColorOr(bg.Color, White).RGBA()
	case ImageBackground:
		if a, err := r.loader.Load(ctx, bg.ImageURL); err == nil {
			draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
			draw.BiLinear.Scale(img, img.Bounds(), a.Image, a.Image.Bounds(), draw.Over, nil)
			bgColor = color.RGBA{}
		} else {
			r.log.Warn("preview background skipped", "slide", s.ID, "error", err)
		}
	}
	if r.opts.BackgroundColor != nil {
		bgColor = *r.opts.BackgroundColor
	}
	if bgColor.A != 0 {
		draw.Draw(img, img.Bounds(), &image.Uniform{C: bgColor}, image.Point{}, draw.Src)
	}

	for _, el := range s.Elements {
		switch el := el.(type) {
		case TextElement:
			face := r.fonts.Face(el.FontFamily, el.FontSize*scale)
			rr.drawText(el, face)
		case ImageElement:
			a, err := r.loader.Load(ctx, el.Content)
			if err != nil {
				r.log.Warn("preview image skipped", "slide", s.ID, "element", el.ID, "error", err)
				continue
			}
			rr.drawImage(a.Image, el.Box())
		}
	}
	return img
}

// SlidesToImages renders all slides to images.
func (r *PreviewRenderer) SlidesToImages(ctx context.Context, p Presentation) []image.Image {
	images := make([]image.Image, len(p.Slides))
	for i, s := range p.Slides {
		images[i] = r.SlideToImage(ctx, s)
	}
	return images
}

// Encode writes img in the configured format.
func (r *PreviewRenderer) Encode(w io.Writer, img image.Image) error {
	switch r.opts.Format {
	case ImageFormatJPEG:
		quality := r.opts.JPEGQuality
		if quality <= 0 || quality > 100 {
			quality = 90
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	default:
		return png.Encode(w, img)
	}
}

// SaveSlideAsImage renders a slide and saves it to a file.
func (r *PreviewRenderer) SaveSlideAsImage(ctx context.Context, s Slide, path string) error {
	return r.saveImage(r.SlideToImage(ctx, s), path)
}

// SaveSlidesAsImages renders all slides and saves them to files.
// The pattern should contain %d for the slide number (1-based), e.g. "slide_%d.png".
func (r *PreviewRenderer) SaveSlidesAsImages(ctx context.Context, p Presentation, pattern string) error {
	for i, s := range p.Slides {
		path := fmt.Sprintf(pattern, i+1)
		if err := r.SaveSlideAsImage(ctx, s, path); err != nil {
			return fmt.Errorf("slide %d: %w", i+1, err)
		}
	}
	return nil
}

func (r *PreviewRenderer) saveImage(img image.Image, path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := r.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// --- rasterizer ---

type rasterizer struct {
	img   *image.RGBA
	scale float64
}

func (r *rasterizer) px(v float64) int {
	return int(math.Round(v * r.scale))
}

func (r *rasterizer) rect(b Box) image.Rectangle {
	return image.Rect(r.px(b.Position.X), r.px(b.Position.Y), r.px(b.Right()), r.px(b.Bottom()))
}

func (r *rasterizer) drawText(el TextElement, face font.Face) {
	if el.Content == "" {
		return
	}
	d := &font.Drawer{
		Dst:  r.img,
		Src:  &image.Uniform{C: ParseHexColorOr(el.FontColor, Black).RGBA()},
		Face: face,
		Dot:  fixed.P(r.px(el.Position.X), r.px(el.Box().Bottom())),
	}
	d.DrawString(el.Content)
}

// drawImage scales src into the element box with bilinear filtering.
func (r *rasterizer) drawImage(src image.Image, b Box) {
	dst := r.rect(b)
	if dst.Empty() {
		return
	}
	draw.BiLinear.Scale(r.img, dst, src, src.Bounds(), draw.Over, nil)
}
