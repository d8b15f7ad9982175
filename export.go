package deck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"golang.org/x/image/font/opentype"
	"golang.org/x/text/unicode/norm"
)

// Page size of exported documents, in document pixels.
const (
	DefaultPageWidth  = 1000
	DefaultPageHeight = 600
)

var (
	// ErrExportInProgress is returned when Export is called on an Exporter
	// that is still busy with a previous export.
	ErrExportInProgress = errors.New("export already in progress")
	// ErrFontSetup is returned when the embedded font cannot be loaded.
	// It aborts the whole export.
	ErrFontSetup = errors.New("font setup failed")
)

// ExportOptions configures an Exporter.
type ExportOptions struct {
	// PageWidth and PageHeight are the fixed page size. Default: 1000x600.
	PageWidth  float64
	PageHeight float64
	// FontData is the TrueType font embedded for all text. When empty the
	// font is taken from FontPath, then from FontFamily resolved through the
	// font cache, and finally the bundled Go Regular font is used.
	FontData   []byte
	FontPath   string
	FontFamily string
	// FontDirs specifies additional directories to search for fonts.
	FontDirs []string
	// FontCache allows sharing a pre-configured FontCache. If nil, a new
	// FontCache is created using FontDirs.
	FontCache *FontCache
	// Loader resolves image sources. Default: a URLLoader with FetchTimeout.
	Loader       AssetLoader
	FetchTimeout time.Duration
	// NewEncoder creates the document encoder for one export. Default: PDF.
	NewEncoder func(width, height float64) Encoder
	// Properties is written as document metadata when the encoder supports
	// it. An empty title uses the presentation title.
	Properties DocumentProperties
	Logger     *slog.Logger
}

// DefaultExportOptions returns default export options.
func DefaultExportOptions() *ExportOptions {
	return &ExportOptions{
		PageWidth:    DefaultPageWidth,
		PageHeight:   DefaultPageHeight,
		FetchTimeout: DefaultFetchTimeout,
	}
}

// Op is one drawing operation on a page. Coordinates use a bottom-left
// origin with y growing upward.
type Op interface {
	isOp()
}

// FillOp fills a rectangle with a solid color.
type FillOp struct {
	X, Y, Width, Height float64
	Color               RGB
}

// TextOp draws one line of text with its baseline at (X, Y).
type TextOp struct {
	X, Y     float64
	Text     string
	FontSize float64
	Color    RGB
}

// ImageOp draws an image scaled to the rectangle. Background marks the
// full-page background image of a slide.
type ImageOp struct {
	X, Y, Width, Height float64
	Asset               *Asset
	Background          bool
}

func (FillOp) isOp()  {}
func (TextOp) isOp()  {}
func (ImageOp) isOp() {}

// Page is one rendered slide.
type Page struct {
	Width, Height float64
	Ops           []Op
}

// Encoder serializes pages into a document format.
type Encoder interface {
	EmbedFont(data []byte) error
	AddPage(width, height float64)
	DrawRectangle(x, y, width, height float64, c RGB)
	DrawText(text string, x, y, size float64, c RGB)
	DrawImage(a *Asset, x, y, width, height float64) error
	WriteTo(w io.Writer) (int64, error)
}

// ExportResult describes a finished export.
type ExportResult struct {
	FileName string
	Pages    int
	// SkippedImages counts element images that could not be loaded or
	// embedded and were left out.
	SkippedImages int
	// FallbackBackgrounds counts background images replaced by white.
	FallbackBackgrounds int
}

// Exporter renders presentations into fixed-size pages and encodes them.
// An Exporter runs one export at a time.
type Exporter struct {
	opts   ExportOptions
	fonts  *FontCache
	loader AssetLoader
	log    *slog.Logger
	busy   atomic.Bool
}

// NewExporter creates an Exporter. A nil opts uses DefaultExportOptions.
func NewExporter(opts *ExportOptions) *Exporter {
	if opts == nil {
		opts = DefaultExportOptions()
	}
	e := &Exporter{opts: *opts}
	if e.opts.PageWidth <= 0 {
		e.opts.PageWidth = DefaultPageWidth
	}
	if e.opts.PageHeight <= 0 {
		e.opts.PageHeight = DefaultPageHeight
	}
	e.fonts = e.opts.FontCache
	if e.fonts == nil {
		e.fonts = NewFontCache(e.opts.FontDirs...)
	}
	e.loader = e.opts.Loader
	if e.loader == nil {
		e.loader = NewURLLoader(e.opts.FetchTimeout)
	}
	e.log = e.opts.Logger
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.opts.NewEncoder == nil {
		e.opts.NewEncoder = func(w, h float64) Encoder { return NewPDFEncoder(w, h) }
	}
	return e
}

// Busy reports whether an export is running.
func (e *Exporter) Busy() bool {
	return e.busy.Load()
}

// Loader returns the asset loader used for images.
func (e *Exporter) Loader() AssetLoader {
	return e.loader
}

// Fonts returns the font cache used to resolve font families.
func (e *Exporter) Fonts() *FontCache {
	return e.fonts
}

// Render converts every slide into a page. Image failures never abort
// rendering: a background image that cannot be loaded becomes a white fill
// and an element image that cannot be loaded is left out.
func (e *Exporter) Render(ctx context.Context, p Presentation) []Page {
	pages, _ := e.render(ctx, p)
	return pages
}

func (e *Exporter) render(ctx context.Context, p Presentation) ([]Page, ExportResult) {
	var res ExportResult
	r := &pageRenderer{
		ctx:    ctx,
		e:      e,
		assets: make(map[string]assetResult),
		res:    &res,
	}
	pages := make([]Page, 0, len(p.Slides))
	for _, s := range p.Slides {
		pages = append(pages, r.renderSlide(s))
	}
	return pages, res
}

type assetResult struct {
	asset *Asset
	err   error
}

// pageRenderer holds the state of one Render call. Assets are loaded once
// per source.
type pageRenderer struct {
	ctx    context.Context
	e      *Exporter
	assets map[string]assetResult
	res    *ExportResult
}

func (r *pageRenderer) load(src string) (*Asset, error) {
	if cached, ok := r.assets[src]; ok {
		return cached.asset, cached.err
	}
	a, err := r.e.loader.Load(r.ctx, src)
	r.assets[src] = assetResult{asset: a, err: err}
	return a, err
}

func (r *pageRenderer) renderSlide(s Slide) Page {
	w, h := r.e.opts.PageWidth, r.e.opts.PageHeight
	page := Page{Width: w, Height: h, Ops: make([]Op, 0, len(s.Elements)+1)}

	switch bg := s.Background.(type) {
	case ColorBackground:
		page.Ops = append(page.Ops, FillOp{Width: w, Height: h, Color: ParseHexColorOr(bg.Color, White)})
	case ImageBackground:
		a, err := r.load(bg.ImageURL)
		if err != nil {
			r.e.log.Warn("background image skipped", "slide", s.ID, "error", err)
			r.res.FallbackBackgrounds++
			page.Ops = append(page.Ops, FillOp{Width: w, Height: h, Color: White})
			break
		}
		page.Ops = append(page.Ops, ImageOp{Width: w, Height: h, Asset: a, Background: true})
	default:
		page.Ops = append(page.Ops, FillOp{Width: w, Height: h, Color: White})
	}

	for _, el := range s.Elements {
		// The document origin is top-left; pages are bottom-left.
		x := el.GetPosition().X
		y := h - el.GetPosition().Y - el.GetSize().Height

		switch el := el.(type) {
		case TextElement:
			page.Ops = append(page.Ops, TextOp{
				X:        x,
				Y:        y,
				Text:     el.Content,
				FontSize: el.FontSize,
				Color:    ParseHexColorOr(el.FontColor, Black),
			})
		case ImageElement:
			a, err := r.load(el.Content)
			if err != nil {
				r.e.log.Warn("image skipped", "slide", s.ID, "element", el.ID, "error", err)
				r.res.SkippedImages++
				continue
			}
			page.Ops = append(page.Ops, ImageOp{X: x, Y: y, Width: el.Size.Width, Height: el.Size.Height, Asset: a})
		}
	}
	return page
}

// Export renders p and writes the encoded document to w. Nothing is written
// to w unless encoding succeeds. A second call while an export is running
// returns ErrExportInProgress.
func (e *Exporter) Export(ctx context.Context, p Presentation, w io.Writer) (*ExportResult, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	defer e.busy.Store(false)

	fontData, err := e.fontData()
	if err != nil {
		return nil, err
	}

	pages, res := e.render(ctx, p)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enc := e.opts.NewEncoder(e.opts.PageWidth, e.opts.PageHeight)
	if m, ok := enc.(interface{ SetProperties(DocumentProperties) }); ok {
		m.SetProperties(e.opts.Properties.withDefaults(p))
	}
	if err := enc.EmbedFont(fontData); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontSetup, err)
	}

	for i, page := range pages {
		enc.AddPage(page.Width, page.Height)
		for _, op := range page.Ops {
			switch op := op.(type) {
			case FillOp:
				enc.DrawRectangle(op.X, op.Y, op.Width, op.Height, op.Color)
			case TextOp:
				enc.DrawText(op.Text, op.X, op.Y, op.FontSize, op.Color)
			case ImageOp:
				if err := enc.DrawImage(op.Asset, op.X, op.Y, op.Width, op.Height); err != nil {
					if op.Background {
						e.log.Warn("background image not embedded", "page", i+1, "error", err)
						res.FallbackBackgrounds++
						enc.DrawRectangle(op.X, op.Y, op.Width, op.Height, White)
						continue
					}
					e.log.Warn("image not embedded", "page", i+1, "error", err)
					res.SkippedImages++
				}
			}
		}
	}

	var buf bytes.Buffer
	if _, err := enc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}

	res.FileName = PDFFileName(p.Title)
	res.Pages = len(pages)
	e.log.Info("presentation exported",
		"title", p.Title,
		"pages", res.Pages,
		"skipped_images", res.SkippedImages,
		"fallback_backgrounds", res.FallbackBackgrounds)
	return &res, nil
}

// fontData resolves the font to embed: the configured font, then an
// installed Unicode font, then Go Regular.
func (e *Exporter) fontData() ([]byte, error) {
	switch {
	case len(e.opts.FontData) > 0:
		return checkFont(e.opts.FontData)
	case e.opts.FontPath != "":
		data, err := os.ReadFile(e.opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFontSetup, err)
		}
		return checkFont(data)
	case e.opts.FontFamily != "":
		if data, ok := e.fonts.FontData(e.opts.FontFamily); ok {
			return data, nil
		}
		e.log.Warn("font family not found, searching for a Unicode font", "family", e.opts.FontFamily)
	}
	if data, family, ok := e.fonts.UnicodeFontData(); ok {
		e.log.Debug("embedding Unicode font", "family", family)
		return data, nil
	}
	e.log.Warn("no Unicode font installed, embedding Go Regular: CJK, Hebrew and Arabic text will not render",
		"searched", strings.Join(unicodeFamilies, ", "))
	return DefaultFontData(), nil
}

func checkFont(data []byte) ([]byte, error) {
	if _, err := opentype.Parse(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontSetup, err)
	}
	if !isTrueType(data) {
		return nil, fmt.Errorf("%w: not a TrueType font", ErrFontSetup)
	}
	return data, nil
}

const (
	maxFileNameLen  = 100
	defaultBaseName = "presentation"
)

// PDFFileName derives the export file name from a presentation title.
func PDFFileName(title string) string {
	return SanitizeFileName(title, defaultBaseName) + ".pdf"
}

// SanitizeFileName turns s into a file system safe token. Letters, digits,
// '-', '_' and '.' are kept, runs of anything else become a single '_'.
// fallback is returned when nothing usable remains.
func SanitizeFileName(s, fallback string) string {
	var b strings.Builder
	underscore := false
	for _, r := range norm.NFKC.String(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '.':
			b.WriteRune(r)
			underscore = false
		default:
			if !underscore {
				b.WriteRune('_')
				underscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_.")
	if runes := []rune(out); len(runes) > maxFileNameLen {
		out = strings.TrimRight(string(runes[:maxFileNameLen]), "_.")
	}
	if out == "" {
		return fallback
	}
	return out
}
