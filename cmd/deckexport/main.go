// Command deckexport converts a saved editor document to PDF and optionally
// renders slide previews.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	deck "github.com/ArtemEIPS/presentation-maker"
)

func main() {
	out := flag.String("o", "", "output PDF path (default: derived from the title)")
	previews := flag.String("previews", "", "directory for PNG slide previews")
	width := flag.Int("width", 1920, "preview width in pixels")
	fontPath := flag.String("font", "", "TrueType font file to embed")
	fontFamily := flag.String("font-family", "", "font family to look up in system font directories")
	verbose := flag.Bool("v", false, "log image fallbacks")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] document.json\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, flag.Arg(0), *out, *previews, *width, *fontPath, *fontFamily, logger); err != nil {
		fmt.Fprintf(os.Stderr, "deckexport: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, src, out, previewDir string, width int, fontPath, fontFamily string, logger *slog.Logger) error {
	state, err := deck.Open(src)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	p := state.Presentation

	fonts := deck.NewFontCache()
	// Documents opened from disk may reference images next to them.
	loader := deck.NewURLLoader(deck.DefaultFetchTimeout)
	loader.AllowFiles = true

	opts := deck.DefaultExportOptions()
	opts.Loader = loader
	opts.FontPath = fontPath
	opts.FontFamily = fontFamily
	opts.FontCache = fonts
	opts.Logger = logger

	if out == "" {
		out = filepath.Join(filepath.Dir(src), deck.PDFFileName(p.Title))
	}
	w, err := deck.NewWriter(state, deck.WriterPDF, opts)
	if err != nil {
		return err
	}
	if err := w.Save(out); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	res := w.(*deck.PDFWriter).Result
	fmt.Printf("Exported %d slides to %s (%d images skipped, %d backgrounds replaced)\n",
		res.Pages, out, res.SkippedImages, res.FallbackBackgrounds)

	if previewDir == "" {
		return nil
	}
	ropts := deck.DefaultRenderOptions()
	ropts.Width = width
	ropts.FontCache = fonts
	ropts.Loader = loader
	ropts.Logger = logger
	pattern := filepath.Join(previewDir, "slide%02d.png")
	if err := deck.NewPreviewRenderer(ropts).SaveSlidesAsImages(ctx, p, pattern); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	fmt.Printf("Rendered %d slides to %s\n", p.GetSlideCount(), previewDir)
	return nil
}
