package deck

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/go-pdf/fpdf"
)

// pdfFontFamily is the name the embedded font is registered under.
const pdfFontFamily = "deck"

// PDFEncoder encodes pages as a PDF document. It takes bottom-left
// coordinates and converts them to the top-left user space of fpdf, with one
// PDF point per document pixel.
type PDFEncoder struct {
	pdf    *fpdf.Fpdf
	height float64 // height of the current page
	font   bool
}

// NewPDFEncoder creates an encoder whose default page size is width x height.
func NewPDFEncoder(width, height float64) *PDFEncoder {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator(DefaultCreator(), true)
	return &PDFEncoder{pdf: pdf, height: height}
}

// SetProperties writes the document information dictionary.
func (e *PDFEncoder) SetProperties(dp DocumentProperties) {
	e.pdf.SetTitle(dp.Title, true)
	e.pdf.SetAuthor(dp.Author, true)
	e.pdf.SetSubject(dp.Subject, true)
	e.pdf.SetKeywords(dp.KeywordString(), true)
	if dp.Creator != "" {
		e.pdf.SetCreator(dp.Creator, true)
	}
}

// EmbedFont registers a UTF-8 TrueType font used for all text.
func (e *PDFEncoder) EmbedFont(data []byte) error {
	if _, err := checkFont(data); err != nil {
		return err
	}
	e.pdf.AddUTF8FontFromBytes(pdfFontFamily, "", data)
	if err := e.takeError(); err != nil {
		return fmt.Errorf("embed font: %w", err)
	}
	e.font = true
	return nil
}

// AddPage starts a new page.
func (e *PDFEncoder) AddPage(width, height float64) {
	e.pdf.AddPageFormat("P", fpdf.SizeType{Wd: width, Ht: height})
	e.height = height
}

// DrawRectangle fills a rectangle whose bottom-left corner is (x, y).
func (e *PDFEncoder) DrawRectangle(x, y, width, height float64, c RGB) {
	r, g, b := c.RGB255()
	e.pdf.SetFillColor(int(r), int(g), int(b))
	e.pdf.Rect(x, e.height-y-height, width, height, "F")
}

// DrawText draws text with its baseline at (x, y).
func (e *PDFEncoder) DrawText(text string, x, y, size float64, c RGB) {
	if !e.font || text == "" {
		return
	}
	r, g, b := c.RGB255()
	e.pdf.SetFont(pdfFontFamily, "", size)
	e.pdf.SetTextColor(int(r), int(g), int(b))
	e.pdf.Text(x, e.height-y, text)
}

// DrawImage draws the asset scaled into the rectangle whose bottom-left
// corner is (x, y). Images are named by content hash, so each distinct image is
// embedded once however often it is drawn.
func (e *PDFEncoder) DrawImage(a *Asset, x, y, width, height float64) error {
	if a == nil || len(a.Data) == 0 {
		return fmt.Errorf("draw image: %w", ErrUnsupportedImage)
	}
	opts := fpdf.ImageOptions{ImageType: "PNG", AllowNegativePosition: true}
	if a.Format == ImageFormatJPEG {
		opts.ImageType = "JPG"
	}
	name := "img-" + strconv.FormatUint(xxhash.Sum64(a.Data), 16)

	if e.pdf.GetImageInfo(name) == nil {
		e.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(a.Data))
		if err := e.takeError(); err != nil {
			return fmt.Errorf("embed image: %w", err)
		}
	}
	e.pdf.ImageOptions(name, x, e.height-y-height, width, height, false, opts, 0, "")
	if err := e.takeError(); err != nil {
		return fmt.Errorf("draw image: %w", err)
	}
	return nil
}

// WriteTo writes the finished document. The encoder cannot be used
// afterwards.
func (e *PDFEncoder) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := e.pdf.Output(cw)
	return cw.n, err
}

// takeError returns and clears the sticky fpdf error so that one failed
// image does not poison the rest of the document.
func (e *PDFEncoder) takeError() error {
	if !e.pdf.Err() {
		return nil
	}
	err := e.pdf.Error()
	e.pdf.ClearError()
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
