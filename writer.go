package deck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Writer is the interface for editor document writers.
type Writer interface {
	Save(path string) error
	WriteTo(w io.Writer) (int64, error)
}

// WriterType represents the output format.
type WriterType string

const (
	WriterJSON WriterType = "JSON"
	WriterPDF  WriterType = "PDF"
)

// NewWriter creates a writer for the given format. opts only applies to PDF
// output and may be nil.
func NewWriter(s EditorState, format WriterType, opts *ExportOptions) (Writer, error) {
	switch format {
	case WriterJSON:
		return &JSONWriter{state: s}, nil
	case WriterPDF:
		return &PDFWriter{presentation: s.Presentation, exporter: NewExporter(opts)}, nil
	default:
		return nil, fmt.Errorf("unsupported writer format: %s", format)
	}
}

// JSONWriter writes the full editor state, the format read back by JSONReader.
type JSONWriter struct {
	state EditorState
}

// Save writes the document to a file.
func (w *JSONWriter) Save(path string) error {
	return saveFile(path, w)
}

// WriteTo writes indented JSON to writer.
func (w *JSONWriter) WriteTo(writer io.Writer) (int64, error) {
	data, err := json.MarshalIndent(w.state, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode document: %w", err)
	}
	n, err := writer.Write(append(data, '\n'))
	return int64(n), err
}

// PDFWriter exports the presentation as a PDF document.
type PDFWriter struct {
	presentation Presentation
	exporter     *Exporter
	// Result holds the outcome of the last successful write.
	Result *ExportResult
}

// Save writes the PDF to a file.
func (w *PDFWriter) Save(path string) error {
	return saveFile(path, w)
}

// WriteTo exports to writer.
func (w *PDFWriter) WriteTo(writer io.Writer) (int64, error) {
	var buf bytes.Buffer
	res, err := w.exporter.Export(context.Background(), w.presentation, &buf)
	if err != nil {
		return 0, err
	}
	w.Result = res
	return buf.WriteTo(writer)
}

// saveFile creates path and writes to it, removing the file when writing fails.
func saveFile(path string, wt io.WriterTo) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, writeErr := wt.WriteTo(f)
	closeErr := f.Close()

	if writeErr != nil {
		// Attempt cleanup on write failure
		os.Remove(path)
		return writeErr
	}
	return closeErr
}
