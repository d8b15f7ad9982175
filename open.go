package deck

import (
	"io"
)

// Open reads a JSON editor document from disk.
// This is a convenience wrapper around NewReader + Read.
func Open(path string) (EditorState, error) {
	reader, err := NewReader(ReaderJSON)
	if err != nil {
		return EditorState{}, err
	}
	return reader.Read(path)
}

// ReadFrom reads a JSON editor document from r.
func ReadFrom(r io.Reader) (EditorState, error) {
	reader, err := NewReader(ReaderJSON)
	if err != nil {
		return EditorState{}, err
	}
	return reader.ReadFromReader(r)
}

// Save writes the editor state to a JSON file.
func (s EditorState) Save(path string) error {
	writer, err := NewWriter(s, WriterJSON, nil)
	if err != nil {
		return err
	}
	return writer.Save(path)
}

// WriteTo writes the editor state as JSON.
func (s EditorState) WriteTo(w io.Writer) (int64, error) {
	writer, err := NewWriter(s, WriterJSON, nil)
	if err != nil {
		return 0, err
	}
	return writer.WriteTo(w)
}

// SavePDF exports the presentation to a PDF file.
func (p Presentation) SavePDF(path string, opts *ExportOptions) error {
	writer, err := NewWriter(EditorState{Presentation: p}, WriterPDF, opts)
	if err != nil {
		return err
	}
	return writer.Save(path)
}
