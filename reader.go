package deck

import (
	"fmt"
	"io"
	"os"
)

// Reader is the interface for editor document readers.
type Reader interface {
	Read(path string) (EditorState, error)
	ReadFromReader(r io.Reader) (EditorState, error)
}

// ReaderType represents the input format.
type ReaderType string

const (
	ReaderJSON ReaderType = "JSON"
)

// maxDocumentSize limits how much of a document file is read.
const maxDocumentSize = 64 << 20 // 64 MB

// NewReader creates a reader for the given format.
func NewReader(format ReaderType) (Reader, error) {
	switch format {
	case ReaderJSON:
		return &JSONReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported reader format: %s", format)
	}
}

// JSONReader reads editor documents exported as JSON. Every document goes
// through the validation gate.
type JSONReader struct{}

// Read reads a document from a file path.
func (r *JSONReader) Read(path string) (EditorState, error) {
	f, err := os.Open(path)
	if err != nil {
		return EditorState{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return EditorState{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > maxDocumentSize {
		return EditorState{}, fmt.Errorf("file size %d exceeds maximum allowed (%d bytes)", info.Size(), maxDocumentSize)
	}
	return r.ReadFromReader(f)
}

// ReadFromReader reads a document from r.
func (r *JSONReader) ReadFromReader(reader io.Reader) (EditorState, error) {
	return DecodeEditorState(io.LimitReader(reader, maxDocumentSize))
}
