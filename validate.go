package deck

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

var documentSchema = jsonschema.MustCompileString("schema.json", schemaJSON)

// ErrInvalidDocument matches every *ValidationError.
var ErrInvalidDocument = errors.New("invalid document")

// ValidationError lists every problem found in a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed:\n  %s", strings.Join(e.Problems, "\n  "))
}

// Is reports whether target is ErrInvalidDocument.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// Validate checks the presentation for invariant violations and returns an
// error describing all problems found, or nil if the presentation is valid.
func (p Presentation) Validate() error {
	var errs []string

	slideIDs := make(map[string]bool, len(p.Slides))
	elementIDs := make(map[string]string)

	for i, s := range p.Slides {
		prefix := fmt.Sprintf("slide %d", i+1)
		switch {
		case s.ID == "":
			errs = append(errs, prefix+": id is empty")
		case slideIDs[s.ID]:
			errs = append(errs, fmt.Sprintf("%s: duplicate slide id %q", prefix, s.ID))
		}
		slideIDs[s.ID] = true

		switch bg := s.Background.(type) {
		case nil:
			errs = append(errs, prefix+": background is missing")
		case ColorBackground:
			if !IsHexColor(bg.Color) {
				errs = append(errs, fmt.Sprintf("%s: background color %q is not #RRGGBB", prefix, bg.Color))
			}
		case ImageBackground:
			if bg.ImageURL == "" {
				errs = append(errs, prefix+": background image URL is empty")
			}
		}

		for _, e := range validateElements(s, elementIDs) {
			errs = append(errs, prefix+": "+e)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Problems: errs}
}

// validateElements checks one slide's elements. seen maps element ids to the
// slide that owns them, so duplicates are caught across the whole deck.
func validateElements(s Slide, seen map[string]string) []string {
	var errs []string
	for j, el := range s.Elements {
		prefix := fmt.Sprintf("element %d", j+1)
		if el == nil {
			errs = append(errs, prefix+": element is nil")
			continue
		}
		id := el.GetID()
		if id == "" {
			errs = append(errs, prefix+": id is empty")
		} else if owner, dup := seen[id]; dup {
			errs = append(errs, fmt.Sprintf("%s: duplicate element id %q (also on slide %q)", prefix, id, owner))
		} else {
			seen[id] = s.ID
		}

		size := el.GetSize()
		if size.Width < MinElementSize || size.Height < MinElementSize {
			errs = append(errs, fmt.Sprintf("%s: size %gx%g is below %d", prefix, size.Width, size.Height, MinElementSize))
		}

		switch e := el.(type) {
		case TextElement:
			if e.FontSize <= 0 {
				errs = append(errs, fmt.Sprintf("%s: font size %g must be positive", prefix, e.FontSize))
			}
			if !IsHexColor(e.FontColor) {
				errs = append(errs, fmt.Sprintf("%s: font color %q is not #RRGGBB", prefix, e.FontColor))
			}
		case ImageElement:
			if e.Content == "" {
				errs = append(errs, prefix+": image has no source")
			}
		}
	}
	return errs
}

// DecodeEditorState reads a stored or imported editor document. The JSON is
// checked against the document schema, decoded and then checked for
// invariant violations. Any failure is returned as a *ValidationError.
func DecodeEditorState(r io.Reader) (EditorState, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return EditorState{}, fmt.Errorf("read document: %w", err)
	}
	return DecodeEditorStateBytes(data)
}

// DecodeEditorStateBytes is DecodeEditorState for in-memory data.
func DecodeEditorStateBytes(data []byte) (EditorState, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return EditorState{}, &ValidationError{Problems: []string{"invalid JSON: " + err.Error()}}
	}
	if err := documentSchema.Validate(doc); err != nil {
		return EditorState{}, &ValidationError{Problems: schemaProblems(err)}
	}

	var state EditorState
	if err := json.Unmarshal(data, &state); err != nil {
		return EditorState{}, &ValidationError{Problems: []string{err.Error()}}
	}
	if err := state.Presentation.Validate(); err != nil {
		return EditorState{}, err
	}
	return state, nil
}

// schemaProblems flattens a schema error into one line per failing leaf.
func schemaProblems(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	seen := make(map[string]bool)
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			loc := v.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			seen[loc+": "+v.Message] = true
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)

	problems := make([]string, 0, len(seen))
	for p := range seen {
		problems = append(problems, p)
	}
	sort.Strings(problems)
	return problems
}
