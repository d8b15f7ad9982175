package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/language"

	deck "github.com/ArtemEIPS/presentation-maker"
	"github.com/ArtemEIPS/presentation-maker/store"
)

var (
	ErrSlideNotFound      = errors.New("slide does not exist")
	ErrUnknownElementType = errors.New("unknown element type")
)

const saveTimeout = 5 * time.Second

// Options configures a Session.
type Options struct {
	// Key names the document in Store. Default: "default".
	Key   string
	Store store.DocumentStore
	// HistoryDepth caps the undo stack; zero or less is unbounded.
	HistoryDepth int
	Exporter     *deck.Exporter
	Previews     *deck.PreviewRenderer
	// Language picks the localized defaults for new documents and text boxes.
	Language language.Tag
	Logger   *slog.Logger
}

// Session owns one edited document. Every transition is serialized, saved to
// the store and broadcast to connected clients.
type Session struct {
	mu       sync.Mutex
	key      string
	history  *deck.History
	store    store.DocumentStore
	exporter *deck.Exporter
	previews *deck.PreviewRenderer
	hub      *Hub
	lang     language.Tag
	log      *slog.Logger

	// pending holds the encoded state to save after the current transition.
	pending []byte
}

// NewSession restores the document under opts.Key, or starts an empty one
// when nothing usable is stored.
func NewSession(ctx context.Context, hub *Hub, opts Options) *Session {
	s := &Session{
		key:      opts.Key,
		store:    opts.Store,
		exporter: opts.Exporter,
		previews: opts.Previews,
		hub:      hub,
		lang:     opts.Language,
		log:      opts.Logger,
	}
	if s.key == "" {
		s.key = "default"
	}
	if s.exporter == nil {
		s.exporter = deck.NewExporter(nil)
	}
	if s.previews == nil {
		s.previews = deck.NewPreviewRenderer(nil)
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	s.history = deck.NewHistory(s.restore(ctx), opts.HistoryDepth)
	s.history.Subscribe(s.onChange)
	return s
}

func (s *Session) restore(ctx context.Context) deck.EditorState {
	initial := deck.DefaultEditorState(s.lang)
	if s.store == nil {
		return initial
	}
	data, err := s.store.Load(ctx, s.key)
	if errors.Is(err, store.ErrNotFound) {
		return initial
	}
	if err != nil {
		s.log.Warn("failed to load stored document", "key", s.key, "error", err)
		return initial
	}
	state, err := deck.DecodeEditorStateBytes(data)
	if err != nil {
		s.log.Warn("ignoring invalid stored document", "key", s.key, "error", err)
		return initial
	}
	s.log.Info("restored document", "key", s.key, "slides", len(state.Presentation.Slides))
	return state
}

// onChange runs under s.mu for every new present state.
func (s *Session) onChange(state deck.EditorState) {
	data, err := json.Marshal(state)
	if err != nil {
		s.log.Error("failed to encode state", "error", err)
		return
	}
	s.pending = data
	if s.hub != nil {
		s.hub.Broadcast(stateMessage(state, s.history))
	}
}

// flush saves the pending state. Save failures are logged; the in-memory
// document stays authoritative.
func (s *Session) flush(ctx context.Context) {
	data := s.pending
	s.pending = nil
	if data == nil || s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := s.store.Save(ctx, s.key, data); err != nil {
		s.log.Error("autosave failed", "key", s.key, "error", err)
	}
}

// transition runs fn under the lock and saves whatever it changed.
func (s *Session) transition(ctx context.Context, fn func() error) (deck.EditorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn()
	s.flush(ctx)
	return s.history.Present(), err
}

// State returns the present editor state.
func (s *Session) State() deck.EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Present()
}

// Snapshot returns the present state together with the undo/redo counts.
func (s *Session) Snapshot() Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stateMessage(s.history.Present(), s.history)
}

// Apply dispatches one action, including UNDO, REDO and LOAD_EDITOR.
func (s *Session) Apply(ctx context.Context, a deck.Action) (deck.EditorState, error) {
	return s.transition(ctx, func() error {
		return s.history.Apply(a)
	})
}

// Undo steps back. ok is false when there was nothing to undo.
func (s *Session) Undo(ctx context.Context) (state deck.EditorState, ok bool) {
	state, _ = s.transition(ctx, func() error {
		ok = s.history.Undo()
		return nil
	})
	return state, ok
}

// Redo steps forward. ok is false when there was nothing to redo.
func (s *Session) Redo(ctx context.Context) (state deck.EditorState, ok bool) {
	state, _ = s.transition(ctx, func() error {
		ok = s.history.Redo()
		return nil
	})
	return state, ok
}

// Select replaces the selection. It is not an undo step.
func (s *Session) Select(ctx context.Context, sel *deck.Selection) deck.EditorState {
	state, _ := s.transition(ctx, func() error {
		s.history.Select(sel)
		return nil
	})
	return state
}

// Import validates data and loads it, clearing history. On failure the
// current document is left untouched.
func (s *Session) Import(ctx context.Context, data []byte) (deck.EditorState, error) {
	state, err := deck.DecodeEditorStateBytes(data)
	if err != nil {
		return s.State(), err
	}
	return s.transition(ctx, func() error {
		s.history.Load(state)
		return nil
	})
}

// AddElement inserts a default element of kind into a slide. Text boxes get
// content or the localized placeholder; images are probed for their natural
// size before insertion.
func (s *Session) AddElement(ctx context.Context, slideID string, kind deck.ElementType, content string) (deck.EditorState, error) {
	var el deck.Element
	switch kind {
	case deck.ElementText:
		if content == "" {
			content = deck.DefaultText(s.lang)
		}
		el = deck.NewTextElement(content)
	case deck.ElementImage:
		asset, err := s.exporter.Loader().Load(ctx, content)
		if err != nil {
			return s.State(), fmt.Errorf("load image: %w", err)
		}
		el = deck.NewImageElement(content, asset.Size())
	default:
		return s.State(), fmt.Errorf("%w: %q", ErrUnknownElementType, kind)
	}

	return s.transition(ctx, func() error {
		if s.history.Present().Presentation.SlideIndex(slideID) < 0 {
			return ErrSlideNotFound
		}
		s.history.Dispatch(deck.AddElement{SlideID: slideID, Element: el})
		return nil
	})
}

// ExportPDF exports the present document. It returns
// deck.ErrExportInProgress while another export runs.
func (s *Session) ExportPDF(ctx context.Context) ([]byte, *deck.ExportResult, error) {
	p := s.State().Presentation
	var buf bytes.Buffer
	res, err := s.exporter.Export(ctx, p, &buf)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), res, nil
}

// Preview renders one slide at width pixels.
func (s *Session) Preview(ctx context.Context, slideID string, width int) (image.Image, error) {
	slide, ok := s.State().Presentation.FindSlide(slideID)
	if !ok {
		return nil, ErrSlideNotFound
	}
	return s.previews.WithWidth(width).SlideToImage(ctx, slide), nil
}

// EncodePreview writes img in the preview format.
func (s *Session) EncodePreview(w io.Writer, img image.Image) error {
	return s.previews.Encode(w, img)
}

// Language returns the session language.
func (s *Session) Language() language.Tag {
	return s.lang
}
