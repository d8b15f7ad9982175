package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	deck "github.com/ArtemEIPS/presentation-maker"
)

const (
	maxBodySize     = 64 << 20
	minPreviewWidth = 16
	maxPreviewWidth = 4096
)

// Handler serves the editing API of one session.
type Handler struct {
	session     *Session
	hub         *Hub
	upgrader    websocket.Upgrader
	shutdownCtx context.Context
	log         *slog.Logger
}

// NewHandler creates a handler. With no allowedOrigins, websocket upgrades
// require the Origin host to match the request host.
func NewHandler(shutdownCtx context.Context, session *Session, hub *Hub, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		session:     session,
		hub:         hub,
		shutdownCtx: shutdownCtx,
		log:         logger,
	}
	if len(allowedOrigins) > 0 {
		allowed := make(map[string]bool, len(allowedOrigins))
		for _, o := range allowedOrigins {
			allowed[o] = true
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return allowed[r.Header.Get("Origin")]
		}
	}
	return h
}

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error()}
	var ve *deck.ValidationError
	if errors.As(err, &ve) {
		resp.Error = deck.ErrInvalidDocument.Error()
		resp.Problems = ve.Problems
	}
	writeJSON(w, status, resp)
}

// actionStatus maps a failed action to an HTTP status.
func actionStatus(err error) int {
	if errors.Is(err, deck.ErrInvalidDocument) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return nil, false
	}
	return data, true
}

// Health reports liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": deck.Version})
}

// GetState returns the present editor state.
// GET /api/state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// PostAction applies one action envelope.
// POST /api/actions
func (h *Handler) PostAction(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}
	action, err := deck.ParseAction(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := h.session.Apply(r.Context(), action); err != nil {
		writeError(w, actionStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Undo steps back one edit.
// POST /api/undo
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.session.Undo(r.Context())
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Redo re-applies one undone edit.
// POST /api/redo
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.session.Redo(r.Context())
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// PutSelection replaces the selection; a JSON null clears it.
// PUT /api/selection
func (h *Handler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var sel *deck.Selection
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&sel); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h.session.Select(r.Context(), sel)
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

type addElementRequest struct {
	Type    deck.ElementType `json:"type"`
	Content string           `json:"content"`
}

// AddElement inserts a default text box or an image into a slide.
// POST /api/slides/{slideID}/elements
func (h *Handler) AddElement(w http.ResponseWriter, r *http.Request) {
	slideID := mux.Vars(r)["slideID"]

	var req addElementRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	_, err := h.session.AddElement(r.Context(), slideID, req.Type, req.Content)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, h.session.Snapshot())
	case errors.Is(err, ErrSlideNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ErrUnknownElementType):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, deck.ErrUnsupportedImage):
		writeError(w, http.StatusUnsupportedMediaType, err)
	case errors.Is(err, deck.ErrSourceNotAllowed):
		writeError(w, http.StatusForbidden, err)
	default:
		writeError(w, http.StatusUnprocessableEntity, err)
	}
}

// Import loads a JSON document, replacing the current one and its history.
// POST /api/import
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}
	if _, err := h.session.Import(r.Context(), data); err != nil {
		h.log.Info("rejected import", "error", err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

func attachment(w http.ResponseWriter, contentType, fileName string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
}

// ExportJSON downloads the editor state.
// GET /api/export/json?name=
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	lang := h.session.Language()
	if al := r.Header.Get("Accept-Language"); al != "" {
		lang = deck.MatchLanguage(al)
	}

	var buf bytes.Buffer
	if _, err := h.session.State().WriteTo(&buf); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	attachment(w, "application/json", deck.JSONFileName(r.URL.Query().Get("name"), lang))
	buf.WriteTo(w)
}

// ExportPDF downloads the presentation as PDF.
// GET /api/export/pdf
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	data, res, err := h.session.ExportPDF(r.Context())
	switch {
	case errors.Is(err, deck.ErrExportInProgress):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		h.log.Error("pdf export failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	attachment(w, "application/pdf", res.FileName)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// Preview renders one slide as an image.
// GET /api/slides/{slideID}/preview.png?width=
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	width := 0
	if v := r.URL.Query().Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < minPreviewWidth || n > maxPreviewWidth {
			writeError(w, http.StatusBadRequest, errors.New("width must be an integer between 16 and 4096"))
			return
		}
		width = n
	}

	img, err := h.session.Preview(r.Context(), mux.Vars(r)["slideID"], width)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	var buf bytes.Buffer
	if err := h.session.EncodePreview(&buf, img); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	buf.WriteTo(w)
}

// ServeWS upgrades to a websocket that receives every new state and accepts
// action envelopes.
// GET /ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("failed to upgrade websocket", "error", err)
		return
	}

	client := NewClient(h.hub, h.session, conn, h.log)
	client.reply(h.session.Snapshot())
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.ReadPump(h.shutdownCtx)
	go client.WritePump(h.shutdownCtx)
}
