package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every endpoint of h.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.ServeWS).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", h.GetState).Methods(http.MethodGet)
	api.HandleFunc("/actions", h.PostAction).Methods(http.MethodPost)
	api.HandleFunc("/undo", h.Undo).Methods(http.MethodPost)
	api.HandleFunc("/redo", h.Redo).Methods(http.MethodPost)
	api.HandleFunc("/selection", h.PutSelection).Methods(http.MethodPut)
	api.HandleFunc("/import", h.Import).Methods(http.MethodPost)
	api.HandleFunc("/export/json", h.ExportJSON).Methods(http.MethodGet)
	api.HandleFunc("/export/pdf", h.ExportPDF).Methods(http.MethodGet)
	api.HandleFunc("/slides/{slideID}/elements", h.AddElement).Methods(http.MethodPost)
	api.HandleFunc("/slides/{slideID}/preview.png", h.Preview).Methods(http.MethodGet)
	return r
}
