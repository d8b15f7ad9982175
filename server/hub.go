package server

import (
	"context"
	"encoding/json"
	"log/slog"

	deck "github.com/ArtemEIPS/presentation-maker"
)

// Message is what the server pushes to websocket clients.
type Message struct {
	Type    string            `json:"type"`
	State   *deck.EditorState `json:"state,omitempty"`
	CanUndo bool              `json:"canUndo"`
	CanRedo bool              `json:"canRedo"`
	Error   string            `json:"error,omitempty"`
}

const (
	MessageState = "state"
	MessageError = "error"
)

func stateMessage(state deck.EditorState, h *deck.History) Message {
	return Message{Type: MessageState, State: &state, CanUndo: h.CanUndo(), CanRedo: h.CanRedo()}
}

func errorMessage(err error) Message {
	return Message{Type: MessageError, Error: err.Error()}
}

// Hub maintains the set of active clients and broadcasts state updates to
// them.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	clients    map[*Client]struct{}
	log        *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		log:        logger,
	}
}

// Run serves the hub until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.log.Debug("client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.log.Debug("client disconnected", "clients", len(h.clients))

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.log.Warn("client send buffer full, dropping update")
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// Broadcast queues msg for every connected client. It never blocks; when the
// queue is full the update is dropped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to encode broadcast", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.log.Warn("broadcast queue full, dropping update")
	}
}

// Register adds c. It reports false when the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

