package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	deck "github.com/ArtemEIPS/presentation-maker"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Actions may carry a whole
	// document (LOAD_EDITOR) or data URI images.
	maxMessageSize = 8 << 20

	// Inbound actions: 30 per second with a burst of 60.
	actionsPerSecond = 30
	burstLimit       = 60
)

// Client is a middleman between the websocket connection and the session.
type Client struct {
	hub     *Hub
	session *Session
	conn    *websocket.Conn
	send    chan []byte // Buffered channel of outbound messages.
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewClient(hub *Hub, session *Session, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		hub:     hub,
		session: session,
		conn:    conn,
		send:    make(chan []byte, 32),
		limiter: rate.NewLimiter(rate.Limit(actionsPerSecond), burstLimit),
		log:     logger,
	}
}

// ReadPump reads actions from the peer and applies them to the session.
// Resulting states reach the peer through the hub broadcast.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", "error", err)
			}
			return
		}

		if !c.limiter.Allow() {
			c.log.Warn("closing websocket: action rate limit exceeded", "remote", c.conn.RemoteAddr().String())
			return
		}

		action, err := deck.ParseAction(data)
		if err != nil {
			c.reply(errorMessage(err))
			continue
		}
		if err := c.apply(ctx, action); err != nil {
			c.reply(errorMessage(err))
		}
	}
}

// apply runs one action. A panic fails the action instead of the process.
func (c *Client) apply(ctx context.Context, action deck.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("action panicked", "type", action.Type, "panic", r)
			err = fmt.Errorf("action %s failed", action.Type)
		}
	}()
	_, err = c.session.Apply(ctx, action)
	return err
}

// reply sends msg to this client only.
func (c *Client) reply(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("client send buffer full, dropping reply")
	}
}

// WritePump writes queued messages and keeps the connection alive with pings.
func (c *Client) WritePump(shutdownCtx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Warn("websocket send failed", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-shutdownCtx.Done():
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			)
			return
		}
	}
}
