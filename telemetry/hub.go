package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

const (
	socketBufferSize  = 1024
	messageBufferSize = 64
)

var ErrHubClosed = errors.New("telemetry: hub closed")

// Hub fans samples out to every connected websocket client as JSON.
// Slow clients drop messages rather than stall the publisher.
type Hub struct {
	forward chan []byte
	join    chan *client
	leave   chan *client
	done    chan struct{}
	clients map[*client]bool
	count   atomic.Int32

	upgrader websocket.Upgrader
}

type client struct {
	socket *websocket.Conn
	send   chan []byte
}

func NewHub() *Hub {
	return &Hub{
		forward:  make(chan []byte),
		join:     make(chan *client),
		leave:    make(chan *client),
		done:     make(chan struct{}),
		clients:  make(map[*client]bool),
		upgrader: websocket.Upgrader{ReadBufferSize: socketBufferSize, WriteBufferSize: socketBufferSize},
	}
}

// Run serves joins, leaves and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.clients {
			close(c.send)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.join:
			h.clients[c] = true
			h.count.Add(1)
			slog.Debug("telemetry client joined", "remote", c.socket.RemoteAddr())
		case c := <-h.leave:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.count.Add(-1)
				slog.Debug("telemetry client left", "remote", c.socket.RemoteAddr())
			}
		case msg := <-h.forward:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slog.Warn("telemetry client too slow, dropping sample", "remote", c.socket.RemoteAddr())
				}
			}
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Publish broadcasts one sample. It blocks until the hub accepts it.
func (h *Hub) Publish(s Sample) error {
	msg, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	select {
	case h.forward <- msg:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	socket, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	c := &client{socket: socket, send: make(chan []byte, messageBufferSize)}
	select {
	case h.join <- c:
	case <-h.done:
		socket.Close()
		return
	}
	go c.write()
	c.read()
	select {
	case h.leave <- c:
	case <-h.done:
	}
}

// read drains the socket until the peer goes away.
func (c *client) read() {
	defer c.socket.Close()
	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) write() {
	defer c.socket.Close()
	for msg := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
