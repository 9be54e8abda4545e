// Package hub fans retargeted pose documents out to any number of
// WebSocket consumers (renderers, loggers, dashboards). Consumers may
// send control tokens back; the hub validates them and hands them to the
// gateway. A slow consumer drops frames, a dead one leaves; neither can
// stall the capture session.
package hub

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/KiranM189/Capstone/internal/monitoring"
	"github.com/KiranM189/Capstone/internal/sensor"
)

const (
	socketBufferSize  = 1024
	messageBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  socketBufferSize,
	WriteBufferSize: socketBufferSize,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Hub owns the consumer set. All membership changes and broadcasts run
// on the single Run goroutine; the public methods only move messages
// onto its channels.
type Hub struct {
	forward chan []byte
	join    chan *client
	leave   chan *client
	clients map[*client]bool
	done    chan struct{}

	// control receives validated tokens sent by consumers.
	control func(token string)

	count         atomic.Int32
	droppedFrames monitoring.Counter
	unknownTokens monitoring.Counter
}

// New creates a Hub. onControl may be nil when consumer control is not
// wanted (replay viewers).
func New(onControl func(token string)) *Hub {
	return &Hub{
		forward: make(chan []byte),
		join:    make(chan *client),
		leave:   make(chan *client),
		clients: make(map[*client]bool),
		done:    make(chan struct{}),
		control: onControl,
	}
}

// Run distributes frames until Close. Call it on its own goroutine.
func (h *Hub) Run() {
	defer func() {
		for c := range h.clients {
			close(c.send)
			c.socket.Close()
		}
		h.clients = nil
	}()

	for {
		select {
		case <-h.done:
			return
		case c := <-h.join:
			h.clients[c] = true
			h.count.Add(1)
			monitoring.Logf("hub: consumer %s joined (%d connected)", c.remote, h.count.Load())
		case c := <-h.leave:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
				h.count.Add(-1)
				monitoring.Logf("hub: consumer %s left (%d connected)", c.remote, h.count.Load())
			}
		case msg := <-h.forward:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Consumer not keeping up: skip this frame for it.
					h.droppedFrames.Inc()
				}
			}
		}
	}
}

// Close stops Run and disconnects every consumer.
func (h *Hub) Close() {
	close(h.done)
}

// Broadcast hands one frame to every connected consumer. Returns
// immediately if the hub is closed.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.forward <- payload:
	case <-h.done:
	}
}

// ClientCount returns the number of connected consumers.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// DroppedFrames returns how many per-consumer frames were skipped.
func (h *Hub) DroppedFrames() uint64 { return h.droppedFrames.Value() }

// UnknownTokens returns how many unrecognized control tokens arrived.
func (h *Hub) UnknownTokens() uint64 { return h.unknownTokens.Value() }

// ServeHTTP upgrades a consumer connection and pumps it until it drops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("hub: websocket upgrade error: %v", err)
		return
	}

	c := &client{
		socket: socket,
		send:   make(chan []byte, messageBufferSize),
		hub:    h,
		remote: r.RemoteAddr,
	}

	select {
	case h.join <- c:
	case <-h.done:
		socket.Close()
		return
	}
	defer func() {
		select {
		case h.leave <- c:
		case <-h.done:
		}
	}()

	go c.write()
	c.read()
}

// client is one consumer connection.
type client struct {
	socket *websocket.Conn
	send   chan []byte
	hub    *Hub
	remote string
}

// read pumps inbound control tokens until the consumer disconnects.
func (c *client) read() {
	defer c.socket.Close()
	for {
		mt, payload, err := c.socket.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		token := strings.TrimSpace(string(payload))
		if !sensor.ValidControl(token) {
			c.hub.unknownTokens.Inc()
			monitoring.Logf("hub: consumer %s sent unknown control token %q", c.remote, token)
			continue
		}
		if c.hub.control != nil {
			c.hub.control(token)
		}
	}
}

// write pumps outbound frames until the send channel closes.
func (c *client) write() {
	defer c.socket.Close()
	for msg := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
