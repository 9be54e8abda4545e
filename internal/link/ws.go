// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package link ingests sensor readings: a WebSocket server for the
// wireless straps and a serial reader for bench rigs. Each connection
// is pumped by its own goroutine, so one faulty sensor can never stall
// the others; decoded samples funnel into a single Deliver callback.
package link

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/KiranM189/Capstone/internal/monitoring"
	"github.com/KiranM189/Capstone/internal/sensor"
	"github.com/KiranM189/Capstone/internal/timeutil"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Server accepts one WebSocket connection per physical sensor and keeps
// a registry of the live ones so control tokens can be broadcast back.
type Server struct {
	deliver func(sensor.Sample)
	clock   timeutil.Clock

	mu    sync.Mutex
	conns map[*sensorConn]bool

	malformed monitoring.Counter
}

// sensorConn is one connected sensor. Writes are serialized by writeMu
// since broadcasts come from other goroutines than the read pump.
type sensorConn struct {
	socket  *websocket.Conn
	writeMu sync.Mutex
	remote  string

	mu     sync.Mutex
	labels map[sensor.Label]bool
}

func (c *sensorConn) noteLabel(l sensor.Label) {
	c.mu.Lock()
	c.labels[l] = true
	c.mu.Unlock()
}

func (c *sensorConn) writeToken(token string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.socket.WriteMessage(websocket.TextMessage, []byte(token))
}

// NewServer creates the ingest server. deliver receives every decoded
// sample; a nil clock selects the wall clock.
func NewServer(deliver func(sensor.Sample), clock timeutil.Clock) *Server {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Server{
		deliver: deliver,
		clock:   clock,
		conns:   make(map[*sensorConn]bool),
	}
}

// ServeHTTP upgrades a sensor connection and reads sample messages until
// the sensor drops. Malformed payloads are dropped and counted; only a
// socket error ends the stream, and only this one.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("link: websocket upgrade error: %v", err)
		return
	}

	c := &sensorConn{
		socket: socket,
		remote: r.RemoteAddr,
		labels: make(map[sensor.Label]bool),
	}

	s.mu.Lock()
	s.conns[c] = true
	n := len(s.conns)
	s.mu.Unlock()
	monitoring.Logf("link: sensor %s connected (%d live)", c.remote, n)

	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		n := len(s.conns)
		s.mu.Unlock()
		socket.Close()
		monitoring.Logf("link: sensor %s disconnected (%d live)", c.remote, n)
	}()

	for {
		mt, payload, err := socket.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var msg sensor.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.malformed.Inc()
			monitoring.Logf("link: sensor %s: malformed payload dropped: %v", c.remote, err)
			continue
		}
		smp, err := msg.Sample(s.clock.Now())
		if err != nil {
			s.malformed.Inc()
			monitoring.Logf("link: sensor %s: invalid sample dropped: %v", c.remote, err)
			continue
		}

		c.noteLabel(smp.Label)
		s.deliver(smp)
	}
}

// Broadcast sends a control token to every connected sensor. Write
// failures are logged; the failing connection's read pump will see the
// error and clean up.
func (s *Server) Broadcast(token string) {
	s.mu.Lock()
	conns := make([]*sensorConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.writeToken(token); err != nil {
			monitoring.Logf("link: sensor %s: control %q write error: %v", c.remote, token, err)
		}
	}
	monitoring.Logf("link: control %q sent to %d sensors", token, len(conns))
}

// Sensors returns the number of live sensor connections.
func (s *Server) Sensors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// ActiveLabels returns every label seen on a currently live connection.
func (s *Server) ActiveLabels() []sensor.Label {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[sensor.Label]bool)
	for c := range s.conns {
		c.mu.Lock()
		for l := range c.labels {
			seen[l] = true
		}
		c.mu.Unlock()
	}

	out := make([]sensor.Label, 0, len(seen))
	for _, l := range sensor.KnownLabels {
		if seen[l] {
			out = append(out, l)
		}
	}
	for l := range seen {
		if !l.Known() {
			out = append(out, l)
		}
	}
	return out
}

// Malformed returns how many ingress payloads were dropped.
func (s *Server) Malformed() uint64 { return s.malformed.Value() }
