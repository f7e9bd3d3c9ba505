// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transport is the driver-input/actuator-output collaborator,
// implemented over a websocket upgrade (gorilla/websocket upgrader, one
// session struct per connection, JSON-framed messages). internal/pipeline
// never imports this package or net/http directly - the safety core
// itself exposes no HTTP surface; only cmd/vehicled wires it in
// (cmd/simulate speaks the same JSON frames as a client, directly over
// gorilla/websocket).
package transport

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/truckcore/internal/vehicle"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inputFrame is the wire shape of one driver-input sample.
type inputFrame struct {
	SequenceNumber uint64 `json:"sequence_number"`
	Throttle       int16  `json:"throttle"`
	Steering       int16  `json:"steering"`
}

// outputFrame is the wire shape of one actuator-output sample.
type outputFrame struct {
	SequenceNumber uint64 `json:"sequence_number"`
	Throttle       int16  `json:"throttle"`
	Steering       int16  `json:"steering"`
}

// Session wraps one driver's websocket connection: inbound driver-input
// frames feed Inputs, outbound actuator frames are sent via Send.
type Session struct {
	conn *websocket.Conn
	mu   sync.Mutex

	Inputs chan vehicle.DriverInput
}

// Upgrade promotes an HTTP request to a websocket driver session.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Session, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: websocket upgrade: %w", err)
	}
	s := &Session{conn: conn, Inputs: make(chan vehicle.DriverInput, 8)}
	go s.readLoop()
	return s, nil
}

func (s *Session) readLoop() {
	defer close(s.Inputs)
	for {
		var frame inputFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			log.Printf("transport: read error, closing session: %v", err)
			return
		}
		s.Inputs <- vehicle.DriverInput{
			SequenceNumber: frame.SequenceNumber,
			Throttle:       frame.Throttle,
			Steering:       frame.Steering,
			ReceivedAt:     time.Now(),
		}
	}
}

// Send writes one actuator-output sample to the driver connection.
func (s *Session) Send(seq uint64, throttle, steering int16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(outputFrame{SequenceNumber: seq, Throttle: throttle, Steering: steering})
}

// Close terminates the underlying websocket connection.
func (s *Session) Close() error {
	return s.conn.Close()
}
