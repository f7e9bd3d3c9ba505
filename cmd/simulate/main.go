// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command simulate is a mock driver console: it connects to a running
// vehicled instance over the websocket transport and drives it with a
// scripted throttle/steering ramp, printing each actuator-output sample
// it receives back.
package main

import (
	"flag"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

type inputFrame struct {
	SequenceNumber uint64 `json:"sequence_number"`
	Throttle       int16  `json:"throttle"`
	Steering       int16  `json:"steering"`
}

type outputFrame struct {
	SequenceNumber uint64 `json:"sequence_number"`
	Throttle       int16  `json:"throttle"`
	Steering       int16  `json:"steering"`
}

func main() {
	addr := flag.String("addr", "localhost:8080", "vehicled transport address")
	flag.Parse()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/driver"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("simulate: dial error: %v", err)
	}
	defer conn.Close()
	log.Printf("simulate: connected to %s", u.String())

	go func() {
		for {
			var out outputFrame
			if err := conn.ReadJSON(&out); err != nil {
				log.Printf("simulate: read error: %v", err)
				return
			}
			log.Printf("actuator seq=%d throttle=%d steering=%d", out.SequenceNumber, out.Throttle, out.Steering)
		}
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	var seq uint64
	for range ticker.C {
		seq++
		frame := inputFrame{
			SequenceNumber: seq,
			Throttle:       rampValue(seq, 16000, 200),
			Steering:       0,
		}
		if err := conn.WriteJSON(frame); err != nil {
			log.Printf("simulate: write error: %v", err)
			return
		}
	}
}

// rampValue produces a simple throttle ramp up to ceiling at the given
// per-tick step, for exercising launch-phase traction control.
func rampValue(seq uint64, ceiling int16, step int16) int16 {
	v := int64(seq) * int64(step)
	if v > int64(ceiling) {
		return ceiling
	}
	return int16(v)
}
