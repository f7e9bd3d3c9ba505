// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package vehicle holds the single VehicleState record shared by every
// ingestion loop and every controller in the assistance pipeline.
package vehicle

import (
	"sync"
	"time"
)

// ESCState mirrors the electronic speed controller's own state machine.
// The same negative throttle command means "brake" under one state and
// "reverse" under another; ThrottleStateTracker is the only writer.
type ESCState int

const (
	ESCNeutral ESCState = iota
	ESCBraking
	ESCReverseArmed
	ESCReversing
)

func (s ESCState) String() string {
	switch s {
	case ESCNeutral:
		return "neutral"
	case ESCBraking:
		return "braking"
	case ESCReverseArmed:
		return "reverse_armed"
	case ESCReversing:
		return "reversing"
	default:
		return "unknown"
	}
}

// Direction is the DirectionEstimator's hysteresis-banded output.
type Direction int

const (
	DirectionStopped Direction = iota
	DirectionForward
	DirectionBackward
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return "stopped"
	}
}

// RaceState gates whether controller output reaches the actuator.
type RaceState int

const (
	RaceIdle RaceState = iota
	RaceCountdown
	RaceRacing
)

func (r RaceState) String() string {
	switch r {
	case RaceCountdown:
		return "countdown"
	case RaceRacing:
		return "racing"
	default:
		return "idle"
	}
}

// DriverInput is one (sequence_number, throttle, steering) sample from
// the external transport.
type DriverInput struct {
	SequenceNumber uint64
	Throttle       int16
	Steering       int16
	ReceivedAt     time.Time
}

// State is the single record read by all controllers and written only
// by the ingestion loops and the fusion functions. There is exactly one
// writer for every field except the wheel pulse counter, which is
// guarded by its own mutex as the one true point of concurrent access.
type State struct {
	// Wheel pulse sensor (magnitude only).
	WheelSpeedKmh float64

	// Fusion outputs.
	FusedSpeedKmh   float64
	ImuIntegratedMS float64 // internal integrator state, exposed for tests

	// DirectionEstimator output.
	SignedSpeedKmh   float64
	DirectionConf    float64
	Direction        Direction

	// GPS.
	GPSSpeedKmh float64
	GPSLat      float64
	GPSLon      float64
	GPSCourse   float64
	GPSValid    bool
	GPSUpdated  time.Time

	// IMU-derived orientation/motion; mount offset already applied.
	ImuHeadingDeg    float64
	BlendedHeadingDeg float64
	YawRateDps       float64
	ForwardAccelMS2  float64
	LateralAccelMS2  float64
	PitchDeg         float64

	// Surface estimate.
	GripMultiplier float64

	// Driver input and ESC.
	Throttle int16
	Steering int16
	ESC      ESCState

	// Session gating.
	Race RaceState

	// Freshness bookkeeping used by fallback rules elsewhere in the chain.
	DriverConnected    bool
	LastDriverInputAt  time.Time
	WheelStoppedSince  time.Time
	ImuAvailable       bool

	// Wheel pulse counter, the one field pair with true concurrent
	// writers (the GPIO ISR goroutine) — protected by wheelPulse's own
	// mutex, held only for the update itself.
	wheelPulse *wheelCounter
}

// wheelCounter is the shared pulse-count/last-timestamp pair, held
// behind a pointer so State can be reset by value without copying a
// mutex.
type wheelCounter struct {
	mu          sync.Mutex
	count       uint64
	lastPulseAt time.Time
}

// New returns a freshly defaulted State, as created at process start.
func New() *State {
	return &State{
		GripMultiplier: 1.0,
		Race:           RaceIdle,
		Direction:      DirectionStopped,
		wheelPulse:     &wheelCounter{},
	}
}

// Reset clears every smoothed/derived field to its process-start
// default, keeping the wheel pulse counter. cmd/vehicled calls it on
// driver disconnect.
func (s *State) Reset() {
	wp := s.wheelPulse
	*s = State{
		GripMultiplier: 1.0,
		Race:           RaceIdle,
		Direction:      DirectionStopped,
		wheelPulse:     wp,
	}
}

// RecordPulse is called from the wheel GPIO ISR goroutine. It is the only
// function permitted to touch the pulse counter directly.
func (s *State) RecordPulse(at time.Time) {
	s.wheelPulse.mu.Lock()
	s.wheelPulse.count++
	s.wheelPulse.lastPulseAt = at
	s.wheelPulse.mu.Unlock()
}

// SnapshotWheelPulse reads (count, last-pulse-time) under the short
// critical section and returns them for the main loop to turn into RPM /
// km/h outside the lock.
func (s *State) SnapshotWheelPulse() (count uint64, lastPulse time.Time) {
	s.wheelPulse.mu.Lock()
	count, lastPulse = s.wheelPulse.count, s.wheelPulse.lastPulseAt
	s.wheelPulse.mu.Unlock()
	return
}

// Clamp16 saturates a value into the int16 driver-input/actuator range.
func Clamp16(v float64) int16 {
	const max16 = 32767
	if v > max16 {
		return max16
	}
	if v < -max16 {
		return -max16
	}
	return int16(v)
}
