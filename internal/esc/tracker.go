// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package esc implements ThrottleStateTracker and ABSController.
// ThrottleStateTracker turns raw forward/reverse throttle intent into
// the ESCState state machine (neutral/braking/reverse_armed/reversing)
// that the electronic speed controller's reverse-lockout needs;
// ABSController modulates brake throttle on detected wheel lockup.
package esc

import (
	"math"
	"time"

	"github.com/relabs-tech/truckcore/internal/clock"
	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// Tracker owns the ESCState state machine and the was_moving_forward
// latch. was_moving_forward clears only when the truck is stopped AND
// the driver has returned to neutral - not merely because it is now
// moving backward - so a brake-then-reverse sequence is never misread
// as forward motion resuming.
type Tracker struct {
	wasMovingForward bool
}

// NewTracker builds a Tracker in its zero (never-moved) state.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Reset clears the latch.
func (t *Tracker) Reset() {
	t.wasMovingForward = false
}

// Update advances st.ESC from the current direction and driver throttle
// intent. throttle is the pre-safety-chain driver input: positive means
// forward intent, negative means brake/reverse intent.
func (t *Tracker) Update(st *vehicle.State, throttle int16) {
	if st.Direction == vehicle.DirectionForward {
		t.wasMovingForward = true
	}

	switch st.ESC {
	case vehicle.ESCNeutral:
		if throttle < 0 && t.wasMovingForward {
			st.ESC = vehicle.ESCBraking
		} else if throttle < 0 && !t.wasMovingForward {
			st.ESC = vehicle.ESCReverseArmed
		}
	case vehicle.ESCBraking:
		if st.Direction == vehicle.DirectionStopped {
			if throttle < 0 {
				st.ESC = vehicle.ESCReverseArmed
			} else if throttle == 0 {
				st.ESC = vehicle.ESCNeutral
				t.wasMovingForward = false
			}
		} else if throttle >= 0 {
			st.ESC = vehicle.ESCNeutral
		}
	case vehicle.ESCReverseArmed:
		switch {
		case throttle == 0:
			st.ESC = vehicle.ESCNeutral
			if st.Direction == vehicle.DirectionStopped {
				t.wasMovingForward = false
			}
		case throttle < 0:
			st.ESC = vehicle.ESCReversing
		default:
			st.ESC = vehicle.ESCNeutral
		}
	case vehicle.ESCReversing:
		if throttle >= 0 {
			st.ESC = vehicle.ESCNeutral
			if st.Direction == vehicle.DirectionStopped {
				t.wasMovingForward = false
			}
		}
	}

	if st.Direction == vehicle.DirectionStopped && throttle == 0 && st.ESC == vehicle.ESCNeutral {
		t.wasMovingForward = false
	}
}

// ABSController modulates brake throttle into an apply/release duty
// cycle once a wheel-lockup slip ratio is detected, timed off an
// injected clock: production uses the real clock, tests inject a fake
// one and advance it rather than sleeping. The now argument of Update
// is not used for the duty cycle.
type ABSController struct {
	cfg   config.ABSParams
	armed bool
	clk   clock.Clock

	slip         float64
	primedSlip   bool
	cycling      bool
	cycleStart   time.Time
	applying     bool
}

// NewABSController builds an ABSController bound to the ABS tuning
// parameters and a clock (clock.Real in production, a clock.Fake in
// tests).
func NewABSController(cfg config.ABSParams, clk clock.Clock) *ABSController {
	return &ABSController{cfg: cfg, armed: true, clk: clk}
}

func (a *ABSController) Name() string { return "abs_controller" }

func (a *ABSController) SetArmed(armed bool) { a.armed = armed }

// Reset clears the duty-cycle timer and smoothed slip.
func (a *ABSController) Reset() {
	a.slip = 0
	a.primedSlip = false
	a.cycling = false
	a.cycleStart = time.Time{}
	a.applying = false
}

func (a *ABSController) Active() bool { return a.cycling }

func (a *ABSController) Update(st *vehicle.State, dt time.Duration, now time.Time) {
	rawSlip := 0.0
	if st.FusedSpeedKmh > 0.5 {
		rawSlip = (st.FusedSpeedKmh - st.WheelSpeedKmh) / st.FusedSpeedKmh
	}
	if !a.primedSlip {
		a.slip = rawSlip
		a.primedSlip = true
	} else {
		a.slip += (rawSlip - a.slip) * a.cfg.SlipLowPassAlpha
	}

	braking := st.ESC == vehicle.ESCBraking && st.Direction == vehicle.DirectionForward &&
		st.Throttle < a.cfg.MinBrakeThrottle
	locking := a.slip > a.cfg.BaseSlipThreshold*st.GripMultiplier

	if !a.armed || st.FusedSpeedKmh < a.cfg.MinSpeedKmh || !braking {
		a.cycling = false
		return
	}

	if !a.cycling {
		if locking {
			a.cycling = true
			a.cycleStart = a.clk.Now()
			a.applying = true
		}
		return
	}

	if !locking {
		a.cycling = false
		return
	}

	// Apply and release phases alternate every CycleTimeMs.
	phase := time.Duration(a.cfg.CycleTimeMs) * time.Millisecond
	if a.clk.Now().Sub(a.cycleStart) >= phase {
		a.cycleStart = a.clk.Now()
		a.applying = !a.applying
	}
}

// ApplyThrottle multiplies the commanded brake by ApplyRatio or
// ReleaseRatio depending on the current phase, floored by
// MinRetardationRatio so a release phase never drops retardation to
// zero.
func (a *ABSController) ApplyThrottle(throttle int16) int16 {
	if !a.cycling || throttle >= 0 {
		return throttle
	}
	ratio := a.cfg.ReleaseRatio
	if a.applying {
		ratio = a.cfg.ApplyRatio
	}
	out := float64(throttle) * ratio
	floor := float64(throttle) * a.cfg.MinRetardationRatio
	if math.Abs(out) < math.Abs(floor) {
		out = floor
	}
	return vehicle.Clamp16(out)
}

func (a *ABSController) ApplySteering(steering int16) int16 { return steering }
