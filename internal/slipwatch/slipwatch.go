// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package slipwatch implements SlipAngleWatchdog: detects a sustained
// lateral-acceleration/yaw mismatch (the truck sliding instead of
// turning) and decays its own throttle multiplier until recovery. This
// is a private intervention multiplier, distinct from the shared
// vehicle.State.GripMultiplier that SurfaceAdaptation publishes.
package slipwatch

import (
	"math"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// Watchdog owns the sustained-slide timer and its private intervention
// multiplier; it never writes vehicle.State.GripMultiplier.
type Watchdog struct {
	cfg   config.SlipWatchParams
	armed bool

	lateralAccel float64
	primed       bool

	slideSince time.Time
	sliding    bool
	grip       float64
}

// New builds a Watchdog bound to the slip-watch tuning parameters.
func New(cfg config.SlipWatchParams) *Watchdog {
	return &Watchdog{cfg: cfg, armed: true, grip: 1.0}
}

func (w *Watchdog) Name() string { return "slip_angle_watchdog" }

func (w *Watchdog) SetArmed(armed bool) { w.armed = armed }

// Reset clears the timer and restores full grip.
func (w *Watchdog) Reset() {
	w.lateralAccel = 0
	w.primed = false
	w.slideSince = time.Time{}
	w.sliding = false
	w.grip = 1.0
}

func (w *Watchdog) Active() bool { return w.sliding }

func (w *Watchdog) Update(st *vehicle.State, dt time.Duration, now time.Time) {
	if !w.primed {
		w.lateralAccel = st.LateralAccelMS2
		w.primed = true
	} else {
		w.lateralAccel += (st.LateralAccelMS2 - w.lateralAccel) * w.cfg.LowPassAlpha
	}

	if !w.armed || st.FusedSpeedKmh < w.cfg.MinSpeedKmh || math.Abs(float64(st.Throttle)) < float64(w.cfg.MinThrottle) {
		w.slideSince = time.Time{}
		w.recover(dt)
		return
	}

	// Expected lateral accel from yaw rate and forward speed: a_lat =
	// yaw_rate(rad/s) * v. Excess beyond that, sustained, indicates slide.
	yawRateRadS := st.YawRateDps * math.Pi / 180.0
	expected := yawRateRadS * (st.FusedSpeedKmh / 3.6)
	excess := math.Abs(w.lateralAccel) - math.Abs(expected)

	if excess > w.cfg.ThresholdMS2 {
		if w.slideSince.IsZero() {
			w.slideSince = now
		}
		duration := time.Duration(w.cfg.DurationMs) * time.Millisecond
		if now.Sub(w.slideSince) > duration {
			w.sliding = true
			w.grip -= w.cfg.DecayRate * dt.Seconds()
		}
	} else {
		w.slideSince = time.Time{}
		w.recover(dt)
	}

	if w.grip < w.cfg.MinMultiplier {
		w.grip = w.cfg.MinMultiplier
	}
	if w.grip > 1.0 {
		w.grip = 1.0
	}
}

func (w *Watchdog) recover(dt time.Duration) {
	if w.grip >= 1.0 {
		w.sliding = false
		return
	}
	w.grip += w.cfg.RecoverRate * dt.Seconds()
	if w.grip >= 1.0 {
		w.grip = 1.0
		w.sliding = false
	}
}

// ApplyThrottle scales throttle by this controller's own decaying
// intervention multiplier.
func (w *Watchdog) ApplyThrottle(throttle int16) int16 {
	if w.grip >= 1.0 {
		return throttle
	}
	return vehicle.Clamp16(float64(throttle) * w.grip)
}

func (w *Watchdog) ApplySteering(steering int16) int16 { return steering }
