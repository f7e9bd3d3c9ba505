// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package steering implements SteeringShaper: the first link in the
// controller chain, making delayed steering commands safe before any
// throttle-shaping controller sees the cycle.
package steering

import (
	"math"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// Shaper applies, in order: the speed-based limit, counter-steer assist,
// rate limit, and output low-pass. Update snapshots the speed/yaw this
// cycle needs; ApplySteering then shapes the raw sample against that
// snapshot.
type Shaper struct {
	cfg   config.SteeringParams
	armed bool

	speedKmh float64
	yawDps   float64
	dt       time.Duration

	lastOut float64
	primed  bool
	assistActive bool
}

// New builds a Shaper bound to the steering tuning parameters.
func New(cfg config.SteeringParams) *Shaper {
	return &Shaper{cfg: cfg, armed: true}
}

func (s *Shaper) Name() string { return "steering_shaper" }

// SetArmed toggles the controller on/off, as an admin endpoint would.
func (s *Shaper) SetArmed(armed bool) { s.armed = armed }

// Reset clears the rate-limiter and low-pass state.
func (s *Shaper) Reset() {
	s.lastOut = 0
	s.primed = false
	s.assistActive = false
}

// Active reports whether counter-steer assist contributed non-zero
// correction on the last cycle.
func (s *Shaper) Active() bool { return s.assistActive }

func (s *Shaper) Update(st *vehicle.State, dt time.Duration, now time.Time) {
	s.speedKmh = st.FusedSpeedKmh
	s.yawDps = st.YawRateDps
	s.dt = dt
}

func (s *Shaper) ApplyThrottle(throttle int16) int16 { return throttle }

// ApplySteering shapes the raw driver steering sample against the speed
// and yaw rate snapshot taken in Update.
func (s *Shaper) ApplySteering(raw int16) int16 {
	if !s.armed {
		return raw
	}

	const fullRange = 32767.0

	// 1) Speed-based limit: interpolate fraction of full range.
	fraction := s.cfg.LowSpeedFactor
	if s.speedKmh >= s.cfg.HighSpeedKmh {
		fraction = s.cfg.HighSpeedFactor
	} else if s.cfg.HighSpeedKmh > 0 {
		frac := s.speedKmh / s.cfg.HighSpeedKmh
		fraction = s.cfg.LowSpeedFactor + (s.cfg.HighSpeedFactor-s.cfg.LowSpeedFactor)*frac
	}
	limited := float64(raw) * fraction

	// 2) Counter-steer assist.
	s.assistActive = false
	assisted := limited
	if s.speedKmh > s.cfg.CounterSteerMinSpeedKmh &&
		math.Abs(float64(raw)) < float64(s.cfg.CounterSteerNeutralBand) &&
		math.Abs(s.yawDps) > s.cfg.CounterSteerYawThresholdDps {
		correction := -s.yawDps * s.cfg.CounterSteerStrength * yawFactor(s.speedKmh) * fullRange / 180.0
		correction = clampFloat(correction, -float64(s.cfg.CounterSteerMaxCorrection), float64(s.cfg.CounterSteerMaxCorrection))
		assisted += correction
		if correction != 0 {
			s.assistActive = true
		}
	}

	// 3) Rate limit: larger cap toward center than toward the lock.
	target := assisted
	if s.primed && s.dt > 0 {
		delta := target - s.lastOut
		dtS := s.dt.Seconds()
		towardCenter := math.Abs(target) < math.Abs(s.lastOut)
		var capPerSec float64
		if towardCenter {
			capPerSec = s.cfg.RateLimitToCenterPerSec
		} else {
			capPerSec = s.cfg.RateLimitToLockPerSec
		}
		maxDelta := capPerSec * dtS
		if delta > maxDelta {
			delta = maxDelta
		} else if delta < -maxDelta {
			delta = -maxDelta
		}
		target = s.lastOut + delta
	}

	// 4) Light output low-pass.
	out := target
	if s.primed {
		out = s.lastOut + (target-s.lastOut)*s.cfg.LowPassAlpha
	}
	s.lastOut = out
	s.primed = true

	return vehicle.Clamp16(out)
}

// yawFactor is the scale term applied to counter-steer strength; kept at
// a flat 1.0 pending a speed-dependent curve.
func yawFactor(speedKmh float64) float64 { return 1.0 }

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
