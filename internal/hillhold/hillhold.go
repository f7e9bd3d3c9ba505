// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package hillhold implements HillHold: slope-holding when the driver
// releases throttle on a grade.
package hillhold

import (
	"math"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

type releaseMode int

const (
	releaseNone releaseMode = iota
	releaseImmediate
	releaseBlendUp
	releaseBlendDown
	releaseTimeout
)

// HillHold owns the activation timer and the release blend factor.
type HillHold struct {
	cfg   config.HillHoldParams
	armed bool

	conditionSince time.Time
	active         bool
	activatedAt    time.Time
	blend          float64
	pitchAtActivation float64

	holdForce float64
}

// New builds a HillHold bound to the hill-hold tuning parameters.
func New(cfg config.HillHoldParams) *HillHold {
	return &HillHold{cfg: cfg, armed: true}
}

func (h *HillHold) Name() string { return "hill_hold" }

func (h *HillHold) SetArmed(armed bool) { h.armed = armed }

// Reset clears the activation timer and blend state.
func (h *HillHold) Reset() {
	h.conditionSince = time.Time{}
	h.active = false
	h.activatedAt = time.Time{}
	h.blend = 0
	h.holdForce = 0
}

func (h *HillHold) Active() bool { return h.active }

// Update evaluates activation and the hold force for this cycle.
func (h *HillHold) Update(st *vehicle.State, dt time.Duration, now time.Time) {
	if !h.armed {
		h.active = false
		return
	}

	conditionMet := math.Abs(st.PitchDeg) > h.cfg.PitchThresholdDeg &&
		math.Abs(st.FusedSpeedKmh) < h.cfg.SpeedThresholdKmh &&
		math.Abs(float64(st.Throttle)) < float64(h.cfg.DeadzoneThrottle)

	if !conditionMet {
		h.conditionSince = time.Time{}
		if !h.active {
			return
		}
	} else if h.conditionSince.IsZero() {
		h.conditionSince = now
	}

	settling := time.Duration(h.cfg.SettlingTimeMs) * time.Millisecond
	if !h.active {
		if conditionMet && now.Sub(h.conditionSince) >= settling {
			h.active = true
			h.activatedAt = now
			h.blend = 1.0
			h.pitchAtActivation = st.PitchDeg
		}
		if !h.active {
			return
		}
	}

	// Active: compute the release policy for this cycle.
	mode := h.releaseMode(st, now)
	switch mode {
	case releaseImmediate, releaseTimeout:
		h.active = false
		h.blend = 0
		return
	case releaseBlendUp:
		h.blend *= math.Exp(-h.cfg.BlendBaseRate * h.cfg.BlendFastMultiplier * dt.Seconds())
	case releaseBlendDown:
		h.blend *= math.Exp(-h.cfg.BlendBaseRate * h.cfg.BlendSlowMultiplier * dt.Seconds())
	default:
		// Continue holding, blend unchanged.
	}

	force := h.pitchAtActivation * h.cfg.HoldStrength
	if force > h.cfg.MaxHoldForce {
		force = h.cfg.MaxHoldForce
	} else if force < -h.cfg.MaxHoldForce {
		force = -h.cfg.MaxHoldForce
	}
	h.holdForce = force

	if h.blend < 0.001 {
		h.active = false
		h.blend = 0
	}
}

func (h *HillHold) releaseMode(st *vehicle.State, now time.Time) releaseMode {
	if now.Sub(h.activatedAt) > time.Duration(h.cfg.TimeoutMs)*time.Millisecond {
		return releaseTimeout
	}
	input := st.Throttle
	if math.Abs(float64(input)) > float64(h.cfg.ImmediateReleaseThreshold) {
		return releaseImmediate
	}
	if math.Abs(float64(input)) < float64(h.cfg.DeadzoneThrottle) {
		return releaseNone
	}
	slopeSign := signOf(h.pitchAtActivation)
	inputSign := signOf(float64(input))
	if inputSign == slopeSign {
		return releaseBlendUp
	}
	return releaseBlendDown
}

func signOf(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// ApplyThrottle blends the hold force with driver input while active.
func (h *HillHold) ApplyThrottle(throttle int16) int16 {
	if !h.active || h.blend <= 0 {
		return throttle
	}
	out := h.holdForce*h.blend + float64(throttle)*(1-h.blend)
	return vehicle.Clamp16(out)
}

func (h *HillHold) ApplySteering(steering int16) int16 { return steering }
