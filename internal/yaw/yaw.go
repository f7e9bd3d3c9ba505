// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package yaw implements YawRateController: compares measured yaw rate
// against the steering-implied expectation and cuts throttle on
// sustained oversteer/understeer disagreement.
package yaw

import (
	"math"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

type mode int

const (
	modeNone mode = iota
	modeOversteer
	modeUndersteer
)

// Controller owns the smoothed yaw estimate and the throttle-cut/virtual
// brake state machine.
type Controller struct {
	cfg   config.YawParams
	armed bool

	yaw          float64
	primed       bool
	mode         mode
	since        time.Time
	cut          float64 // 0 = no cut, 1 = at the multiplier floor
	virtualBrake float64 // separate brake-demand channel, >= 0
	active       bool
}

// New builds a Controller bound to the yaw tuning parameters.
func New(cfg config.YawParams) *Controller {
	return &Controller{cfg: cfg, armed: true}
}

func (c *Controller) Name() string { return "yaw_rate_controller" }

func (c *Controller) SetArmed(armed bool) { c.armed = armed }

// Reset clears the smoothed yaw rate and intervention state.
func (c *Controller) Reset() {
	c.yaw = 0
	c.primed = false
	c.mode = modeNone
	c.since = time.Time{}
	c.cut = 0
	c.virtualBrake = 0
	c.active = false
}

func (c *Controller) Active() bool { return c.active }

// VirtualBrake reports the current oversteer brake-demand scalar (>= 0),
// surfaced for telemetry. It is never mixed into ApplyThrottle's output
// - that channel only ever scales the driver's sign, never reverses it.
func (c *Controller) VirtualBrake() float64 { return c.virtualBrake }

func (c *Controller) Update(st *vehicle.State, dt time.Duration, now time.Time) {
	if !c.primed {
		c.yaw = st.YawRateDps
		c.primed = true
	} else {
		c.yaw += (st.YawRateDps - c.yaw) * c.cfg.YawLowPassAlpha
	}

	if !c.armed || st.FusedSpeedKmh < c.cfg.MinSpeedKmh || st.Steering == 0 {
		c.mode = modeNone
		c.since = time.Time{}
		c.decay(dt)
		return
	}

	expected := -signOf(float64(st.Steering)) * math.Abs(float64(st.Steering)) / 32767.0 *
		c.cfg.UndersteerCoefficient * st.FusedSpeedKmh
	diff := c.yaw - expected

	var next mode
	switch {
	case diff*signOf(float64(st.Steering)) < -c.cfg.OversteerThresholdDps:
		next = modeOversteer
	case math.Abs(diff) > c.cfg.UndersteerThresholdDps && signOf(diff) == signOf(float64(st.Steering)):
		next = modeUndersteer
	default:
		next = modeNone
	}

	if next != c.mode {
		c.mode = next
		c.since = now
	}

	settle := time.Duration(c.cfg.SettleTimeMs) * time.Millisecond
	switch c.mode {
	case modeOversteer:
		c.cut += c.cfg.ThrottleCutStepOversteer
		overshoot := math.Abs(diff) - c.cfg.OversteerThresholdDps
		if overshoot > 0 {
			c.virtualBrake = overshoot * c.cfg.VirtualBrakeScale
		} else {
			c.virtualBrake = 0
		}
		c.active = true
	case modeUndersteer:
		c.cut += c.cfg.ThrottleCutStepUndersteer
		c.virtualBrake = 0
		c.active = true
	default:
		c.virtualBrake = 0
		if now.Sub(c.since) > settle {
			c.decay(dt)
		}
	}

	if c.cut > 1 {
		c.cut = 1
	}
	if c.cut < 0 {
		c.cut = 0
	}
	c.active = c.cut > 0.001
}

func (c *Controller) decay(dt time.Duration) {
	rate := c.cfg.RecoverRateFast
	if c.mode == modeNone {
		rate = c.cfg.RecoverRateSlow
	}
	c.cut -= rate * dt.Seconds()
	if c.cut < 0 {
		c.cut = 0
	}
	c.active = c.cut > 0.001
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

// ApplyThrottle scales the driver's throttle down toward CutFloor; it
// never reverses sign or drives the output negative. The oversteer
// virtual_brake is a separate demand exposed via VirtualBrake, not
// folded into this channel.
func (c *Controller) ApplyThrottle(throttle int16) int16 {
	if c.cut <= 0 {
		return throttle
	}
	multiplier := 1 - c.cut*(1-c.cfg.CutFloor)
	return vehicle.Clamp16(float64(throttle) * multiplier)
}

func (c *Controller) ApplySteering(steering int16) int16 { return steering }
