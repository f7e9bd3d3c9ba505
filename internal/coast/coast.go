// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package coast implements CoastControl: a brief throttle injection when
// the driver releases to neutral while still moving, to counter the
// brushed ESC's tendency to snap into braking on release.
package coast

import (
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// Control owns the coast window timer.
type Control struct {
	cfg   config.CoastParams
	armed bool

	prevThrottle int16
	havePrev     bool

	coasting    bool
	coastSince  time.Time
	injectFrac  float64
}

// New builds a Control bound to the coast tuning parameters.
func New(cfg config.CoastParams) *Control {
	return &Control{cfg: cfg, armed: true}
}

func (c *Control) Name() string { return "coast_control" }

func (c *Control) SetArmed(armed bool) { c.armed = armed }

// Reset clears the coast window.
func (c *Control) Reset() {
	c.coasting = false
	c.coastSince = time.Time{}
	c.havePrev = false
	c.prevThrottle = 0
}

func (c *Control) Active() bool { return c.coasting }

// Update detects the release edge (prior throttle above the upper
// threshold, current throttle below the lower threshold) and arms a
// fixed-duration coast phase. The phase aborts the moment the driver
// re-applies throttle beyond the deadzone in either direction.
func (c *Control) Update(st *vehicle.State, dt time.Duration, now time.Time) {
	prev := c.prevThrottle
	havePrev := c.havePrev
	c.prevThrottle = st.Throttle
	c.havePrev = true

	if !c.armed || st.FusedSpeedKmh < c.cfg.MinSpeedKmh || st.Direction != vehicle.DirectionForward {
		c.coasting = false
		return
	}

	reapplied := st.Throttle > c.cfg.DeadzoneThrottle || st.Throttle < -c.cfg.DeadzoneThrottle
	duration := time.Duration(c.cfg.CoastDurationMs) * time.Millisecond

	if c.coasting {
		if reapplied || now.Sub(c.coastSince) > duration {
			c.coasting = false
			c.injectFrac = 0
			return
		}
		c.injectFrac = 1 - now.Sub(c.coastSince).Seconds()/duration.Seconds()
		return
	}

	releaseEdge := havePrev && prev > c.cfg.ReleaseUpperThrottle && st.Throttle < c.cfg.ReleaseLowerThrottle
	if releaseEdge {
		c.coasting = true
		c.coastSince = now
		c.injectFrac = 1
	}
}

// ApplyThrottle injects a counter-throttle that decays linearly from
// InitialInjection to zero over the coast window. The fraction is
// computed in Update from its now argument so tests can run the decay
// at simulated speed.
func (c *Control) ApplyThrottle(throttle int16) int16 {
	if !c.armed || !c.coasting {
		return throttle
	}
	return vehicle.Clamp16(float64(c.cfg.InitialInjection) * c.injectFrac)
}

func (c *Control) ApplySteering(steering int16) int16 { return steering }
