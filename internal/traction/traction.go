// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package traction implements LowSpeedTractionManager: launch and cruise
// slip management below the speed band where YawRateController and ABS
// take over.
package traction

import (
	"math"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// Manager runs both the launch and cruise strategies every cycle and
// blends their outputs across the transition band, so the published
// cut factor is continuous at both band edges.
type Manager struct {
	cfg   config.TractionParams
	armed bool

	launchCut float64 // 1.0 = no cut, 0.0 = full cut
	cruiseCut float64
	cutFactor float64 // blended output actually applied
	slip      float64
	active    bool
}

// New builds a Manager bound to the traction tuning parameters.
func New(cfg config.TractionParams) *Manager {
	return &Manager{cfg: cfg, armed: true, launchCut: 1.0, cruiseCut: 1.0, cutFactor: 1.0}
}

func (m *Manager) Name() string { return "low_speed_traction" }

func (m *Manager) SetArmed(armed bool) { m.armed = armed }

// Reset clears both strategies' cut factors.
func (m *Manager) Reset() {
	m.launchCut = 1.0
	m.cruiseCut = 1.0
	m.cutFactor = 1.0
	m.slip = 0
	m.active = false
}

func (m *Manager) Active() bool { return m.active }

func (m *Manager) Update(st *vehicle.State, dt time.Duration, now time.Time) {
	if !m.armed || st.Direction != vehicle.DirectionForward {
		m.launchCut = 1.0
		m.cruiseCut = 1.0
		m.cutFactor = 1.0
		m.active = false
		return
	}

	speed := st.FusedSpeedKmh
	if speed > m.cfg.CruiseMinSpeedKmh {
		// Above the cruise band: no intervention, but keep both
		// strategies primed at "no cut" so re-entry is continuous.
		m.launchCut = 1.0
		m.cruiseCut = 1.0
		m.cutFactor = 1.0
		m.active = false
		return
	}

	m.slip = m.slipRatio(st)

	turnFactor := 1.0
	if math.Abs(st.YawRateDps) > m.cfg.TurnYawThresholdDps {
		turnFactor = m.cfg.TurnFactorMultiplier
	}

	// Launch strategy: proactive ramp toward the target slip ratio.
	target := m.cfg.TargetSlipRatio * turnFactor
	switch {
	case m.slip > m.cfg.SlipHighCutRatio*turnFactor:
		m.launchCut -= m.cfg.LaunchRampRatePerSec * dt.Seconds()
	case m.slip < target-m.cfg.SlipHoldBandRatio:
		m.launchCut += m.cfg.LaunchRampRatePerSec * dt.Seconds()
	}
	if m.launchCut > m.cfg.LaunchCeiling {
		m.launchCut = m.cfg.LaunchCeiling
	}

	// Cruise strategy: reactive, sharp fall and slow recovery.
	if m.slip > m.cfg.CruiseSlipThreshold*turnFactor {
		m.cruiseCut -= m.cfg.CruiseFallRatePerSec * dt.Seconds()
	} else {
		m.cruiseCut += m.cfg.CruiseRecoverRatePerSec * dt.Seconds()
	}

	m.launchCut = clamp01(m.launchCut)
	m.cruiseCut = clamp01(m.cruiseCut)

	// Blend weight: 0 at/below LaunchMaxSpeedKmh (pure launch), 1 at/above
	// CruiseMinSpeedKmh (pure cruise), linear between.
	w := 1.0
	span := m.cfg.CruiseMinSpeedKmh - m.cfg.LaunchMaxSpeedKmh
	if span > 0 {
		w = (speed - m.cfg.LaunchMaxSpeedKmh) / span
	}
	w = clamp01(w)

	m.cutFactor = clamp01(m.launchCut*(1-w) + m.cruiseCut*w)
	m.active = m.cutFactor < 0.999
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// slipRatio estimates (wheel_speed - ground_speed) / wheel_speed, the
// standard traction-control slip definition, clamped to avoid blowing up
// near standstill.
func (m *Manager) slipRatio(st *vehicle.State) float64 {
	wheel := st.WheelSpeedKmh
	if wheel < 0.5 {
		return 0
	}
	ground := math.Max(st.FusedSpeedKmh, 0)
	return (wheel - ground) / wheel
}

func (m *Manager) ApplyThrottle(throttle int16) int16 {
	if !m.armed || throttle <= 0 {
		return throttle
	}
	return vehicle.Clamp16(float64(throttle) * m.cutFactor)
}

func (m *Manager) ApplySteering(steering int16) int16 { return steering }
