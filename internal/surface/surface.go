// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package surface implements SurfaceAdaptation: a slow, windowed
// estimate of road grip from the ratio of measured to bicycle-model
// predicted lateral acceleration, sampled while turning. It is the only
// writer of vehicle.State.GripMultiplier.
package surface

import (
	"math"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// Adapter owns the rolling sample window and the smoothed grip estimate.
// grip tracks the estimated surface coefficient mu; the published
// vehicle.State.GripMultiplier is its reciprocal, the threshold
// multiplier that scales slip thresholds elsewhere in the chain.
type Adapter struct {
	cfg      config.SurfaceParams
	wheelbaseM       float64
	maxSteerAngleDeg float64
	armed    bool

	samples []float64
	next    int
	filled  int

	grip float64
}

// New builds an Adapter bound to the surface tuning parameters and the
// vehicle geometry (wheelbase, max steer angle) the bicycle model needs.
func New(cfg config.SurfaceParams, vehicleCfg config.VehicleParams) *Adapter {
	size := cfg.WindowSize
	if size <= 0 {
		size = 1
	}
	return &Adapter{
		cfg:              cfg,
		wheelbaseM:       vehicleCfg.WheelbaseM,
		maxSteerAngleDeg: vehicleCfg.MaxSteerAngleDeg,
		armed:            true,
		samples:          make([]float64, size),
		grip:             1.0,
	}
}

func (a *Adapter) Name() string { return "surface_adaptation" }

func (a *Adapter) SetArmed(armed bool) { a.armed = armed }

// Reset clears the sample window and restores full grip.
func (a *Adapter) Reset() {
	for i := range a.samples {
		a.samples[i] = 0
	}
	a.next = 0
	a.filled = 0
	a.grip = 1.0
}

func (a *Adapter) Active() bool { return math.Abs(thresholdMultiplier(a.grip)-1.0) > 0.01 }

// Update predicts lateral acceleration from the kinematic bicycle model,
// compares it against the measured value during sustained turns, and
// folds the ratio into a slow rolling-window grip estimate.
func (a *Adapter) Update(st *vehicle.State, dt time.Duration, now time.Time) {
	if !a.armed {
		return
	}

	qualifies := st.FusedSpeedKmh > a.cfg.MinSpeedKmh &&
		(st.Steering > a.cfg.MinSteerAbs || st.Steering < -a.cfg.MinSteerAbs)

	if qualifies {
		vMS := st.FusedSpeedKmh / 3.6
		deltaRad := (float64(st.Steering) / 32767.0) * a.maxSteerAngleDeg * math.Pi / 180.0
		tanDelta := math.Tan(deltaRad)
		if math.Abs(tanDelta) > 1e-6 && a.wheelbaseM > 0 {
			radius := a.wheelbaseM / tanDelta
			aPred := vMS * vMS / radius
			if math.Abs(aPred) > 1e-6 {
				sample := math.Abs(st.LateralAccelMS2) / math.Abs(aPred)
				sample = clampRange(sample, a.cfg.GripMin, a.cfg.GripMax)
				a.samples[a.next] = sample
				a.next = (a.next + 1) % len(a.samples)
				if a.filled < len(a.samples) {
					a.filled++
				}
			}
		}
	}

	if a.filled < a.cfg.MinSamples {
		st.GripMultiplier = thresholdMultiplier(a.grip)
		return
	}

	sum := 0.0
	for i := 0; i < a.filled; i++ {
		sum += a.samples[i]
	}
	windowMean := sum / float64(a.filled)

	a.grip += (windowMean - a.grip) * a.cfg.LowPassAlpha
	a.grip = clampRange(a.grip, a.cfg.GripMin, a.cfg.GripMax)
	st.GripMultiplier = thresholdMultiplier(a.grip)
}

// thresholdMultiplier converts an estimated surface coefficient into the
// published scalar: 1.0 / clamp(grip, 0.3, 3.3).
func thresholdMultiplier(grip float64) float64 {
	return 1.0 / clampRange(grip, 0.3, 3.3)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (a *Adapter) ApplyThrottle(throttle int16) int16 { return throttle }

func (a *Adapter) ApplySteering(steering int16) int16 { return steering }
