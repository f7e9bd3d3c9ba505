// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package fusion

import (
	"math"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// HeadingBlend produces blended_heading from IMU heading and GPS course.
type HeadingBlend struct {
	cfg     config.VehicleParams
	blended float64
	primed  bool
}

// NewHeadingBlend builds a filter bound to the vehicle-level tuning
// parameters.
func NewHeadingBlend(cfg config.VehicleParams) *HeadingBlend {
	return &HeadingBlend{cfg: cfg}
}

// Reset clears the smoothed heading state.
func (h *HeadingBlend) Reset() {
	h.blended = 0
	h.primed = false
}

// Update writes BlendedHeadingDeg into st.
func (h *HeadingBlend) Update(st *vehicle.State) {
	target := h.target(st)

	if !h.primed {
		h.blended = target
		h.primed = true
		st.BlendedHeadingDeg = h.blended
		return
	}

	// Shortest-angular-difference low-pass to avoid wrap jumps at 0/360.
	diff := angularDiff(target, h.blended)
	h.blended = wrap360(h.blended + diff*h.cfg.HeadingLowPassAlpha)
	st.BlendedHeadingDeg = h.blended
}

// target computes the unsmoothed blend target before the low-pass.
func (h *HeadingBlend) target(st *vehicle.State) float64 {
	if !st.ImuAvailable {
		// IMU absent: heading falls back to GPS directly.
		if st.GPSValid {
			return st.GPSCourse
		}
		return h.blended
	}
	if !st.GPSValid {
		// GPS invalid: heading falls back to IMU-only.
		return st.ImuHeadingDeg
	}

	speed := st.FusedSpeedKmh
	switch {
	case speed <= h.cfg.HeadingImuOnlySpeedKmh:
		return st.ImuHeadingDeg
	case speed >= h.cfg.HeadingGpsTrustSpeedKmh:
		return blendAngles(st.GPSCourse, st.ImuHeadingDeg, 0.8)
	default:
		span := h.cfg.HeadingGpsTrustSpeedKmh - h.cfg.HeadingImuOnlySpeedKmh
		frac := (speed - h.cfg.HeadingImuOnlySpeedKmh) / span
		gpsWeight := 0.8 * frac
		return blendAngles(st.GPSCourse, st.ImuHeadingDeg, gpsWeight)
	}
}

// blendAngles mixes two headings (degrees) with weightA on a, the rest
// on b, using the shortest angular path.
func blendAngles(a, b, weightA float64) float64 {
	diff := angularDiff(a, b)
	return wrap360(b + diff*weightA)
}

// angularDiff returns the signed shortest difference target-from in
// degrees, in [-180, 180).
func angularDiff(target, from float64) float64 {
	d := math.Mod(target-from+540, 360) - 180
	return d
}

func wrap360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
