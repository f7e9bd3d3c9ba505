// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package fusion implements the speed-fusion and heading-blend
// complementary filters. The IMU-primary blend integrates forward
// acceleration into a velocity estimate and cross-checks it against
// wheel speed and GPS.
package fusion

import (
	"math"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// SpeedFusion owns the IMU-primary complementary filter state for
// fused_speed.
type SpeedFusion struct {
	cfg config.VehicleParams

	imuIntegrated float64 // m/s
	primary       float64 // km/h, pre low-pass
	fused         float64 // km/h, published

	wheelStoppedSince time.Time
	wheelspinSince     time.Time
	wheelspinActive    bool
}

// NewSpeedFusion builds a filter bound to the vehicle-level tuning
// parameters.
func NewSpeedFusion(cfg config.VehicleParams) *SpeedFusion {
	return &SpeedFusion{cfg: cfg}
}

// Reset clears all internal filter state.
func (f *SpeedFusion) Reset() {
	f.imuIntegrated = 0
	f.primary = 0
	f.fused = 0
	f.wheelStoppedSince = time.Time{}
	f.wheelspinSince = time.Time{}
	f.wheelspinActive = false
}

// Update advances the filter by dt and writes FusedSpeedKmh and
// ImuIntegratedMS into st. now is the injected clock's current time.
func (f *SpeedFusion) Update(st *vehicle.State, dt time.Duration, now time.Time) {
	dtS := dt.Seconds()

	// 1) Integrate forward acceleration, only while a driver is connected.
	if st.DriverConnected {
		f.imuIntegrated += st.ForwardAccelMS2 * dtS
	} else {
		f.imuIntegrated = 0
	}

	wheelKmh := st.WheelSpeedKmh

	if wheelKmh > 0.5 {
		f.wheelStoppedSince = time.Time{}
		imuKmh := f.imuIntegrated * 3.6
		f.primary = 0.7*wheelKmh + 0.3*imuKmh
	} else {
		if f.wheelStoppedSince.IsZero() {
			f.wheelStoppedSince = now
		}
		stoppedFor := now.Sub(f.wheelStoppedSince)
		stationaryTimeout := time.Duration(f.cfg.StationaryTimeoutMs) * time.Millisecond
		if stoppedFor > stationaryTimeout && math.Abs(st.ForwardAccelMS2) < f.cfg.ImuAccelNoiseThreshold {
			// Exponential decay toward zero.
			f.imuIntegrated *= math.Exp(-dtS / stationaryTimeout.Seconds())
		}
		f.primary = f.imuIntegrated * 3.6
	}

	// 4) Wheelspin cap.
	if st.GPSValid && st.GPSSpeedKmh > 0.01 {
		ratio := wheelKmh / st.GPSSpeedKmh
		debounce := time.Duration(f.cfg.WheelspinDebounceMs) * time.Millisecond
		if ratio > f.cfg.WheelspinDetectRatio {
			if f.wheelspinSince.IsZero() {
				f.wheelspinSince = now
			}
			if now.Sub(f.wheelspinSince) > debounce {
				f.wheelspinActive = true
			}
		} else {
			f.wheelspinSince = time.Time{}
			f.wheelspinActive = false
		}
		if f.wheelspinActive {
			cap := st.GPSSpeedKmh * f.cfg.WheelspinMaxRatio
			if f.primary > cap {
				f.primary = cap
			}
		}

		// 5) Drift correction toward GPS, never driving real-time control.
		if st.GPSSpeedKmh > f.cfg.GPSTrustFloorKmh {
			rate := f.cfg.GPSDriftCorrectionRate
			f.primary += (st.GPSSpeedKmh - f.primary) * rate
			f.imuIntegrated += (st.GPSSpeedKmh/3.6 - f.imuIntegrated) * rate
		}
	} else {
		f.wheelspinSince = time.Time{}
		f.wheelspinActive = false
	}

	if f.primary < 0 {
		f.primary = 0
	}

	// 6) Low-pass into fused_speed.
	alpha := f.cfg.SpeedLowPassAlpha
	f.fused += (f.primary - f.fused) * alpha

	st.FusedSpeedKmh = f.fused
	st.ImuIntegratedMS = f.imuIntegrated
	st.WheelStoppedSince = f.wheelStoppedSince
}
