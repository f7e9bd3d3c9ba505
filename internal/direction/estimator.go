// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package direction reconstructs a signed velocity estimate from the
// unsigned wheel-pulse sensor by low-passing a bias estimate and
// integrating bias-corrected forward acceleration against it.
package direction

import (
	"math"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// Estimator owns the DirectionEstimator's private integrator/bias state.
type Estimator struct {
	cfg config.DirectionParams

	bias             float64 // low-passed forward_accel, m/s^2
	signedSpeedMS    float64
	yawDisagreeSince time.Time
	confidence       float64
}

// New builds an Estimator bound to the direction tuning parameters.
func New(cfg config.DirectionParams) *Estimator {
	return &Estimator{cfg: cfg, confidence: 1.0}
}

// Reset clears the integrator, bias, and confidence.
func (e *Estimator) Reset() {
	e.bias = 0
	e.signedSpeedMS = 0
	e.yawDisagreeSince = time.Time{}
	e.confidence = 1.0
}

// Update advances the estimator by dt and writes SignedSpeedKmh,
// DirectionConf, and Direction into st.
func (e *Estimator) Update(st *vehicle.State, dt time.Duration, now time.Time) {
	dtS := dt.Seconds()

	// Low-pass IMU bias estimate.
	e.bias += (st.ForwardAccelMS2 - e.bias) * e.cfg.ImuBiasLowPassAlpha

	// Integrate bias-corrected acceleration.
	e.signedSpeedMS += (st.ForwardAccelMS2 - e.bias) * dtS

	wheelMS := st.WheelSpeedKmh / 3.6

	// Seeding near standstill.
	if math.Abs(e.signedSpeedMS) < 0.05 {
		if st.Throttle > e.cfg.SeedThrottleThreshold && st.ForwardAccelMS2 > e.cfg.SeedForwardAccelMS2 {
			e.signedSpeedMS = e.cfg.SeedSpeedMS
		} else if st.Throttle < -e.cfg.SeedThrottleThreshold && st.ForwardAccelMS2 < -e.cfg.SeedForwardAccelMS2 {
			e.signedSpeedMS = -e.cfg.SeedSpeedMS
		}
	}

	// Magnitude bound: |signed| <= wheel_speed, preserving sign.
	if math.Abs(e.signedSpeedMS) > wheelMS {
		if e.signedSpeedMS >= 0 {
			e.signedSpeedMS = wheelMS
		} else {
			e.signedSpeedMS = -wheelMS
		}
	}

	// Yaw-steering correlation.
	speedKmh := math.Abs(e.signedSpeedMS) * 3.6
	if speedKmh > 1.0 && st.Steering != 0 {
		predictedSign := predictedYawSign(st.Steering, e.signedSpeedMS >= 0)
		measuredSign := signOf(st.YawRateDps)
		if predictedSign != 0 && measuredSign != 0 && predictedSign != measuredSign &&
			math.Abs(st.YawRateDps) > e.cfg.YawDisagreementThresholdDps {
			if e.yawDisagreeSince.IsZero() {
				e.yawDisagreeSince = now
			}
			hold := time.Duration(e.cfg.YawDisagreementHoldMs) * time.Millisecond
			if now.Sub(e.yawDisagreeSince) > hold {
				e.signedSpeedMS = -e.signedSpeedMS
				e.confidence = 0.8
				e.yawDisagreeSince = time.Time{}
			}
		} else {
			e.yawDisagreeSince = time.Time{}
		}
	} else {
		e.yawDisagreeSince = time.Time{}
	}

	// Stationary decay.
	if st.WheelSpeedKmh < 0.3 && math.Abs(float64(st.Throttle)) < float64(e.cfg.StationaryThrottle) &&
		math.Abs(st.ForwardAccelMS2) < e.cfg.StationaryAccelMS2 {
		e.signedSpeedMS *= e.cfg.StationaryDecayFactor
	}

	st.SignedSpeedKmh = e.signedSpeedMS * 3.6
	st.DirectionConf = e.confidence
	st.Direction = direction(st.SignedSpeedKmh, e.cfg)
}

// predictedYawSign returns the sign of the yaw rate the Ackermann model
// predicts for this steering command: right steer + forward motion
// yields clockwise (negative) yaw; the geometry reverses in reverse.
func predictedYawSign(steering int16, movingForward bool) float64 {
	s := signOf(float64(steering))
	if s == 0 {
		return 0
	}
	if movingForward {
		return -s
	}
	return s
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

func direction(signedSpeedKmh float64, cfg config.DirectionParams) vehicle.Direction {
	switch {
	case signedSpeedKmh > cfg.HysteresisForwardKmh:
		return vehicle.DirectionForward
	case signedSpeedKmh < -cfg.HysteresisForwardKmh:
		return vehicle.DirectionBackward
	case math.Abs(signedSpeedKmh) < cfg.HysteresisStoppedKmh:
		return vehicle.DirectionStopped
	default:
		// Inside the hysteresis band: preserve sign but report stopped
		// only once speed has actually crossed back toward zero.
		if signedSpeedKmh > 0 {
			return vehicle.DirectionForward
		}
		return vehicle.DirectionBackward
	}
}
