// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pipeline wires the seven chain controllers into a fixed-order chain
// and runs the per-cycle sequencing over a shared vehicle.State. Each
// controller is a small {name, update, apply_to_throttle,
// apply_to_steering} record; there is no base class, just a slice of
// these records.
package pipeline

import (
	"time"

	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// Controller is one link in the fixed-order chain:
// SteeringShaper -> HillHold -> LowSpeedTraction -> YawRate -> SlipAngle
// -> ABS -> Coast.
type Controller interface {
	// Name identifies the controller for status telemetry.
	Name() string
	// Update recomputes internal filter/intervention state from the
	// current state snapshot. Called once per command-processing cycle,
	// before ApplyThrottle/ApplySteering.
	Update(st *vehicle.State, dt time.Duration, now time.Time)
	// ApplyThrottle shapes the throttle channel. Controllers that don't
	// touch throttle return the input unchanged.
	ApplyThrottle(throttle int16) int16
	// ApplySteering shapes the steering channel. Controllers that don't
	// touch steering return the input unchanged.
	ApplySteering(steering int16) int16
	// Active reports whether this controller is currently intervening,
	// for status telemetry.
	Active() bool
}
