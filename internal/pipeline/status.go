// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

// Status is the structured per-cycle telemetry record published over
// MQTT. It names every controller's active/armed flag alongside the
// headline state so a dashboard never has to reconstruct intervention
// state from raw sensor fields.
type Status struct {
	SequenceNumber uint64  `json:"sequence_number"`
	RaceState      string  `json:"race_state"`
	Direction      string  `json:"direction"`
	ESCState       string  `json:"esc_state"`
	FusedSpeedKmh  float64 `json:"fused_speed_kmh"`
	SignedSpeedKmh float64 `json:"signed_speed_kmh"`
	BlendedHeading float64 `json:"blended_heading_deg"`
	GripMultiplier float64 `json:"grip_multiplier"`
	DriverConnected bool   `json:"driver_connected"`
	ImuAvailable    bool   `json:"imu_available"`

	Controllers []ControllerStatus `json:"controllers"`
}

// ControllerStatus reports one chain link's armed/active state.
// VirtualBrake is only populated for YawRateController, where a nonzero
// value means an oversteer intervention is additionally requesting brake
// demand outside the normal throttle channel.
type ControllerStatus struct {
	Name         string  `json:"name"`
	Armed        bool    `json:"armed"`
	Active       bool    `json:"active"`
	VirtualBrake float64 `json:"virtual_brake,omitempty"`
}
