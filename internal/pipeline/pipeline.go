// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pipeline orchestrates one command-processing cycle: fusion,
// direction estimation, surface adaptation, then the fixed controller
// chain, gated on race state so the safety chain never sends a nonzero
// command unless the race state is racing.
package pipeline

import (
	"time"

	"github.com/relabs-tech/truckcore/internal/clock"
	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/coast"
	"github.com/relabs-tech/truckcore/internal/direction"
	"github.com/relabs-tech/truckcore/internal/esc"
	"github.com/relabs-tech/truckcore/internal/fusion"
	"github.com/relabs-tech/truckcore/internal/hillhold"
	"github.com/relabs-tech/truckcore/internal/slipwatch"
	"github.com/relabs-tech/truckcore/internal/steering"
	"github.com/relabs-tech/truckcore/internal/surface"
	"github.com/relabs-tech/truckcore/internal/traction"
	"github.com/relabs-tech/truckcore/internal/vehicle"
	"github.com/relabs-tech/truckcore/internal/yaw"
)

// link bundles a Controller with the arming switch the status endpoint
// and the admin console need, without requiring every controller
// package to expose an Armed() getter of its own.
type link struct {
	c        Controller
	setArmed func(bool)
	armed    bool
}

// Pipeline owns every per-cycle stage and the fixed controller chain.
type Pipeline struct {
	speed     *fusion.SpeedFusion
	heading   *fusion.HeadingBlend
	direction *direction.Estimator
	surfaceAd *surface.Adapter
	escTrack  *esc.Tracker

	chain []*link
}

// New builds a Pipeline wired to the given car profile and clock. The
// clock is threaded through to ABSController so tests can run the
// apply/release duty cycle at simulated speed.
func New(cfg *config.Profile, clk clock.Clock) *Pipeline {
	steeringShaper := steering.New(cfg.Steering)
	hillHold := hillhold.New(cfg.HillHold)
	lowSpeedTraction := traction.New(cfg.Traction)
	yawController := yaw.New(cfg.Yaw)
	slipAngleWatchdog := slipwatch.New(cfg.SlipWatch)
	absController := esc.NewABSController(cfg.ABS, clk)
	coastControl := coast.New(cfg.Coast)

	return &Pipeline{
		speed:     fusion.NewSpeedFusion(cfg.Vehicle),
		heading:   fusion.NewHeadingBlend(cfg.Vehicle),
		direction: direction.New(cfg.Direction),
		surfaceAd: surface.New(cfg.Surface, cfg.Vehicle),
		escTrack:  esc.NewTracker(),
		chain: []*link{
			{c: steeringShaper, setArmed: steeringShaper.SetArmed, armed: true},
			{c: hillHold, setArmed: hillHold.SetArmed, armed: true},
			{c: lowSpeedTraction, setArmed: lowSpeedTraction.SetArmed, armed: true},
			{c: yawController, setArmed: yawController.SetArmed, armed: true},
			{c: slipAngleWatchdog, setArmed: slipAngleWatchdog.SetArmed, armed: true},
			{c: absController, setArmed: absController.SetArmed, armed: true},
			{c: coastControl, setArmed: coastControl.SetArmed, armed: true},
		},
	}
}

// SetArmed toggles one chain link by name, for an admin per-controller
// arm/disarm endpoint. Unknown names are a no-op.
func (p *Pipeline) SetArmed(name string, armed bool) {
	for _, l := range p.chain {
		if l.c.Name() == name {
			l.armed = armed
			l.setArmed(armed)
			return
		}
	}
}

// Reset restores every stage to its zero state: a fresh race start
// must not carry over stale filter/timer state.
func (p *Pipeline) Reset() {
	p.speed.Reset()
	p.heading.Reset()
	p.direction.Reset()
	p.surfaceAd.Reset()
	p.escTrack.Reset()
	for _, l := range p.chain {
		if r, ok := l.c.(interface{ Reset() }); ok {
			r.Reset()
		}
	}
}

// RunCycle advances fusion, direction, surface adaptation, the ESC
// state tracker, and then the controller chain by dt, reading raw
// sensor/driver fields already written into st and producing the final
// actuator throttle/steering. Output is zeroed whenever the race state
// is not racing.
func (p *Pipeline) RunCycle(st *vehicle.State, driverThrottle, driverSteering int16, dt time.Duration, now time.Time) (throttle, steering int16, status Status) {
	p.speed.Update(st, dt, now)
	p.heading.Update(st)
	p.direction.Update(st, dt, now)

	st.GripMultiplier = 1.0
	p.surfaceAd.Update(st, dt, now)

	st.Throttle = driverThrottle
	st.Steering = driverSteering

	// ESC state must reflect this cycle's direction/throttle before the
	// chain runs: ABSController's braking/reversing gate reads st.ESC.
	p.escTrack.Update(st, driverThrottle)

	for _, l := range p.chain {
		l.c.Update(st, dt, now)
	}

	throttle, steering = driverThrottle, driverSteering
	for _, l := range p.chain {
		throttle = l.c.ApplyThrottle(throttle)
		steering = l.c.ApplySteering(steering)
	}

	if st.Race != vehicle.RaceRacing {
		throttle = 0
		steering = 0
	}

	status = p.status(st, throttle)
	return throttle, steering, status
}

func (p *Pipeline) status(st *vehicle.State, throttle int16) Status {
	controllers := make([]ControllerStatus, 0, len(p.chain))
	for _, l := range p.chain {
		cs := ControllerStatus{
			Name:   l.c.Name(),
			Armed:  l.armed,
			Active: l.c.Active(),
		}
		if vb, ok := l.c.(interface{ VirtualBrake() float64 }); ok {
			cs.VirtualBrake = vb.VirtualBrake()
		}
		controllers = append(controllers, cs)
	}
	return Status{
		RaceState:       st.Race.String(),
		Direction:       st.Direction.String(),
		ESCState:        st.ESC.String(),
		FusedSpeedKmh:   st.FusedSpeedKmh,
		SignedSpeedKmh:  st.SignedSpeedKmh,
		BlendedHeading:  st.BlendedHeadingDeg,
		GripMultiplier:  st.GripMultiplier,
		DriverConnected: st.DriverConnected,
		ImuAvailable:    st.ImuAvailable,
		Controllers:     controllers,
	}
}
