// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package wheeladapter watches the wheel-speed GPIO pulse line and the
// headlight output line via periph.io. This is the one adapter whose
// callback runs on its own goroutine outside the main cooperative loop,
// so it only ever touches vehicle.State.RecordPulse, never the rest of
// State directly.
package wheeladapter

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

// Adapter owns the pulse-input and headlight-output GPIO lines.
type Adapter struct {
	pulsePin gpio.PinIn
	headlight gpio.PinOut

	cfg config.WheelParams
}

// Open configures the pulse-counter input (rising-edge interrupt) and
// the headlight output line named in cfg.
func Open(cfg config.WheelParams) (*Adapter, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("wheel: periph host init: %w", err)
	}

	pin := gpioreg.ByName(cfg.GPIOPin)
	if pin == nil {
		return nil, fmt.Errorf("wheel: pulse GPIO pin %q not found", cfg.GPIOPin)
	}
	if err := pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("wheel: configuring pulse pin as input: %w", err)
	}

	var headlight gpio.PinOut
	if cfg.HeadlightGPIOPin != "" {
		h := gpioreg.ByName(cfg.HeadlightGPIOPin)
		if h == nil {
			return nil, fmt.Errorf("wheel: headlight GPIO pin %q not found", cfg.HeadlightGPIOPin)
		}
		headlight = h
	}

	return &Adapter{pulsePin: pin, headlight: headlight, cfg: cfg}, nil
}

// Run blocks, waiting for rising edges on the pulse line and recording
// each one against st via the mutex-protected wheel counter. Intended
// to run on its own goroutine; stop by cancelling done.
func (a *Adapter) Run(st *vehicle.State, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		if a.pulsePin.WaitForEdge(100 * time.Millisecond) {
			st.RecordPulse(time.Now())
		}
	}
}

// SetHeadlight drives the headlight output line, if configured.
func (a *Adapter) SetHeadlight(on bool) error {
	if a.headlight == nil {
		return nil
	}
	return a.headlight.Out(gpio.Level(on))
}

// SpeedFromPulses converts a pulse count delta over dt into km/h, using
// the wheel's magnet count per revolution from cfg.MagnetsPerRev and the
// rolling circumference passed as wheelCircumferenceM.
func (a *Adapter) SpeedFromPulses(pulses uint64, dt time.Duration, wheelCircumferenceM float64) float64 {
	if dt <= 0 || a.cfg.MagnetsPerRev <= 0 {
		return 0
	}
	revolutions := float64(pulses) / float64(a.cfg.MagnetsPerRev)
	metersPerSecond := revolutions * wheelCircumferenceM / dt.Seconds()
	return metersPerSecond * 3.6
}
