package esc

import (
	"testing"
	"time"

	"github.com/relabs-tech/truckcore/internal/clock"
	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

func absConfig() config.ABSParams {
	return config.ABSParams{
		MinBrakeThrottle:    -1000,
		MinSpeedKmh:         2.0,
		BaseSlipThreshold:   0.15,
		CycleTimeMs:         100,
		ApplyRatio:          0.6,
		ReleaseRatio:        0.3,
		MinRetardationRatio: 0.1,
		SlipLowPassAlpha:    0.5,
	}
}

// Forward braking, locked wheel (spec §8 scenario 1): sustained negative
// throttle while braking and a locked wheel should engage ABS pulsing.
func TestABSEngagesOnLockedWheelWhileBraking(t *testing.T) {
	clk := clock.NewFake(time.Now())
	a := NewABSController(absConfig(), clk)
	st := &vehicle.State{
		ESC:           vehicle.ESCBraking,
		Direction:     vehicle.DirectionForward,
		WheelSpeedKmh: 2,
		FusedSpeedKmh: 25,
		Throttle:      -15000,
		GripMultiplier: 1.0,
	}

	for i := 0; i < 10; i++ {
		clk.Advance(20 * time.Millisecond)
		a.Update(st, 20*time.Millisecond, clk.Now())
	}

	if !a.Active() {
		t.Fatal("expected ABS to be active after sustained lockup")
	}
	out := a.ApplyThrottle(st.Throttle)
	if out != vehicle.Clamp16(float64(st.Throttle)*absConfig().ApplyRatio) &&
		out != vehicle.Clamp16(float64(st.Throttle)*absConfig().ReleaseRatio) {
		t.Fatalf("ApplyThrottle = %d, want apply- or release-ratio of %d", out, st.Throttle)
	}
}

// Intentional reverse with the same negative throttle (spec §8 scenario
// 2) must never trigger ABS: the invariant is ABS.is_active implies
// ESC_state == braking AND direction == forward.
func TestABSNeverActivatesWhileReversing(t *testing.T) {
	clk := clock.NewFake(time.Now())
	a := NewABSController(absConfig(), clk)
	st := &vehicle.State{
		ESC:           vehicle.ESCReversing,
		Direction:     vehicle.DirectionBackward,
		WheelSpeedKmh: 2,
		FusedSpeedKmh: 5,
		Throttle:      -15000,
		GripMultiplier: 1.0,
	}

	for i := 0; i < 10; i++ {
		clk.Advance(20 * time.Millisecond)
		a.Update(st, 20*time.Millisecond, clk.Now())
	}

	if a.Active() {
		t.Fatal("ABS must not activate while ESC state is reversing")
	}
	if got := a.ApplyThrottle(st.Throttle); got != st.Throttle {
		t.Fatalf("ApplyThrottle = %d, want unchanged %d", got, st.Throttle)
	}
}
