package traction

import (
	"testing"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

func testConfig() config.TractionParams {
	return config.TractionParams{
		LaunchMaxSpeedKmh:       5.0,
		CruiseMinSpeedKmh:       15.0,
		TargetSlipRatio:         0.15,
		SlipHighCutRatio:        0.35,
		SlipHoldBandRatio:       0.05,
		LaunchRampRatePerSec:    2.0,
		LaunchCeiling:           1.0,
		CruiseSlipThreshold:     0.2,
		CruiseFallRatePerSec:    2.5,
		CruiseRecoverRatePerSec: 1.0,
		TurnYawThresholdDps:     20,
		TurnFactorMultiplier:    0.7,
	}
}

// At the launch/cruise band edges, the blended output must equal the
// pure single-strategy output exactly (spec §8 boundary behavior).
func TestTransitionContinuousAtBandEdges(t *testing.T) {
	cfg := testConfig()
	m := New(cfg)

	st := &vehicle.State{Direction: vehicle.DirectionForward, WheelSpeedKmh: 6.0, FusedSpeedKmh: cfg.LaunchMaxSpeedKmh, Throttle: 20000}
	m.Update(st, 20*time.Millisecond, time.Time{})
	if m.cutFactor != m.launchCut {
		t.Fatalf("at launch edge: cutFactor=%v launchCut=%v, want equal", m.cutFactor, m.launchCut)
	}

	st.FusedSpeedKmh = cfg.CruiseMinSpeedKmh
	m.Update(st, 20*time.Millisecond, time.Time{})
	if m.cutFactor != m.cruiseCut {
		t.Fatalf("at cruise edge: cutFactor=%v cruiseCut=%v, want equal", m.cutFactor, m.cruiseCut)
	}
}

// Inside the transition band the blended cut factor must lie within the
// convex hull of the two strategies' outputs.
func TestTransitionBlendWithinConvexHull(t *testing.T) {
	cfg := testConfig()
	m := New(cfg)

	st := &vehicle.State{Direction: vehicle.DirectionForward, WheelSpeedKmh: 12.0, FusedSpeedKmh: 10.0, Throttle: 20000}
	for i := 0; i < 20; i++ {
		m.Update(st, 20*time.Millisecond, time.Time{})
	}

	lo, hi := m.launchCut, m.cruiseCut
	if lo > hi {
		lo, hi = hi, lo
	}
	if m.cutFactor < lo-1e-9 || m.cutFactor > hi+1e-9 {
		t.Fatalf("cutFactor=%v outside hull [%v,%v]", m.cutFactor, lo, hi)
	}
}

func TestApplyThrottleNeverTouchesNegativeOrZero(t *testing.T) {
	m := New(testConfig())
	m.cutFactor = 0.3
	if got := m.ApplyThrottle(0); got != 0 {
		t.Fatalf("ApplyThrottle(0) = %v, want 0", got)
	}
	if got := m.ApplyThrottle(-5000); got != -5000 {
		t.Fatalf("ApplyThrottle(-5000) = %v, want unchanged", got)
	}
	if got := m.ApplyThrottle(10000); got < 0 {
		t.Fatalf("ApplyThrottle(10000) = %v, want >= 0", got)
	}
}
