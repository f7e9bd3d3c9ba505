package yaw

import (
	"testing"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

func testConfig() config.YawParams {
	return config.YawParams{
		UndersteerCoefficient:     6.0,
		OversteerThresholdDps:     25,
		UndersteerThresholdDps:    20,
		ThrottleCutStepOversteer:  0.25,
		ThrottleCutStepUndersteer: 0.1,
		RecoverRateSlow:           0.5,
		RecoverRateFast:           1.5,
		SettleTimeMs:              200,
		MinSpeedKmh:               3.0,
		VirtualBrakeScale:         0.3,
		YawLowPassAlpha:           0.3,
		CutFloor:                  0.15,
	}
}

// Spin on corner exit (spec §8 scenario 3): sustained oversteer should
// drive the multiplier down and report a positive virtual brake, but
// ApplyThrottle must never reverse the sign of a positive input.
func TestOversteerCutsThrottleWithoutReversingSign(t *testing.T) {
	c := New(testConfig())
	st := &vehicle.State{
		YawRateDps:    -90, // actual, already sign-converted per spec §3
		Steering:      200,
		FusedSpeedKmh: 20,
		Throttle:      10000,
	}

	now := time.Time{}
	var lastOut int16
	for i := 0; i < 30; i++ {
		now = now.Add(20 * time.Millisecond)
		c.Update(st, 20*time.Millisecond, now)
		lastOut = c.ApplyThrottle(st.Throttle)
		if lastOut < 0 {
			t.Fatalf("cycle %d: ApplyThrottle(positive) = %d, want >= 0", i, lastOut)
		}
	}
	if !c.Active() {
		t.Fatal("expected oversteer intervention to be active")
	}
	if c.VirtualBrake() <= 0 {
		t.Fatalf("VirtualBrake() = %v, want > 0 on sustained oversteer", c.VirtualBrake())
	}
	if lastOut >= 10000 {
		t.Fatalf("lastOut = %d, want throttle reduced from 10000", lastOut)
	}
}

func TestApplyThrottleZeroIsAlwaysZero(t *testing.T) {
	c := New(testConfig())
	c.cut = 1.0
	c.mode = modeOversteer
	if got := c.ApplyThrottle(0); got != 0 {
		t.Fatalf("ApplyThrottle(0) = %v, want 0", got)
	}
}

func TestApplyThrottleRespectsFloor(t *testing.T) {
	cfg := testConfig()
	c := New(cfg)
	c.cut = 1.0
	got := c.ApplyThrottle(10000)
	want := int16(float64(10000) * cfg.CutFloor)
	if got != want {
		t.Fatalf("ApplyThrottle at full cut = %d, want floor-scaled %d", got, want)
	}
}
