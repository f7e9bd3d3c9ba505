package coast

import (
	"testing"
	"time"

	"github.com/relabs-tech/truckcore/internal/config"
	"github.com/relabs-tech/truckcore/internal/vehicle"
)

func testConfig() config.CoastParams {
	return config.CoastParams{
		ReleaseUpperThrottle: 300,
		ReleaseLowerThrottle: 100,
		MinSpeedKmh:          1.0,
		CoastDurationMs:      250,
		InitialInjection:     1500,
		DeadzoneThrottle:     200,
	}
}

// Throttle history [0, 200, 400, 500, 0] at 20 km/h (spec §8 scenario 6):
// the release edge on the last sample arms a coast phase that injects a
// positive counter-throttle decaying from InitialInjection to zero.
func TestCoastArmsOnReleaseEdgeAndDecays(t *testing.T) {
	cfg := testConfig()
	c := New(cfg)
	st := &vehicle.State{Direction: vehicle.DirectionForward, FusedSpeedKmh: 20}

	now := time.Time{}
	history := []int16{0, 200, 400, 500, 0}
	for _, th := range history {
		st.Throttle = th
		now = now.Add(20 * time.Millisecond)
		c.Update(st, 20*time.Millisecond, now)
	}

	if !c.Active() {
		t.Fatal("expected coast phase to be armed after release edge")
	}
	out := c.ApplyThrottle(st.Throttle)
	if out <= 0 {
		t.Fatalf("ApplyThrottle = %d, want positive injection", out)
	}
	if out > cfg.InitialInjection {
		t.Fatalf("ApplyThrottle = %d, want <= initial injection %d", out, cfg.InitialInjection)
	}

	// Halfway through the window the injection should have decayed.
	now = now.Add(125 * time.Millisecond)
	st.Throttle = 0
	c.Update(st, 125*time.Millisecond, now)
	mid := c.ApplyThrottle(st.Throttle)
	if mid >= out {
		t.Fatalf("mid-window injection %d did not decay from initial %d", mid, out)
	}
}

func TestCoastAbortsOnReapply(t *testing.T) {
	cfg := testConfig()
	c := New(cfg)
	st := &vehicle.State{Direction: vehicle.DirectionForward, FusedSpeedKmh: 20}

	now := time.Time{}
	for _, th := range []int16{400, 500, 0} {
		st.Throttle = th
		now = now.Add(20 * time.Millisecond)
		c.Update(st, 20*time.Millisecond, now)
	}
	if !c.Active() {
		t.Fatal("expected coast phase armed")
	}

	st.Throttle = 1000
	now = now.Add(20 * time.Millisecond)
	c.Update(st, 20*time.Millisecond, now)
	if c.Active() {
		t.Fatal("expected coast phase to abort on throttle reapplication")
	}
	if got := c.ApplyThrottle(st.Throttle); got != st.Throttle {
		t.Fatalf("ApplyThrottle after abort = %d, want unchanged %d", got, st.Throttle)
	}
}
