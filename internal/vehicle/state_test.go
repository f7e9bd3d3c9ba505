package vehicle

import (
	"testing"
	"time"
)

func TestResetPreservesWheelPulseCounter(t *testing.T) {
	st := New()
	now := time.Now()
	st.RecordPulse(now)
	st.RecordPulse(now.Add(time.Millisecond))

	st.FusedSpeedKmh = 12.5
	st.Direction = DirectionForward
	st.Reset()

	if st.FusedSpeedKmh != 0 {
		t.Fatalf("FusedSpeedKmh = %v, want 0 after reset", st.FusedSpeedKmh)
	}
	if st.Direction != DirectionStopped {
		t.Fatalf("Direction = %v, want DirectionStopped after reset", st.Direction)
	}

	count, _ := st.SnapshotWheelPulse()
	if count != 2 {
		t.Fatalf("wheel pulse count = %d, want 2 (preserved across reset)", count)
	}
}

func TestRecordPulseIsConcurrencySafe(t *testing.T) {
	st := New()
	done := make(chan struct{})
	const n = 200

	go func() {
		for i := 0; i < n; i++ {
			st.RecordPulse(time.Now())
		}
		close(done)
	}()
	for i := 0; i < n; i++ {
		st.RecordPulse(time.Now())
	}
	<-done

	count, _ := st.SnapshotWheelPulse()
	if count != 2*n {
		t.Fatalf("count = %d, want %d", count, 2*n)
	}
}

func TestClamp16(t *testing.T) {
	cases := []struct {
		in   float64
		want int16
	}{
		{0, 0},
		{40000, 32767},
		{-40000, -32767},
		{100, 100},
	}
	for _, c := range cases {
		if got := Clamp16(c.in); got != c.want {
			t.Errorf("Clamp16(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestDirectionString(t *testing.T) {
	if DirectionForward.String() != "forward" {
		t.Errorf("unexpected String(): %s", DirectionForward.String())
	}
	if DirectionBackward.String() != "backward" {
		t.Errorf("unexpected String(): %s", DirectionBackward.String())
	}
	if DirectionStopped.String() != "stopped" {
		t.Errorf("unexpected String(): %s", DirectionStopped.String())
	}
}
