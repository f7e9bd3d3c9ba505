package clock

import (
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	if !f.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", f.Now(), start)
	}

	f.Advance(5 * time.Second)
	want := start.Add(5 * time.Second)
	if !f.Now().Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", f.Now(), want)
	}
}

func TestFakeSet(t *testing.T) {
	f := NewFake(time.Now())
	target := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	f.Set(target)
	if !f.Now().Equal(target) {
		t.Fatalf("Now() after Set = %v, want %v", f.Now(), target)
	}
}

func TestRealNowAdvances(t *testing.T) {
	var r Real
	a := r.Now()
	time.Sleep(time.Millisecond)
	b := r.Now()
	if !b.After(a) {
		t.Fatalf("real clock did not advance: a=%v b=%v", a, b)
	}
}
