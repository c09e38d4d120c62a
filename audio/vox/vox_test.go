package vox

import (
	"reflect"
	"testing"
	"time"
)

func TestVox(t *testing.T) {
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	states := []bool{}

	v := New(
		Threshold(0.2),
		HoldTime(time.Second),
		Clock(func() time.Time { return now }),
		StateChanged(func(on bool) { states = append(states, on) }),
	)

	loud := []float32{0.5, -0.5, 0.5, -0.5}
	quiet := []float32{0.01, -0.01, 0.01, -0.01}

	if v.Process(quiet) {
		t.Fatal("vox must not trigger on a quiet window")
	}
	if !v.Process(loud) {
		t.Fatal("expected vox to trigger")
	}
	if !v.Process(loud) {
		t.Fatal("expected vox to stay active")
	}

	now = now.Add(500 * time.Millisecond)
	if !v.Process(quiet) {
		t.Fatal("expected vox to hold")
	}

	now = now.Add(time.Second)
	if v.Process(quiet) {
		t.Fatal("expected vox to be cut off after the hold time")
	}

	if !reflect.DeepEqual(states, []bool{true, false}) {
		t.Fatalf("expected state changes [true false], got %v", states)
	}
}

func TestVoxEmptyWindow(t *testing.T) {
	v := New()
	if v.Process(nil) {
		t.Fatal("empty window must not trigger the vox")
	}
}

func TestVoxSettings(t *testing.T) {
	v := New()
	if v.Threshold() != 0.1 || v.HoldTime() != 500*time.Millisecond {
		t.Fatalf("unexpected defaults %v / %v", v.Threshold(), v.HoldTime())
	}

	v.SetThreshold(0.3)
	v.SetHoldTime(time.Second)
	if v.Threshold() != 0.3 || v.HoldTime() != time.Second {
		t.Fatalf("unexpected settings %v / %v", v.Threshold(), v.HoldTime())
	}
}
