package vibe

import (
	"math"
	"testing"
)

func TestActuatorMax_NeverRoundsUp(t *testing.T) {
	tests := []struct {
		max   float64
		steps int
		want  float64
	}{
		{1.0, 20, 1.0},
		{0.5, 20, 0.5},
		{0.72, 10, 0.7},
		{0.78, 10, 0.7},
		{0.3, 3, 0},
		{0.66, 3, 1.0 / 3},
		{0.7, 0, 0.7},
	}
	for _, tc := range tests {
		got := ActuatorMax(tc.max, tc.steps)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("ActuatorMax(%v, %d): expected %v, got %v", tc.max, tc.steps, tc.want, got)
		}
		if got > tc.max+1e-12 {
			t.Errorf("ActuatorMax(%v, %d) = %v exceeds max", tc.max, tc.steps, got)
		}
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		v     float64
		steps int
		want  float64
	}{
		{0.33, 10, 0.3},
		{0.36, 10, 0.4},
		{0.3, 20, 0.3},
		{0.12, 4, 0.0},
		{0.13, 4, 0.25},
		// exact half steps go to the even step
		{0.125, 4, 0.0},
		{0.375, 4, 0.5},
		{0.625, 4, 0.5},
	}
	for _, tc := range tests {
		if got := Quantize(tc.v, tc.steps); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Quantize(%v, %d): expected %v, got %v", tc.v, tc.steps, tc.want, got)
		}
	}
}

func TestLevel_Monotonic(t *testing.T) {
	for _, steps := range []int{1, 3, 7, 10, 20, 100} {
		for _, max := range []float64{0.35, 0.5, 0.8, 1.0} {
			step := 1 / float64(steps)
			amax := ActuatorMax(max, steps)
			prev := -1.0
			for i := 0; i <= 1000; i++ {
				v := Clamp(float64(i)/1000, max)
				got := Level(v, max, steps)
				if got < prev {
					t.Fatalf("steps=%d max=%v: level decreased at %v (%v < %v)", steps, max, v, got, prev)
				}
				if got > amax+1e-12 {
					t.Fatalf("steps=%d max=%v: level %v above actuator max %v", steps, max, got, amax)
				}
				if math.Abs(got-v) > step+1e-9 {
					t.Fatalf("steps=%d max=%v: level %v more than one step from %v", steps, max, got, v)
				}
				prev = got
			}
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(1.4, 1) != 1 || Clamp(-0.2, 1) != 0 || Clamp(0.4, 1) != 0.4 {
		t.Error("Unexpected clamp")
	}
}
