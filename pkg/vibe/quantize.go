package vibe

import (
	"math"

	"github.com/teslashibe/go-overstim/pkg/device"
)

// quantization error tolerated when flooring to a step
const stepEpsilon = 1e-9

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Clamp limits v to [0, max].
func Clamp(v, max float64) float64 {
	if v > max {
		return max
	}
	if v < 0 {
		return 0
	}
	return v
}

// Quantize rounds v to the nearest multiple of 1/steps, ties to the even
// step. Non-positive steps leave v unchanged.
func Quantize(v float64, steps int) float64 {
	if steps <= 0 {
		return v
	}
	n := float64(steps)
	return round(math.RoundToEven(v*n)/n, 9)
}

// ActuatorMax is the largest step of the actuator that does not exceed max.
func ActuatorMax(max float64, steps int) float64 {
	if steps <= 0 {
		return max
	}
	n := float64(steps)
	return round(math.Floor(max*n+stepEpsilon)/n, 9)
}

// Level is the command for one actuator: v rounded to its step and capped at
// its own max.
func Level(v, max float64, steps int) float64 {
	return math.Min(Quantize(v, steps), ActuatorMax(max, steps))
}

// Levels computes the command for every actuator of a device.
func Levels(actuators []device.Actuator, v, max float64) []float64 {
	out := make([]float64, len(actuators))
	for i, a := range actuators {
		out[i] = Level(v, max, a.StepCount)
	}
	return out
}
