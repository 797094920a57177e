// Package device is the haptic output side: devices with stepped actuators,
// and a fan-out that drives them without blocking the tick loop.
package device

import (
	"context"
	"errors"
)

// ErrConnectionLost is returned when the transport to the devices is gone.
// It is fatal for the tick loop.
var ErrConnectionLost = errors.New("connection to device server lost")

// Actuator is one independently driven motor.
type Actuator struct {
	Index     int
	StepCount int
	Type      string // e.g. "Vibrate"
}

// Step returns the smallest level change the actuator supports.
func (a Actuator) Step() float64 {
	if a.StepCount <= 0 {
		return 0
	}
	return 1 / float64(a.StepCount)
}

// Device is a haptic device.
type Device interface {
	Name() string
	Actuators() []Actuator
	// Scalar sets every actuator, levels[i] for Actuators()[i], each 0-1.
	Scalar(ctx context.Context, levels []float64) error
	Stop(ctx context.Context) error
}

// Provider lists the currently connected devices.
type Provider interface {
	Devices() []Device
}

// Filter drops devices whose name is excluded.
func Filter(devices []Device, excluded []string) []Device {
	if len(excluded) == 0 {
		return devices
	}
	skip := make(map[string]bool, len(excluded))
	for _, n := range excluded {
		skip[n] = true
	}
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if !skip[d.Name()] {
			out = append(out, d)
		}
	}
	return out
}

// Static is a fixed device list.
type Static []Device

// Devices returns the list.
func (s Static) Devices() []Device { return s }
