package buttplug

import (
	"context"
	"fmt"

	"github.com/teslashibe/go-overstim/pkg/device"
)

// Device is a device connected to the Buttplug server.
type Device struct {
	client    *Client
	index     int
	name      string
	actuators []device.Actuator
}

func (d *Device) Name() string                 { return d.name }
func (d *Device) Index() int                   { return d.index }
func (d *Device) Actuators() []device.Actuator { return d.actuators }

// Scalar sets every actuator in one ScalarCmd.
func (d *Device) Scalar(ctx context.Context, levels []float64) error {
	if len(levels) != len(d.actuators) {
		return fmt.Errorf("%s: got %d levels for %d actuators", d.name, len(levels), len(d.actuators))
	}
	scalars := make([]scalar, len(levels))
	for i, a := range d.actuators {
		scalars[i] = scalar{Index: a.Index, Scalar: levels[i], ActuatorType: a.Type}
	}
	_, err := d.client.request(ctx, msgScalarCmd, map[string]any{
		"DeviceIndex": d.index,
		"Scalars":     scalars,
	})
	return err
}

// Stop stops every actuator of the device.
func (d *Device) Stop(ctx context.Context) error {
	_, err := d.client.request(ctx, msgStopDeviceCmd, map[string]any{
		"DeviceIndex": d.index,
	})
	return err
}

var _ device.Device = (*Device)(nil)
var _ device.Provider = (*Client)(nil)
