// Package lovense drives a Lovense toy attached over a serial dongle or USB
// cable, without an Intiface server in between.
package lovense

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/teslashibe/go-overstim/pkg/device"
)

// Steps is the vibration resolution of the serial protocol.
const Steps = 20

// DefaultBaudRate is what the toys and dongles use.
const DefaultBaudRate = 115200

// Device speaks the "Vibrate:n;" line protocol.
type Device struct {
	name   string
	mu     sync.Mutex
	port   io.ReadWriteCloser
	reader *bufio.Reader
}

// Open opens the serial port at path.
func Open(path string, baud int) (*Device, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(time.Second); err != nil {
		port.Close()
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	return New("Lovense "+path, port), nil
}

// New wraps an already open port.
func New(name string, port io.ReadWriteCloser) *Device {
	return &Device{
		name:   name,
		port:   port,
		reader: bufio.NewReader(port),
	}
}

func (d *Device) Name() string { return d.name }

func (d *Device) Actuators() []device.Actuator {
	return []device.Actuator{{Index: 0, StepCount: Steps, Type: "Vibrate"}}
}

// Scalar sets the vibration level.
func (d *Device) Scalar(ctx context.Context, levels []float64) error {
	if len(levels) != 1 {
		return fmt.Errorf("%s: got %d levels for 1 actuator", d.name, len(levels))
	}
	return d.vibrate(ctx, int(math.Round(levels[0]*Steps)))
}

// Stop turns the motor off.
func (d *Device) Stop(ctx context.Context) error {
	return d.vibrate(ctx, 0)
}

// Battery returns the battery percentage.
func (d *Device) Battery(ctx context.Context) (int, error) {
	reply, err := d.command(ctx, "Battery;")
	if err != nil {
		return 0, err
	}
	var pct int
	if _, err := fmt.Sscanf(reply, "%d", &pct); err != nil {
		return 0, fmt.Errorf("%s: bad battery reply %q", d.name, reply)
	}
	return pct, nil
}

// Close closes the port.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.port.Close()
}

func (d *Device) vibrate(ctx context.Context, level int) error {
	level = max(0, min(Steps, level))
	reply, err := d.command(ctx, fmt.Sprintf("Vibrate:%d;", level))
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("%s: unexpected reply %q", d.name, reply)
	}
	return nil
}

// command writes one command and reads the ';' terminated reply.
func (d *Device) command(ctx context.Context, cmd string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := io.WriteString(d.port, cmd); err != nil {
		return "", fmt.Errorf("%s: write: %w", d.name, err)
	}
	reply, err := d.reader.ReadString(';')
	if err != nil {
		return "", fmt.Errorf("%s: read: %w", d.name, err)
	}
	return strings.TrimSpace(strings.TrimSuffix(reply, ";")), nil
}

var _ device.Device = (*Device)(nil)
