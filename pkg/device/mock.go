package device

import (
	"context"
	"sync"
)

// Mock is an in-memory device for testing.
type Mock struct {
	name      string
	actuators []Actuator

	mu      sync.Mutex
	history [][]float64
	stops   int
	err     error
	sent    chan []float64
	gate    <-chan struct{}
	calls   chan string
	events  []string
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithFailure makes every Scalar call fail with err.
func WithFailure(err error) MockOption {
	return func(m *Mock) { m.err = err }
}

// WithGate makes Scalar report itself on started and then block until gate
// is closed.
func WithGate(gate <-chan struct{}, started chan string) MockOption {
	return func(m *Mock) {
		m.gate = gate
		m.calls = started
	}
}

// NewMock creates a mock with one actuator per step count.
func NewMock(name string, stepCounts []int, opts ...MockOption) *Mock {
	m := &Mock{name: name, sent: make(chan []float64, 64)}
	for i, steps := range stepCounts {
		m.actuators = append(m.actuators, Actuator{Index: i, StepCount: steps, Type: "Vibrate"})
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mock) Name() string          { return m.name }
func (m *Mock) Actuators() []Actuator { return m.actuators }

func (m *Mock) Scalar(ctx context.Context, levels []float64) error {
	if m.gate != nil {
		if m.calls != nil {
			m.calls <- m.name
		}
		<-m.gate
	}
	m.mu.Lock()
	m.events = append(m.events, "scalar")
	err := m.err
	if err == nil {
		cp := append([]float64(nil), levels...)
		m.history = append(m.history, cp)
		select {
		case m.sent <- cp:
		default:
		}
	}
	m.mu.Unlock()
	return err
}

func (m *Mock) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "stop")
	m.stops++
	return nil
}

// Sent delivers every successful command.
func (m *Mock) Sent() <-chan []float64 { return m.sent }

// History returns every successful command.
func (m *Mock) History() [][]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]float64, len(m.history))
	copy(out, m.history)
	return out
}

// Stops returns how many times Stop was called.
func (m *Mock) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// Events returns "scalar" and "stop" in the order the device saw them.
func (m *Mock) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}
