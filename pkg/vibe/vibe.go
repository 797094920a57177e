// Package vibe schedules envelope instances and turns their sum into
// per-actuator commands.
package vibe

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/teslashibe/go-overstim/pkg/device"
	"github.com/teslashibe/go-overstim/pkg/envelope"
	"github.com/teslashibe/go-overstim/pkg/trigger"
)

// Tick carries both clocks of one loop iteration. Now drives envelope
// activation and expiry; Wall drives suppression windows.
type Tick struct {
	Now  time.Time
	Wall time.Time
}

// At returns a tick where both clocks read t.
func At(t time.Time) Tick { return Tick{Now: t, Wall: t} }

// Instance is one live application of an envelope.
type Instance struct {
	Trigger   trigger.ID
	Envelope  envelope.Envelope
	Created   time.Time
	Unlimited bool
}

// Evaluate returns the instance's intensity at now, false once expired.
func (i Instance) Evaluate(now time.Time) (float64, bool) {
	return i.Envelope.Evaluate(now.Sub(i.Created).Seconds(), i.Unlimited)
}

// Settings are the output limits.
type Settings struct {
	MaxIntensity float64
	// ScaleByMax multiplies the aggregate by MaxIntensity instead of only
	// capping it.
	ScaleByMax bool
}

// Output delivers commands to devices.
type Output interface {
	Submit(d device.Device, levels []float64)
	StopAll(ctx context.Context, devices []device.Device) error
}

// Manager owns every live instance.
type Manager struct {
	settings Settings
	out      Output
	logger   *slog.Logger

	instances     map[trigger.ID][]Instance
	last          map[trigger.ID]time.Time
	contributions map[trigger.ID][]float64

	current float64 // last rounded aggregate
	real    float64 // last clamped value sent to devices
}

// NewManager creates an empty scheduler.
func NewManager(settings Settings, out Output, logger *slog.Logger) *Manager {
	return &Manager{
		settings:      settings,
		out:           out,
		logger:        logger,
		instances:     make(map[trigger.ID][]Instance),
		last:          make(map[trigger.ID]time.Time),
		contributions: make(map[trigger.ID][]float64),
	}
}

// SetSettings replaces the output limits.
func (m *Manager) SetSettings(s Settings) { m.settings = s }

// Add creates an instance unless the previous one of the same trigger was
// created less than suppress ago on the wall clock.
func (m *Manager) Add(id trigger.ID, env envelope.Envelope, unlimited bool, suppress time.Duration, tick Tick) bool {
	if last, ok := m.last[id]; ok && suppress > 0 && tick.Wall.Sub(last) < suppress {
		return false
	}
	m.instances[id] = append(m.instances[id], Instance{
		Trigger:   id,
		Envelope:  env,
		Created:   tick.Now,
		Unlimited: unlimited,
	})
	m.last[id] = tick.Wall
	return true
}

// Toggle makes the existence of an unlimited instance of id follow cond.
func (m *Manager) Toggle(id trigger.ID, env envelope.Envelope, cond bool, tick Tick) {
	exists := m.Exists(id)
	switch {
	case cond && !exists:
		m.Add(id, env, true, 0, tick)
	case !cond && exists:
		m.Clear(id)
	}
}

// Clear drops every instance of id.
func (m *Manager) Clear(id trigger.ID) {
	delete(m.instances, id)
}

// ClearAll drops every instance.
func (m *Manager) ClearAll() {
	m.instances = make(map[trigger.ID][]Instance)
}

// Exists reports whether id has a live instance.
func (m *Manager) Exists(id trigger.ID) bool {
	return len(m.instances[id]) > 0
}

// Count returns the number of live instances of id.
func (m *Manager) Count(id trigger.ID) int {
	return len(m.instances[id])
}

// CreatedWithin reports whether a live instance of id was created less than
// d before now.
func (m *Manager) CreatedWithin(id trigger.ID, d time.Duration, now time.Time) bool {
	cutoff := now.Add(-d)
	for _, inst := range m.instances[id] {
		if inst.Created.After(cutoff) {
			return true
		}
	}
	return false
}

// Aggregate evaluates every instance at now, drops the expired ones and
// returns the sum. Any silence instance forces the result to zero.
func (m *Manager) Aggregate(now time.Time) float64 {
	total := 0.0
	silence := false
	m.contributions = make(map[trigger.ID][]float64)

	for _, id := range m.ids() {
		live := m.instances[id][:0]
		for _, inst := range m.instances[id] {
			v, ok := inst.Evaluate(now)
			if !ok {
				continue
			}
			live = append(live, inst)
			total += v
			m.contributions[id] = append(m.contributions[id], v)
			if v == envelope.SilenceLevel {
				silence = true
			}
		}
		if len(live) == 0 {
			delete(m.instances, id)
		} else {
			m.instances[id] = live
		}
	}

	if silence {
		return 0
	}
	return total
}

func (m *Manager) ids() []trigger.ID {
	ids := make([]trigger.ID, 0, len(m.instances))
	for id := range m.instances {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Update recomputes the intensity and, when the clamped value changed, sends
// quantized levels to every device. It never blocks on device I/O.
func (m *Manager) Update(devices []device.Device, tick Tick) bool {
	latest := m.Aggregate(tick.Now)
	if m.settings.ScaleByMax {
		latest *= m.settings.MaxIntensity
	}
	latest = math.Abs(round(latest, 4))
	if latest == m.current {
		return false
	}
	m.current = latest

	clamped := Clamp(latest, m.settings.MaxIntensity)
	if clamped != latest {
		m.logger.Info("intensity updated", "intensity", percent(latest), "clamped", clamped)
	} else {
		m.logger.Info("intensity updated", "intensity", percent(latest))
	}
	if clamped == m.real {
		return false
	}
	m.real = clamped

	if active := m.active(); active != "" {
		m.logger.Debug("active triggers", "triggers", active)
	}
	for _, d := range devices {
		m.out.Submit(d, Levels(d.Actuators(), clamped, m.settings.MaxIntensity))
	}
	return true
}

// StopAll drops every instance and stops every device before returning.
func (m *Manager) StopAll(ctx context.Context, devices []device.Device) error {
	m.ClearAll()
	m.contributions = make(map[trigger.ID][]float64)
	m.current = 0
	m.real = 0
	return m.out.StopAll(ctx, devices)
}

// Intensity returns the last clamped intensity sent to devices.
func (m *Manager) Intensity() float64 { return m.real }

// Contributions returns the values each trigger added on the last aggregation.
func (m *Manager) Contributions() map[trigger.ID][]float64 {
	out := make(map[trigger.ID][]float64, len(m.contributions))
	for id, vs := range m.contributions {
		out[id] = append([]float64(nil), vs...)
	}
	return out
}

func (m *Manager) active() string {
	var parts []string
	for _, id := range m.ids() {
		if n := len(m.instances[id]); n > 0 {
			parts = append(parts, fmt.Sprintf("%s (x%d)", id.Title(), n))
		}
	}
	return strings.Join(parts, ", ")
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}
