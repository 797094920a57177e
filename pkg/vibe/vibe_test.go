package vibe

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-overstim/internal/log"
	"github.com/teslashibe/go-overstim/pkg/device"
	"github.com/teslashibe/go-overstim/pkg/envelope"
	"github.com/teslashibe/go-overstim/pkg/trigger"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu      sync.Mutex
	sent    map[string][][]float64
	stopped []string
}

func newRecorder() *recorder { return &recorder{sent: make(map[string][][]float64)} }

func (r *recorder) Submit(d device.Device, levels []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent[d.Name()] = append(r.sent[d.Name()], levels)
}

func (r *recorder) StopAll(ctx context.Context, devices []device.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range devices {
		r.stopped = append(r.stopped, d.Name())
	}
	return nil
}

func newManager(max float64, scale bool) (*Manager, *recorder) {
	rec := newRecorder()
	return NewManager(Settings{MaxIntensity: max, ScaleByMax: scale}, rec, log.Discard()), rec
}

func after(d time.Duration) Tick { return At(epoch.Add(d)) }

func TestAggregate_SilenceDominates(t *testing.T) {
	m, _ := newManager(1, true)
	m.Add(trigger.Save, envelope.NewConstant(0.5, 4), false, 0, At(epoch))
	m.Add(trigger.HackedBySombra, envelope.NewSilence(1), true, 0, At(epoch))

	if got := m.Aggregate(epoch.Add(time.Second)); got != 0 {
		t.Errorf("Expected 0 with silence active, got %v", got)
	}
}

func TestAggregate_SumsAndExpires(t *testing.T) {
	m, _ := newManager(1, true)
	m.Add(trigger.Elimination, envelope.NewConstant(0.3, 6), false, 0, At(epoch))
	m.Add(trigger.Elimination, envelope.NewConstant(0.3, 6), false, 0, after(2*time.Second))
	m.Add(trigger.Assist, envelope.NewConstant(0.15, 3), false, 0, At(epoch))

	if got := m.Aggregate(epoch.Add(2500 * time.Millisecond)); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Expected 0.75, got %v", got)
	}
	if got := m.Contributions()[trigger.Elimination]; len(got) != 2 {
		t.Errorf("Expected two elimination contributions, got %v", got)
	}

	if got := m.Aggregate(epoch.Add(7 * time.Second)); math.Abs(got-0.3) > 1e-9 {
		t.Errorf("Expected 0.3 after expiry, got %v", got)
	}
	if m.Exists(trigger.Assist) {
		t.Error("Expected expired assist to be dropped")
	}
	if m.Count(trigger.Elimination) != 1 {
		t.Errorf("Expected one elimination left, got %d", m.Count(trigger.Elimination))
	}
}

func TestAggregate_PatternCycling(t *testing.T) {
	m, _ := newManager(1, true)
	env := envelope.NewPattern(2,
		envelope.Segment{Intensity: 0.2, Duration: 1},
		envelope.Segment{Intensity: 0.3, Duration: 1})
	m.Add(trigger.GlideBoost, env, false, 0, At(epoch))

	steps := []struct {
		at   time.Duration
		want float64
	}{
		{500 * time.Millisecond, 0.2},
		{1500 * time.Millisecond, 0.3},
		{2500 * time.Millisecond, 0.2},
		{4500 * time.Millisecond, 0},
	}
	for _, s := range steps {
		if got := m.Aggregate(epoch.Add(s.at)); math.Abs(got-s.want) > 1e-9 {
			t.Errorf("At %v: expected %v, got %v", s.at, s.want, got)
		}
	}
	if m.Exists(trigger.GlideBoost) {
		t.Error("Expected pattern instance dropped after its loops")
	}
}

func TestToggle_Idempotent(t *testing.T) {
	m, _ := newManager(1, true)
	env := envelope.NewConstant(0.3, 1)

	for i := 0; i < 5; i++ {
		m.Toggle(trigger.BeamedByMercy, env, true, after(time.Duration(i)*time.Second))
	}
	if m.Count(trigger.BeamedByMercy) != 1 {
		t.Fatalf("Expected exactly one instance, got %d", m.Count(trigger.BeamedByMercy))
	}

	// unlimited: still live long after the envelope duration
	if got := m.Aggregate(epoch.Add(time.Minute)); got != 0.3 {
		t.Errorf("Expected conditional instance to persist, got %v", got)
	}

	m.Toggle(trigger.BeamedByMercy, env, false, after(time.Minute))
	if m.Exists(trigger.BeamedByMercy) {
		t.Error("Expected instance cleared when condition is false")
	}
}

func TestAdd_SuppressionUsesWallClock(t *testing.T) {
	m, _ := newManager(1, true)
	env := envelope.NewConstant(1, 0.5)

	if !m.Add(trigger.FlashHeal, env, false, 3*time.Second, At(epoch)) {
		t.Fatal("Expected first instance")
	}

	// tick clock moves far ahead, wall clock does not
	tick := Tick{Now: epoch.Add(10 * time.Second), Wall: epoch.Add(time.Second)}
	if m.Add(trigger.FlashHeal, env, false, 3*time.Second, tick) {
		t.Error("Expected suppression by the wall clock")
	}

	tick = Tick{Now: epoch.Add(time.Second), Wall: epoch.Add(3 * time.Second)}
	if !m.Add(trigger.FlashHeal, env, false, 3*time.Second, tick) {
		t.Error("Expected instance once the window passed")
	}
}

func TestCreatedWithin(t *testing.T) {
	m, _ := newManager(1, true)
	m.Add(trigger.Resurrect, envelope.NewConstant(1, 4), false, 0, At(epoch))

	if !m.CreatedWithin(trigger.Resurrect, 3*time.Second, epoch.Add(2*time.Second)) {
		t.Error("Expected instance within 3s")
	}
	if m.CreatedWithin(trigger.Resurrect, 3*time.Second, epoch.Add(3*time.Second)) {
		t.Error("Expected instance outside 3s")
	}
}

func TestUpdate_SuppressesRedundantWrites(t *testing.T) {
	m, rec := newManager(1, true)
	toy := device.NewMock("toy", []int{20})
	devices := []device.Device{toy}

	m.Add(trigger.Elimination, envelope.NewConstant(0.3, 6), false, 0, At(epoch))
	if !m.Update(devices, after(0)) {
		t.Fatal("Expected first update to send")
	}
	if m.Update(devices, after(time.Second)) {
		t.Error("Expected unchanged intensity not to send")
	}
	if len(rec.sent["toy"]) != 1 {
		t.Fatalf("Expected one command, got %d", len(rec.sent["toy"]))
	}
	if got := rec.sent["toy"][0][0]; math.Abs(got-0.3) > 1e-9 {
		t.Errorf("Expected level 0.3, got %v", got)
	}
}

func TestUpdate_ScaleVersusCap(t *testing.T) {
	toy := device.NewMock("toy", []int{100})
	devices := []device.Device{toy}

	scaled, _ := newManager(0.5, true)
	scaled.Add(trigger.Save, envelope.NewConstant(0.5, 4), false, 0, At(epoch))
	scaled.Update(devices, At(epoch))
	if got := scaled.Intensity(); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("Expected scaled 0.25, got %v", got)
	}

	capped, _ := newManager(0.4, false)
	capped.Add(trigger.Save, envelope.NewConstant(0.5, 4), false, 0, At(epoch))
	capped.Update(devices, At(epoch))
	if got := capped.Intensity(); math.Abs(got-0.4) > 1e-9 {
		t.Errorf("Expected capped 0.4, got %v", got)
	}
}

func TestUpdate_ClampedValueUnchanged(t *testing.T) {
	m, rec := newManager(0.5, false)
	devices := []device.Device{device.NewMock("toy", []int{10})}

	m.Add(trigger.Resurrect, envelope.NewConstant(1, 4), false, 0, At(epoch))
	m.Update(devices, At(epoch))
	m.Add(trigger.Save, envelope.NewConstant(0.5, 4), false, 0, At(epoch))
	if m.Update(devices, At(epoch)) {
		t.Error("Expected no send when the clamped value is unchanged")
	}
	if len(rec.sent["toy"]) != 1 {
		t.Errorf("Expected one command, got %d", len(rec.sent["toy"]))
	}
}

func TestStopAll(t *testing.T) {
	m, rec := newManager(1, true)
	toy := device.NewMock("toy", []int{20})
	m.Add(trigger.Elimination, envelope.NewConstant(0.3, 6), false, 0, At(epoch))
	m.Update([]device.Device{toy}, At(epoch))

	if err := m.StopAll(context.Background(), []device.Device{toy}); err != nil {
		t.Fatalf("StopAll: %v", err)
	}
	if m.Exists(trigger.Elimination) || m.Intensity() != 0 {
		t.Error("Expected instances cleared and intensity reset")
	}
	if len(rec.stopped) != 1 {
		t.Errorf("Expected device stopped, got %v", rec.stopped)
	}
}
