package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/teslashibe/go-overstim/internal/log"
	"github.com/teslashibe/go-overstim/pkg/device"
	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/tracking"
	"github.com/teslashibe/go-overstim/pkg/trigger"
	"github.com/teslashibe/go-overstim/pkg/vibe"
)

var epoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type frame struct {
	flags  map[string]bool
	notifs map[string]int
}

func (f frame) Flag(name string) bool         { return f.flags[name] }
func (f frame) Notifications(kind string) int { return f.notifs[kind] }

func flags(names ...string) frame {
	f := frame{flags: map[string]bool{}, notifs: map[string]int{}}
	for _, n := range names {
		f.flags[n] = true
	}
	return f
}

type nopOutput struct{}

func (nopOutput) Submit(device.Device, []float64)                {}
func (nopOutput) StopAll(context.Context, []device.Device) error { return nil }

func newScheduler() *vibe.Manager {
	return vibe.NewManager(vibe.Settings{MaxIntensity: 1, ScaleByMax: true}, nopOutput{}, log.Discard())
}

func at(d time.Duration) vibe.Tick { return vibe.At(epoch.Add(d)) }

func TestRun_NotificationFiresOnce(t *testing.T) {
	s := newScheduler()
	r := trigger.DefaultResponses()

	f := flags()
	f.notifs[tracking.NotifElimination] = 2
	fired := Run(subject.Other, r, f, s, at(0))
	if len(fired) != 1 || fired[0] != trigger.Elimination {
		t.Fatalf("Expected elimination to fire, got %v", fired)
	}

	fired = Run(subject.Other, r, flags(), s, at(33*time.Millisecond))
	if len(fired) != 0 {
		t.Errorf("Expected nothing without a delta, got %v", fired)
	}
}

func TestRun_DisabledTriggerIgnored(t *testing.T) {
	s := newScheduler()
	r := trigger.DefaultResponses()
	r.Disable(subject.Other, trigger.BeamedByMercy)

	Run(subject.Other, r, flags(tracking.FlagBeamed), s, at(0))
	if s.Exists(trigger.BeamedByMercy) {
		t.Error("Expected disabled trigger to be ignored")
	}
}

func TestRun_DisabledConditionalStopsWhileActive(t *testing.T) {
	s := newScheduler()
	r := trigger.DefaultResponses()

	Run(subject.Other, r, flags(tracking.FlagHacked), s, at(0))
	if !s.Exists(trigger.HackedBySombra) {
		t.Fatal("Expected hacked silence to start")
	}

	r.Disable(subject.Other, trigger.HackedBySombra)
	Run(subject.Other, r, flags(tracking.FlagHacked), s, at(time.Second))
	if s.Exists(trigger.HackedBySombra) {
		t.Error("Expected disabled hacked silence to stop")
	}
}

func TestRun_ConditionalTracksFlag(t *testing.T) {
	s := newScheduler()
	r := trigger.DefaultResponses()

	for i := 0; i < 3; i++ {
		Run(subject.Lucio, r, flags(tracking.FlagSpeedSong), s, at(time.Duration(i)*time.Second))
	}
	if s.Count(trigger.SpeedSong) != 1 {
		t.Fatalf("Expected one speed song instance, got %d", s.Count(trigger.SpeedSong))
	}

	Run(subject.Lucio, r, flags(tracking.FlagHealingSong), s, at(4*time.Second))
	if s.Exists(trigger.SpeedSong) || !s.Exists(trigger.HealingSong) {
		t.Error("Expected songs to follow their flags")
	}
}

func TestRun_SaveVetoedWhileResurrecting(t *testing.T) {
	s := newScheduler()
	r := trigger.DefaultResponses()

	f := flags(tracking.FlagResurrecting)
	f.notifs[tracking.NotifSave] = 1
	fired := Run(subject.Mercy, r, f, s, at(0))

	if s.Exists(trigger.Save) {
		t.Error("Expected save suppressed while resurrecting")
	}
	if len(fired) != 1 || fired[0] != trigger.Resurrect {
		t.Errorf("Expected only resurrect, got %v", fired)
	}
}

func TestRun_ResurrectRecentGuard(t *testing.T) {
	s := newScheduler()
	r := trigger.DefaultResponses()
	res := flags(tracking.FlagResurrecting)

	Run(subject.Mercy, r, res, s, at(0))
	Run(subject.Mercy, r, res, s, at(2*time.Second))
	if s.Count(trigger.Resurrect) != 1 {
		t.Fatalf("Expected one resurrect within 3s, got %d", s.Count(trigger.Resurrect))
	}

	Run(subject.Mercy, r, res, s, at(3500*time.Millisecond))
	if s.Count(trigger.Resurrect) != 2 {
		t.Errorf("Expected a second resurrect after 3s, got %d", s.Count(trigger.Resurrect))
	}
}

func TestRun_FlashHealSuppressed(t *testing.T) {
	s := newScheduler()
	r := trigger.DefaultResponses()
	fh := flags(tracking.FlagFlashHeal)

	for i := 0; i < 10; i++ {
		Run(subject.Mercy, r, fh, s, at(time.Duration(i)*100*time.Millisecond))
	}
	if s.Count(trigger.FlashHeal) != 1 {
		t.Errorf("Expected one flash heal inside the 3s window, got %d", s.Count(trigger.FlashHeal))
	}
}

func TestRun_TorpedoFirePreemptsLock(t *testing.T) {
	s := newScheduler()
	r := trigger.DefaultResponses()

	Run(subject.Juno, r, flags(tracking.FlagPulsarLocking), s, at(0))
	if !s.Exists(trigger.PulsarTorpedoesLock) {
		t.Fatal("Expected lock instance")
	}

	Run(subject.Juno, r, flags(tracking.FlagPulsarFiring), s, at(time.Second))
	if !s.Exists(trigger.PulsarTorpedoesFire) {
		t.Fatal("Expected fire instance")
	}

	// lock reappears while fire still plays: held off
	Run(subject.Juno, r, flags(tracking.FlagPulsarLocking), s, at(1100*time.Millisecond))
	if s.Exists(trigger.PulsarTorpedoesLock) {
		t.Error("Expected lock blocked while fire is active")
	}
}

func TestRun_GlideBoostSingleton(t *testing.T) {
	s := newScheduler()
	r := trigger.DefaultResponses()
	gb := flags(tracking.FlagGlideBoost)

	Run(subject.Juno, r, gb, s, at(0))
	Run(subject.Juno, r, gb, s, at(time.Second))
	if s.Count(trigger.GlideBoost) != 1 {
		t.Errorf("Expected one glide boost, got %d", s.Count(trigger.GlideBoost))
	}
}

func TestRun_HackedSilences(t *testing.T) {
	s := newScheduler()
	r := trigger.DefaultResponses()

	f := flags(tracking.FlagHacked, tracking.FlagBeamed)
	Run(subject.Other, r, f, s, at(0))
	if got := s.Aggregate(epoch.Add(time.Minute)); got != 0 {
		t.Errorf("Expected silence while hacked, got %v", got)
	}
}

func TestRun_OtherIgnoresHeroFlags(t *testing.T) {
	s := newScheduler()
	r := trigger.DefaultResponses()

	Run(subject.Other, r, flags(tracking.FlagHealBeam), s, at(0))
	if s.Exists(trigger.HealBeam) {
		t.Error("Expected hero trigger ignored for Other")
	}
}
