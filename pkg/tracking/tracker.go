// Package tracking interprets captured frames into player state: whether the
// player is alive, which hero is played, which hero signals are active and
// which notifications just appeared.
package tracking

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-overstim/pkg/ledger"
	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/tracking/detection"
)

// Tracker holds the player state across frames.
type Tracker struct {
	config     Config
	perception *Perception
	ledger     *ledger.Ledger
	identity   subject.Identity
	current    *subject.Subject
	logger     *slog.Logger

	auto  bool
	dead  bool
	flags map[string]bool
}

// New creates a tracker starting on Other.
func New(config Config, det detection.Detector, logger *slog.Logger) *Tracker {
	if config.NotificationRows <= 0 {
		config.NotificationRows = DefaultConfig().NotificationRows
	}
	return &Tracker{
		config:     config,
		perception: NewPerception(det),
		ledger:     ledger.New(config.LedgerCapacity, config.LedgerTTL),
		current:    subject.New(subject.Other, config.Graces),
		logger:     logger,
		auto:       config.AutoDetect,
		flags:      make(map[string]bool),
	}
}

// Subject returns the assigned hero.
func (t *Tracker) Subject() subject.Kind { return t.current.Kind }

// Detected returns the hero last found by auto detection.
func (t *Tracker) Detected() subject.Kind { return t.identity.Detected }

// Auto reports whether the hero is detected automatically.
func (t *Tracker) Auto() bool { return t.auto }

// Dead reports whether the player was dead on the last frame.
func (t *Tracker) Dead() bool { return t.dead }

// Ledger exposes the notification ledger.
func (t *Tracker) Ledger() *ledger.Ledger { return t.ledger }

// SwitchPending reports whether auto detection found a different hero than
// the assigned one.
func (t *Tracker) SwitchPending() bool {
	return t.auto && t.identity.Detected != t.current.Kind
}

// Switch assigns a hero and resets its signals. With auto set, detection
// continues from kind.
func (t *Tracker) Switch(auto bool, kind subject.Kind) {
	t.current.Reset()
	t.clearHeroFlags()
	t.auto = auto
	if kind != t.current.Kind {
		t.current = subject.New(kind, t.config.Graces)
	}
	t.identity.Detected = kind
}

// SetGraces applies new grace periods to the current and future heroes.
func (t *Tracker) SetGraces(g subject.Graces) {
	t.config.Graces = g
	t.current.SetGraces(g)
}

// Refresh reads the current frame and returns the resulting state.
func (t *Tracker) Refresh(now time.Time) Observation {
	t.ledger.Expire(now)
	notifs := map[string]int{}

	alive := !t.perception.Dead()
	t.flags[FlagEndorsement] = t.perception.Endorsed()

	if alive {
		if t.dead {
			t.dead = false
			t.logger.Debug("player respawned")
		}

		for kind, observed := range t.perception.Notifications(t.config.NotificationRows) {
			notifs[kind] = t.ledger.Reconcile(kind, observed, now)
		}

		t.perception.Generic(t.flags)
		t.sampleHero()

		if t.auto {
			phase := t.identity.Step(now, t.current.Kind, t.perception.Signature)
			if phase != subject.Wait {
				t.logger.Debug("hero detection", "phase", phase.String(), "detected", t.identity.Detected.String())
			}
		}
	} else if !t.dead {
		t.dead = true
		t.flags[FlagBeamed] = false
		t.flags[FlagOrbed] = false
		t.flags[FlagHacked] = false
		t.current.Reset()
		t.clearHeroFlags()
		t.logger.Debug("player died")
	}

	return t.observe(alive, notifs)
}

func (t *Tracker) sampleHero() {
	t.current.Update(t.perception.Signals(t.current.Specs()))
	for _, spec := range t.current.Specs() {
		t.flags[spec.Name] = t.current.Active(spec.Name)
	}

	switch t.current.Kind {
	case subject.Mercy:
		// the Resurrect icon is only checked while a save is on screen
		t.flags[FlagResurrecting] = t.ledger.Count(NotifSave) > 0 && t.perception.Resurrecting()
		t.flags[FlagFlashHeal] = t.perception.FlashHeal()
	case subject.Juno:
		t.flags[FlagGlideBoost] = t.perception.GlideBoost()
		firing := t.current.Active(subject.PulsarTorpedoes) && t.perception.PulsarFiring()
		t.flags[FlagPulsarFiring] = firing
		t.flags[FlagPulsarLocking] = t.current.Active(subject.PulsarTorpedoes) && !firing
	}
}

func (t *Tracker) clearHeroFlags() {
	for _, name := range []string{FlagResurrecting, FlagFlashHeal, FlagGlideBoost, FlagPulsarFiring, FlagPulsarLocking} {
		delete(t.flags, name)
	}
	for _, k := range subject.Supported {
		for _, spec := range subject.Specs(k) {
			delete(t.flags, spec.Name)
		}
	}
}

func (t *Tracker) observe(alive bool, notifs map[string]int) Observation {
	flags := make(map[string]bool, len(t.flags))
	for k, v := range t.flags {
		flags[k] = v
	}
	return Observation{
		Subject:  t.current.Kind,
		Detected: t.identity.Detected,
		Alive:    alive,
		flags:    flags,
		notifs:   notifs,
	}
}
