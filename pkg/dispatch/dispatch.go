// Package dispatch turns one frame of player state into envelope instances.
package dispatch

import (
	"time"

	"github.com/teslashibe/go-overstim/pkg/envelope"
	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/trigger"
	"github.com/teslashibe/go-overstim/pkg/vibe"
)

// Signals is the player state read by the dispatcher.
type Signals interface {
	Flag(name string) bool
	Notifications(kind string) int
}

// Scheduler holds envelope instances.
type Scheduler interface {
	Add(id trigger.ID, env envelope.Envelope, unlimited bool, suppress time.Duration, tick vibe.Tick) bool
	Toggle(id trigger.ID, env envelope.Envelope, cond bool, tick vibe.Tick)
	Exists(id trigger.ID) bool
	CreatedWithin(id trigger.ID, d time.Duration, now time.Time) bool
}

// Run applies every enabled trigger of hero k, in trigger.ForSubject order,
// and returns the instant triggers that fired.
func Run(k subject.Kind, responses trigger.Responses, sig Signals, s Scheduler, tick vibe.Tick) []trigger.ID {
	var fired []trigger.ID
	for _, id := range trigger.ForSubject(k) {
		d, ok := trigger.Describe(id)
		if !ok {
			continue
		}
		env, ok := responses.Lookup(k, id)
		if !ok {
			// a trigger disabled while active must not keep its instance
			if d.Mode == trigger.Conditional {
				s.Toggle(id, envelope.Envelope{}, false, tick)
			}
			continue
		}

		switch d.Mode {
		case trigger.Conditional:
			cond := sig.Flag(d.Flag)
			if d.BlockedBy != 0 && s.Exists(d.BlockedBy) {
				cond = false
			}
			s.Toggle(id, env, cond, tick)

		case trigger.Instant:
			if !shouldFire(d, sig, s, tick) {
				continue
			}
			if s.Add(id, env, false, d.Suppress, tick) {
				fired = append(fired, id)
			}
		}
	}
	return fired
}

func shouldFire(d trigger.Descriptor, sig Signals, s Scheduler, tick vibe.Tick) bool {
	if d.Notification != "" {
		if sig.Notifications(d.Notification) <= 0 {
			return false
		}
	} else if !sig.Flag(d.Flag) {
		return false
	}

	switch {
	case d.Unless != "" && sig.Flag(d.Unless):
		return false
	case d.Singleton && s.Exists(d.ID):
		return false
	case d.Recent > 0 && s.CreatedWithin(d.ID, d.Recent, tick.Now):
		return false
	}
	return true
}
