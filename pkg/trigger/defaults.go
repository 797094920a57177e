package trigger

import (
	"github.com/teslashibe/go-overstim/pkg/envelope"
	"github.com/teslashibe/go-overstim/pkg/subject"
)

type entry struct {
	id  ID
	env envelope.Envelope
}

func seg(intensity, duration float64) envelope.Segment {
	return envelope.Segment{Intensity: intensity, Duration: duration}
}

var generic = []entry{
	{Elimination, envelope.NewConstant(0.3, 6)},
	{Assist, envelope.NewConstant(0.15, 3)},
	{Save, envelope.NewConstant(0.5, 4)},
	{HackedBySombra, envelope.NewSilence(1)},
	{BeamedByMercy, envelope.NewConstant(0.3, 1)},
	{OrbedByZenyatta, envelope.NewConstant(0.3, 1)},
	{EndorsementReceived, envelope.NewPattern(1,
		seg(1, 0.1), seg(0, 0.1), seg(1, 0.1), seg(0, 0.1), seg(1, 3.5))},
}

var specific = map[subject.Kind][]entry{
	subject.Mercy: {
		{HealBeam, envelope.NewConstant(0.1, 1)},
		{DamageBeam, envelope.NewConstant(0.3, 1)},
		{Resurrect, envelope.NewConstant(1, 4)},
		{FlashHeal, envelope.NewConstant(1, 0.5)},
	},
	subject.Juno: {
		{GlideBoost, envelope.NewPattern(1, seg(0.1, 1), seg(0.15, 1), seg(0.2, 1), seg(0.25, 1))},
		{PulsarTorpedoesLock, envelope.NewPattern(1,
			seg(0.15, 0.5), seg(0.2, 0.5), seg(0.25, 0.5), seg(0.3, 0.5),
			seg(0.35, 0.5), seg(0.4, 0.5), seg(0.45, 0.5), seg(0.5, 0.5))},
		{PulsarTorpedoesFire, envelope.NewConstant(1, 1.3)},
	},
	subject.Lucio: {
		{HealingSong, envelope.NewConstant(0.15, 1)},
		{SpeedSong, envelope.NewConstant(0.3, 1)},
	},
	subject.Zenyatta: {
		{HarmonyOrb, envelope.NewConstant(0.15, 1)},
		{DiscordOrb, envelope.NewConstant(0.2, 1)},
	},
}

// ForSubject returns the triggers available to a hero: its own first, then
// the generic ones, in dispatch order.
func ForSubject(k subject.Kind) []ID {
	ids := make([]ID, 0, len(specific[k])+len(generic))
	for _, e := range specific[k] {
		ids = append(ids, e.id)
	}
	for _, e := range generic {
		ids = append(ids, e.id)
	}
	return ids
}

// DefaultEnvelope returns the shipped envelope for (k, id), or
// envelope.Default when the hero has no such trigger.
func DefaultEnvelope(k subject.Kind, id ID) envelope.Envelope {
	for _, e := range generic {
		if e.id == id {
			return e.env
		}
	}
	for _, e := range specific[k] {
		if e.id == id {
			return e.env
		}
	}
	return envelope.Default()
}

// Supports reports whether id is available to hero k.
func Supports(k subject.Kind, id ID) bool {
	for _, t := range ForSubject(k) {
		if t == id {
			return true
		}
	}
	return false
}

// Responses maps each hero's enabled triggers to their envelopes. A trigger
// missing from the map is disabled.
type Responses map[subject.Kind]map[ID]envelope.Envelope

// DefaultResponses enables every trigger with its default envelope.
func DefaultResponses() Responses {
	r := make(Responses)
	for _, k := range subject.All() {
		m := make(map[ID]envelope.Envelope)
		for _, id := range ForSubject(k) {
			m[id] = DefaultEnvelope(k, id)
		}
		r[k] = m
	}
	return r
}

// Lookup returns the envelope for (k, id) if the trigger is enabled.
func (r Responses) Lookup(k subject.Kind, id ID) (envelope.Envelope, bool) {
	env, ok := r[k][id]
	return env, ok
}

// Set enables (k, id) with env.
func (r Responses) Set(k subject.Kind, id ID, env envelope.Envelope) {
	if r[k] == nil {
		r[k] = make(map[ID]envelope.Envelope)
	}
	r[k][id] = env
}

// Disable removes (k, id).
func (r Responses) Disable(k subject.Kind, id ID) {
	delete(r[k], id)
}

// Clone returns a deep copy. Pattern segments are shared; envelopes are
// never mutated in place.
func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for k, m := range r {
		cp := make(map[ID]envelope.Envelope, len(m))
		for id, env := range m {
			cp[id] = env
		}
		out[k] = cp
	}
	return out
}
