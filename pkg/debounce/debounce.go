// Package debounce smooths per-frame boolean detections with a grace period.
//
// Template detections flicker: a beam icon can vanish for a few frames while
// the target switches. A Signal stays active until it has missed `grace`
// consecutive frames.
package debounce

// Signal is a sticky boolean with a miss counter.
type Signal struct {
	active bool
	misses int
	grace  int
}

// New returns an inactive signal that tolerates grace-1 consecutive misses.
func New(grace int) *Signal {
	return &Signal{grace: grace}
}

// Update feeds one raw reading and returns the sticky state.
func (s *Signal) Update(raw bool) bool {
	if raw {
		s.active = true
		s.misses = 0
		return true
	}
	if s.active {
		s.misses++
		if s.misses >= s.grace {
			s.active = false
		}
	}
	return s.active
}

// Active returns the sticky state.
func (s *Signal) Active() bool { return s.active }

// Misses returns the consecutive misses since the last true reading.
func (s *Signal) Misses() int { return s.misses }

// Grace returns the configured grace period.
func (s *Signal) Grace() int { return s.grace }

// SetGrace changes the grace period. The current state is kept.
func (s *Signal) SetGrace(grace int) { s.grace = grace }

// Reset forces the signal inactive with a zero counter.
func (s *Signal) Reset() {
	s.active = false
	s.misses = 0
}

// Group holds signals that can never be active at the same time, like two
// beam types on one target.
type Group struct {
	members []*Signal
}

// Exclusive groups the given signals.
func Exclusive(members ...*Signal) *Group {
	return &Group{members: members}
}

// Members returns the grouped signals in evaluation order.
func (g *Group) Members() []*Signal { return g.members }

// Update feeds one raw reading per member, in member order. A member that reads
// true becomes active and resets every other member in the same tick, so when
// two members read true the later one wins.
func (g *Group) Update(raws ...bool) {
	for i, s := range g.members {
		raw := i < len(raws) && raws[i]
		if raw {
			for j, other := range g.members {
				if j != i {
					other.Reset()
				}
			}
			s.Update(true)
			continue
		}
		s.Update(false)
	}
}

// Reset resets every member.
func (g *Group) Reset() {
	for _, s := range g.members {
		s.Reset()
	}
}
