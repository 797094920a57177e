package subject

import "time"

// Detection cadence.
const (
	AttemptInterval = 1 * time.Second // minimum gap between attempts
	IdleRetry       = 2 * time.Second // gap between full searches while on Other
	ReverifyAfter   = 4 * time.Second // without success, search all heroes again
	DemoteAfter     = 6 * time.Second // without success, fall back to Other
)

// Phase is what an identity step does this tick.
type Phase int

const (
	// Wait skips detection this tick.
	Wait Phase = iota
	// SearchAll probes every supported hero in declaration order.
	SearchAll
	// ReverifySelf probes only the current hero.
	ReverifySelf
	// ReverifyPrioritized probes every supported hero, same role first.
	ReverifyPrioritized
)

func (p Phase) String() string {
	switch p {
	case Wait:
		return "wait"
	case SearchAll:
		return "search-all"
	case ReverifySelf:
		return "reverify-self"
	case ReverifyPrioritized:
		return "reverify-prioritized"
	default:
		return "unknown"
	}
}

// Probe reports whether the hero's signature is visible on the current frame.
type Probe func(Kind) bool

// Identity discovers the hero being played.
type Identity struct {
	Detected    Kind
	LastSuccess time.Time
	LastAttempt time.Time
}

// Phase returns the phase for a step at now while current is assigned.
func (id *Identity) Phase(now time.Time, current Kind) Phase {
	sinceAttempt := now.Sub(id.LastAttempt)
	switch {
	case sinceAttempt < AttemptInterval:
		return Wait
	case current == Other:
		if sinceAttempt < IdleRetry {
			return Wait
		}
		return SearchAll
	case now.Sub(id.LastSuccess) >= ReverifyAfter:
		return ReverifyPrioritized
	default:
		return ReverifySelf
	}
}

// Step runs one detection attempt if one is due and returns the phase taken.
// Detected changes on a successful search, or falls back to Other once no
// hero has been seen for DemoteAfter.
func (id *Identity) Step(now time.Time, current Kind, probe Probe) Phase {
	phase := id.Phase(now, current)

	var candidates []Kind
	switch phase {
	case Wait:
		return Wait
	case SearchAll:
		candidates = Supported
	case ReverifyPrioritized:
		candidates = Candidates(current)
	case ReverifySelf:
		candidates = []Kind{current}
	}

	found := false
	for _, k := range candidates {
		if probe(k) {
			if phase != ReverifySelf {
				id.Detected = k
			}
			id.LastSuccess = now
			found = true
			break
		}
	}

	if !found && id.Detected != Other && now.Sub(id.LastSuccess) >= DemoteAfter {
		id.Detected = Other
	}
	id.LastAttempt = now
	return phase
}

// Reset forgets every detection.
func (id *Identity) Reset() {
	*id = Identity{}
}
