// Package envelope describes haptic intensity as a function of time since activation.
//
// An Envelope is a pure value: evaluating it never mutates anything, so the
// scheduler can hold many instances of the same envelope and decide expiry lazily.
package envelope

import (
	"errors"
	"fmt"
	"math"
)

// SilenceLevel is returned by a Silence envelope. Any instance evaluating to
// it forces the aggregate intensity of the whole tick to zero.
const SilenceLevel = -1.0

var (
	// ErrInvalidEnvelope is returned for envelopes or envelope text that cannot be used.
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrEmptyPattern is returned when a pattern has no duration to cycle over.
	ErrEmptyPattern = fmt.Errorf("%w: the pattern is empty or too short", ErrInvalidEnvelope)
)

// Kind selects how an Envelope is evaluated.
type Kind int

const (
	// Constant holds one intensity for Duration seconds.
	Constant Kind = iota + 1
	// Pattern cycles through its segments Loops times.
	Pattern
	// Silence forces output to zero for Duration seconds.
	Silence
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Constant:
		return "constant"
	case Pattern:
		return "pattern"
	case Silence:
		return "silence"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Envelope is a rule for intensity over elapsed time.
type Envelope struct {
	Kind      Kind
	Intensity float64  // Constant only, 0-1
	Duration  float64  // seconds, Constant and Silence
	Pattern   Segments // Pattern only
	Loops     int      // Pattern only
}

// Default is the envelope used when nothing better is known: 10% for one second.
func Default() Envelope {
	return Envelope{Kind: Constant, Intensity: 0.1, Duration: 1.0}
}

// NewConstant returns a Constant envelope.
func NewConstant(intensity, duration float64) Envelope {
	return Envelope{Kind: Constant, Intensity: intensity, Duration: duration}
}

// NewPattern returns a Pattern envelope that plays loops times.
func NewPattern(loops int, segments ...Segment) Envelope {
	return Envelope{Kind: Pattern, Pattern: segments, Loops: loops}
}

// NewSilence returns a Silence envelope.
func NewSilence(duration float64) Envelope {
	return Envelope{Kind: Silence, Duration: duration}
}

// Validate reports whether the envelope may be accepted into the active configuration.
func (e Envelope) Validate() error {
	switch e.Kind {
	case Constant:
		if err := checkIntensity(e.Intensity); err != nil {
			return err
		}
		return checkDuration(e.Duration)
	case Silence:
		return checkDuration(e.Duration)
	case Pattern:
		for _, s := range e.Pattern {
			if err := s.validate(); err != nil {
				return err
			}
		}
		if e.Pattern.Duration() <= 0 {
			return ErrEmptyPattern
		}
		if e.Loops < 1 {
			return fmt.Errorf("%w: pattern loops must be at least 1, got %d", ErrInvalidEnvelope, e.Loops)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidEnvelope, int(e.Kind))
	}
}

// Evaluate returns the intensity at elapsed seconds since activation.
// The second result is false once the envelope has expired. When unlimited is
// set, Constant and Silence ignore their duration and Pattern loops forever.
func (e Envelope) Evaluate(elapsed float64, unlimited bool) (float64, bool) {
	if elapsed < 0 {
		elapsed = 0
	}

	switch e.Kind {
	case Constant:
		if elapsed < e.Duration || unlimited {
			return e.Intensity, true
		}
	case Silence:
		if elapsed < e.Duration || unlimited {
			return SilenceLevel, true
		}
	case Pattern:
		cycle := e.Pattern.Duration()
		if cycle <= 0 {
			return 0, false
		}
		rep := math.Floor(elapsed / cycle)
		if rep < float64(e.Loops) || unlimited {
			return e.Pattern.at(elapsed - rep*cycle), true
		}
	}
	return 0, false
}

// Summary is a short intensity label for tables and the dashboard.
func (e Envelope) Summary() string {
	switch e.Kind {
	case Constant:
		return formatPercent(e.Intensity)
	case Pattern:
		return e.Pattern.Short()
	case Silence:
		return "Silence"
	}
	return ""
}

// Span is a short duration label for tables and the dashboard.
func (e Envelope) Span() string {
	switch e.Kind {
	case Constant, Silence:
		return formatSeconds(e.Duration) + " secs"
	case Pattern:
		return fmt.Sprintf("%d loops", e.Loops)
	}
	return ""
}

func checkIntensity(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: intensity %v outside 0-100%%", ErrInvalidEnvelope, v)
	}
	return nil
}

func checkDuration(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: duration %v must be a non-negative number of seconds", ErrInvalidEnvelope, v)
	}
	return nil
}
