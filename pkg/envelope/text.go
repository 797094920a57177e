package envelope

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Text forms:
//
//	30% 6s                          constant
//	pattern x2: 20% 1s, 30% 1s      pattern
//	silence 2s                      silence
const (
	patternPrefix = "pattern"
	silencePrefix = "silence"
)

// String returns the persisted text form of the envelope.
func (e Envelope) String() string {
	switch e.Kind {
	case Constant:
		return Segment{Intensity: e.Intensity, Duration: e.Duration}.String()
	case Pattern:
		return fmt.Sprintf("%s x%d: %s", patternPrefix, e.Loops, e.Pattern)
	case Silence:
		return silencePrefix + " " + formatNumber(e.Duration) + "s"
	}
	return ""
}

// Parse reads the text form produced by String and validates the result.
func Parse(text string) (Envelope, error) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	var e Envelope
	switch {
	case strings.HasPrefix(lower, patternPrefix):
		head, body, ok := strings.Cut(text[len(patternPrefix):], ":")
		if !ok {
			return Envelope{}, fmt.Errorf("%w: pattern %q is missing ':'", ErrInvalidEnvelope, text)
		}
		loops := 1
		if head = strings.TrimSpace(head); head != "" {
			n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(head), "x"))
			if err != nil {
				return Envelope{}, fmt.Errorf("%w: pattern loops %q", ErrInvalidEnvelope, head)
			}
			loops = n
		}
		segments, err := ParseSegments(body)
		if err != nil {
			return Envelope{}, err
		}
		e = Envelope{Kind: Pattern, Pattern: segments, Loops: loops}

	case strings.HasPrefix(lower, silencePrefix):
		rest := strings.TrimSpace(text[len(silencePrefix):])
		secs, err := parseNumber(strings.TrimSuffix(rest, "s"))
		if err != nil {
			return Envelope{}, fmt.Errorf("%w: silence duration %q", ErrInvalidEnvelope, rest)
		}
		e = Envelope{Kind: Silence, Duration: secs}

	default:
		s, err := ParseSegment(text)
		if err != nil {
			return Envelope{}, err
		}
		e = Envelope{Kind: Constant, Intensity: s.Intensity, Duration: s.Duration}
	}

	if err := e.Validate(); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

// MarshalText implements encoding.TextMarshaler.
func (e Envelope) MarshalText() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Envelope) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

// formatNumber trims float noise (0.15*100 = 15.000000000000002) and trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

func formatPercent(v float64) string {
	return formatNumber(v*100) + "%"
}

func formatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
