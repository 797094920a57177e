package envelope

import (
	"fmt"
	"strings"
)

// Segment is one step of a Pattern: Intensity (0-1) held for Duration seconds.
type Segment struct {
	Intensity float64
	Duration  float64
}

// String formats the segment as "<intensity%> <duration>s", e.g. "30% 0.5s".
func (s Segment) String() string {
	return formatPercent(s.Intensity) + " " + formatNumber(s.Duration) + "s"
}

func (s Segment) validate() error {
	if err := checkIntensity(s.Intensity); err != nil {
		return err
	}
	return checkDuration(s.Duration)
}

// Segments is an ordered pattern of segments.
type Segments []Segment

// Duration is the length of one cycle.
func (p Segments) Duration() float64 {
	var total float64
	for _, s := range p {
		total += s.Duration
	}
	return total
}

// String joins the segments with ", ".
func (p Segments) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

// Short lists the first two intensities, e.g. "100% 30% ...".
func (p Segments) Short() string {
	const maxItems = 2
	var b strings.Builder
	for i, s := range p {
		if i == maxItems {
			b.WriteString(" ...")
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(formatPercent(s.Intensity))
	}
	return b.String()
}

// at returns the intensity of the first segment whose cumulative end exceeds pos.
func (p Segments) at(pos float64) float64 {
	var split float64
	for _, s := range p {
		if split+s.Duration > pos {
			return s.Intensity
		}
		split += s.Duration
	}
	// pos can only reach the cycle end through float drift
	return p[len(p)-1].Intensity
}

// ParseSegment parses "<intensity%> <duration>s". The unit suffixes are optional.
func ParseSegment(text string) (Segment, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Segment{}, fmt.Errorf("%w: segment %q needs an intensity and a duration", ErrInvalidEnvelope, text)
	}

	pct, err := parseNumber(strings.TrimSuffix(fields[0], "%"))
	if err != nil {
		return Segment{}, fmt.Errorf("%w: segment %q intensity: %v", ErrInvalidEnvelope, text, err)
	}
	secs, err := parseNumber(strings.TrimSuffix(fields[1], "s"))
	if err != nil {
		return Segment{}, fmt.Errorf("%w: segment %q duration: %v", ErrInvalidEnvelope, text, err)
	}

	return Segment{Intensity: pct / 100.0, Duration: secs}, nil
}

// ParseSegments parses a comma-separated list of segments. Empty items are skipped.
func ParseSegments(text string) (Segments, error) {
	var out Segments
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		s, err := ParseSegment(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
