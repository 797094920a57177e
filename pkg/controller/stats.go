package controller

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// maxSamples bounds the processing-time history kept for the summary.
const maxSamples = 10000

// Stats accumulates loop counts and per-refresh processing times.
type Stats struct {
	start   time.Time
	loops   int
	samples []float64 // milliseconds, ring buffer once full
	next    int
}

// NewStats starts counting at start.
func NewStats(start time.Time) *Stats {
	return &Stats{start: start}
}

// Loop counts one loop iteration.
func (s *Stats) Loop() { s.loops++ }

// Observe records the processing time of one refresh.
func (s *Stats) Observe(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	if len(s.samples) < maxSamples {
		s.samples = append(s.samples, ms)
		return
	}
	s.samples[s.next] = ms
	s.next = (s.next + 1) % maxSamples
}

// Summary describes a finished session.
type Summary struct {
	Loops          int
	LoopsPerSecond float64
	AvgLoop        time.Duration
	MeanMs         float64
	StdDevMs       float64
	P95Ms          float64
}

// Summarize computes the session summary at end.
func (s *Stats) Summarize(end time.Time) Summary {
	duration := end.Sub(s.start).Seconds()
	sum := Summary{
		Loops:          s.loops,
		LoopsPerSecond: round2(float64(s.loops) / math.Max(duration, 1)),
		AvgLoop:        time.Duration(duration / math.Max(float64(s.loops), 1) * float64(time.Second)),
	}
	if len(s.samples) == 0 {
		return sum
	}

	sorted := append([]float64(nil), s.samples...)
	sort.Float64s(sorted)
	sum.MeanMs = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		sum.StdDevMs = stat.StdDev(sorted, nil)
	}
	sum.P95Ms = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	return sum
}

func (s Summary) String() string {
	return fmt.Sprintf("Loops: %d | Loops per second: %.2f | Avg. time: %.2fms",
		s.Loops, s.LoopsPerSecond, float64(s.AvgLoop)/float64(time.Millisecond))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
