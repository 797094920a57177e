package controller

import "time"

// FPS counts ticks over a sliding one second window.
type FPS struct {
	times []time.Time
}

// Update records a tick at now and returns the ticks seen in the last second.
func (f *FPS) Update(now time.Time) int {
	f.times = append(f.times, now)
	cutoff := now.Add(-time.Second)
	i := 0
	for i < len(f.times) && f.times[i].Before(cutoff) {
		i++
	}
	f.times = f.times[i:]
	return len(f.times)
}
