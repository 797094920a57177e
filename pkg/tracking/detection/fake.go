package detection

import (
	"context"
	"fmt"
	"image"
	"sync"
)

// Fake is an in-memory Source for tests.
type Fake struct {
	mu      sync.Mutex
	visible map[string]bool
	rows    map[string]map[int]bool
	colors  map[image.Point]float64
	probes  []string
	frames  int
}

// NewFake returns a Fake showing nothing.
func NewFake() *Fake {
	return &Fake{
		visible: make(map[string]bool),
		rows:    make(map[string]map[int]bool),
		colors:  make(map[image.Point]float64),
	}
}

// Show makes templates visible.
func (f *Fake) Show(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.visible[n] = true
	}
}

// Hide makes templates invisible.
func (f *Fake) Hide(names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		delete(f.visible, n)
	}
}

// ShowRows shows a notification template on the given rows only.
func (f *Fake) ShowRows(name string, rows ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[int]bool, len(rows))
	for _, r := range rows {
		set[r] = true
	}
	f.rows[name] = set
}

// SetColor sets the grayscale ratio at p.
func (f *Fake) SetColor(p image.Point, ratio float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.colors[p] = ratio
}

// Reset hides everything and forgets recorded probes.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = make(map[string]bool)
	f.rows = make(map[string]map[int]bool)
	f.colors = make(map[image.Point]float64)
	f.probes = nil
}

// Probes returns the recorded Detect calls. Row-shifted calls are recorded as
// "name@row".
func (f *Fake) Probes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.probes))
	copy(out, f.probes)
	return out
}

// Frames returns how many times Next was called.
func (f *Fake) Frames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

func (f *Fake) Detect(name string, opts ...Option) bool {
	o := Apply(opts...)
	f.mu.Lock()
	defer f.mu.Unlock()

	if rows, ok := f.rows[name]; ok && o.Region != nil {
		row := (o.Region.Top - Regions[name].Top) / RowSpacing
		f.probes = append(f.probes, fmt.Sprintf("%s@%d", name, row))
		return rows[row]
	}
	f.probes = append(f.probes, name)
	return f.visible[name]
}

func (f *Fake) SampleColor(p image.Point, target, tolerance float64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.colors[p]
	if !ok {
		return false
	}
	d := v - target
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

func (f *Fake) Next(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.frames++
	f.mu.Unlock()
	return nil
}

func (f *Fake) Close() error { return nil }
