package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Failure reports a device that was stopped after a failed command.
type Failure struct {
	Device string
	Err    error
}

// Fanout sends levels to each device from its own goroutine. Every device has
// a single-slot mailbox: a new command overwrites one the worker has not
// picked up yet. A device whose command fails is stopped and excluded for
// the rest of the session.
type Fanout struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu       sync.Mutex
	workers  map[Device]*worker
	excluded map[string]bool
	failures chan Failure
	wg       sync.WaitGroup
}

type worker struct {
	dev   Device
	mu    sync.Mutex
	cond  *sync.Cond
	next  []float64
	done  bool
	drops uint64
	exit  chan struct{}
}

// NewFanout creates a fan-out bound to ctx.
func NewFanout(ctx context.Context, logger *slog.Logger) *Fanout {
	ctx, cancel := context.WithCancel(ctx)
	return &Fanout{
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		workers:  make(map[Device]*worker),
		excluded: make(map[string]bool),
		failures: make(chan Failure, 16),
	}
}

// Failures delivers stopped devices. Reports are dropped if nobody reads.
func (f *Fanout) Failures() <-chan Failure { return f.failures }

// Excluded reports whether the named device failed this session.
func (f *Fanout) Excluded(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.excluded[name]
}

// Active drops excluded devices from the list.
func (f *Fanout) Active(devices []Device) []Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if !f.excluded[d.Name()] {
			out = append(out, d)
		}
	}
	return out
}

// Submit queues levels for d and returns immediately. levels is copied.
func (f *Fanout) Submit(d Device, levels []float64) {
	f.mu.Lock()
	if f.excluded[d.Name()] || f.ctx.Err() != nil {
		f.mu.Unlock()
		return
	}
	w, ok := f.workers[d]
	if !ok {
		w = &worker{dev: d, exit: make(chan struct{})}
		w.cond = sync.NewCond(&w.mu)
		f.workers[d] = w
		f.wg.Add(1)
		go f.run(w)
	}
	f.mu.Unlock()

	cp := make([]float64, len(levels))
	copy(cp, levels)

	w.mu.Lock()
	if w.next != nil {
		atomic.AddUint64(&w.drops, 1)
	}
	w.next = cp
	w.cond.Signal()
	w.mu.Unlock()
}

func (f *Fanout) run(w *worker) {
	defer f.wg.Done()
	defer close(w.exit)
	for {
		w.mu.Lock()
		for w.next == nil && !w.done {
			w.cond.Wait()
		}
		if w.done {
			w.mu.Unlock()
			return
		}
		levels := w.next
		w.next = nil
		w.mu.Unlock()

		if err := w.dev.Scalar(f.ctx, levels); err != nil {
			if f.ctx.Err() != nil {
				return
			}
			f.fail(w, err)
			return
		}
		f.logger.Info("device updated", "device", w.dev.Name(), "levels", formatLevels(levels))
	}
}

func (f *Fanout) fail(w *worker, err error) {
	name := w.dev.Name()
	f.logger.Warn("stopping device after failed command", "device", name, "error", err)
	if stopErr := w.dev.Stop(f.ctx); stopErr != nil {
		f.logger.Error("device stop failed", "device", name, "error", stopErr)
	}

	f.mu.Lock()
	f.excluded[name] = true
	delete(f.workers, w.dev)
	f.mu.Unlock()

	select {
	case f.failures <- Failure{Device: name, Err: err}:
	default:
	}
}

// StopAll synchronously stops every given device. Workers are halted first
// and any command already in flight finishes before the stop is sent, so the
// stop is the last command a device sees.
func (f *Fanout) StopAll(ctx context.Context, devices []Device) error {
	f.mu.Lock()
	halted := make([]*worker, 0, len(f.workers))
	for d, w := range f.workers {
		w.mu.Lock()
		w.next = nil
		w.done = true
		w.cond.Signal()
		w.mu.Unlock()
		halted = append(halted, w)
		delete(f.workers, d)
	}
	f.mu.Unlock()

	var errs []error
	for _, w := range halted {
		select {
		case <-w.exit:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("waiting for %s: %w", w.dev.Name(), ctx.Err()))
		}
	}

	for _, d := range devices {
		if err := d.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", d.Name(), err))
		}
	}
	if len(errs) == 0 {
		f.logger.Info("stopped all devices", "count", len(devices))
	}
	return errors.Join(errs...)
}

// Drops returns how many commands to d were overwritten before being sent.
func (f *Fanout) Drops(d Device) uint64 {
	f.mu.Lock()
	w, ok := f.workers[d]
	f.mu.Unlock()
	if !ok {
		return 0
	}
	return atomic.LoadUint64(&w.drops)
}

// Close stops every worker and waits for them.
func (f *Fanout) Close() {
	f.mu.Lock()
	f.cancel()
	for _, w := range f.workers {
		w.mu.Lock()
		w.done = true
		w.cond.Signal()
		w.mu.Unlock()
	}
	f.mu.Unlock()
	f.wg.Wait()
}

func formatLevels(levels []float64) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("vibe %d: %g", i+1, l)
	}
	return strings.Join(parts, ", ")
}
