// Package controller runs the tick loop: it refreshes player state from the
// frame source, dispatches triggers and drives the devices.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-overstim/pkg/device"
	"github.com/teslashibe/go-overstim/pkg/dispatch"
	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/tracking"
	"github.com/teslashibe/go-overstim/pkg/tracking/detection"
	"github.com/teslashibe/go-overstim/pkg/trigger"
	"github.com/teslashibe/go-overstim/pkg/vibe"
)

// stopTimeout bounds the final stop of every device.
const stopTimeout = 3 * time.Second

// Connection is implemented by device providers that can lose their server.
type Connection interface {
	Connected() bool
}

// Config holds the controller settings.
type Config struct {
	Settings vibe.Settings
	Tracking tracking.Config

	// Interval is the minimum time between refreshes while alive,
	// IdleInterval while dead.
	Interval     time.Duration
	IdleInterval time.Duration

	// Excluded device names are never driven.
	Excluded []string

	Responses trigger.Responses
	// Subject is the hero played when auto detection is off, and the
	// starting hero otherwise.
	Subject subject.Kind
}

// Clock returns the current time.
type Clock func() time.Time

type pending struct {
	switchSubject bool
	auto          bool
	subject       subject.Kind
	responses     trigger.Responses
	settings      *vibe.Settings
	graces        *subject.Graces
}

// Controller owns the engine state. Everything except the Update* methods and
// Info must be called from the goroutine running Run.
type Controller struct {
	config  Config
	source  detection.Source
	devices device.Provider
	logger  *slog.Logger

	fanout    *device.Fanout
	tracker   *tracking.Tracker
	vibes     *vibe.Manager
	responses trigger.Responses
	session   uuid.UUID
	fps       FPS
	onInfo    func(Info)

	logical Clock
	wall    Clock

	mu      sync.Mutex
	pending *pending
	info    Info
}

// Option configures a Controller.
type Option func(*Controller)

// WithClocks overrides the logical (envelope) and wall (suppression) clocks.
func WithClocks(logical, wall Clock) Option {
	return func(c *Controller) {
		c.logical = logical
		c.wall = wall
	}
}

// WithInfo registers a callback receiving every status snapshot.
func WithInfo(fn func(Info)) Option {
	return func(c *Controller) { c.onInfo = fn }
}

// New creates a controller reading frames from source and driving the
// devices listed by devices.
func New(config Config, source detection.Source, devices device.Provider, logger *slog.Logger, opts ...Option) *Controller {
	if config.Responses == nil {
		config.Responses = trigger.DefaultResponses()
	}
	if config.IdleInterval < config.Interval {
		config.IdleInterval = config.Interval
	}

	fanout := device.NewFanout(context.Background(), logger.With("component", "devices"))
	c := &Controller{
		config:    config,
		source:    source,
		devices:   devices,
		logger:    logger,
		fanout:    fanout,
		tracker:   tracking.New(config.Tracking, source, logger.With("component", "tracking")),
		vibes:     vibe.NewManager(config.Settings, fanout, logger.With("component", "vibe")),
		responses: config.Responses.Clone(),
		session:   uuid.New(),
		logical:   time.Now,
		wall:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.tracker.Switch(config.Tracking.AutoDetect, config.Subject)
	c.info = Info{Session: c.session.String(), Subject: config.Subject, AutoDetect: config.Tracking.AutoDetect}
	return c
}

// Session identifies this run in status snapshots.
func (c *Controller) Session() uuid.UUID { return c.session }

// Info returns the latest status snapshot.
func (c *Controller) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info
}

// UpdateSettings switches hero selection and responses at the next tick.
func (c *Controller) UpdateSettings(auto bool, k subject.Kind, responses trigger.Responses) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pendingLocked()
	p.switchSubject = true
	p.auto = auto
	p.subject = k
	p.responses = responses.Clone()
}

// UpdateResponses replaces the trigger responses at the next tick.
func (c *Controller) UpdateResponses(responses trigger.Responses) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingLocked().responses = responses.Clone()
}

// UpdateOutput replaces the output limits at the next tick.
func (c *Controller) UpdateOutput(s vibe.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingLocked().settings = &s
}

// UpdateGraces replaces the debounce grace periods at the next tick.
func (c *Controller) UpdateGraces(g subject.Graces) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingLocked().graces = &g
}

func (c *Controller) pendingLocked() *pending {
	if c.pending == nil {
		c.pending = &pending{}
	}
	return c.pending
}

// Run ticks until ctx is cancelled, the frame source fails or the device
// connection is lost. Every exit path clears all instances and stops every
// device.
func (c *Controller) Run(ctx context.Context) (err error) {
	stats := NewStats(c.wall())
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if stopErr := c.vibes.StopAll(stopCtx, c.activeDevices()); stopErr != nil {
			c.logger.Error("failed to stop devices", "error", stopErr)
		}
		c.fanout.Close()
		c.logger.Info("stopped")
		c.logger.Info(stats.Summarize(c.wall()).String())
	}()

	conn, _ := c.devices.(Connection)
	var lastRefresh time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-c.fanout.Failures():
			c.logger.Warn("device excluded for this session", "device", f.Device, "error", f.Err)
			continue
		default:
		}

		if conn != nil && !conn.Connected() {
			return device.ErrConnectionLost
		}

		stats.Loop()
		c.applyPending()

		devices := c.activeDevices()
		tick := vibe.Tick{Now: c.logical(), Wall: c.wall()}
		c.vibes.Update(devices, tick)

		interval := c.config.Interval
		if c.tracker.Dead() {
			interval = c.config.IdleInterval
		}
		if wait := interval - tick.Wall.Sub(lastRefresh); wait > 0 {
			if err := sleep(ctx, min(wait, c.config.Interval)); err != nil {
				return nil
			}
			continue
		}
		lastRefresh = tick.Wall

		if err := c.source.Next(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, detection.ErrNoFrame) {
				continue
			}
			return fmt.Errorf("read frame: %w", err)
		}

		start := time.Now()
		fired := c.refresh(c.logical(), c.wall())
		elapsed := time.Since(start)
		stats.Observe(elapsed)

		c.publish(tick.Wall, len(devices), elapsed, fired)
	}
}

// refresh runs one frame through tracking and dispatch.
func (c *Controller) refresh(now, wall time.Time) []trigger.ID {
	tick := vibe.Tick{Now: now, Wall: wall}
	obs := c.tracker.Refresh(now)
	fired := dispatch.Run(c.tracker.Subject(), c.responses, obs, c.vibes, tick)
	for _, id := range fired {
		c.logger.Debug("trigger fired", "trigger", id.String(), "hero", c.tracker.Subject().String())
	}

	if c.tracker.SwitchPending() {
		detected := c.tracker.Detected()
		c.logger.Info("hero switch detected", "hero", detected.Title())
		c.vibes.ClearAll()
		c.tracker.Switch(true, detected)
	}
	return fired
}

func (c *Controller) applyPending() {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()
	if p == nil {
		return
	}

	if p.settings != nil {
		c.vibes.SetSettings(*p.settings)
	}
	if p.graces != nil {
		c.tracker.SetGraces(*p.graces)
	}
	if p.responses != nil {
		c.responses = p.responses
	}
	if p.switchSubject {
		c.logger.Info("hero selection changed", "auto", p.auto, "hero", p.subject.Title())
		c.vibes.ClearAll()
		c.tracker.Switch(p.auto, p.subject)
	}
}

func (c *Controller) activeDevices() []device.Device {
	return c.fanout.Active(device.Filter(c.devices.Devices(), c.config.Excluded))
}

func (c *Controller) publish(wall time.Time, devices int, elapsed time.Duration, fired []trigger.ID) {
	info := Info{
		Session:     c.session.String(),
		Time:        wall,
		Intensity:   c.vibes.Intensity(),
		Subject:     c.tracker.Subject(),
		AutoDetect:  c.tracker.Auto(),
		Dead:        c.tracker.Dead(),
		Devices:     devices,
		FPS:         c.fps.Update(wall),
		Calculation: elapsed,
		Intensities: c.vibes.Contributions(),
		Fired:       fired,
	}

	c.mu.Lock()
	c.info = info
	c.mu.Unlock()

	if c.onInfo != nil {
		c.onInfo(info)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
