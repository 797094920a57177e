// Package detection defines the template-matching service the player-state
// tracker reads its signals from.
//
// All coordinates are in the 1920x1080 base resolution. Frames of any other
// size are cropped to 16:9 and resized before matching.
package detection

import (
	"context"
	"errors"
	"image"
)

const (
	BaseWidth  = 1920
	BaseHeight = 1080

	// DefaultThreshold is the TM_CCOEFF_NORMED score a match must exceed.
	DefaultThreshold = 0.9

	// SignatureThreshold is used for weapon icons, which look alike.
	SignatureThreshold = 0.97

	// RowSpacing is the vertical distance between stacked notifications.
	RowSpacing = 35
)

// ErrNoFrame is returned when the source has no frame to give.
var ErrNoFrame = errors.New("no frame available")

// Detector answers queries about the current frame. Queries never change
// tracker state.
type Detector interface {
	// Detect reports whether the named template is visible.
	Detect(name string, opts ...Option) bool

	// SampleColor reports whether the grayscale value at p, as a 0-1 ratio, is
	// within tolerance of target.
	SampleColor(p image.Point, target, tolerance float64) bool
}

// Source is a Detector fed by a live frame source.
type Source interface {
	Detector

	// Next blocks until a new frame is ready and makes it current.
	Next(ctx context.Context) error

	// Close releases resources
	Close() error
}

// Options tune a single Detect call.
type Options struct {
	Threshold float64
	Region    *Region
}

// Option configures a Detect call.
type Option func(*Options)

// WithThreshold overrides the match threshold.
func WithThreshold(threshold float64) Option {
	return func(o *Options) { o.Threshold = threshold }
}

// WithRegion overrides where the template is searched.
func WithRegion(r Region) Option {
	return func(o *Options) { o.Region = &r }
}

// Apply resolves options against the defaults.
func Apply(opts ...Option) Options {
	o := Options{Threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// AspectCrop returns the centered 16:9 rectangle of a w x h frame.
func AspectCrop(w, h int) image.Rectangle {
	full := image.Rect(0, 0, w, h)
	if w <= 0 || h <= 0 || w*BaseHeight == h*BaseWidth {
		return full
	}
	if w*BaseHeight > h*BaseWidth {
		nw := h * BaseWidth / BaseHeight
		pad := (w - nw) / 2
		return image.Rect(pad, 0, w-pad, h)
	}
	nh := w * BaseHeight / BaseWidth
	pad := (h - nh) / 2
	return image.Rect(0, pad, w, h-pad)
}
