package tracking

import (
	"image"

	"github.com/teslashibe/go-overstim/pkg/ledger"
	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/tracking/detection"
)

// Perception turns template queries into raw signals.
type Perception struct {
	det detection.Detector
}

// NewPerception wraps a detector.
func NewPerception(det detection.Detector) *Perception {
	return &Perception{det: det}
}

const (
	glideBoostThreshold = 0.85
	pulsarTarget        = 1.0
	pulsarTolerance     = 0.05
)

// The torpedo reticle turns white on either side while firing.
var pulsarProbes = [2]image.Point{{X: 464, Y: 346}, {X: detection.BaseWidth - 464, Y: 346}}

// Dead reports whether the player is watching a kill cam or spectating.
func (p *Perception) Dead() bool {
	return p.det.Detect("killcam") || p.det.Detect("death_spec")
}

// Notifications counts the stacked notifications of every kind.
func (p *Perception) Notifications(rows int) map[string]int {
	return ledger.Scan(NotificationKinds, rows, func(kind string, row int) bool {
		return p.det.Detect(kind, detection.WithRegion(detection.Regions[kind].Row(row)))
	})
}

// Generic reads the flags every hero has while alive.
func (p *Perception) Generic(flags map[string]bool) {
	flags[FlagBeamed] = p.det.Detect("being_beamed")
	flags[FlagOrbed] = p.det.Detect("being_orbed")
	flags[FlagHacked] = p.det.Detect("hacked")
}

// Endorsed reads the endorsement banner, which shows dead or alive.
func (p *Perception) Endorsed() bool {
	return p.det.Detect(FlagEndorsement)
}

// Signals reads the raw state of every debounced signal of a hero.
func (p *Perception) Signals(specs []subject.SignalSpec) map[string]bool {
	raw := make(map[string]bool, len(specs))
	for _, spec := range specs {
		raw[spec.Name] = p.det.Detect(spec.Template)
	}
	return raw
}

// Signature reports whether any weapon icon of k is visible.
func (p *Perception) Signature(k subject.Kind) bool {
	for _, name := range k.Profile().Signatures {
		if p.det.Detect(name, detection.WithThreshold(detection.SignatureThreshold)) {
			return true
		}
	}
	return false
}

// Resurrecting reads the Resurrect cooldown icon.
func (p *Perception) Resurrecting() bool { return p.det.Detect("mercy_resurrect_cd") }

// FlashHeal reads the Flash Heal icon.
func (p *Perception) FlashHeal() bool { return p.det.Detect("mercy_flash_heal") }

// GlideBoost reads Juno's glide boost icon.
func (p *Perception) GlideBoost() bool {
	return p.det.Detect("juno_glide_boost", detection.WithThreshold(glideBoostThreshold))
}

// PulsarFiring samples the torpedo reticle on both sides.
func (p *Perception) PulsarFiring() bool {
	for _, pt := range pulsarProbes {
		if p.det.SampleColor(pt, pulsarTarget, pulsarTolerance) {
			return true
		}
	}
	return false
}
