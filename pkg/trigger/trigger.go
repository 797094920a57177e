// Package trigger declares what each trigger reacts to and how. The dispatcher
// is driven entirely by the descriptor table; there is no per-trigger code.
package trigger

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/teslashibe/go-overstim/pkg/tracking"
)

// ID identifies a trigger.
type ID int

const (
	Elimination ID = iota + 1
	Assist
	Save
	HackedBySombra
	BeamedByMercy
	OrbedByZenyatta
	Resurrect
	FlashHeal
	HealBeam
	DamageBeam
	GlideBoost
	PulsarTorpedoesLock
	PulsarTorpedoesFire
	HealingSong
	SpeedSong
	HarmonyOrb
	DiscordOrb
	EndorsementReceived
)

var names = map[ID]string{
	Elimination:         "elimination",
	Assist:              "assist",
	Save:                "save",
	HackedBySombra:      "hacked_by_sombra",
	BeamedByMercy:       "beamed_by_mercy",
	OrbedByZenyatta:     "orbed_by_zenyatta",
	Resurrect:           "resurrect",
	FlashHeal:           "flash_heal",
	HealBeam:            "heal_beam",
	DamageBeam:          "damage_beam",
	GlideBoost:          "glide_boost",
	PulsarTorpedoesLock: "pulsar_torpedoes_lock",
	PulsarTorpedoesFire: "pulsar_torpedoes_fire",
	HealingSong:         "healing_song",
	SpeedSong:           "speed_song",
	HarmonyOrb:          "harmony_orb",
	DiscordOrb:          "discord_orb",
	EndorsementReceived: "endorsement_received",
}

// String returns the snake_case name.
func (id ID) String() string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("trigger(%d)", int(id))
}

// Title returns the display name, e.g. "Hacked By Sombra".
func (id ID) Title() string {
	return cases.Title(language.English).String(strings.ReplaceAll(id.String(), "_", " "))
}

// Parse returns the trigger with the given snake_case name.
func Parse(name string) (ID, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for id, n := range names {
		if n == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown trigger %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Mode is how a trigger turns signals into envelope instances.
type Mode int

const (
	// Instant fires once per event and plays its envelope to the end.
	Instant Mode = iota + 1
	// Conditional keeps one unlimited instance alive while its flag holds.
	Conditional
)

func (m Mode) String() string {
	if m == Conditional {
		return "conditional"
	}
	return "instant"
}

// Descriptor declares a trigger's behaviour.
type Descriptor struct {
	ID   ID
	Mode Mode

	// Exactly one source: a flag, or a notification kind that fires on a
	// positive delta.
	Flag         string
	Notification string

	// Suppress is the minimum wall-clock gap between instances.
	Suppress time.Duration
	// Recent skips firing while an instance created within this window on
	// the tick clock is still alive.
	Recent time.Duration
	// Singleton skips firing while any instance is alive.
	Singleton bool
	// Unless names a flag that vetoes firing.
	Unless string
	// BlockedBy holds a conditional trigger off while the given trigger has
	// an instance.
	BlockedBy ID
}

var descriptors = map[ID]Descriptor{
	Elimination: {ID: Elimination, Mode: Instant, Notification: tracking.NotifElimination},
	Assist:      {ID: Assist, Mode: Instant, Notification: tracking.NotifAssist},
	Save:        {ID: Save, Mode: Instant, Notification: tracking.NotifSave, Unless: tracking.FlagResurrecting},

	HackedBySombra:      {ID: HackedBySombra, Mode: Conditional, Flag: tracking.FlagHacked},
	BeamedByMercy:       {ID: BeamedByMercy, Mode: Conditional, Flag: tracking.FlagBeamed},
	OrbedByZenyatta:     {ID: OrbedByZenyatta, Mode: Conditional, Flag: tracking.FlagOrbed},
	EndorsementReceived: {ID: EndorsementReceived, Mode: Instant, Flag: tracking.FlagEndorsement, Suppress: 4800 * time.Millisecond},

	HealBeam:   {ID: HealBeam, Mode: Conditional, Flag: tracking.FlagHealBeam},
	DamageBeam: {ID: DamageBeam, Mode: Conditional, Flag: tracking.FlagDamageBeam},
	Resurrect:  {ID: Resurrect, Mode: Instant, Flag: tracking.FlagResurrecting, Recent: 3 * time.Second},
	FlashHeal:  {ID: FlashHeal, Mode: Instant, Flag: tracking.FlagFlashHeal, Suppress: 3 * time.Second},

	GlideBoost:          {ID: GlideBoost, Mode: Instant, Flag: tracking.FlagGlideBoost, Singleton: true},
	PulsarTorpedoesLock: {ID: PulsarTorpedoesLock, Mode: Conditional, Flag: tracking.FlagPulsarLocking, BlockedBy: PulsarTorpedoesFire},
	PulsarTorpedoesFire: {ID: PulsarTorpedoesFire, Mode: Instant, Flag: tracking.FlagPulsarFiring, Singleton: true},

	HealingSong: {ID: HealingSong, Mode: Conditional, Flag: tracking.FlagHealingSong},
	SpeedSong:   {ID: SpeedSong, Mode: Conditional, Flag: tracking.FlagSpeedSong},

	HarmonyOrb: {ID: HarmonyOrb, Mode: Conditional, Flag: tracking.FlagHarmonyOrb},
	DiscordOrb: {ID: DiscordOrb, Mode: Conditional, Flag: tracking.FlagDiscordOrb},
}

// Describe returns the descriptor of id.
func Describe(id ID) (Descriptor, bool) {
	d, ok := descriptors[id]
	return d, ok
}

// IsConditional reports whether id tracks a live condition.
func IsConditional(id ID) bool {
	return descriptors[id].Mode == Conditional
}
