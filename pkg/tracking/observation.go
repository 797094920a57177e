package tracking

import "github.com/teslashibe/go-overstim/pkg/subject"

// Flag names. Debounced hero signals use the subject package names.
const (
	FlagHacked      = "hacked"
	FlagBeamed      = "being_beamed"
	FlagOrbed       = "being_orbed"
	FlagEndorsement = "endorsement"

	FlagResurrecting  = "resurrecting"
	FlagFlashHeal     = "flash_heal"
	FlagGlideBoost    = "glide_boost"
	FlagPulsarFiring  = "pulsar_torpedoes_firing"
	FlagPulsarLocking = "pulsar_torpedoes_lock"

	FlagHealBeam    = subject.HealBeam
	FlagDamageBeam  = subject.DamageBeam
	FlagHealingSong = subject.HealingSong
	FlagSpeedSong   = subject.SpeedSong
	FlagHarmonyOrb  = subject.HarmonyOrb
	FlagDiscordOrb  = subject.DiscordOrb
)

// Notification kinds, in probe order.
const (
	NotifElimination = "elimination"
	NotifAssist      = "assist"
	NotifSave        = "save"
)

// NotificationKinds lists the stacked notification templates.
var NotificationKinds = []string{NotifElimination, NotifAssist, NotifSave}

// Observation is the player state after one frame.
type Observation struct {
	Subject  subject.Kind
	Detected subject.Kind
	Alive    bool

	flags  map[string]bool
	notifs map[string]int
}

// Flag reports a resolved boolean signal.
func (o Observation) Flag(name string) bool { return o.flags[name] }

// Notifications returns how many new notifications of kind appeared this frame.
func (o Observation) Notifications(kind string) int { return o.notifs[kind] }

// Flags returns a copy of every flag that is set.
func (o Observation) Flags() map[string]bool {
	out := make(map[string]bool, len(o.flags))
	for k, v := range o.flags {
		if v {
			out[k] = v
		}
	}
	return out
}
