package subject

import "github.com/teslashibe/go-overstim/pkg/debounce"

// Debounced signal names.
const (
	HealBeam        = "heal_beam"
	DamageBeam      = "damage_beam"
	HealingSong     = "healing_song"
	SpeedSong       = "speed_song"
	HarmonyOrb      = "harmony_orb"
	DiscordOrb      = "discord_orb"
	PulsarTorpedoes = "pulsar_torpedoes"
)

// Family selects which grace period a signal uses.
type Family int

const (
	FamilyMercyBeam Family = iota + 1
	FamilyLucioCrossfade
	FamilyZenOrb
	FamilyPulsar
)

// PulsarGrace covers the frames where the torpedo icon blinks while locking.
const PulsarGrace = 12

// Graces holds the configurable grace periods, in frames.
type Graces struct {
	MercyBeam      int
	LucioCrossfade int
	ZenOrb         int
}

// DefaultGraces returns the grace periods tuned at 30 fps.
func DefaultGraces() Graces {
	return Graces{MercyBeam: 11, LucioCrossfade: 6, ZenOrb: 27}
}

func (g Graces) of(f Family) int {
	switch f {
	case FamilyMercyBeam:
		return g.MercyBeam
	case FamilyLucioCrossfade:
		return g.LucioCrossfade
	case FamilyZenOrb:
		return g.ZenOrb
	default:
		return PulsarGrace
	}
}

// SignalSpec declares one debounced signal of a hero.
type SignalSpec struct {
	Name     string
	Template string
	Family   Family
}

var specs = map[Kind][]SignalSpec{
	Mercy: {
		{Name: HealBeam, Template: "mercy_heal_beam", Family: FamilyMercyBeam},
		{Name: DamageBeam, Template: "mercy_damage_beam", Family: FamilyMercyBeam},
	},
	Juno: {
		{Name: PulsarTorpedoes, Template: "juno_pulsar_torpedoes", Family: FamilyPulsar},
	},
	Lucio: {
		{Name: HealingSong, Template: "lucio_heal", Family: FamilyLucioCrossfade},
		{Name: SpeedSong, Template: "lucio_speed", Family: FamilyLucioCrossfade},
	},
	Zenyatta: {
		{Name: HarmonyOrb, Template: "zenyatta_harmony", Family: FamilyZenOrb},
		{Name: DiscordOrb, Template: "zenyatta_discord", Family: FamilyZenOrb},
	},
}

// Mercy can only beam one target and Lucio plays one song at a time.
// Zenyatta's orbs are independent.
var groups = map[Kind][][]string{
	Mercy: {{HealBeam, DamageBeam}},
	Lucio: {{HealingSong, SpeedSong}},
}

// Specs returns the debounced signals of a hero, in evaluation order.
func Specs(k Kind) []SignalSpec { return specs[k] }

// Subject is the current hero with its debounced signals.
type Subject struct {
	Kind    Kind
	specs   []SignalSpec
	signals map[string]*debounce.Signal
	groups  []*debounce.Group
	grouped map[string]bool
}

// New builds a hero with every signal inactive.
func New(k Kind, g Graces) *Subject {
	s := &Subject{
		Kind:    k,
		specs:   specs[k],
		signals: make(map[string]*debounce.Signal),
		grouped: make(map[string]bool),
	}
	for _, spec := range s.specs {
		s.signals[spec.Name] = debounce.New(g.of(spec.Family))
	}
	for _, names := range groups[k] {
		members := make([]*debounce.Signal, len(names))
		for i, name := range names {
			members[i] = s.signals[name]
			s.grouped[name] = true
		}
		s.groups = append(s.groups, debounce.Exclusive(members...))
	}
	return s
}

// SetGraces applies new grace periods without touching signal state.
func (s *Subject) SetGraces(g Graces) {
	for _, spec := range s.specs {
		s.signals[spec.Name].SetGrace(g.of(spec.Family))
	}
}

// Specs returns the hero's signal declarations.
func (s *Subject) Specs() []SignalSpec { return s.specs }

// Signal returns the named signal, or nil if the hero does not have it.
func (s *Subject) Signal(name string) *debounce.Signal { return s.signals[name] }

// Active reports the sticky state of the named signal.
func (s *Subject) Active(name string) bool {
	sig := s.signals[name]
	return sig != nil && sig.Active()
}

// Update feeds one frame of raw readings. Exclusive groups are updated as a
// unit; missing readings count as false.
func (s *Subject) Update(raw map[string]bool) {
	for i, names := range groups[s.Kind] {
		raws := make([]bool, len(names))
		for j, name := range names {
			raws[j] = raw[name]
		}
		s.groups[i].Update(raws...)
	}
	for _, spec := range s.specs {
		if !s.grouped[spec.Name] {
			s.signals[spec.Name].Update(raw[spec.Name])
		}
	}
}

// Reset forces every signal inactive with zero counters.
func (s *Subject) Reset() {
	for _, sig := range s.signals {
		sig.Reset()
	}
}
