// Package subject models the hero being played: which debounced signals it
// owns, and how the current hero is discovered from weapon icons.
package subject

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind identifies a hero. Other covers every hero without specific signals.
type Kind int

const (
	Other Kind = iota
	Mercy
	Juno
	Lucio
	Zenyatta
)

// Role groups heroes for prioritized re-detection.
type Role string

const (
	RoleSupport Role = "Support"
	RoleOther   Role = "Other"
)

// Profile describes how a hero is recognised.
type Profile struct {
	Role Role
	// Signatures are the weapon templates, any of which identifies the hero.
	Signatures []string
}

var profiles = map[Kind]Profile{
	Other:    {Role: RoleOther},
	Mercy:    {Role: RoleSupport, Signatures: []string{"mercy_staff", "mercy_pistol", "mercy_pistol_ult"}},
	Juno:     {Role: RoleSupport, Signatures: []string{"juno_weapon"}},
	Lucio:    {Role: RoleSupport, Signatures: []string{"lucio_weapon"}},
	Zenyatta: {Role: RoleSupport, Signatures: []string{"zenyatta_weapon"}},
}

// Supported lists the heroes with specific signals, in probe order.
var Supported = []Kind{Juno, Lucio, Mercy, Zenyatta}

// All returns every kind, Other first.
func All() []Kind {
	return append([]Kind{Other}, Supported...)
}

// Profile returns the hero's role and signatures.
func (k Kind) Profile() Profile { return profiles[k] }

// Role returns the hero's role.
func (k Kind) Role() Role { return profiles[k].Role }

// String returns the lowercase name used in config files and the API.
func (k Kind) String() string {
	switch k {
	case Other:
		return "other"
	case Mercy:
		return "mercy"
	case Juno:
		return "juno"
	case Lucio:
		return "lucio"
	case Zenyatta:
		return "zenyatta"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Title returns the display name.
func (k Kind) Title() string {
	return cases.Title(language.English).String(k.String())
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Parse returns the kind with the given name, case-insensitively.
func Parse(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range All() {
		if k.String() == name {
			return k, nil
		}
	}
	return Other, fmt.Errorf("unknown hero %q", name)
}

// Candidates returns the supported heroes to probe when the current hero
// needs re-verification: same role as current first, then the rest, each
// group in declaration order.
func Candidates(current Kind) []Kind {
	role := current.Role()
	out := make([]Kind, 0, len(Supported))
	for _, k := range Supported {
		if k.Role() == role {
			out = append(out, k)
		}
	}
	for _, k := range Supported {
		if k.Role() != role {
			out = append(out, k)
		}
	}
	return out
}
