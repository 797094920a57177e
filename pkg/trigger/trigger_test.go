package trigger

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/teslashibe/go-overstim/pkg/envelope"
	"github.com/teslashibe/go-overstim/pkg/subject"
)

func TestEveryTriggerHasDescriptor(t *testing.T) {
	for id := range names {
		d, ok := Describe(id)
		if !ok {
			t.Errorf("%s: missing descriptor", id)
			continue
		}
		if (d.Flag == "") == (d.Notification == "") {
			t.Errorf("%s: expected exactly one source", id)
		}
		if d.Mode == Conditional && d.Notification != "" {
			t.Errorf("%s: conditional triggers need a flag", id)
		}
	}
}

func TestDefaultsAreValid(t *testing.T) {
	for _, k := range subject.All() {
		for _, id := range ForSubject(k) {
			if err := DefaultEnvelope(k, id).Validate(); err != nil {
				t.Errorf("%s/%s: %v", k, id, err)
			}
		}
	}
}

func TestForSubject_SpecificFirst(t *testing.T) {
	got := ForSubject(subject.Juno)
	want := []ID{
		GlideBoost, PulsarTorpedoesLock, PulsarTorpedoesFire,
		Elimination, Assist, Save, HackedBySombra, BeamedByMercy, OrbedByZenyatta, EndorsementReceived,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ForSubject(Juno) mismatch (-want +got):\n%s", diff)
	}
	if len(ForSubject(subject.Other)) != len(generic) {
		t.Error("Expected Other to have only generic triggers")
	}
}

func TestDefaultEnvelope(t *testing.T) {
	if got := DefaultEnvelope(subject.Mercy, Resurrect); got.Intensity != 1 || got.Duration != 4 {
		t.Errorf("Unexpected resurrect default: %+v", got)
	}
	if got := DefaultEnvelope(subject.Lucio, Resurrect); got.Kind != envelope.Constant || got.Intensity != 0.1 {
		t.Errorf("Expected fallback envelope, got %+v", got)
	}
	if got := DefaultEnvelope(subject.Other, HackedBySombra); got.Kind != envelope.Silence {
		t.Errorf("Expected silence for hacked, got %v", got.Kind)
	}
}

func TestTitle(t *testing.T) {
	tests := map[ID]string{
		HackedBySombra:      "Hacked By Sombra",
		Elimination:         "Elimination",
		EndorsementReceived: "Endorsement Received",
	}
	for id, want := range tests {
		if got := id.Title(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}

func TestParse(t *testing.T) {
	for id := range names {
		got, err := Parse(id.String())
		if err != nil || got != id {
			t.Errorf("Parse(%q): got %v, %v", id.String(), got, err)
		}
	}
	if _, err := Parse("teabag"); err == nil {
		t.Error("Expected error for unknown trigger")
	}
}

func TestResponses(t *testing.T) {
	r := DefaultResponses()
	if _, ok := r.Lookup(subject.Mercy, FlashHeal); !ok {
		t.Fatal("Expected flash heal enabled by default")
	}

	c := r.Clone()
	c.Disable(subject.Mercy, FlashHeal)
	if _, ok := r.Lookup(subject.Mercy, FlashHeal); !ok {
		t.Error("Clone must not share maps")
	}

	c.Set(subject.Mercy, FlashHeal, envelope.NewConstant(0.5, 1))
	env, _ := c.Lookup(subject.Mercy, FlashHeal)
	if env.Intensity != 0.5 {
		t.Errorf("Expected updated envelope, got %+v", env)
	}
}

func TestSupports(t *testing.T) {
	if !Supports(subject.Zenyatta, HarmonyOrb) || Supports(subject.Lucio, HarmonyOrb) {
		t.Error("Unexpected support table")
	}
}
