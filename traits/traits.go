// Package traits defines species behaviours and characteristics.
package traits

import (
	"fmt"
	"strings"
)

// Kind is the coarse behaviour variant a species is built from.
type Kind uint8

const (
	KindPlant  Kind = iota // Stationary, never starves, breeds into free neighbours
	KindAnimal             // Eats, moves, starves
)

func (k Kind) String() string {
	switch k {
	case KindPlant:
		return "plant"
	case KindAnimal:
		return "animal"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind converts a config string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plant":
		return KindPlant, nil
	case "animal", "":
		return KindAnimal, nil
	}
	return 0, fmt.Errorf("unknown species kind %q", s)
}

// Trait defines species behaviour.
type Trait uint32

const (
	// Activity traits. A species with neither is active around the clock.
	Diurnal   Trait = 1 << iota // Acts only during the day
	Nocturnal                   // Acts only at night

	// Feeding traits
	Hunter   // Diet contains animals
	FogBlind // Cannot find food in fog

	// Breeding traits
	Asexual // No mate required
	RainFed // Breeding boosted by rain

	// Disease traits
	Susceptible // Can catch and carry disease
)

var traitNames = []struct {
	t    Trait
	name string
}{
	{Diurnal, "diurnal"},
	{Nocturnal, "nocturnal"},
	{Hunter, "hunter"},
	{FogBlind, "fog_blind"},
	{Asexual, "asexual"},
	{RainFed, "rain_fed"},
	{Susceptible, "susceptible"},
}

// Has checks if a trait set contains a trait.
func (t Trait) Has(other Trait) bool {
	return t&other != 0
}

// Add adds a trait to the set.
func (t Trait) Add(other Trait) Trait {
	return t | other
}

// Remove removes a trait from the set.
func (t Trait) Remove(other Trait) Trait {
	return t &^ other
}

// ActiveByDay reports whether the species acts during the day.
func ActiveByDay(t Trait) bool {
	return !t.Has(Nocturnal) || t.Has(Diurnal)
}

// ActiveAtNight reports whether the species acts at night.
func ActiveAtNight(t Trait) bool {
	return !t.Has(Diurnal) || t.Has(Nocturnal)
}

// Parse builds a trait set from config names.
func Parse(names []string) (Trait, error) {
	var result Trait
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		found := false
		for _, tn := range traitNames {
			if tn.name == n {
				result = result.Add(tn.t)
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown trait %q", n)
		}
	}
	return result, nil
}

// Names returns the config names of every trait in the set.
func (t Trait) Names() []string {
	var names []string
	for _, tn := range traitNames {
		if t.Has(tn.t) {
			names = append(names, tn.name)
		}
	}
	return names
}

func (t Trait) String() string {
	if t == 0 {
		return "none"
	}
	return strings.Join(t.Names(), "|")
}
