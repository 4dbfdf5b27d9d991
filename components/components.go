// Package components defines ECS components for the simulation.
package components

import "fmt"

// Gender is fixed at birth.
type Gender uint8

const (
	Male Gender = iota
	Female
)

func (g Gender) String() string {
	if g == Female {
		return "female"
	}
	return "male"
}

// Opposite returns the other gender.
func (g Gender) Opposite() Gender {
	if g == Female {
		return Male
	}
	return Female
}

// DeathCause records why an organism left the Alive state.
type DeathCause uint8

const (
	CauseNone DeathCause = iota
	CauseOldAge
	CauseStarvation
	CauseOvercrowding
	CauseDisease
	CauseEaten
)

// NumCauses is the number of DeathCause values, including CauseNone.
const NumCauses = int(CauseEaten) + 1

func (c DeathCause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseOldAge:
		return "old_age"
	case CauseStarvation:
		return "starvation"
	case CauseOvercrowding:
		return "overcrowding"
	case CauseDisease:
		return "disease"
	case CauseEaten:
		return "eaten"
	}
	return fmt.Sprintf("cause(%d)", uint8(c))
}
