package components

// InfectionState is a forward-only chain: Healthy -> Incubating -> Immune.
// Death from disease leaves the state at Incubating.
type InfectionState uint8

const (
	Healthy InfectionState = iota
	Incubating
	Immune
)

func (s InfectionState) String() string {
	switch s {
	case Incubating:
		return "incubating"
	case Immune:
		return "immune"
	}
	return "healthy"
}

// Infection tracks disease progress.
type Infection struct {
	State    InfectionState
	Duration int // steps spent incubating
}

// Infect moves a healthy organism into incubation. Incubating and immune
// organisms are left untouched. Returns true if the state changed.
func (i *Infection) Infect() bool {
	if i.State != Healthy {
		return false
	}
	i.State = Incubating
	i.Duration = 0
	return true
}

// Cure moves an incubating organism to the absorbing immune state.
func (i *Infection) Cure() bool {
	if i.State != Incubating {
		return false
	}
	i.State = Immune
	return true
}
