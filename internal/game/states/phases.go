package states

import "fmt"

// GamePhase represents the lifecycle phase of an episode
type GamePhase int

const (
	// PhaseActive - moves are being played
	PhaseActive GamePhase = iota

	// PhaseTerminal - a win or draw has been reached
	PhaseTerminal
)

// String returns the string representation of a GamePhase
func (p GamePhase) String() string {
	switch p {
	case PhaseActive:
		return "Active"
	case PhaseTerminal:
		return "Terminal"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// IsTerminal returns true if the phase ends the episode
func (p GamePhase) IsTerminal() bool {
	return p == PhaseTerminal
}

// AllowedTransitions returns the valid phases this phase can transition to.
// Terminal has none: only a reset leaves it.
func (p GamePhase) AllowedTransitions() []GamePhase {
	switch p {
	case PhaseActive:
		return []GamePhase{PhaseTerminal}
	default:
		return []GamePhase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p GamePhase) CanTransitionTo(target GamePhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// ParsePhase converts a string to a GamePhase
func ParsePhase(s string) (GamePhase, error) {
	switch s {
	case "Active":
		return PhaseActive, nil
	case "Terminal":
		return PhaseTerminal, nil
	default:
		return PhaseActive, fmt.Errorf("unknown phase %q", s)
	}
}
