package env

import (
	"math/rand"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

// Discrete is the action space {0, ..., N-1}.
type Discrete struct {
	N int `json:"n"`
}

// Contains reports whether a is a member of the space.
func (d Discrete) Contains(a int) bool { return a >= 0 && a < d.N }

// Sample draws uniformly from the space.
func (d Discrete) Sample(rng *rand.Rand) int { return rng.Intn(d.N) }

// Box is a bounded integer tensor space.
type Box struct {
	Low   int   `json:"low"`
	High  int   `json:"high"`
	Shape []int `json:"shape"`
}

// Contains reports whether every cell of obs lies in [Low, High].
func (b Box) Contains(obs Observation) bool {
	for _, row := range obs {
		for _, v := range row {
			if v < b.Low || v > b.High {
				return false
			}
		}
	}
	return true
}

// ActionSpace is Discrete(9).
func ActionSpace() Discrete { return Discrete{N: core.NumActions} }

// ObservationSpace is Box(-1, 1, shape 3x3).
func ObservationSpace() Box {
	return Box{Low: int(core.PlayerTwo), High: int(core.PlayerOne), Shape: []int{core.Size, core.Size}}
}

// Metadata describes rendering capabilities.
type Metadata struct {
	RenderModes []RenderMode `json:"render_modes"`
	RenderFPS   int          `json:"render_fps"`
}
