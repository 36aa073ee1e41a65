package experience

import (
	"time"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

// Transition is one (s, a, r, s') sample taken from an environment step.
type Transition struct {
	ID        string
	EpisodeID string
	// Step is the 1-based index of the step within its episode.
	Step int
	// Player is the mark that chose Action.
	Player          int
	Observation     env.Observation
	Action          int
	Reward          float64
	NextObservation env.Observation
	Terminated      bool
	Truncated       bool
	// Accepted is false when Action targeted an occupied cell.
	Accepted bool
	// ActionMask holds the legal actions before the step.
	ActionMask  [core.NumActions]bool
	CollectedAt time.Time
}

// Done reports whether the episode ended with this transition.
func (t *Transition) Done() bool {
	return t.Terminated || t.Truncated
}
