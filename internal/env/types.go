package env

import (
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/ui/renderer"
)

// Observation is a board snapshot. It is an array, so every returned value is an independent copy.
type Observation [core.Size][core.Size]int

// Flatten returns the cells in row-major order.
func (o Observation) Flatten() []int {
	out := make([]int, 0, core.NumCells)
	for _, row := range o {
		out = append(out, row[:]...)
	}
	return out
}

// Info is the auxiliary data returned with every observation.
type Info struct {
	// Player is the player to move next.
	Player       int                   `json:"player"`
	MoveAccepted bool                  `json:"move_accepted"`
	Winner       int                   `json:"winner"`
	ActionMask   [core.NumActions]bool `json:"action_mask"`
	EpisodeStep  int                   `json:"episode_step"`
}

// StepResult is the outcome of one Step.
type StepResult struct {
	Observation Observation `json:"observation"`
	// Reward is 1 when the step leaves a completed line on the board, 0 otherwise.
	Reward     float64 `json:"reward"`
	Terminated bool    `json:"terminated"`
	// Truncated is only set by TimeLimit.
	Truncated bool `json:"truncated"`
	Info      Info `json:"info"`
}

// ResetOptions are the optional arguments of Reset.
type ResetOptions struct {
	// Seed reseeds the random source behind SampleAction.
	Seed *int64
	// Options is accepted for interface compatibility and ignored.
	Options map[string]any
}

// Seed is a convenience for building ResetOptions.
func Seed(s int64) ResetOptions { return ResetOptions{Seed: &s} }

// Env is the episodic environment interface.
type Env interface {
	Reset(opts ResetOptions) (Observation, Info, error)
	Step(action int) (StepResult, error)
	// Render returns a frame in rgb_array mode and nil otherwise.
	Render() (*renderer.Frame, error)
	Close() error

	ActionSpace() Discrete
	ObservationSpace() Box
	SampleAction() int
	Metadata() Metadata
	RenderMode() RenderMode
}

// BoardRenderer draws a board snapshot. renderer.PixelRenderer implements it.
type BoardRenderer interface {
	RenderFrame(board core.Board) *renderer.Frame
}

// Display shows frames to a person. ui.WindowDisplay implements it.
type Display interface {
	Show(frame *renderer.Frame) error
	Close() error
}

type statusSetter interface {
	SetStatus(string)
}
