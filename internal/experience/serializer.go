package experience

import (
	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
)

const (
	// Channel indices for tensor representation
	ChannelOwn      = 0
	ChannelOpponent = 1
	ChannelEmpty    = 2
	NumChannels     = 3
)

// Serializer converts observations to tensor representations
type Serializer struct{}

// NewSerializer creates a new observation serializer
func NewSerializer() *Serializer {
	return &Serializer{}
}

// ObservationToTensor encodes obs from player's perspective as a
// [channel][row][col] float32 tensor. Cells holding player's mark go to
// ChannelOwn, the opponent's to ChannelOpponent.
func (s *Serializer) ObservationToTensor(obs env.Observation, player int) []float32 {
	tensor := make([]float32, NumChannels*core.NumCells)

	for row := 0; row < core.Size; row++ {
		for col := 0; col < core.Size; col++ {
			v := obs[row][col]
			var ch int
			switch {
			case v == 0:
				ch = ChannelEmpty
			case v == player:
				ch = ChannelOwn
			default:
				ch = ChannelOpponent
			}
			tensor[s.channelIndex(ch, row, col)] = 1.0
		}
	}
	return tensor
}

// TransitionTensors returns the state and next-state tensors of t, both seen
// by the player who acted.
func (s *Serializer) TransitionTensors(t *Transition) (state, next []float32) {
	return s.ObservationToTensor(t.Observation, t.Player),
		s.ObservationToTensor(t.NextObservation, t.Player)
}

// ActionMaskToFloats converts a legality mask to 0/1 floats.
func (s *Serializer) ActionMaskToFloats(mask [core.NumActions]bool) []float32 {
	out := make([]float32, core.NumActions)
	for i, legal := range mask {
		if legal {
			out[i] = 1
		}
	}
	return out
}

// ValidateAction checks if an action index addresses a cell
func (s *Serializer) ValidateAction(index int) bool {
	return core.Action(index).Validate() == nil
}

// GetTensorShape returns the shape of the tensor representation
func (s *Serializer) GetTensorShape() []int32 {
	return []int32{NumChannels, core.Size, core.Size}
}

// channelIndex calculates the index in the flattened tensor for a specific channel and position
func (s *Serializer) channelIndex(channel, row, col int) int {
	return channel*core.NumCells + row*core.Size + col
}
