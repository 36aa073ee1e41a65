package core

import "fmt"

// Action is a move encoded as a flat cell index in [0, NumCells).
type Action int

// NumActions is the size of the discrete action space.
const NumActions = NumCells

// ActionAt encodes a coordinate as an action.
func ActionAt(c Coordinate) Action {
	return Action(c.ToIndex())
}

// Validate checks that the action addresses a cell on the board.
func (a Action) Validate() error {
	if a < 0 || int(a) >= NumActions {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidAction, int(a), NumActions-1)
	}
	return nil
}

// Decode converts the action to a board coordinate: (action / 3, action % 3).
func (a Action) Decode() (Coordinate, error) {
	if err := a.Validate(); err != nil {
		return Coordinate{}, err
	}
	return FromIndex(int(a)), nil
}

func (a Action) String() string {
	c := FromIndex(int(a))
	return fmt.Sprintf("action %d %s", int(a), c)
}
