package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAction = errors.New("invalid action")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrInvalidCell   = errors.New("invalid cell value")
	ErrInvalidPlayer = errors.New("invalid player")
)

// WrapActionError adds the acting player and target action to err.
// It returns nil when err is nil.
func WrapActionError(player Cell, action Action, err error) error {
	if err == nil {
		return nil
	}
	if !player.IsPlayer() {
		return fmt.Errorf("action %d: %w", int(action), err)
	}
	return fmt.Errorf("player %s: action %d: %w", player, int(action), err)
}

// WrapCellError adds the cell position to err.
func WrapCellError(c Coordinate, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("cell %s: %w", c, err)
}
