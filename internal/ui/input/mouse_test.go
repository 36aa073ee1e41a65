package input

import (
	"testing"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/core"
	"github.com/stretchr/testify/assert"
)

func TestCellAt(t *testing.T) {
	tests := []struct {
		name   string
		x, y   int
		action core.Action
		ok     bool
	}{
		{"top left", 10, 10, 0, true},
		{"top right", 899, 0, 2, true},
		{"center", 450, 450, 4, true},
		{"bottom middle", 450, 899, 7, true},
		{"on boundary", 300, 300, 4, true},
		{"right of board", 900, 10, 0, false},
		{"below board", 10, 900, 0, false},
		{"negative", -1, 10, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, ok := CellAt(tt.x, tt.y, 300)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.action, action)
			}
		})
	}
}

func TestCellAt_InvalidCellSize(t *testing.T) {
	_, ok := CellAt(10, 10, 0)
	assert.False(t, ok)
}
