package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_Decode(t *testing.T) {
	tests := []struct {
		action   Action
		expected Coordinate
	}{
		{0, Coordinate{0, 0}},
		{1, Coordinate{0, 1}},
		{4, Coordinate{1, 1}},
		{5, Coordinate{1, 2}},
		{7, Coordinate{2, 1}},
		{8, Coordinate{2, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.action.String(), func(t *testing.T) {
			c, err := tt.action.Decode()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
			assert.Equal(t, tt.action, ActionAt(c))
		})
	}
}

func TestAction_Validate_OutOfRange(t *testing.T) {
	for _, a := range []Action{-1, 9, 10, 100} {
		err := a.Validate()
		require.Error(t, err, "action %d", int(a))
		assert.ErrorIs(t, err, ErrInvalidAction)

		_, err = a.Decode()
		assert.ErrorIs(t, err, ErrInvalidAction)
	}
}

func TestAction_Validate_InRange(t *testing.T) {
	for a := Action(0); a < NumActions; a++ {
		assert.NoError(t, a.Validate())
	}
}
