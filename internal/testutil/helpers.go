package testutil

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/env"
)

// NewTestRNG creates a deterministic random number generator for tests
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger returns a no-op logger for tests
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// BufferLogger returns a JSON logger writing to the returned buffer.
func BufferLogger() (zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return zerolog.New(&buf), &buf
}

// AssertPanic asserts that the given function panics
func AssertPanic(t *testing.T, f func(), msgAndArgs ...interface{}) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic but none occurred: %v", msgAndArgs)
		}
	}()
	f()
}

// NewEnv builds a headless environment and resets it.
func NewEnv(t *testing.T) *env.Environment {
	t.Helper()
	e, err := env.New(env.Options{Logger: NopLogger()})
	require.NoError(t, err)
	_, _, err = e.Reset(env.ResetOptions{})
	require.NoError(t, err)
	return e
}

// PlayActions steps e through actions and returns the last result.
func PlayActions(t *testing.T, e env.Env, actions ...int) env.StepResult {
	t.Helper()
	var res env.StepResult
	for _, a := range actions {
		var err error
		res, err = e.Step(a)
		require.NoError(t, err, "action %d", a)
	}
	return res
}
