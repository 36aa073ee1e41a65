package env

import "errors"

// TimeLimit truncates episodes after a fixed number of steps.
type TimeLimit struct {
	Env
	maxSteps int
	elapsed  int
}

// NewTimeLimit wraps e so that Step reports Truncated once maxSteps steps have been taken
// in the current episode without termination.
func NewTimeLimit(e Env, maxSteps int) *TimeLimit {
	return &TimeLimit{Env: e, maxSteps: maxSteps}
}

// Reset restarts the step count.
func (t *TimeLimit) Reset(opts ResetOptions) (Observation, Info, error) {
	t.elapsed = 0
	return t.Env.Reset(opts)
}

// Step counts every call the wrapped env accepts, including moves to occupied cells
// and moves whose display update failed.
func (t *TimeLimit) Step(action int) (StepResult, error) {
	res, err := t.Env.Step(action)
	if err != nil && !errors.Is(err, ErrDisplay) {
		return res, err
	}
	t.elapsed++
	if t.elapsed >= t.maxSteps && !res.Terminated {
		res.Truncated = true
	}
	return res, err
}

// MaxEpisodeSteps is the configured cap.
func (t *TimeLimit) MaxEpisodeSteps() int { return t.maxSteps }

// ElapsedSteps is the number of steps in the current episode.
func (t *TimeLimit) ElapsedSteps() int { return t.elapsed }

// Unwrap returns the wrapped environment.
func (t *TimeLimit) Unwrap() Env { return t.Env }
