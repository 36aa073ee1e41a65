package env

import "errors"

var (
	// ErrConfiguration is returned for an unsupported render mode or an incomplete rendering setup.
	ErrConfiguration = errors.New("configuration error")
	// ErrDisplay wraps a human-mode display failure. The step or reset it
	// accompanies has already been applied.
	ErrDisplay           = errors.New("display error")
	ErrAlreadyRegistered = errors.New("environment already registered")
	ErrNotRegistered     = errors.New("environment not registered")
)
