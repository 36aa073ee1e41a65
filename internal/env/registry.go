package env

import (
	"fmt"
	"sort"
	"sync"
)

const (
	// DefaultID is the registered name of the 3x3 environment.
	DefaultID = "TicTacToe-3x3-v0"
	// DefaultMaxEpisodeSteps is the step cap applied by Make for DefaultID.
	DefaultMaxEpisodeSteps = 100
)

// EntryPoint constructs an environment.
type EntryPoint func(opts Options) (Env, error)

// Spec binds an ID to a constructor and an optional step cap.
type Spec struct {
	ID         string
	EntryPoint EntryPoint
	// MaxEpisodeSteps wraps made environments in TimeLimit when positive.
	MaxEpisodeSteps int
}

// Registry maps environment IDs to specs. The zero value is not usable; call NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

// NewRegistry returns an empty registry. Nothing is registered until RegisterDefaults or Register.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// Register adds spec. It fails with ErrAlreadyRegistered for a duplicate ID.
func (r *Registry) Register(spec Spec) error {
	if spec.ID == "" {
		return fmt.Errorf("%w: empty environment id", ErrConfiguration)
	}
	if spec.EntryPoint == nil {
		return fmt.Errorf("%w: %s has no entry point", ErrConfiguration, spec.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[spec.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, spec.ID)
	}
	r.specs[spec.ID] = spec
	return nil
}

// Spec returns the spec registered under id.
func (r *Registry) Spec(id string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[id]
	return s, ok
}

// IDs returns the registered IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.specs))
	for id := range r.specs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Make builds the environment registered under id, wrapped in TimeLimit when the spec has a cap.
func (r *Registry) Make(id string, opts Options) (Env, error) {
	spec, ok := r.Spec(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, id)
	}

	e, err := spec.EntryPoint(opts)
	if err != nil {
		return nil, fmt.Errorf("make %s: %w", id, err)
	}
	maxSteps := spec.MaxEpisodeSteps
	if opts.MaxEpisodeSteps > 0 {
		maxSteps = opts.MaxEpisodeSteps
	}
	if maxSteps > 0 {
		return NewTimeLimit(e, maxSteps), nil
	}
	return e, nil
}

// NewEnv is the EntryPoint for DefaultID.
func NewEnv(opts Options) (Env, error) {
	return New(opts)
}

// RegisterDefaults registers DefaultID with a 100 step cap.
func RegisterDefaults(r *Registry) error {
	return r.Register(Spec{
		ID:              DefaultID,
		EntryPoint:      NewEnv,
		MaxEpisodeSteps: DefaultMaxEpisodeSteps,
	})
}
