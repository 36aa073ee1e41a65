package states

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/events"
	"github.com/rs/zerolog"
)

// ReasonReset is the history reason recorded when Reset reinitialises the machine.
const ReasonReset = "reset"

const defaultMaxHistorySize = 1000

var ErrInvalidTransition = errors.New("invalid phase transition")

// Transition represents a state transition in the history
type Transition struct {
	From      GamePhase
	To        GamePhase
	Timestamp time.Time
	Reason    string
}

// StateMachine tracks the episode phase and its transition history
type StateMachine struct {
	mu             sync.RWMutex
	gameID         string
	currentPhase   GamePhase
	history        []Transition
	maxHistorySize int
	publisher      events.Publisher
	logger         zerolog.Logger
}

// NewStateMachine creates a state machine in PhaseActive. publisher may be nil.
func NewStateMachine(gameID string, publisher events.Publisher, logger zerolog.Logger) *StateMachine {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &StateMachine{
		gameID:         gameID,
		currentPhase:   PhaseActive,
		history:        make([]Transition, 0, 16),
		maxHistorySize: defaultMaxHistorySize,
		publisher:      publisher,
		logger:         logger.With().Str("component", "StateMachine").Str("game_id", gameID).Logger(),
	}
}

// CurrentPhase returns the current phase
func (sm *StateMachine) CurrentPhase() GamePhase {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.currentPhase
}

// TransitionTo attempts to transition to the specified phase
func (sm *StateMachine) TransitionTo(targetPhase GamePhase, reason string) error {
	sm.mu.Lock()
	from := sm.currentPhase
	if !from.CanTransitionTo(targetPhase) {
		sm.mu.Unlock()
		return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, from, targetPhase)
	}
	sm.record(from, targetPhase, reason)
	sm.mu.Unlock()

	sm.announce(from, targetPhase, reason)
	return nil
}

// Reset forces the machine back to PhaseActive from any phase and records the
// reinitialisation in the history with ReasonReset.
func (sm *StateMachine) Reset() {
	sm.mu.Lock()
	from := sm.currentPhase
	sm.record(from, PhaseActive, ReasonReset)
	sm.mu.Unlock()

	sm.announce(from, PhaseActive, ReasonReset)
}

// record must be called with mu held.
func (sm *StateMachine) record(from, to GamePhase, reason string) {
	sm.currentPhase = to
	sm.history = append(sm.history, Transition{
		From:      from,
		To:        to,
		Timestamp: time.Now(),
		Reason:    reason,
	})
	if len(sm.history) > sm.maxHistorySize {
		sm.history = sm.history[len(sm.history)-sm.maxHistorySize:]
	}
}

func (sm *StateMachine) announce(from, to GamePhase, reason string) {
	sm.publisher.Publish(events.NewStateTransitionEvent(sm.gameID, from.String(), to.String(), reason))

	sm.logger.Debug().
		Str("from_phase", from.String()).
		Str("to_phase", to.String()).
		Str("reason", reason).
		Msg("State transition completed")
}

// GetHistory returns a copy of the transition history
func (sm *StateMachine) GetHistory() []Transition {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	history := make([]Transition, len(sm.history))
	copy(history, sm.history)
	return history
}

// CanTransitionTo checks if a transition to the target phase is allowed
func (sm *StateMachine) CanTransitionTo(targetPhase GamePhase) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.currentPhase.CanTransitionTo(targetPhase)
}

// SetMaxHistorySize changes the history bound and trims existing entries.
func (sm *StateMachine) SetMaxHistorySize(n int) {
	if n < 1 {
		n = 1
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.maxHistorySize = n
	if len(sm.history) > n {
		sm.history = sm.history[len(sm.history)-n:]
	}
}
