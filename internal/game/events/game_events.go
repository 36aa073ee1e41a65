package events

import (
	"time"
)

// Event type constants
const (
	TypeEpisodeStarted  = "episode.started"
	TypeEpisodeEnded    = "episode.ended"
	TypeMoveApplied     = "move.applied"
	TypeMoveRejected    = "move.rejected"
	TypeStateTransition = "state.transition"
)

// EpisodeStartedEvent is published when the board is reset for a new episode
type EpisodeStartedEvent struct {
	BaseEvent
	Metadata    EventMetadata `json:"metadata"`
	FirstPlayer int           `json:"first_player"`
}

// NewEpisodeStartedEvent creates a new EpisodeStartedEvent
func NewEpisodeStartedEvent(gameID string, episode, firstPlayer int) *EpisodeStartedEvent {
	return &EpisodeStartedEvent{
		BaseEvent:   newBase(TypeEpisodeStarted, gameID),
		Metadata:    EventMetadata{Episode: episode},
		FirstPlayer: firstPlayer,
	}
}

// MoveAppliedEvent is published after a mark is written to an empty cell
type MoveAppliedEvent struct {
	BaseEvent
	Metadata EventMetadata `json:"metadata"`
	Action   int           `json:"action"`
	Row      int           `json:"row"`
	Col      int           `json:"col"`
}

// NewMoveAppliedEvent creates a new MoveAppliedEvent
func NewMoveAppliedEvent(gameID string, episode, step, player, action, row, col int) *MoveAppliedEvent {
	return &MoveAppliedEvent{
		BaseEvent: newBase(TypeMoveApplied, gameID),
		Metadata:  EventMetadata{Episode: episode, Step: step, Player: player},
		Action:    action,
		Row:       row,
		Col:       col,
	}
}

// MoveRejectedEvent is published when a move targets an occupied cell and leaves the board unchanged
type MoveRejectedEvent struct {
	BaseEvent
	Metadata EventMetadata `json:"metadata"`
	Action   int           `json:"action"`
	Reason   string        `json:"reason"`
}

// NewMoveRejectedEvent creates a new MoveRejectedEvent
func NewMoveRejectedEvent(gameID string, episode, step, player, action int, reason string) *MoveRejectedEvent {
	return &MoveRejectedEvent{
		BaseEvent: newBase(TypeMoveRejected, gameID),
		Metadata:  EventMetadata{Episode: episode, Step: step, Player: player},
		Action:    action,
		Reason:    reason,
	}
}

// EpisodeEndedEvent is published once when an episode reaches a win or a draw
type EpisodeEndedEvent struct {
	BaseEvent
	Metadata EventMetadata `json:"metadata"`
	Outcome  string        `json:"outcome"`
	// Winner is the winning cell value, 0 on a draw
	Winner   int           `json:"winner"`
	Moves    int           `json:"moves"`
	Duration time.Duration `json:"duration"`
}

// NewEpisodeEndedEvent creates a new EpisodeEndedEvent
func NewEpisodeEndedEvent(gameID string, episode, step int, outcome string, winner, moves int, duration time.Duration) *EpisodeEndedEvent {
	return &EpisodeEndedEvent{
		BaseEvent: newBase(TypeEpisodeEnded, gameID),
		Metadata:  EventMetadata{Episode: episode, Step: step, Player: winner},
		Outcome:   outcome,
		Winner:    winner,
		Moves:     moves,
		Duration:  duration,
	}
}

// StateTransitionEvent is published when the episode state machine transitions between phases
type StateTransitionEvent struct {
	BaseEvent
	FromPhase string `json:"from_phase"`
	ToPhase   string `json:"to_phase"`
	Reason    string `json:"reason"`
}

// NewStateTransitionEvent creates a new StateTransitionEvent
func NewStateTransitionEvent(gameID, fromPhase, toPhase, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: newBase(TypeStateTransition, gameID),
		FromPhase: fromPhase,
		ToPhase:   toPhase,
		Reason:    reason,
	}
}
