package subscribers_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/events"
	"github.com/mitchelldurbincs/TicTacToeRL/internal/game/events/subscribers"
)

func TestLoggerSubscriber(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Timestamp().Logger()

	logSub := subscribers.NewLoggerSubscriber("test-logger", logger, zerolog.InfoLevel)

	assert.Equal(t, "test-logger", logSub.ID())

	// Interested in all events by default
	assert.True(t, logSub.InterestedIn(events.TypeEpisodeStarted))
	assert.True(t, logSub.InterestedIn(events.TypeMoveApplied))
	assert.True(t, logSub.InterestedIn("any.event.type"))
}

func TestLoggerSubscriberEventLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("event-logger", logger, zerolog.InfoLevel)

	testCases := []struct {
		name  string
		event events.Event
		check func(t *testing.T, logLine map[string]interface{})
	}{
		{
			name:  "EpisodeStartedEvent",
			event: events.NewEpisodeStartedEvent("test-game-1", 3, 1),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(3), logLine["episode"])
				assert.Equal(t, float64(1), logLine["first_player"])
			},
		},
		{
			name:  "MoveAppliedEvent",
			event: events.NewMoveAppliedEvent("test-game-1", 1, 2, -1, 5, 1, 2),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(2), logLine["step"])
				assert.Equal(t, float64(-1), logLine["player"])
				assert.Equal(t, float64(5), logLine["action"])
				assert.Equal(t, float64(1), logLine["row"])
				assert.Equal(t, float64(2), logLine["col"])
			},
		},
		{
			name:  "MoveRejectedEvent",
			event: events.NewMoveRejectedEvent("test-game-1", 1, 3, 1, 4, "cell is already occupied"),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(4), logLine["action"])
				assert.Equal(t, "cell is already occupied", logLine["reason"])
			},
		},
		{
			name:  "EpisodeEndedEvent",
			event: events.NewEpisodeEndedEvent("test-game-1", 1, 5, "win", 1, 5, 5*time.Minute),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "win", logLine["outcome"])
				assert.Equal(t, float64(1), logLine["winner"])
				assert.Equal(t, float64(5), logLine["moves"])
				assert.Equal(t, float64(300000), logLine["duration"]) // 5 minutes in ms
			},
		},
		{
			name:  "StateTransitionEvent",
			event: events.NewStateTransitionEvent("test-game-1", "Active", "Terminal", "win"),
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "Active", logLine["from_phase"])
				assert.Equal(t, "Terminal", logLine["to_phase"])
				assert.Equal(t, "win", logLine["reason"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			logSub.HandleEvent(tc.event)

			logOutput := buf.String()
			require.NotEmpty(t, logOutput, "Log output should not be empty")

			var logLine map[string]interface{}
			err := json.Unmarshal([]byte(logOutput), &logLine)
			require.NoError(t, err, "Should be able to parse log output as JSON")

			assert.Equal(t, "info", logLine["level"])
			assert.Equal(t, "Game event", logLine["message"])
			assert.Equal(t, tc.event.Type(), logLine["event_type"])
			assert.Equal(t, "test-game-1", logLine["game_id"])

			tc.check(t, logLine)
		})
	}
}

func TestLoggerSubscriberWithFilter(t *testing.T) {
	logSub := subscribers.NewLoggerSubscriber("filtered-logger", zerolog.Nop(), zerolog.InfoLevel)
	logSub.SetEventFilter([]string{events.TypeEpisodeStarted, events.TypeEpisodeEnded})

	assert.True(t, logSub.InterestedIn(events.TypeEpisodeStarted))
	assert.True(t, logSub.InterestedIn(events.TypeEpisodeEnded))
	assert.False(t, logSub.InterestedIn(events.TypeMoveApplied))
	assert.False(t, logSub.InterestedIn(events.TypeStateTransition))

	logSub.SetEventFilter(nil)
	assert.True(t, logSub.InterestedIn(events.TypeMoveApplied))
}

func TestLoggerSubscriberThroughBus(t *testing.T) {
	var buf bytes.Buffer
	logSub := subscribers.NewLoggerSubscriber("bus-logger", zerolog.New(&buf), zerolog.InfoLevel)
	logSub.SetEventFilter([]string{events.TypeEpisodeEnded})

	bus := events.NewEventBus(zerolog.Nop())
	bus.Subscribe(logSub)

	bus.Publish(events.NewMoveAppliedEvent("g", 1, 1, 1, 0, 0, 0))
	assert.Empty(t, buf.String(), "filtered events must not be logged")

	bus.Publish(events.NewEpisodeEndedEvent("g", 1, 9, "draw", 0, 9, time.Second))
	assert.Contains(t, buf.String(), `"outcome":"draw"`)
}

func TestLoggerSubscriberLogLevels(t *testing.T) {
	testCases := []struct {
		name     string
		logLevel zerolog.Level
		expected string
	}{
		{"Debug", zerolog.DebugLevel, "debug"},
		{"Info", zerolog.InfoLevel, "info"},
		{"Warn", zerolog.WarnLevel, "warn"},
		{"Error", zerolog.ErrorLevel, "error"},
		{"Unsupported falls back to info", zerolog.TraceLevel, "info"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Level(zerolog.TraceLevel)

			logSub := subscribers.NewLoggerSubscriber("level-logger", logger, tc.logLevel)
			logSub.HandleEvent(events.NewEpisodeStartedEvent("game1", 1, 1))

			var logLine map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))
			assert.Equal(t, tc.expected, logLine["level"])
		})
	}
}

func TestLoggerSubscriberDevelopmentMode(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("dev-logger", logger, zerolog.InfoLevel)
	logSub.SetDevMode(true)

	logSub.HandleEvent(events.NewMoveAppliedEvent("dev-game", 1, 1, 1, 4, 1, 1))

	var logLine map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))

	eventData, ok := logLine["event_data"].(map[string]interface{})
	require.True(t, ok, "event_data should be present as an object")
	assert.Equal(t, "move.applied", eventData["type"])
	assert.Equal(t, float64(4), eventData["action"])
}
